package analytics

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// AlertSnapshot resultado de una evaluación programada.
type AlertSnapshot struct {
	EvaluatedAt time.Time
	Alerts      []entity.LowStockAlert
	Summary     AlertSummary
}

// AlertPublisher destino de las evaluaciones programadas (log, caché, pub/sub).
type AlertPublisher interface {
	Publish(ctx context.Context, snapshot AlertSnapshot) error
}

// LogAlertPublisher publica el resumen en el log. Se usa cuando no hay Redis configurado.
type LogAlertPublisher struct {
	log *logger.Logger
}

// NewLogAlertPublisher construye el publicador de log.
func NewLogAlertPublisher(log *logger.Logger) *LogAlertPublisher {
	return &LogAlertPublisher{log: log.Component("low_stock_alerts")}
}

// Publish registra los contadores y, en debug, cada alerta.
func (p *LogAlertPublisher) Publish(_ context.Context, s AlertSnapshot) error {
	p.log.Info().
		Int("total", s.Summary.Total).
		Int("critical_items", s.Summary.CriticalItems).
		Int("out_of_stock", s.Summary.OutOfStock).
		Msg("evaluación de stock bajo")
	for _, a := range s.Alerts {
		p.log.Debug().
			Str("product_id", a.ProductID).
			Str("warehouse_id", a.WarehouseID).
			Str("available", a.AvailableQuantity.String()).
			Str("severity", string(a.Severity)).
			Msg("alerta de stock")
	}
	return nil
}

// EvaluateAndPublish evalúa todo el catálogo y entrega el resultado al publicador.
func (m *LowStockMonitor) EvaluateAndPublish(ctx context.Context, pub AlertPublisher, now time.Time) (AlertSnapshot, error) {
	alerts, err := m.Evaluate(ctx, AlertFilter{})
	if err != nil {
		return AlertSnapshot{}, err
	}
	snap := AlertSnapshot{EvaluatedAt: now, Alerts: alerts, Summary: Summarize(alerts)}
	if err := pub.Publish(ctx, snap); err != nil {
		return snap, err
	}
	return snap, nil
}
