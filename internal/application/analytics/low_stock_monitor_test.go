package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/analytics"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestEvaluate_SeveridadesYOrden(t *testing.T) {
	// Umbral 10: critical <= 3, low <= 10.
	f := newFixture(t, notified("P1", 10), notified("P2", 10))
	f.in(t, "P1", "W1", 10, nil) // low (10 <= 10)
	f.in(t, "P1", "W2", 3, nil)  // critical (3 <= 3)
	f.in(t, "P2", "W1", 11, nil) // sin alerta
	f.in(t, "P2", "W2", 5, nil)
	f.out(t, "P2", "W2", 5) // out_of_stock (0)

	alerts, err := f.monitor.Evaluate(context.Background(), analytics.AlertFilter{})
	require.NoError(t, err)
	require.Len(t, alerts, 3)

	assert.Equal(t, entity.SeverityOutOfStock, alerts[0].Severity)
	assert.Equal(t, "P2", alerts[0].ProductID)
	assert.Equal(t, "W2", alerts[0].WarehouseID)
	assert.Equal(t, entity.SeverityCritical, alerts[1].Severity)
	assert.Equal(t, "BOD-2", alerts[1].WarehouseCode)
	assert.Equal(t, entity.SeverityLow, alerts[2].Severity)
	assert.True(t, alerts[2].AvailableQuantity.Equal(dec(10)))

	sum := analytics.Summarize(alerts)
	assert.Equal(t, analytics.AlertSummary{CriticalItems: 2, OutOfStock: 1, Total: 3}, sum)
}

func TestEvaluate_SinMovimientosEsAgotado(t *testing.T) {
	f := newFixture(t, notified("P1", 5))
	alerts, err := f.monitor.Evaluate(context.Background(), analytics.AlertFilter{WarehouseID: "W1"})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, entity.SeverityOutOfStock, alerts[0].Severity)
	assert.True(t, alerts[0].AvailableQuantity.IsZero())
}

func TestEvaluate_UsaDisponibleNoActual(t *testing.T) {
	f := newFixture(t, notified("P1", 10))
	f.in(t, "P1", "W1", 20, nil)
	_, err := f.reservations.Reserve(context.Background(), inventory.ReserveCommand{
		ProductID: "P1", WarehouseID: "W1", Quantity: dec(15),
	})
	require.NoError(t, err)

	alerts, err := f.monitor.Evaluate(context.Background(), analytics.AlertFilter{ProductID: "P1", WarehouseID: "W1"})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, entity.SeverityLow, alerts[0].Severity)
	assert.True(t, alerts[0].AvailableQuantity.Equal(dec(5)))
}

func TestEvaluate_SinNotificacionOUmbralNoPositivo(t *testing.T) {
	zero := dec(0)
	f := newFixture(t,
		entity.Product{ID: "P1", StockNotification: false, StockNotificationThreshold: decp("10")},
		entity.Product{ID: "P2", StockNotification: true, StockNotificationThreshold: &zero},
		entity.Product{ID: "P3", StockNotification: true},
	)
	alerts, err := f.monitor.Evaluate(context.Background(), analytics.AlertFilter{})
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestEvaluate_FiltroInexistente(t *testing.T) {
	f := newFixture(t, notified("P1", 5))
	_, err := f.monitor.Evaluate(context.Background(), analytics.AlertFilter{ProductID: "P9"})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, domain.FieldsOf(err), "product_id")
}

type capturePublisher struct{ got []analytics.AlertSnapshot }

func (c *capturePublisher) Publish(_ context.Context, s analytics.AlertSnapshot) error {
	c.got = append(c.got, s)
	return nil
}

func TestEvaluateAndPublish_EntregaInstantanea(t *testing.T) {
	f := newFixture(t, notified("P1", 5))
	pub := &capturePublisher{}
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	snap, err := f.monitor.EvaluateAndPublish(context.Background(), pub, now)
	require.NoError(t, err)
	require.Len(t, pub.got, 1)
	assert.Equal(t, now, snap.EvaluatedAt)
	assert.Equal(t, 2, snap.Summary.Total)
	assert.Equal(t, 2, snap.Summary.OutOfStock)
	assert.Len(t, pub.got[0].Alerts, 2)
}
