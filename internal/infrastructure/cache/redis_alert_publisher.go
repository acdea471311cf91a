// Package cache publica las evaluaciones de stock bajo en Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/analytics"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var _ analytics.AlertPublisher = (*RedisAlertPublisher)(nil)

// LastSnapshotKey llave con la última evaluación completa (JSON).
const LastSnapshotKey = "stock-ledger:low-stock:last"

// snapshotTTL vigencia de la instantánea: si el job deja de correr, los consumidores no leen datos viejos para siempre.
const snapshotTTL = 24 * time.Hour

// RedisAlertPublisher guarda la instantánea en LastSnapshotKey y publica un resumen en el canal.
type RedisAlertPublisher struct {
	rdb     *redis.Client
	channel string
	log     *logger.Logger
}

// NewRedisClient crea el cliente con la configuración de la app.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisAlertPublisher construye el publicador.
func NewRedisAlertPublisher(rdb *redis.Client, channel string, log *logger.Logger) *RedisAlertPublisher {
	return &RedisAlertPublisher{rdb: rdb, channel: channel, log: log.Component("redis_alerts")}
}

type alertPayload struct {
	ProductID         string `json:"product_id"`
	SKU               string `json:"sku,omitempty"`
	ProductName       string `json:"product_name,omitempty"`
	WarehouseID       string `json:"warehouse_id"`
	WarehouseCode     string `json:"warehouse_code,omitempty"`
	AvailableQuantity string `json:"available_quantity"`
	Threshold         string `json:"threshold"`
	Severity          string `json:"severity"`
}

type snapshotPayload struct {
	EvaluatedAt   time.Time      `json:"evaluated_at"`
	Total         int            `json:"total_low_stock_items"`
	CriticalItems int            `json:"critical_items"`
	OutOfStock    int            `json:"out_of_stock_items"`
	Alerts        []alertPayload `json:"alerts,omitempty"`
}

// encodeSnapshot JSON de la instantánea; con withAlerts=false solo los contadores (mensaje del canal).
func encodeSnapshot(s analytics.AlertSnapshot, withAlerts bool) ([]byte, error) {
	p := snapshotPayload{
		EvaluatedAt:   s.EvaluatedAt.UTC(),
		Total:         s.Summary.Total,
		CriticalItems: s.Summary.CriticalItems,
		OutOfStock:    s.Summary.OutOfStock,
	}
	if withAlerts {
		p.Alerts = make([]alertPayload, 0, len(s.Alerts))
		for _, a := range s.Alerts {
			p.Alerts = append(p.Alerts, alertPayload{
				ProductID:         a.ProductID,
				SKU:               a.SKU,
				ProductName:       a.ProductName,
				WarehouseID:       a.WarehouseID,
				WarehouseCode:     a.WarehouseCode,
				AvailableQuantity: a.AvailableQuantity.String(),
				Threshold:         a.Threshold.String(),
				Severity:          string(a.Severity),
			})
		}
	}
	return json.Marshal(p)
}

// Publish guarda la instantánea y notifica el resumen en una sola ida a Redis (pipeline).
func (p *RedisAlertPublisher) Publish(ctx context.Context, s analytics.AlertSnapshot) error {
	full, err := encodeSnapshot(s, true)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	summary, err := encodeSnapshot(s, false)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	_, err = p.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, LastSnapshotKey, full, snapshotTTL)
		if p.channel != "" {
			pipe.Publish(ctx, p.channel, summary)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis publish alerts: %w", err)
	}
	p.log.Info().Int("total", s.Summary.Total).Int("critical_items", s.Summary.CriticalItems).
		Str("channel", p.channel).Msg("alertas publicadas")
	return nil
}

// LastSnapshot devuelve el JSON de la última evaluación o nil si no existe.
func (p *RedisAlertPublisher) LastSnapshot(ctx context.Context) ([]byte, error) {
	raw, err := p.rdb.Get(ctx, LastSnapshotKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}
	return raw, nil
}
