package repository

import (
	"context"
	"iter"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementFilter filtros para el historial de movimientos. Campos vacíos no filtran.
type MovementFilter struct {
	ProductID     string
	WarehouseID   string // coincide con bodega origen o destino
	Type          entity.MovementType
	BatchNumber   string
	From          *time.Time
	To            *time.Time
	ReferenceType string
	ReferenceID   string
	Descending    bool // por defecto ascendente por orden de confirmación
	PageSize      int  // tamaño de página interno para lecturas perezosas
}

// Matches evalúa el filtro en memoria sobre un movimiento.
func (f MovementFilter) Matches(m *entity.StockMovement) bool {
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.WarehouseID != "" && m.WarehouseID != f.WarehouseID && m.DestinationWarehouseID != f.WarehouseID {
		return false
	}
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.BatchNumber != "" && m.BatchNumber != entity.NormalizeBatch(f.BatchNumber) {
		return false
	}
	if f.From != nil && m.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && m.CreatedAt.After(*f.To) {
		return false
	}
	if f.ReferenceType != "" && m.ReferenceType != f.ReferenceType {
		return false
	}
	if f.ReferenceID != "" && m.ReferenceID != f.ReferenceID {
		return false
	}
	return true
}

// StockMovementRepository puerto de persistencia del ledger (append-only: no hay Update ni Delete).
type StockMovementRepository interface {
	// Create confirma un movimiento; asigna Seq y CreatedAt.
	Create(ctx context.Context, movement *entity.StockMovement) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	// ExistsByReference indica si existe algún movimiento con esa referencia de procedencia.
	ExistsByReference(ctx context.Context, referenceType, referenceID string) (bool, error)
	// List devuelve una secuencia perezosa y finita. Cada recorrido vuelve a leer desde el inicio del filtro.
	List(ctx context.Context, filter MovementFilter) iter.Seq2[*entity.StockMovement, error]
}
