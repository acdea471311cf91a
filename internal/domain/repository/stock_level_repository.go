package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LevelFilter filtros para listar niveles. Campos vacíos no filtran.
type LevelFilter struct {
	ProductID   string
	WarehouseID string
	BatchNumber string
}

// Matches evalúa el filtro en memoria.
func (f LevelFilter) Matches(k entity.LevelKey) bool {
	if f.ProductID != "" && k.ProductID != f.ProductID {
		return false
	}
	if f.WarehouseID != "" && k.WarehouseID != f.WarehouseID {
		return false
	}
	if f.BatchNumber != "" && k.BatchNumber != entity.NormalizeBatch(f.BatchNumber) {
		return false
	}
	return true
}

// StockLevelRepository puerto para niveles de stock por producto + bodega + lote.
// Las escrituras solo ocurren dentro de una transacción del ledger.
type StockLevelRepository interface {
	// Get devuelve el nivel (en cero si la llave no tiene movimientos).
	Get(ctx context.Context, key entity.LevelKey) (*entity.StockLevel, error)
	// GetForUpdate bloquea la llave hasta el fin de la transacción y devuelve el último estado confirmado.
	GetForUpdate(ctx context.Context, key entity.LevelKey) (*entity.StockLevel, error)
	Upsert(ctx context.Context, level *entity.StockLevel) error
	List(ctx context.Context, filter LevelFilter) ([]*entity.StockLevel, error)
}
