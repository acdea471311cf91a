package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnbatchedBatch lote centinela para stock sin número de lote.
const UnbatchedBatch = "unbatched"

// NormalizeBatch devuelve el lote recortado o el centinela "unbatched" si viene vacío.
func NormalizeBatch(batch string) string {
	b := strings.TrimSpace(batch)
	if b == "" {
		return UnbatchedBatch
	}
	return b
}

// LevelKey identifica un nivel de stock: producto + bodega + lote.
type LevelKey struct {
	ProductID   string
	WarehouseID string
	BatchNumber string
}

// NewLevelKey construye la llave normalizando el lote.
func NewLevelKey(productID, warehouseID, batch string) LevelKey {
	return LevelKey{ProductID: productID, WarehouseID: warehouseID, BatchNumber: NormalizeBatch(batch)}
}

func (k LevelKey) String() string {
	return k.ProductID + "|" + k.WarehouseID + "|" + k.BatchNumber
}

// Less orden total entre llaves; los bloqueos multi-llave se toman en este orden.
func (k LevelKey) Less(o LevelKey) bool {
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	if k.WarehouseID != o.WarehouseID {
		return k.WarehouseID < o.WarehouseID
	}
	return k.BatchNumber < o.BatchNumber
}

// StockLevel agregado derivado de los movimientos de una llave.
// La cantidad disponible nunca se almacena: se calcula con AvailableQuantity.
type StockLevel struct {
	LevelKey
	CurrentQuantity  decimal.Decimal
	ReservedQuantity decimal.Decimal
	UpdatedAt        time.Time
}

// NewStockLevel nivel en cero para una llave sin movimientos.
func NewStockLevel(key LevelKey) *StockLevel {
	return &StockLevel{LevelKey: key, CurrentQuantity: decimal.Zero, ReservedQuantity: decimal.Zero}
}

// AvailableQuantity = actual - reservado.
func (s StockLevel) AvailableQuantity() decimal.Decimal {
	return s.CurrentQuantity.Sub(s.ReservedQuantity)
}
