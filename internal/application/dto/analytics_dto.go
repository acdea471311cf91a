package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LowStockAlertDTO alerta de stock bajo.
type LowStockAlertDTO struct {
	ProductID         string          `json:"product_id"`
	SKU               string          `json:"sku,omitempty"`
	ProductName       string          `json:"product_name,omitempty"`
	WarehouseID       string          `json:"warehouse_id"`
	WarehouseCode     string          `json:"warehouse_code,omitempty"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	Threshold         decimal.Decimal `json:"threshold"`
	Severity          string          `json:"severity"`
}

// LowStockMeta contadores. critical_items incluye out_of_stock.
type LowStockMeta struct {
	CriticalItems      int `json:"critical_items"`
	OutOfStockItems    int `json:"out_of_stock_items"`
	TotalLowStockItems int `json:"total_low_stock_items"`
}

// LowStockResponse respuesta de GET /api/inventory/low-stock.
type LowStockResponse struct {
	Data []LowStockAlertDTO `json:"data"`
	Meta LowStockMeta       `json:"meta"`
}

// WeightedAverageCostResponse costo promedio (null si ninguna entrada tuvo costo).
type WeightedAverageCostResponse struct {
	ProductID           string           `json:"product_id"`
	WarehouseID         string           `json:"warehouse_id,omitempty"`
	WeightedAverageCost *decimal.Decimal `json:"weighted_average_cost"`
}

// ValuationLineDTO valor por producto y bodega.
type ValuationLineDTO struct {
	ProductID     string           `json:"product_id"`
	SKU           string           `json:"sku,omitempty"`
	ProductName   string           `json:"product_name,omitempty"`
	CategoryID    string           `json:"category_id"`
	WarehouseID   string           `json:"warehouse_id"`
	WarehouseCode string           `json:"warehouse_code,omitempty"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitCost      *decimal.Decimal `json:"unit_cost"`
	Value         decimal.Decimal  `json:"value"`
	CostSource    string           `json:"cost_source,omitempty"`
}

// ValuationGroupDTO subtotal por bodega o categoría.
type ValuationGroupDTO struct {
	ID       string          `json:"id"`
	Label    string          `json:"label"`
	Quantity decimal.Decimal `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
	Items    int             `json:"items"`
}

// ValuationResponse respuesta de GET /api/inventory/analytics/valuation.
type ValuationResponse struct {
	TotalValue    decimal.Decimal     `json:"total_value"`
	TotalQuantity decimal.Decimal     `json:"total_quantity"`
	UnvaluedItems int                 `json:"unvalued_items"`
	ByWarehouse   []ValuationGroupDTO `json:"by_warehouse"`
	ByCategory    []ValuationGroupDTO `json:"by_category"`
	Items         []ValuationLineDTO  `json:"items"`
	GeneratedAt   time.Time           `json:"generated_at"`
}
