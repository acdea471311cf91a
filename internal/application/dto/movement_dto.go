package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateMovementRequest body para POST /api/stock_movements.
// Para ADJUSTMENT quantity es el delta con signo.
type CreateMovementRequest struct {
	ProductID              string           `json:"product_id"`
	WarehouseID            string           `json:"warehouse_id"`
	MovementType           string           `json:"movement_type"`
	Quantity               decimal.Decimal  `json:"quantity"`
	DestinationWarehouseID string           `json:"destination_warehouse_id,omitempty"`
	BatchNumber            string           `json:"batch_number,omitempty"`
	UnitCost               *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceType          string           `json:"reference_type,omitempty"`
	ReferenceID            string           `json:"reference_id,omitempty"`
	Notes                  string           `json:"notes,omitempty"`
}

// MovementListQuery query de GET /api/stock_movements.
type MovementListQuery struct {
	PageRequest
	ProductID     string `query:"product_id"`
	WarehouseID   string `query:"warehouse_id"`
	MovementType  string `query:"movement_type"`
	BatchNumber   string `query:"batch_number"`
	From          string `query:"from"`
	To            string `query:"to"`
	ReferenceType string `query:"reference_type"`
	ReferenceID   string `query:"reference_id"`
	Include       string `query:"include"` // product,warehouse
	Sort          string `query:"sort"`    // id | -id | desc
}

// ProductDTO producto embebido con include=product.
type ProductDTO struct {
	ID                         string           `json:"id"`
	SKU                        string           `json:"sku"`
	Name                       string           `json:"name"`
	CategoryID                 string           `json:"category_id,omitempty"`
	StockNotification          bool             `json:"stock_notification"`
	StockNotificationThreshold *decimal.Decimal `json:"stock_notification_threshold,omitempty"`
}

// WarehouseDTO bodega embebida con include=warehouse.
type WarehouseDTO struct {
	ID              string           `json:"id"`
	Code            string           `json:"code"`
	Name            string           `json:"name"`
	StorageCapacity *decimal.Decimal `json:"storage_capacity,omitempty"`
}

// MovementDTO movimiento confirmado.
type MovementDTO struct {
	ID                     string           `json:"id"`
	Seq                    int64            `json:"seq"`
	ProductID              string           `json:"product_id"`
	WarehouseID            string           `json:"warehouse_id"`
	MovementType           string           `json:"movement_type"`
	Quantity               decimal.Decimal  `json:"quantity"`
	DestinationWarehouseID string           `json:"destination_warehouse_id,omitempty"`
	BatchNumber            string           `json:"batch_number"`
	UnitCost               *decimal.Decimal `json:"unit_cost"`
	ReferenceType          string           `json:"reference_type,omitempty"`
	ReferenceID            string           `json:"reference_id,omitempty"`
	Notes                  string           `json:"notes,omitempty"`
	CreatedBy              string           `json:"created_by,omitempty"`
	CreatedAt              time.Time        `json:"created_at"`
	Product                *ProductDTO      `json:"product,omitempty"`
	Warehouse              *WarehouseDTO    `json:"warehouse,omitempty"`
	DestinationWarehouse   *WarehouseDTO    `json:"destination_warehouse,omitempty"`
}

// StockLevelDTO nivel de stock. BatchNumber vacío en niveles agregados.
type StockLevelDTO struct {
	ProductID         string          `json:"product_id"`
	WarehouseID       string          `json:"warehouse_id"`
	BatchNumber       string          `json:"batch_number,omitempty"`
	CurrentQuantity   decimal.Decimal `json:"current_quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	UpdatedAt         *time.Time      `json:"updated_at,omitempty"`
}

// CommitMovementResponse movimiento creado y niveles resultantes.
type CommitMovementResponse struct {
	Movement MovementDTO     `json:"movement"`
	Levels   []StockLevelDTO `json:"levels"`
}

// MovementListResponse página del historial.
type MovementListResponse struct {
	Data []MovementDTO `json:"data"`
	Meta PageResponse  `json:"meta"`
}

// StockLevelListResponse niveles por lote.
type StockLevelListResponse struct {
	Data []StockLevelDTO `json:"data"`
}
