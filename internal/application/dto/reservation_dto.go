package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateReservationRequest body para POST /api/reservations.
type CreateReservationRequest struct {
	ProductID     string          `json:"product_id"`
	WarehouseID   string          `json:"warehouse_id"`
	BatchNumber   string          `json:"batch_number,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
}

// ConsumeReservationRequest body para POST /api/reservations/:id/consume. movement_type vacío = OUT.
type ConsumeReservationRequest struct {
	MovementType           string `json:"movement_type,omitempty"`
	DestinationWarehouseID string `json:"destination_warehouse_id,omitempty"`
	Notes                  string `json:"notes,omitempty"`
}

// ReservationListQuery query de GET /api/reservations.
type ReservationListQuery struct {
	ProductID   string `query:"product_id"`
	WarehouseID string `query:"warehouse_id"`
	BatchNumber string `query:"batch_number"`
	Status      string `query:"status"`
}

// ReservationDTO reserva.
type ReservationDTO struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	WarehouseID   string          `json:"warehouse_id"`
	BatchNumber   string          `json:"batch_number"`
	Quantity      decimal.Decimal `json:"quantity"`
	Status        string          `json:"status"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	MovementID    string          `json:"movement_id,omitempty"`
	CreatedBy     string          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	SettledAt     *time.Time      `json:"settled_at,omitempty"`
}

// ConsumeReservationResponse reserva consumida con su movimiento.
type ConsumeReservationResponse struct {
	Reservation ReservationDTO  `json:"reservation"`
	Movement    MovementDTO     `json:"movement"`
	Levels      []StockLevelDTO `json:"levels"`
}

// ReservationListResponse listado de reservas.
type ReservationListResponse struct {
	Data []ReservationDTO `json:"data"`
}
