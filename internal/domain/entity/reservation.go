package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus estado de una reserva.
type ReservationStatus string

const (
	ReservationActive   ReservationStatus = "active"
	ReservationReleased ReservationStatus = "released"
	ReservationConsumed ReservationStatus = "consumed"
)

// Reservation retención blanda de cantidad sobre un nivel de stock (pedidos pendientes).
// Mientras está activa descuenta de la cantidad disponible, nunca de la actual.
type Reservation struct {
	ID            string
	LevelKey
	Quantity      decimal.Decimal
	Status        ReservationStatus
	ReferenceType string
	ReferenceID   string
	ExpiresAt     *time.Time
	MovementID    string // movimiento que la consumió
	CreatedBy     string
	CreatedAt     time.Time
	SettledAt     *time.Time
}

// IsActive true si la reserva aún retiene cantidad.
func (r Reservation) IsActive() bool { return r.Status == ReservationActive }

// Expired true si está activa y su vencimiento ya pasó.
func (r Reservation) Expired(now time.Time) bool {
	return r.IsActive() && r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}
