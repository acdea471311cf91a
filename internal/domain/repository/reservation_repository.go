package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ReservationFilter filtros para listar reservas.
type ReservationFilter struct {
	ProductID   string
	WarehouseID string
	BatchNumber string
	Status      entity.ReservationStatus
}

// ReservationRepository puerto de persistencia de reservas.
type ReservationRepository interface {
	Create(ctx context.Context, r *entity.Reservation) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Reservation, error)
	// GetForUpdate bloquea la reserva hasta el fin de la transacción. Tomar antes el bloqueo de su nivel.
	GetForUpdate(ctx context.Context, id string) (*entity.Reservation, error)
	Update(ctx context.Context, r *entity.Reservation) error
	List(ctx context.Context, filter ReservationFilter) ([]*entity.Reservation, error)
	// ListExpired reservas activas con vencimiento <= now.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error)
}
