package usecase

import (
	"context"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ReservationUseCase casos de uso de reservas.
type ReservationUseCase struct {
	manager *inventory.ReservationManager
}

// NewReservationUseCase construye el caso de uso.
func NewReservationUseCase(manager *inventory.ReservationManager) *ReservationUseCase {
	return &ReservationUseCase{manager: manager}
}

// Create reserva cantidad disponible.
func (uc *ReservationUseCase) Create(ctx context.Context, userID string, in dto.CreateReservationRequest) (*dto.ReservationDTO, error) {
	r, err := uc.manager.Reserve(ctx, inventory.ReserveCommand{
		ProductID:     strings.TrimSpace(in.ProductID),
		WarehouseID:   strings.TrimSpace(in.WarehouseID),
		BatchNumber:   in.BatchNumber,
		Quantity:      in.Quantity,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		CreatedBy:     userID,
		ExpiresAt:     in.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}
	out := toReservationDTO(*r)
	return &out, nil
}

// GetByID obtiene una reserva.
func (uc *ReservationUseCase) GetByID(ctx context.Context, id string) (*dto.ReservationDTO, error) {
	r, err := uc.manager.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toReservationDTO(*r)
	return &out, nil
}

// List reservas filtradas por llave y estado.
func (uc *ReservationUseCase) List(ctx context.Context, q dto.ReservationListQuery) (*dto.ReservationListResponse, error) {
	filter := repository.ReservationFilter{
		ProductID:   q.ProductID,
		WarehouseID: q.WarehouseID,
		BatchNumber: q.BatchNumber,
	}
	if q.Status != "" {
		st := entity.ReservationStatus(strings.ToLower(strings.TrimSpace(q.Status)))
		switch st {
		case entity.ReservationActive, entity.ReservationReleased, entity.ReservationConsumed:
			filter.Status = st
		default:
			return nil, &domain.FieldError{Field: "status", Message: "debe ser active, released o consumed", Err: domain.ErrInvalidInput}
		}
	}
	rows, err := uc.manager.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReservationDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, toReservationDTO(*r))
	}
	return &dto.ReservationListResponse{Data: out}, nil
}

// Release libera una reserva activa.
func (uc *ReservationUseCase) Release(ctx context.Context, id string) (*dto.ReservationDTO, error) {
	r, err := uc.manager.Release(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toReservationDTO(*r)
	return &out, nil
}

// Consume liquida la reserva con un movimiento (OUT por defecto).
func (uc *ReservationUseCase) Consume(ctx context.Context, userID, id string, in dto.ConsumeReservationRequest) (*dto.ConsumeReservationResponse, error) {
	opts := inventory.ConsumeOptions{
		DestinationWarehouseID: strings.TrimSpace(in.DestinationWarehouseID),
		Notes:                  in.Notes,
		CreatedBy:              userID,
	}
	if in.MovementType != "" {
		mt, ok := entity.ParseMovementType(strings.ToUpper(strings.TrimSpace(in.MovementType)))
		if !ok {
			return nil, &domain.FieldError{Field: "movement_type", Message: "debe ser OUT, ADJUSTMENT o TRANSFER", Err: domain.ErrInvalidInput}
		}
		opts.MovementType = mt
	}
	res, err := uc.manager.Consume(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	return &dto.ConsumeReservationResponse{
		Reservation: toReservationDTO(res.Reservation),
		Movement:    toMovementDTO(res.Movement),
		Levels:      toStockLevelDTOs(res.Levels),
	}, nil
}
