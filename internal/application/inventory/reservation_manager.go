package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// ReserveCommand entrada para Reserve. Lote vacío reserva sobre el lote "unbatched".
type ReserveCommand struct {
	ProductID     string
	WarehouseID   string
	BatchNumber   string
	Quantity      decimal.Decimal
	ReferenceType string
	ReferenceID   string
	CreatedBy     string
	ExpiresAt     *time.Time
}

// ConsumeOptions movimiento que liquida la reserva. MovementType vacío equivale a OUT.
type ConsumeOptions struct {
	MovementType           entity.MovementType
	DestinationWarehouseID string
	Notes                  string
	CreatedBy              string
}

// ConsumeResult reserva liquidada, movimiento generado y niveles resultantes.
type ConsumeResult struct {
	Reservation entity.Reservation
	Movement    entity.StockMovement
	Levels      []entity.StockLevel
}

// ReservationOption configura el ReservationManager.
type ReservationOption func(*ReservationManager)

// WithDefaultTTL vencimiento aplicado a reservas creadas sin expires_at. Cero desactiva.
func WithDefaultTTL(ttl time.Duration) ReservationOption {
	return func(m *ReservationManager) { m.defaultTTL = ttl }
}

// ReservationManager retenciones blandas sobre la cantidad disponible.
// Reserve, Release y Consume se serializan por llave de stock junto con los movimientos del ledger.
type ReservationManager struct {
	txRunner   TxRunner
	resRepo    repository.ReservationRepository
	catalog    *Catalog
	log        *logger.Logger
	defaultTTL time.Duration
	now        func() time.Time
}

// NewReservationManager construye el gestor de reservas.
func NewReservationManager(txRunner TxRunner, resRepo repository.ReservationRepository, catalog *Catalog, log *logger.Logger, opts ...ReservationOption) *ReservationManager {
	m := &ReservationManager{
		txRunner: txRunner,
		resRepo:  resRepo,
		catalog:  catalog,
		log:      log.Component("reservation_manager"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reserve retiene cantidad si available >= quantity; en otro caso InsufficientAvailable sin efecto.
func (m *ReservationManager) Reserve(ctx context.Context, cmd ReserveCommand) (*entity.Reservation, error) {
	var bag domain.ValidationBag
	if strings.TrimSpace(cmd.ProductID) == "" {
		bag.Add("product_id", domain.ErrInvalidInput, "product_id es requerido")
	}
	if strings.TrimSpace(cmd.WarehouseID) == "" {
		bag.Add("warehouse_id", domain.ErrInvalidInput, "warehouse_id es requerido")
	}
	checkPositive(&bag, cmd.Quantity)
	now := m.now()
	if cmd.ExpiresAt != nil && !cmd.ExpiresAt.After(now) {
		bag.Add("expires_at", domain.ErrInvalidInput, "expires_at debe ser futuro")
	}
	if err := bag.OrNil(); err != nil {
		return nil, err
	}
	if _, err := m.catalog.requireProduct(ctx, cmd.ProductID); err != nil {
		return nil, err
	}
	if _, err := m.catalog.requireWarehouse(ctx, "warehouse_id", cmd.WarehouseID); err != nil {
		return nil, err
	}

	r := &entity.Reservation{
		ID:            uuid.New().String(),
		LevelKey:      entity.NewLevelKey(cmd.ProductID, cmd.WarehouseID, cmd.BatchNumber),
		Quantity:      cmd.Quantity,
		Status:        entity.ReservationActive,
		ReferenceType: cmd.ReferenceType,
		ReferenceID:   cmd.ReferenceID,
		ExpiresAt:     cmd.ExpiresAt,
		CreatedBy:     cmd.CreatedBy,
		CreatedAt:     now,
	}
	if r.ExpiresAt == nil && m.defaultTTL > 0 {
		exp := now.Add(m.defaultTTL)
		r.ExpiresAt = &exp
	}

	err := m.txRunner.Run(ctx, func(
		_ repository.StockMovementRepository,
		levelRepo repository.StockLevelRepository,
		resRepo repository.ReservationRepository,
	) error {
		locked, err := lockLevels(ctx, levelRepo, r.LevelKey)
		if err != nil {
			return err
		}
		lvl := locked[r.LevelKey]
		if lvl.AvailableQuantity().LessThan(r.Quantity) {
			return &domain.StockError{
				ProductID:   lvl.ProductID,
				WarehouseID: lvl.WarehouseID,
				BatchNumber: lvl.BatchNumber,
				Requested:   r.Quantity,
				Current:     lvl.CurrentQuantity,
				Available:   lvl.AvailableQuantity(),
				Err:         domain.ErrInsufficientAvailable,
			}
		}
		lvl.ReservedQuantity = lvl.ReservedQuantity.Add(r.Quantity)
		lvl.UpdatedAt = now
		if err := levelRepo.Upsert(ctx, lvl); err != nil {
			return err
		}
		return resRepo.Create(ctx, r)
	})
	if err != nil {
		m.log.Debug().Err(err).Str("product_id", cmd.ProductID).Str("warehouse_id", cmd.WarehouseID).
			Str("quantity", cmd.Quantity.String()).Msg("reserva rechazada")
		return nil, err
	}
	m.log.Info().Str("reservation_id", r.ID).Str("key", r.LevelKey.String()).
		Str("quantity", r.Quantity.String()).Msg("reserva creada")
	return r, nil
}

// Release libera la cantidad reservada. Una reserva liquidada devuelve AlreadySettled.
func (m *ReservationManager) Release(ctx context.Context, id string) (*entity.Reservation, error) {
	return m.release(ctx, id, nil)
}

// release con expiredAt no nil solo libera si la reserva sigue vencida a esa fecha.
func (m *ReservationManager) release(ctx context.Context, id string, expiredAt *time.Time) (*entity.Reservation, error) {
	r, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var out *entity.Reservation
	err = m.txRunner.Run(ctx, func(
		_ repository.StockMovementRepository,
		levelRepo repository.StockLevelRepository,
		resRepo repository.ReservationRepository,
	) error {
		locked, err := lockLevels(ctx, levelRepo, r.LevelKey)
		if err != nil {
			return err
		}
		cur, err := lockReservation(ctx, resRepo, id)
		if err != nil {
			return err
		}
		if expiredAt != nil && !cur.Expired(*expiredAt) {
			return domain.ErrAlreadySettled
		}
		now := m.now()
		lvl := locked[cur.LevelKey]
		lvl.ReservedQuantity = lvl.ReservedQuantity.Sub(cur.Quantity)
		lvl.UpdatedAt = now
		if err := levelRepo.Upsert(ctx, lvl); err != nil {
			return err
		}
		cur.Status = entity.ReservationReleased
		cur.SettledAt = &now
		if err := resRepo.Update(ctx, cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.log.Info().Str("reservation_id", id).Bool("expired", expiredAt != nil).Msg("reserva liberada")
	return out, nil
}

// lockReservation bloquea la reserva (el nivel ya debe estar bloqueado) y exige que siga activa.
func lockReservation(ctx context.Context, resRepo repository.ReservationRepository, id string) (*entity.Reservation, error) {
	cur, err := resRepo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, domain.ErrNotFound
	}
	if !cur.IsActive() {
		return nil, fmt.Errorf("%w: estado %s", domain.ErrAlreadySettled, cur.Status)
	}
	return cur, nil
}

// Consume convierte la reserva en un movimiento real (OUT por defecto) en una sola unidad atómica:
// la cantidad reservada se libera y el movimiento reduce la cantidad actual.
func (m *ReservationManager) Consume(ctx context.Context, id string, opts ConsumeOptions) (*ConsumeResult, error) {
	if opts.MovementType == "" {
		opts.MovementType = entity.MovementTypeOUT
	}
	r, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	mv := &entity.StockMovement{
		ID:            uuid.New().String(),
		ProductID:     r.ProductID,
		WarehouseID:   r.WarehouseID,
		Type:          opts.MovementType,
		Quantity:      r.Quantity,
		BatchNumber:   r.BatchNumber,
		ReferenceType: entity.ReferenceReservation,
		ReferenceID:   r.ID,
		Notes:         opts.Notes,
		CreatedBy:     opts.CreatedBy,
	}
	keys := []entity.LevelKey{r.LevelKey}
	switch opts.MovementType {
	case entity.MovementTypeOUT:
	case entity.MovementTypeADJUSTMENT:
		mv.Quantity = r.Quantity.Neg()
	case entity.MovementTypeTRANSFER:
		var bag domain.ValidationBag
		checkTransferTarget(&bag, r.WarehouseID, opts.DestinationWarehouseID)
		if err := bag.OrNil(); err != nil {
			return nil, err
		}
		if _, err := m.catalog.requireWarehouse(ctx, "destination_warehouse_id", opts.DestinationWarehouseID); err != nil {
			return nil, err
		}
		mv.DestinationWarehouseID = opts.DestinationWarehouseID
		keys = append(keys, entity.NewLevelKey(r.ProductID, opts.DestinationWarehouseID, r.BatchNumber))
	default:
		return nil, &domain.FieldError{Field: "movement_type", Message: "una reserva se consume con OUT, ADJUSTMENT o TRANSFER", Err: domain.ErrInvalidInput}
	}

	var res ConsumeResult
	err = m.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		levelRepo repository.StockLevelRepository,
		resRepo repository.ReservationRepository,
	) error {
		locked, err := lockLevels(ctx, levelRepo, keys...)
		if err != nil {
			return err
		}
		cur, err := lockReservation(ctx, resRepo, id)
		if err != nil {
			return err
		}
		src := locked[cur.LevelKey]
		src.ReservedQuantity = src.ReservedQuantity.Sub(cur.Quantity)

		now := m.now()
		levels, err := applyMovement(ctx, movRepo, levelRepo, locked, mv, now)
		if err != nil {
			return err
		}
		cur.Status = entity.ReservationConsumed
		cur.MovementID = mv.ID
		cur.SettledAt = &now
		if err := resRepo.Update(ctx, cur); err != nil {
			return err
		}
		res = ConsumeResult{Reservation: *cur, Levels: levels}
		return nil
	})
	if err != nil {
		m.log.Debug().Err(err).Str("reservation_id", id).Msg("consumo de reserva rechazado")
		return nil, err
	}
	res.Movement = *mv
	m.log.Info().Str("reservation_id", id).Str("movement_id", mv.ID).Str("type", string(mv.Type)).
		Msg("reserva consumida")
	return &res, nil
}

// Get devuelve la reserva o ErrNotFound.
func (m *ReservationManager) Get(ctx context.Context, id string) (*entity.Reservation, error) {
	r, err := m.resRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// List reservas que cumplen el filtro.
func (m *ReservationManager) List(ctx context.Context, filter repository.ReservationFilter) ([]*entity.Reservation, error) {
	return m.resRepo.List(ctx, filter)
}

const sweepBatchSize = 200

// SweepExpired libera las reservas activas vencidas a la fecha now. Devuelve cuántas liberó.
// Una reserva consumida o liberada en paralelo se omite sin error.
func (m *ReservationManager) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := m.resRepo.ListExpired(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list expired reservations: %w", err)
	}
	var (
		released int
		errs     []error
	)
	for _, r := range expired {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := m.release(ctx, r.ID, &now); err != nil {
			if errors.Is(err, domain.ErrAlreadySettled) {
				continue
			}
			errs = append(errs, fmt.Errorf("reserva %s: %w", r.ID, err))
			continue
		}
		released++
	}
	if released > 0 {
		m.log.Info().Int("released", released).Msg("reservas vencidas liberadas")
	}
	return released, errors.Join(errs...)
}
