package memory

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.StockMovementRepository = (*MovementRepo)(nil)
	_ repository.StockLevelRepository    = (*LevelRepo)(nil)
	_ repository.ReservationRepository   = (*ReservationRepo)(nil)
)

var errReadOnly = errors.New("memory: escritura fuera de una transacción")

// MovementRepo movimientos. Con tx nil solo admite lecturas.
type MovementRepo struct {
	s  *Store
	tx *tx
}

// Create deja el movimiento pendiente; Seq y CreatedAt se asignan al confirmar.
func (r *MovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	if r.tx == nil {
		return errReadOnly
	}
	r.tx.movements = append(r.tx.movements, m)
	return nil
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if m, ok := r.s.movByID[id]; ok {
		return copyMovement(m), nil
	}
	return nil, nil
}

func (r *MovementRepo) ExistsByReference(_ context.Context, referenceType, referenceID string) (bool, error) {
	if r.tx != nil {
		for _, m := range r.tx.movements {
			if m.ReferenceType == referenceType && m.ReferenceID == referenceID {
				return true, nil
			}
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.movements {
		if m.ReferenceType == referenceType && m.ReferenceID == referenceID {
			return true, nil
		}
	}
	return false, nil
}

// List toma una instantánea al empezar cada recorrido, así el recorrido es finito
// y una nueva iteración vuelve a leer desde el inicio.
func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter) iter.Seq2[*entity.StockMovement, error] {
	return func(yield func(*entity.StockMovement, error) bool) {
		r.s.mu.RLock()
		snap := make([]*entity.StockMovement, 0)
		for _, m := range r.s.movements {
			if filter.Matches(m) {
				snap = append(snap, copyMovement(m))
			}
		}
		r.s.mu.RUnlock()
		if filter.Descending {
			slices.Reverse(snap)
		}
		for _, m := range snap {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(m, nil) {
				return
			}
		}
	}
}

// LevelRepo niveles de stock.
type LevelRepo struct {
	s  *Store
	tx *tx
}

func (r *LevelRepo) Get(_ context.Context, key entity.LevelKey) (*entity.StockLevel, error) {
	if r.tx != nil {
		if l, ok := r.tx.levels[key]; ok {
			return copyLevel(l), nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.level(key), nil
}

func (r *LevelRepo) GetForUpdate(ctx context.Context, key entity.LevelKey) (*entity.StockLevel, error) {
	if r.tx == nil {
		return nil, errReadOnly
	}
	if err := r.tx.lock(ctx, levelLockKey(key)); err != nil {
		return nil, err
	}
	return r.Get(ctx, key)
}

func (r *LevelRepo) Upsert(_ context.Context, level *entity.StockLevel) error {
	if r.tx == nil {
		return errReadOnly
	}
	if !r.tx.held[levelLockKey(level.LevelKey)] {
		return fmt.Errorf("memory: upsert de nivel %s sin bloqueo", level.LevelKey)
	}
	r.tx.levels[level.LevelKey] = copyLevel(level)
	return nil
}

func (r *LevelRepo) List(_ context.Context, filter repository.LevelFilter) ([]*entity.StockLevel, error) {
	r.s.mu.RLock()
	out := make([]*entity.StockLevel, 0)
	for k, l := range r.s.levels {
		if filter.Matches(k) {
			out = append(out, copyLevel(l))
		}
	}
	r.s.mu.RUnlock()
	sortLevels(out)
	return out, nil
}

// ReservationRepo reservas.
type ReservationRepo struct {
	s  *Store
	tx *tx
}

func (r *ReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	if r.tx == nil {
		return errReadOnly
	}
	if err := r.tx.lock(ctx, reservationLockKey(res.ID)); err != nil {
		return err
	}
	r.tx.reservations[res.ID] = copyReservation(res)
	r.tx.created[res.ID] = true
	return nil
}

func (r *ReservationRepo) GetByID(_ context.Context, id string) (*entity.Reservation, error) {
	if r.tx != nil {
		if res, ok := r.tx.reservations[id]; ok {
			return copyReservation(res), nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if res, ok := r.s.reservations[id]; ok {
		return copyReservation(res), nil
	}
	return nil, nil
}

func (r *ReservationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Reservation, error) {
	if r.tx == nil {
		return nil, errReadOnly
	}
	if err := r.tx.lock(ctx, reservationLockKey(id)); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *ReservationRepo) Update(_ context.Context, res *entity.Reservation) error {
	if r.tx == nil {
		return errReadOnly
	}
	if !r.tx.held[reservationLockKey(res.ID)] {
		return fmt.Errorf("memory: update de reserva %s sin bloqueo", res.ID)
	}
	r.tx.reservations[res.ID] = copyReservation(res)
	return nil
}

func (r *ReservationRepo) List(_ context.Context, filter repository.ReservationFilter) ([]*entity.Reservation, error) {
	r.s.mu.RLock()
	out := make([]*entity.Reservation, 0)
	for _, res := range r.s.reservations {
		if matchesReservation(filter, res) {
			out = append(out, copyReservation(res))
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ReservationRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	r.s.mu.RLock()
	out := make([]*entity.Reservation, 0)
	for _, res := range r.s.reservations {
		if res.Expired(now) {
			out = append(out, copyReservation(res))
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matchesReservation(f repository.ReservationFilter, r *entity.Reservation) bool {
	if !(repository.LevelFilter{ProductID: f.ProductID, WarehouseID: f.WarehouseID, BatchNumber: f.BatchNumber}).Matches(r.LevelKey) {
		return false
	}
	return f.Status == "" || r.Status == f.Status
}
