package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo reservas sobre PostgreSQL (usable con pool o tx).
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, product_id, warehouse_id, batch_number, quantity, status, reference_type, reference_id,
	expires_at, movement_id, created_by, created_at, settled_at`

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var (
		res                   entity.Reservation
		status                string
		refType, refID        *string
		movementID, createdBy *string
	)
	if err := row.Scan(&res.ID, &res.ProductID, &res.WarehouseID, &res.BatchNumber, &res.Quantity, &status,
		&refType, &refID, &res.ExpiresAt, &movementID, &createdBy, &res.CreatedAt, &res.SettledAt); err != nil {
		return nil, err
	}
	res.Status = entity.ReservationStatus(status)
	res.ReferenceType = fromNull(refType)
	res.ReferenceID = fromNull(refID)
	res.MovementID = fromNull(movementID)
	res.CreatedBy = fromNull(createdBy)
	return &res, nil
}

func (r *ReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	query := `
		INSERT INTO stock_reservations (id, product_id, warehouse_id, batch_number, quantity, status,
			reference_type, reference_id, expires_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		res.ID, res.ProductID, res.WarehouseID, res.BatchNumber, res.Quantity, string(res.Status),
		nullString(res.ReferenceType), nullString(res.ReferenceID), res.ExpiresAt, nullString(res.CreatedBy), res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM stock_reservations WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	res, err := scanReservation(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

// GetByID obtiene una reserva (nil, nil si no existe).
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*entity.Reservation, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate obtiene la reserva y bloquea la fila.
func (r *ReservationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Reservation, error) {
	return r.get(ctx, id, true)
}

// Update persiste el cambio de estado de la reserva.
func (r *ReservationRepo) Update(ctx context.Context, res *entity.Reservation) error {
	query := `
		UPDATE stock_reservations
		SET status = $2, movement_id = $3, settled_at = $4
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, res.ID, string(res.Status), nullString(res.MovementID), res.SettledAt)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update reservation %s: no existe", res.ID)
	}
	return nil
}

func (r *ReservationRepo) List(ctx context.Context, f repository.ReservationFilter) ([]*entity.Reservation, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.WarehouseID != "" {
		add("warehouse_id = $%d", f.WarehouseID)
	}
	if f.BatchNumber != "" {
		add("batch_number = $%d", entity.NormalizeBatch(f.BatchNumber))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	query := `SELECT ` + reservationColumns + ` FROM stock_reservations`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at, id"
	return r.list(ctx, query, args...)
}

// ListExpired reservas activas vencidas, las más antiguas primero.
func (r *ReservationRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM stock_reservations
		WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2`
	return r.list(ctx, query, now, limit)
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Reservation, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, res)
	}
	return list, rows.Err()
}
