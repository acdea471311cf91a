package postgres

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const defaultMovementPageSize = 500

const movementColumns = `seq, id, product_id, warehouse_id, movement_type, quantity, destination_warehouse_id,
	batch_number, unit_cost, reference_type, reference_id, notes, created_by, created_at`

// StockMovementRepo ledger append-only sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta el movimiento; seq y created_at los asigna la base.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, warehouse_id, movement_type, quantity, destination_warehouse_id,
			batch_number, unit_cost, reference_type, reference_id, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq, created_at`
	var cost decimal.NullDecimal
	if m.UnitCost != nil {
		cost = decimal.NewNullDecimal(*m.UnitCost)
	}
	err := r.q.QueryRow(ctx, query,
		m.ID, m.ProductID, m.WarehouseID, string(m.Type), m.Quantity, nullString(m.DestinationWarehouseID),
		m.BatchNumber, cost, nullString(m.ReferenceType), nullString(m.ReferenceID),
		nullString(m.Notes), nullString(m.CreatedBy),
	).Scan(&m.Seq, &m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create stock movement %s: id duplicado: %w", m.ID, err)
		}
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m                    entity.StockMovement
		mt                   string
		dest, refType, refID *string
		notes, createdBy     *string
		cost                 decimal.NullDecimal
	)
	if err := row.Scan(&m.Seq, &m.ID, &m.ProductID, &m.WarehouseID, &mt, &m.Quantity, &dest,
		&m.BatchNumber, &cost, &refType, &refID, &notes, &createdBy, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(mt)
	m.DestinationWarehouseID = fromNull(dest)
	m.ReferenceType = fromNull(refType)
	m.ReferenceID = fromNull(refID)
	m.Notes = fromNull(notes)
	m.CreatedBy = fromNull(createdBy)
	if cost.Valid {
		c := cost.Decimal
		m.UnitCost = &c
	}
	return &m, nil
}

// GetByID obtiene un movimiento por ID (nil, nil si no existe).
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

func (r *StockMovementRepo) ExistsByReference(ctx context.Context, referenceType, referenceID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM stock_movements WHERE reference_type = $1 AND reference_id = $2)`,
		referenceType, referenceID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists by reference: %w", err)
	}
	return exists, nil
}

// buildMovementQuery arma el WHERE del filtro más el cursor por seq.
func buildMovementQuery(f repository.MovementFilter, after int64, hasCursor bool, limit int) (string, []any) {
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
		args = append(args, f.WarehouseID)
		conds = append(conds, fmt.Sprintf("(warehouse_id = $%[1]d OR destination_warehouse_id = $%[1]d)", len(args)))
	}
	if f.Type != "" {
		add("movement_type = $%d", string(f.Type))
	}
	if f.BatchNumber != "" {
		add("batch_number = $%d", entity.NormalizeBatch(f.BatchNumber))
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	if f.ReferenceType != "" {
		add("reference_type = $%d", f.ReferenceType)
	}
	if f.ReferenceID != "" {
		add("reference_id = $%d", f.ReferenceID)
	}
	order := "ASC"
	if hasCursor {
		if f.Descending {
			add("seq < $%d", after)
		} else {
			add("seq > $%d", after)
		}
	}
	if f.Descending {
		order = "DESC"
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY seq %s LIMIT $%d", order, len(args))
	return query, args
}

// List recorre el historial por páginas con cursor sobre seq. Cada recorrido empieza desde el origen del filtro.
//
// seq se asigna al insertar, no al confirmar: una transacción que confirma después de que el cursor pasó su seq
// no aparece en ese recorrido, sí en el siguiente.
func (r *StockMovementRepo) List(ctx context.Context, filter repository.MovementFilter) iter.Seq2[*entity.StockMovement, error] {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = defaultMovementPageSize
	}
	return func(yield func(*entity.StockMovement, error) bool) {
		var (
			cursor    int64
			hasCursor bool
		)
		for {
			query, args := buildMovementQuery(filter, cursor, hasCursor, pageSize)
			page, err := r.page(ctx, query, args)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
			cursor, hasCursor = page[len(page)-1].Seq, true
		}
	}
}

func (r *StockMovementRepo) page(ctx context.Context, query string, args []any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
