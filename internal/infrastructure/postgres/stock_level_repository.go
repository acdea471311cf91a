package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo niveles por producto + bodega + lote (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

const levelColumns = `product_id, warehouse_id, batch_number, current_quantity, reserved_quantity, updated_at`

func scanLevel(row pgx.Row) (*entity.StockLevel, error) {
	var l entity.StockLevel
	if err := row.Scan(&l.ProductID, &l.WarehouseID, &l.BatchNumber, &l.CurrentQuantity, &l.ReservedQuantity, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// Get obtiene el nivel; si la llave no tiene fila devuelve un nivel en cero.
func (r *StockLevelRepo) Get(ctx context.Context, key entity.LevelKey) (*entity.StockLevel, error) {
	query := `SELECT ` + levelColumns + ` FROM stock_levels
		WHERE product_id = $1 AND warehouse_id = $2 AND batch_number = $3`
	l, err := scanLevel(r.q.QueryRow(ctx, query, key.ProductID, key.WarehouseID, key.BatchNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.NewStockLevel(key), nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return l, nil
}

// GetForUpdate crea la fila si no existe y la bloquea (SELECT FOR UPDATE) hasta el fin de la tx.
// Crear primero evita que dos transacciones sobre una llave nueva lean "sin fila" a la vez.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, key entity.LevelKey) (*entity.StockLevel, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_levels (product_id, warehouse_id, batch_number)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, warehouse_id, batch_number) DO NOTHING`,
		key.ProductID, key.WarehouseID, key.BatchNumber)
	if err != nil {
		return nil, fmt.Errorf("ensure stock level: %w", err)
	}
	query := `SELECT ` + levelColumns + ` FROM stock_levels
		WHERE product_id = $1 AND warehouse_id = $2 AND batch_number = $3
		FOR UPDATE`
	l, err := scanLevel(r.q.QueryRow(ctx, query, key.ProductID, key.WarehouseID, key.BatchNumber))
	if err != nil {
		return nil, fmt.Errorf("get stock level for update: %w", err)
	}
	return l, nil
}

// Upsert persiste las cantidades del nivel. Los CHECK de la tabla respaldan los invariantes.
func (r *StockLevelRepo) Upsert(ctx context.Context, l *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (product_id, warehouse_id, batch_number, current_quantity, reserved_quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (product_id, warehouse_id, batch_number)
		DO UPDATE SET current_quantity = EXCLUDED.current_quantity,
		              reserved_quantity = EXCLUDED.reserved_quantity,
		              updated_at = now()
		RETURNING updated_at`
	err := r.q.QueryRow(ctx, query, l.ProductID, l.WarehouseID, l.BatchNumber, l.CurrentQuantity, l.ReservedQuantity).
		Scan(&l.UpdatedAt)
	if err != nil {
		if pgCode(err) == sqlStateCheckViolation {
			return fmt.Errorf("upsert stock level %s: %w: %w", l.LevelKey, domain.ErrInsufficientStock, err)
		}
		return fmt.Errorf("upsert stock level: %w", err)
	}
	return nil
}

func (r *StockLevelRepo) List(ctx context.Context, f repository.LevelFilter) ([]*entity.StockLevel, error) {
	var (
		conds []string
		args  []any
	)
	if f.ProductID != "" {
		args = append(args, f.ProductID)
		conds = append(conds, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if f.WarehouseID != "" {
		args = append(args, f.WarehouseID)
		conds = append(conds, fmt.Sprintf("warehouse_id = $%d", len(args)))
	}
	if f.BatchNumber != "" {
		args = append(args, entity.NormalizeBatch(f.BatchNumber))
		conds = append(conds, fmt.Sprintf("batch_number = $%d", len(args)))
	}
	query := `SELECT ` + levelColumns + ` FROM stock_levels`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY product_id, warehouse_id, batch_number"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StockLevel, 0)
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
