package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Ensure TxRunner implements inventory.TxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Ante serialización, deadlock o lock_timeout repite la transacción completa hasta maxRetries veces.
type TxRunner struct {
	pool        *pgxpool.Pool
	maxRetries  int
	lockTimeout time.Duration
	log         *logger.Logger
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, maxRetries int, lockTimeout time.Duration, log *logger.Logger) *TxRunner {
	return &TxRunner{pool: pool, maxRetries: maxRetries, lockTimeout: lockTimeout, log: log.Component("tx_runner")}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Agotados los reintentos devuelve ErrConflict envolviendo el último error.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
	resRepo repository.ReservationRepository,
) error) error {
	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * 10 * time.Millisecond
			r.log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", backoff).Msg("reintentando transacción")
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", domain.ErrConflict, ctx.Err())
			case <-time.After(backoff):
			}
		}
		err = r.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("%w: reintentos agotados: %w", domain.ErrConflict, err)
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
	resRepo repository.ReservationRepository,
) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeout > 0 {
		// SET no acepta parámetros; el valor es un entero propio.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	if err := fn(NewStockMovementRepository(tx), NewStockLevelRepository(tx), NewReservationRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
