package inventory

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// StockLedger fuente de verdad append-only: valida y confirma movimientos y mantiene los niveles derivados.
// Cada confirmación bloquea las llaves afectadas y revalida contra el último estado confirmado.
type StockLedger struct {
	txRunner  TxRunner
	movRepo   repository.StockMovementRepository
	levelRepo repository.StockLevelRepository
	catalog   *Catalog
	transfers *TransferCoordinator
	log       *logger.Logger
	now       func() time.Time
}

// NewStockLedger construye el ledger. movRepo y levelRepo son los repositorios de lectura (fuera de tx).
func NewStockLedger(
	txRunner TxRunner,
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
	catalog *Catalog,
	transfers *TransferCoordinator,
	log *logger.Logger,
) *StockLedger {
	return &StockLedger{
		txRunner:  txRunner,
		movRepo:   movRepo,
		levelRepo: levelRepo,
		catalog:   catalog,
		transfers: transfers,
		log:       log.Component("stock_ledger"),
		now:       time.Now,
	}
}

// CommitMovement valida y confirma un movimiento. TRANSFER se delega al TransferCoordinator.
// Sin efecto parcial ante cualquier error: cantidad no positiva (InvalidQuantity), destino inválido
// (InvalidTransferTarget) o salida que dejaría el nivel negativo (InsufficientStock, nunca se recorta).
func (l *StockLedger) CommitMovement(ctx context.Context, cmd MovementCommand) (*CommitResult, error) {
	if err := cmd.validate(); err != nil {
		l.log.Debug().Err(err).Strs("fields", domain.FieldNames(err)).Msg("movimiento rechazado por validación")
		return nil, err
	}
	if t, ok := cmd.Kind.(Transfer); ok {
		return l.transfers.ExecuteTransfer(ctx, TransferCommand{
			ProductID:              cmd.ProductID,
			SourceWarehouseID:      cmd.WarehouseID,
			DestinationWarehouseID: t.DestinationWarehouseID,
			BatchNumber:            cmd.BatchNumber,
			Quantity:               t.Quantity,
			UnitCost:               cmd.UnitCost,
			ReferenceType:          cmd.ReferenceType,
			ReferenceID:            cmd.ReferenceID,
			Notes:                  cmd.Notes,
			CreatedBy:              cmd.CreatedBy,
		})
	}
	if _, err := l.catalog.requireProduct(ctx, cmd.ProductID); err != nil {
		return nil, err
	}
	if _, err := l.catalog.requireWarehouse(ctx, "warehouse_id", cmd.WarehouseID); err != nil {
		return nil, err
	}

	m := cmd.toMovement()
	m.ID = uuid.New().String()

	var levels []entity.StockLevel
	err := l.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		levelRepo repository.StockLevelRepository,
		_ repository.ReservationRepository,
	) error {
		locked, err := lockLevels(ctx, levelRepo, m.SourceKey())
		if err != nil {
			return err
		}
		levels, err = applyMovement(ctx, movRepo, levelRepo, locked, m, l.now())
		return err
	})
	if err != nil {
		l.log.Debug().Err(err).Str("type", string(m.Type)).Str("product_id", m.ProductID).
			Str("warehouse_id", m.WarehouseID).Msg("movimiento rechazado")
		return nil, err
	}
	l.logCommitted(m)
	return &CommitResult{Movement: *m, Levels: levels}, nil
}

func (l *StockLedger) logCommitted(m *entity.StockMovement) {
	ev := l.log.Info().
		Str("movement_id", m.ID).
		Str("type", string(m.Type)).
		Str("product_id", m.ProductID).
		Str("warehouse_id", m.WarehouseID).
		Str("batch", m.BatchNumber).
		Str("quantity", m.Quantity.String())
	if m.DestinationWarehouseID != "" {
		ev = ev.Str("destination_warehouse_id", m.DestinationWarehouseID)
	}
	ev.Msg("movimiento confirmado")
}

// GetLevel devuelve el nivel de una llave. Con batch nil agrega todos los lotes del producto en la bodega
// (el lote del resultado queda vacío).
func (l *StockLedger) GetLevel(ctx context.Context, productID, warehouseID string, batch *string) (entity.StockLevel, error) {
	if productID == "" || warehouseID == "" {
		return entity.StockLevel{}, domain.ErrInvalidInput
	}
	if batch != nil {
		lvl, err := l.levelRepo.Get(ctx, entity.NewLevelKey(productID, warehouseID, *batch))
		if err != nil {
			return entity.StockLevel{}, err
		}
		return *lvl, nil
	}
	rows, err := l.levelRepo.List(ctx, repository.LevelFilter{ProductID: productID, WarehouseID: warehouseID})
	if err != nil {
		return entity.StockLevel{}, err
	}
	return aggregateLevels(productID, warehouseID, rows), nil
}

func aggregateLevels(productID, warehouseID string, rows []*entity.StockLevel) entity.StockLevel {
	agg := entity.StockLevel{
		LevelKey:         entity.LevelKey{ProductID: productID, WarehouseID: warehouseID},
		CurrentQuantity:  decimal.Zero,
		ReservedQuantity: decimal.Zero,
	}
	for _, r := range rows {
		agg.CurrentQuantity = agg.CurrentQuantity.Add(r.CurrentQuantity)
		agg.ReservedQuantity = agg.ReservedQuantity.Add(r.ReservedQuantity)
		if r.UpdatedAt.After(agg.UpdatedAt) {
			agg.UpdatedAt = r.UpdatedAt
		}
	}
	return agg
}

// ListLevels niveles por lote que cumplen el filtro.
func (l *StockLedger) ListLevels(ctx context.Context, filter repository.LevelFilter) ([]*entity.StockLevel, error) {
	return l.levelRepo.List(ctx, filter)
}

// ListMovements historial perezoso, finito y reiniciable (no es una suscripción en vivo).
func (l *StockLedger) ListMovements(ctx context.Context, filter repository.MovementFilter) iter.Seq2[*entity.StockMovement, error] {
	return l.movRepo.List(ctx, filter)
}

// GetMovement devuelve un movimiento confirmado.
func (l *StockLedger) GetMovement(ctx context.Context, id string) (*entity.StockMovement, error) {
	m, err := l.movRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

// ReverseMovement corrige un movimiento agregando su compensación; el original nunca se borra.
// Rechaza con ImmutableLedger lo que otro estado usa: traslados, consumos de reservas, movimientos ya
// revertidos, reversiones, y entradas cuya cantidad ya fue reservada o movida aguas abajo.
func (l *StockLedger) ReverseMovement(ctx context.Context, id, createdBy string) (*CommitResult, error) {
	orig, err := l.GetMovement(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case orig.Type == entity.MovementTypeTRANSFER:
		return nil, fmt.Errorf("%w: un traslado no se revierte, registre el traslado inverso", domain.ErrImmutableLedger)
	case orig.ReferenceType == entity.ReferenceReservation:
		return nil, fmt.Errorf("%w: el movimiento liquidó la reserva %s", domain.ErrImmutableLedger, orig.ReferenceID)
	case orig.IsReversal():
		return nil, fmt.Errorf("%w: el movimiento ya es una reversión", domain.ErrImmutableLedger)
	}

	rev := &entity.StockMovement{
		ID:            uuid.New().String(),
		ProductID:     orig.ProductID,
		WarehouseID:   orig.WarehouseID,
		BatchNumber:   orig.BatchNumber,
		Quantity:      orig.Quantity,
		ReferenceType: entity.ReferenceMovementReversal,
		ReferenceID:   orig.ID,
		Notes:         "reversión de " + orig.ID,
		CreatedBy:     createdBy,
	}
	switch orig.Type {
	case entity.MovementTypeIN:
		rev.Type = entity.MovementTypeOUT
	case entity.MovementTypeOUT:
		rev.Type = entity.MovementTypeIN
	case entity.MovementTypeADJUSTMENT:
		rev.Type = entity.MovementTypeADJUSTMENT
		rev.Quantity = orig.Quantity.Neg()
	}

	var levels []entity.StockLevel
	err = l.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		levelRepo repository.StockLevelRepository,
		_ repository.ReservationRepository,
	) error {
		locked, err := lockLevels(ctx, levelRepo, rev.SourceKey())
		if err != nil {
			return err
		}
		// Bajo el bloqueo de la llave: dos reversiones concurrentes se serializan aquí.
		reversed, err := movRepo.ExistsByReference(ctx, entity.ReferenceMovementReversal, orig.ID)
		if err != nil {
			return err
		}
		if reversed {
			return fmt.Errorf("%w: el movimiento ya fue revertido", domain.ErrImmutableLedger)
		}
		delta := rev.DeltaFor(rev.SourceKey())
		if lvl := locked[rev.SourceKey()]; delta.IsNegative() && lvl.AvailableQuantity().LessThan(delta.Abs()) {
			return fmt.Errorf("%w: la cantidad ya fue reservada o movida (disponible %s)",
				domain.ErrImmutableLedger, lvl.AvailableQuantity().String())
		}
		levels, err = applyMovement(ctx, movRepo, levelRepo, locked, rev, l.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	l.logCommitted(rev)
	return &CommitResult{Movement: *rev, Levels: levels}, nil
}
