package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// TransferCommand entrada para ExecuteTransfer.
type TransferCommand struct {
	ProductID              string
	SourceWarehouseID      string
	DestinationWarehouseID string
	BatchNumber            string
	Quantity               decimal.Decimal
	UnitCost               *decimal.Decimal
	ReferenceType          string
	ReferenceID            string
	Notes                  string
	CreatedBy              string
}

// TransferCoordinator ejecuta un TRANSFER como una sola unidad atómica: débito en origen y crédito
// en destino se confirman juntos o ninguno. Las reservas del origen no se mueven.
type TransferCoordinator struct {
	txRunner TxRunner
	catalog  *Catalog
	log      *logger.Logger
	now      func() time.Time
}

// NewTransferCoordinator construye el coordinador.
func NewTransferCoordinator(txRunner TxRunner, catalog *Catalog, log *logger.Logger) *TransferCoordinator {
	return &TransferCoordinator{txRunner: txRunner, catalog: catalog, log: log.Component("transfer_coordinator"), now: time.Now}
}

// ExecuteTransfer valida todo antes de mutar; un traslado fallido no deja ningún registro.
// Un traslado exitoso produce exactamente un movimiento TRANSFER.
func (tc *TransferCoordinator) ExecuteTransfer(ctx context.Context, cmd TransferCommand) (*CommitResult, error) {
	var bag domain.ValidationBag
	if cmd.ProductID == "" {
		bag.Add("product_id", domain.ErrInvalidInput, "product_id es requerido")
	}
	if cmd.SourceWarehouseID == "" {
		bag.Add("warehouse_id", domain.ErrInvalidInput, "warehouse_id es requerido")
	}
	checkPositive(&bag, cmd.Quantity)
	checkTransferTarget(&bag, cmd.SourceWarehouseID, cmd.DestinationWarehouseID)
	if err := bag.OrNil(); err != nil {
		return nil, err
	}
	if _, err := tc.catalog.requireProduct(ctx, cmd.ProductID); err != nil {
		return nil, err
	}
	if _, err := tc.catalog.requireWarehouse(ctx, "warehouse_id", cmd.SourceWarehouseID); err != nil {
		return nil, err
	}
	if _, err := tc.catalog.requireWarehouse(ctx, "destination_warehouse_id", cmd.DestinationWarehouseID); err != nil {
		return nil, err
	}

	m := &entity.StockMovement{
		ID:                     uuid.New().String(),
		ProductID:              cmd.ProductID,
		WarehouseID:            cmd.SourceWarehouseID,
		Type:                   entity.MovementTypeTRANSFER,
		Quantity:               cmd.Quantity,
		DestinationWarehouseID: cmd.DestinationWarehouseID,
		BatchNumber:            entity.NormalizeBatch(cmd.BatchNumber),
		UnitCost:               cmd.UnitCost,
		ReferenceType:          cmd.ReferenceType,
		ReferenceID:            cmd.ReferenceID,
		Notes:                  cmd.Notes,
		CreatedBy:              cmd.CreatedBy,
	}

	var levels []entity.StockLevel
	err := tc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		levelRepo repository.StockLevelRepository,
		_ repository.ReservationRepository,
	) error {
		src := m.SourceKey()
		dst := entity.NewLevelKey(m.ProductID, m.DestinationWarehouseID, m.BatchNumber)
		locked, err := lockLevels(ctx, levelRepo, src, dst)
		if err != nil {
			return err
		}
		levels, err = applyMovement(ctx, movRepo, levelRepo, locked, m, tc.now())
		return err
	})
	if err != nil {
		tc.log.Debug().Err(err).Str("product_id", m.ProductID).Str("from", m.WarehouseID).
			Str("to", m.DestinationWarehouseID).Msg("traslado rechazado")
		return nil, err
	}
	tc.log.Info().
		Str("movement_id", m.ID).
		Str("product_id", m.ProductID).
		Str("from", m.WarehouseID).
		Str("to", m.DestinationWarehouseID).
		Str("batch", m.BatchNumber).
		Str("quantity", m.Quantity.String()).
		Msg("traslado confirmado")
	return &CommitResult{Movement: *m, Levels: levels}, nil
}
