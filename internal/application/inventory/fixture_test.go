package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// fixture ledger completo sobre el store en memoria con P1, W1 y W2.
type fixture struct {
	store        *memory.Store
	ledger       *inventory.StockLedger
	transfers    *inventory.TransferCoordinator
	reservations *inventory.ReservationManager
	exchange     *inventory.CSVExchange
}

func newFixture(t *testing.T, opts ...inventory.ReservationOption) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: "P1", SKU: "SKU-1", Name: "Tornillo"})
	store.AddWarehouse(entity.Warehouse{ID: "W1", Code: "BOD-1", Name: "Principal"})
	store.AddWarehouse(entity.Warehouse{ID: "W2", Code: "BOD-2", Name: "Secundaria"})

	log := logger.Nop()
	catalog := inventory.NewCatalog(store.Products(), store.Warehouses())
	transfers := inventory.NewTransferCoordinator(store.TxRunner(), catalog, log)
	ledger := inventory.NewStockLedger(store.TxRunner(), store.Movements(), store.Levels(), catalog, transfers, log)
	return &fixture{
		store:        store,
		ledger:       ledger,
		transfers:    transfers,
		reservations: inventory.NewReservationManager(store.TxRunner(), store.Reservations(), catalog, log, opts...),
		exchange:     inventory.NewCSVExchange(ledger, catalog, log),
	}
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func cmd(warehouseID string, kind inventory.MovementKind) inventory.MovementCommand {
	return inventory.MovementCommand{ProductID: "P1", WarehouseID: warehouseID, Kind: kind, CreatedBy: "tester"}
}

func (f *fixture) commit(t *testing.T, c inventory.MovementCommand) *inventory.CommitResult {
	t.Helper()
	res, err := f.ledger.CommitMovement(context.Background(), c)
	require.NoError(t, err)
	return res
}

// level nivel agregado de P1 en la bodega.
func (f *fixture) level(t *testing.T, warehouseID string) entity.StockLevel {
	t.Helper()
	lvl, err := f.ledger.GetLevel(context.Background(), "P1", warehouseID, nil)
	require.NoError(t, err)
	return lvl
}

func (f *fixture) countMovements(t *testing.T) int {
	t.Helper()
	n := 0
	for _, err := range f.ledger.ListMovements(context.Background(), repository.MovementFilter{}) {
		require.NoError(t, err)
		n++
	}
	return n
}
