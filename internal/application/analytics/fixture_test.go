package analytics_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/analytics"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

type fixture struct {
	store        *memory.Store
	ledger       *inventory.StockLedger
	reservations *inventory.ReservationManager
	monitor      *analytics.LowStockMonitor
	valuation    *analytics.ValuationEngine
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newFixture(t *testing.T, products ...entity.Product) *fixture {
	t.Helper()
	store := memory.NewStore()
	for _, p := range products {
		store.AddProduct(p)
	}
	store.AddWarehouse(entity.Warehouse{ID: "W1", Code: "BOD-1"})
	store.AddWarehouse(entity.Warehouse{ID: "W2", Code: "BOD-2"})

	log := logger.Nop()
	catalog := inventory.NewCatalog(store.Products(), store.Warehouses())
	transfers := inventory.NewTransferCoordinator(store.TxRunner(), catalog, log)
	return &fixture{
		store:        store,
		ledger:       inventory.NewStockLedger(store.TxRunner(), store.Movements(), store.Levels(), catalog, transfers, log),
		reservations: inventory.NewReservationManager(store.TxRunner(), store.Reservations(), catalog, log),
		monitor:      analytics.NewLowStockMonitor(store.Products(), store.Warehouses(), store.Levels()),
		valuation:    analytics.NewValuationEngine(store.Products(), store.Warehouses(), store.Levels(), store.Movements()),
	}
}

func (f *fixture) in(t *testing.T, productID, warehouseID string, qty int64, unitCost *decimal.Decimal) *inventory.CommitResult {
	t.Helper()
	res, err := f.ledger.CommitMovement(context.Background(), inventory.MovementCommand{
		ProductID: productID, WarehouseID: warehouseID, Kind: inventory.Inbound{Quantity: dec(qty)}, UnitCost: unitCost,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) out(t *testing.T, productID, warehouseID string, qty int64) {
	t.Helper()
	_, err := f.ledger.CommitMovement(context.Background(), inventory.MovementCommand{
		ProductID: productID, WarehouseID: warehouseID, Kind: inventory.Outbound{Quantity: dec(qty)},
	})
	require.NoError(t, err)
}

func notified(id string, threshold int64) entity.Product {
	th := dec(threshold)
	return entity.Product{ID: id, SKU: "SKU-" + id, Name: "Producto " + id, StockNotification: true, StockNotificationThreshold: &th}
}
