package analytics_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/analytics"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestWeightedAverageCost_SinCostoEsNil(t *testing.T) {
	f := newFixture(t, entity.Product{ID: "P1"})
	ctx := context.Background()

	cost, err := f.valuation.WeightedAverageCost(ctx, "P1", "")
	require.NoError(t, err)
	assert.Nil(t, cost, "sin entradas")

	f.in(t, "P1", "W1", 10, nil)
	cost, err = f.valuation.WeightedAverageCost(ctx, "P1", "W1")
	require.NoError(t, err)
	assert.Nil(t, cost, "entradas sin costo no cuentan")

	_, err = f.valuation.WeightedAverageCost(ctx, "P9", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWeightedAverageCost_Ponderado(t *testing.T) {
	f := newFixture(t, entity.Product{ID: "P1"})
	ctx := context.Background()
	f.in(t, "P1", "W1", 10, decp("2"))
	f.in(t, "P1", "W1", 30, decp("6"))
	f.in(t, "P1", "W1", 5, nil) // ignorada
	f.in(t, "P1", "W2", 10, decp("10"))

	cost, err := f.valuation.WeightedAverageCost(ctx, "P1", "W1")
	require.NoError(t, err)
	require.NotNil(t, cost)
	assert.True(t, cost.Equal(dec(5)), cost.String()) // (20+180)/40

	cost, err = f.valuation.WeightedAverageCost(ctx, "P1", "")
	require.NoError(t, err)
	assert.True(t, cost.Equal(dec(6)), cost.String()) // (20+180+100)/50
}

func TestWeightedAverageCost_ExcluyeEntradasRevertidas(t *testing.T) {
	f := newFixture(t, entity.Product{ID: "P1"})
	ctx := context.Background()
	f.in(t, "P1", "W1", 10, decp("2"))
	bad := f.in(t, "P1", "W1", 10, decp("100"))
	_, err := f.ledger.ReverseMovement(ctx, bad.Movement.ID, "")
	require.NoError(t, err)

	cost, err := f.valuation.WeightedAverageCost(ctx, "P1", "W1")
	require.NoError(t, err)
	require.NotNil(t, cost)
	assert.True(t, cost.Equal(dec(2)), cost.String())
}

func TestTotalValue_AgrupaYUsaRespaldoDelProducto(t *testing.T) {
	f := newFixture(t,
		entity.Product{ID: "P1", SKU: "A", CategoryID: "C1"},
		entity.Product{ID: "P2", SKU: "B"},
	)
	ctx := context.Background()
	f.in(t, "P1", "W1", 10, decp("3"))
	f.in(t, "P1", "W2", 4, nil)        // W2 sin costo propio: promedio del producto, 4 × 3
	f.in(t, "P2", "W1", 7, nil)        // sin costo conocido
	f.out(t, "P1", "W1", 2)            // W1 queda en 8 × 3

	v, err := f.valuation.TotalValue(ctx, analytics.ValuationScope{})
	require.NoError(t, err)
	assert.True(t, v.TotalValue.Equal(dec(36)), v.TotalValue.String())
	assert.True(t, v.TotalQuantity.Equal(dec(19)))
	assert.Equal(t, 1, v.UnvaluedItems)
	require.Len(t, v.Lines, 3)
	assert.Equal(t, "W1", v.Lines[0].WarehouseID)
	assert.Equal(t, analytics.CostSourceWarehouse, v.Lines[0].CostSource)
	assert.Equal(t, analytics.CostSourceProduct, v.Lines[1].CostSource)
	assert.Nil(t, v.Lines[2].UnitCost)

	require.Len(t, v.ByCategory, 2)
	assert.Equal(t, "C1", v.ByCategory[0].ID)
	assert.Equal(t, analytics.UncategorizedID, v.ByCategory[1].ID)
	require.Len(t, v.ByWarehouse, 2)
	assert.Equal(t, "BOD-1", v.ByWarehouse[0].Label)

	v, err = f.valuation.TotalValue(ctx, analytics.ValuationScope{WarehouseID: "W2"})
	require.NoError(t, err)
	assert.True(t, v.TotalValue.Equal(dec(12)))

	v, err = f.valuation.TotalValue(ctx, analytics.ValuationScope{CategoryID: analytics.UncategorizedID})
	require.NoError(t, err)
	assert.True(t, v.TotalValue.IsZero())
	assert.Equal(t, 1, v.UnvaluedItems)
}
