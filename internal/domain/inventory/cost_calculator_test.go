package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestWeightedAverage_PromedioPonderado(t *testing.T) {
	var w inventory.WeightedAverage
	w.Add(dec("10"), ptr("5"))
	w.Add(dec("30"), ptr("9"))

	cost := w.Cost()
	require.NotNil(t, cost)
	assert.True(t, cost.Equal(dec("8")), "(10*5 + 30*9) / 40 = 8, obtenido %s", cost)
	assert.True(t, w.CostedQuantity().Equal(dec("40")))
}

func TestWeightedAverage_EntradasSinCostoNoPesan(t *testing.T) {
	var w inventory.WeightedAverage
	w.Add(dec("10"), ptr("4"))
	w.Add(dec("90"), nil)

	cost := w.Cost()
	require.NotNil(t, cost)
	assert.True(t, cost.Equal(dec("4")), "la entrada sin costo no debe diluir el promedio")
}

func TestWeightedAverage_SinEntradasConCostoEsIndefinido(t *testing.T) {
	var w inventory.WeightedAverage
	w.Add(dec("10"), nil)
	assert.Nil(t, w.Cost(), "sin entradas con costo el resultado es nulo, no cero")
}

func TestWeightedAverage_Merge(t *testing.T) {
	var a, b inventory.WeightedAverage
	a.Add(dec("2"), ptr("10"))
	b.Add(dec("2"), ptr("20"))
	a.Merge(b)
	require.NotNil(t, a.Cost())
	assert.True(t, a.Cost().Equal(dec("15")))
}
