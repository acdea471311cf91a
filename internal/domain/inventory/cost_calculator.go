package inventory

import "github.com/shopspring/decimal"

// WeightedAverage acumula entradas con costo para el costo promedio ponderado (servicio de dominio).
// Costo = Σ(cantidad_i * costo_i) / Σ(cantidad_i)
// Las entradas sin costo no suman peso ni valor.
type WeightedAverage struct {
	quantity decimal.Decimal
	value    decimal.Decimal
}

// Add registra una entrada. Cantidades no positivas se ignoran.
func (w *WeightedAverage) Add(quantity decimal.Decimal, unitCost *decimal.Decimal) {
	if unitCost == nil || !quantity.IsPositive() {
		return
	}
	w.quantity = w.quantity.Add(quantity)
	w.value = w.value.Add(quantity.Mul(*unitCost))
}

// Merge suma otro acumulador.
func (w *WeightedAverage) Merge(o WeightedAverage) {
	w.quantity = w.quantity.Add(o.quantity)
	w.value = w.value.Add(o.value)
}

// Cost devuelve el costo promedio o nil si ninguna entrada tuvo costo (indefinido, no cero).
func (w WeightedAverage) Cost() *decimal.Decimal {
	if !w.quantity.IsPositive() {
		return nil
	}
	c := w.value.Div(w.quantity)
	return &c
}

// CostedQuantity cantidad total que participó en el promedio.
func (w WeightedAverage) CostedQuantity() decimal.Decimal { return w.quantity }
