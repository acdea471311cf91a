package inventory

import (
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CriticalRatio fracción del umbral por debajo de la cual la alerta es crítica.
var CriticalRatio = decimal.NewFromFloat(0.3)

// ClassifyStock devuelve la severidad de la cantidad disponible frente al umbral.
// ok=false cuando no hay alerta (disponible > umbral o umbral no positivo).
//
//	disponible <= 0               -> out_of_stock
//	disponible <= 0.3 * umbral    -> critical
//	disponible <= umbral          -> low
func ClassifyStock(available, threshold decimal.Decimal) (entity.AlertSeverity, bool) {
	if !threshold.IsPositive() {
		return "", false
	}
	switch {
	case available.LessThanOrEqual(decimal.Zero):
		return entity.SeverityOutOfStock, true
	case available.LessThanOrEqual(threshold.Mul(CriticalRatio)):
		return entity.SeverityCritical, true
	case available.LessThanOrEqual(threshold):
		return entity.SeverityLow, true
	}
	return "", false
}
