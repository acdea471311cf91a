package entity

import "github.com/shopspring/decimal"

// Product producto del catálogo externo; el ledger solo lo lee.
type Product struct {
	ID                         string
	SKU                        string
	Name                       string
	CategoryID                 string
	StockNotification          bool
	StockNotificationThreshold *decimal.Decimal
}

// AlertThreshold umbral efectivo si la notificación está habilitada.
func (p Product) AlertThreshold() (decimal.Decimal, bool) {
	if !p.StockNotification || p.StockNotificationThreshold == nil {
		return decimal.Zero, false
	}
	return *p.StockNotificationThreshold, true
}
