package entity

import "github.com/shopspring/decimal"

// AlertSeverity severidad de una alerta de stock bajo.
type AlertSeverity string

const (
	SeverityOutOfStock AlertSeverity = "out_of_stock"
	SeverityCritical   AlertSeverity = "critical"
	SeverityLow        AlertSeverity = "low"
)

// Rank orden de presentación: out_of_stock > critical > low.
func (s AlertSeverity) Rank() int {
	switch s {
	case SeverityOutOfStock:
		return 3
	case SeverityCritical:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// LowStockAlert registro derivado (no persistido) de stock bajo por producto y bodega.
type LowStockAlert struct {
	ProductID         string
	SKU               string
	ProductName       string
	WarehouseID       string
	WarehouseCode     string
	AvailableQuantity decimal.Decimal
	Threshold         decimal.Decimal
	Severity          AlertSeverity
}
