package entity

import "github.com/shopspring/decimal"

// Warehouse bodega del catálogo externo (solo lectura para el ledger).
type Warehouse struct {
	ID              string
	Code            string
	Name            string
	StorageCapacity *decimal.Decimal
}
