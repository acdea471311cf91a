package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento de inventario.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementTypeIN         MovementType = "IN"         // entrada
	MovementTypeOUT        MovementType = "OUT"        // salida
	MovementTypeADJUSTMENT MovementType = "ADJUSTMENT" // ajuste con signo
	MovementTypeTRANSFER   MovementType = "TRANSFER"   // traslado entre bodegas
)

// ParseMovementType valida el tipo recibido como texto.
func ParseMovementType(s string) (MovementType, bool) {
	switch t := MovementType(s); t {
	case MovementTypeIN, MovementTypeOUT, MovementTypeADJUSTMENT, MovementTypeTRANSFER:
		return t, true
	}
	return "", false
}

// Tipos de referencia que usa el propio ledger.
const (
	ReferenceReservation      = "reservation"
	ReferenceMovementReversal = "movement_reversal"
)

// StockMovement entrada inmutable del ledger. Una vez confirmada no se modifica ni se borra;
// las correcciones son movimientos compensatorios.
//
// Quantity es la magnitud positiva para IN, OUT y TRANSFER; en ADJUSTMENT es el delta con signo (distinto de cero).
type StockMovement struct {
	ID                     string
	ProductID              string
	WarehouseID            string
	Type                   MovementType
	Quantity               decimal.Decimal
	DestinationWarehouseID string // solo TRANSFER
	BatchNumber            string
	UnitCost               *decimal.Decimal
	ReferenceType          string
	ReferenceID            string
	Notes                  string
	CreatedBy              string
	Seq                    int64 // orden de confirmación
	CreatedAt              time.Time
}

// LevelEffect cambio con signo sobre una llave de stock.
type LevelEffect struct {
	Key   LevelKey
	Delta decimal.Decimal
}

// SourceKey llave afectada en la bodega de origen.
func (m StockMovement) SourceKey() LevelKey {
	return NewLevelKey(m.ProductID, m.WarehouseID, m.BatchNumber)
}

// Effects devuelve los cambios que el movimiento aplica: uno para IN/OUT/ADJUSTMENT, dos para TRANSFER.
func (m StockMovement) Effects() []LevelEffect {
	src := m.SourceKey()
	switch m.Type {
	case MovementTypeIN, MovementTypeADJUSTMENT:
		return []LevelEffect{{Key: src, Delta: m.Quantity}}
	case MovementTypeOUT:
		return []LevelEffect{{Key: src, Delta: m.Quantity.Neg()}}
	case MovementTypeTRANSFER:
		dst := NewLevelKey(m.ProductID, m.DestinationWarehouseID, m.BatchNumber)
		return []LevelEffect{
			{Key: src, Delta: m.Quantity.Neg()},
			{Key: dst, Delta: m.Quantity},
		}
	}
	return nil
}

// DeltaFor cambio neto del movimiento sobre una llave (cero si no la afecta).
func (m StockMovement) DeltaFor(key LevelKey) decimal.Decimal {
	total := decimal.Zero
	for _, e := range m.Effects() {
		if e.Key == key {
			total = total.Add(e.Delta)
		}
	}
	return total
}

// IsReversal indica si el movimiento compensa a otro.
func (m StockMovement) IsReversal() bool {
	return m.ReferenceType == ReferenceMovementReversal
}
