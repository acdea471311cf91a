package inventory

import (
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MovementKind variante del movimiento solicitado. Cada tipo lleva solo los campos que le aplican.
type MovementKind interface {
	Type() entity.MovementType
	isMovementKind()
}

// Inbound entrada de mercancía (+cantidad).
type Inbound struct{ Quantity decimal.Decimal }

// Outbound salida de mercancía (-cantidad).
type Outbound struct{ Quantity decimal.Decimal }

// Adjustment ajuste con signo (positivo o negativo, distinto de cero).
type Adjustment struct{ Delta decimal.Decimal }

// Transfer traslado hacia otra bodega.
type Transfer struct {
	DestinationWarehouseID string
	Quantity               decimal.Decimal
}

func (Inbound) Type() entity.MovementType    { return entity.MovementTypeIN }
func (Outbound) Type() entity.MovementType   { return entity.MovementTypeOUT }
func (Adjustment) Type() entity.MovementType { return entity.MovementTypeADJUSTMENT }
func (Transfer) Type() entity.MovementType   { return entity.MovementTypeTRANSFER }

func (Inbound) isMovementKind()    {}
func (Outbound) isMovementKind()   {}
func (Adjustment) isMovementKind() {}
func (Transfer) isMovementKind()   {}

// MovementCommand entrada para CommitMovement.
type MovementCommand struct {
	ProductID     string
	WarehouseID   string
	BatchNumber   string
	Kind          MovementKind
	UnitCost      *decimal.Decimal
	ReferenceType string
	ReferenceID   string
	Notes         string
	CreatedBy     string
}

// NewMovementKind construye la variante a partir de campos planos (DTO HTTP, filas CSV).
// quantity es el delta con signo para ADJUSTMENT.
func NewMovementKind(movementType string, quantity decimal.Decimal, destinationWarehouseID string) (MovementKind, error) {
	mt, ok := entity.ParseMovementType(strings.ToUpper(strings.TrimSpace(movementType)))
	if !ok {
		return nil, &domain.FieldError{Field: "movement_type", Message: "debe ser IN, OUT, TRANSFER o ADJUSTMENT", Err: domain.ErrInvalidInput}
	}
	switch mt {
	case entity.MovementTypeIN:
		return Inbound{Quantity: quantity}, nil
	case entity.MovementTypeOUT:
		return Outbound{Quantity: quantity}, nil
	case entity.MovementTypeADJUSTMENT:
		return Adjustment{Delta: quantity}, nil
	default:
		return Transfer{DestinationWarehouseID: strings.TrimSpace(destinationWarehouseID), Quantity: quantity}, nil
	}
}

// validate revisa los campos sin tocar el estado. Devuelve un ValidationBag con todos los errores.
func (c MovementCommand) validate() error {
	var bag domain.ValidationBag
	if strings.TrimSpace(c.ProductID) == "" {
		bag.Add("product_id", domain.ErrInvalidInput, "product_id es requerido")
	}
	if strings.TrimSpace(c.WarehouseID) == "" {
		bag.Add("warehouse_id", domain.ErrInvalidInput, "warehouse_id es requerido")
	}
	if c.UnitCost != nil && c.UnitCost.IsNegative() {
		bag.Add("unit_cost", domain.ErrInvalidInput, "unit_cost no puede ser negativo")
	}
	switch k := c.Kind.(type) {
	case Inbound:
		checkPositive(&bag, k.Quantity)
	case Outbound:
		checkPositive(&bag, k.Quantity)
	case Adjustment:
		if k.Delta.IsZero() {
			bag.Add("quantity", domain.ErrInvalidQuantity, "el ajuste debe ser distinto de cero")
		}
	case Transfer:
		checkPositive(&bag, k.Quantity)
		checkTransferTarget(&bag, c.WarehouseID, k.DestinationWarehouseID)
	case nil:
		bag.Add("movement_type", domain.ErrInvalidInput, "movement_type es requerido")
	}
	return bag.OrNil()
}

func checkPositive(bag *domain.ValidationBag, q decimal.Decimal) {
	if !q.IsPositive() {
		bag.Add("quantity", domain.ErrInvalidQuantity, "")
	}
}

func checkTransferTarget(bag *domain.ValidationBag, source, destination string) {
	switch {
	case strings.TrimSpace(destination) == "":
		bag.Add("destination_warehouse_id", domain.ErrInvalidTransferTarget, "destination_warehouse_id es requerido para TRANSFER")
	case destination == source:
		bag.Add("destination_warehouse_id", domain.ErrInvalidTransferTarget, "debe ser distinta a la bodega origen")
	}
}

// toMovement arma el registro a confirmar (sin ID ni Seq).
func (c MovementCommand) toMovement() *entity.StockMovement {
	m := &entity.StockMovement{
		ProductID:     c.ProductID,
		WarehouseID:   c.WarehouseID,
		Type:          c.Kind.Type(),
		BatchNumber:   entity.NormalizeBatch(c.BatchNumber),
		UnitCost:      c.UnitCost,
		ReferenceType: c.ReferenceType,
		ReferenceID:   c.ReferenceID,
		Notes:         c.Notes,
		CreatedBy:     c.CreatedBy,
	}
	switch k := c.Kind.(type) {
	case Inbound:
		m.Quantity = k.Quantity
	case Outbound:
		m.Quantity = k.Quantity
	case Adjustment:
		m.Quantity = k.Delta
	case Transfer:
		m.Quantity = k.Quantity
		m.DestinationWarehouseID = k.DestinationWarehouseID
	}
	return m
}
