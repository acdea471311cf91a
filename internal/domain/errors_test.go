package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

func TestKindOf_Clasificacion(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{"cantidad", domain.ErrInvalidQuantity, domain.KindValidation},
		{"destino", fmt.Errorf("transfer: %w", domain.ErrInvalidTransferTarget), domain.KindValidation},
		{"stock", &domain.StockError{Err: domain.ErrInsufficientStock}, domain.KindInvariant},
		{"disponible", &domain.StockError{Err: domain.ErrInsufficientAvailable}, domain.KindInvariant},
		{"liquidada", domain.ErrAlreadySettled, domain.KindInvariant},
		{"inmutable", domain.ErrImmutableLedger, domain.KindImmutable},
		{"conflicto", fmt.Errorf("%w: %w", domain.ErrConflict, context.DeadlineExceeded), domain.KindConflict},
		{"no encontrado", domain.ErrNotFound, domain.KindNotFound},
		{"otro", errors.New("boom"), domain.KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.KindOf(tc.err))
		})
	}
	assert.Equal(t, domain.ErrorKind(""), domain.KindOf(nil))
}

func TestValidationBag_CamposYUnwrap(t *testing.T) {
	var bag domain.ValidationBag
	assert.NoError(t, bag.OrNil())

	bag.Add("quantity", domain.ErrInvalidQuantity, "")
	bag.Add("destination_warehouse_id", domain.ErrInvalidTransferTarget, "debe ser distinta a la bodega origen")
	err := bag.OrNil()

	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.ErrorIs(t, err, domain.ErrInvalidTransferTarget)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	fields := domain.FieldsOf(fmt.Errorf("commit: %w", err))
	assert.Equal(t, []string{domain.ErrInvalidQuantity.Error()}, fields["quantity"])
	assert.Equal(t, []string{"debe ser distinta a la bodega origen"}, fields["destination_warehouse_id"])
	assert.Equal(t, []string{"destination_warehouse_id", "quantity"}, domain.FieldNames(err))
}

func TestStockError_Mensaje(t *testing.T) {
	err := &domain.StockError{
		ProductID: "P1", WarehouseID: "W1", BatchNumber: "B1",
		Requested: decimal.NewFromInt(40), Current: decimal.NewFromInt(30), Available: decimal.NewFromInt(30),
		Err: domain.ErrInsufficientStock,
	}
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "solicitado 40")
	assert.Nil(t, domain.FieldsOf(err))
}
