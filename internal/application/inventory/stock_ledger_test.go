package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

func TestCommitMovement_EntradaYSalida(t *testing.T) {
	f := newFixture(t)
	f.commit(t, cmd("W1", inventory.Inbound{Quantity: dec(50)}))
	res := f.commit(t, cmd("W1", inventory.Outbound{Quantity: dec(20)}))

	require.Len(t, res.Levels, 1)
	assert.True(t, res.Levels[0].CurrentQuantity.Equal(dec(30)))
	assert.Equal(t, entity.UnbatchedBatch, res.Movement.BatchNumber)
	assert.NotEmpty(t, res.Movement.ID)
	assert.Positive(t, res.Movement.Seq)
	assert.True(t, f.level(t, "W1").CurrentQuantity.Equal(dec(30)))
}

func TestCommitMovement_SalidaMayorAlStockSeRechazaSinEfecto(t *testing.T) {
	f := newFixture(t)
	f.commit(t, cmd("W1", inventory.Inbound{Quantity: dec(30)}))

	_, err := f.ledger.CommitMovement(context.Background(), cmd("W1", inventory.Outbound{Quantity: dec(40)}))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var se *domain.StockError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.Requested.Equal(dec(40)))
	assert.True(t, se.Current.Equal(dec(30)))
	assert.Equal(t, domain.KindInvariant, domain.KindOf(err))

	assert.True(t, f.level(t, "W1").CurrentQuantity.Equal(dec(30)), "nunca se recorta la salida")
	assert.Equal(t, 1, f.countMovements(t))
}

func TestCommitMovement_AjusteConSigno(t *testing.T) {
	f := newFixture(t)
	f.commit(t, cmd("W1", inventory.Adjustment{Delta: dec(12)}))
	f.commit(t, cmd("W1", inventory.Adjustment{Delta: dec(-2)}))
	assert.True(t, f.level(t, "W1").CurrentQuantity.Equal(dec(10)))

	_, err := f.ledger.CommitMovement(context.Background(), cmd("W1", inventory.Adjustment{Delta: dec(-11)}))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestCommitMovement_ValidacionSinEfecto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []struct {
		name  string
		cmd   inventory.MovementCommand
		want  error
		field string
	}{
		{"entrada en cero", cmd("W1", inventory.Inbound{Quantity: dec(0)}), domain.ErrInvalidQuantity, "quantity"},
		{"salida negativa", cmd("W1", inventory.Outbound{Quantity: dec(-1)}), domain.ErrInvalidQuantity, "quantity"},
		{"ajuste en cero", cmd("W1", inventory.Adjustment{Delta: dec(0)}), domain.ErrInvalidQuantity, "quantity"},
		{"traslado a la misma bodega", cmd("W1", inventory.Transfer{DestinationWarehouseID: "W1", Quantity: dec(1)}),
			domain.ErrInvalidTransferTarget, "destination_warehouse_id"},
		{"traslado sin destino", cmd("W1", inventory.Transfer{Quantity: dec(1)}),
			domain.ErrInvalidTransferTarget, "destination_warehouse_id"},
		{"sin tipo", cmd("W1", nil), domain.ErrInvalidInput, "movement_type"},
		{"sin bodega", cmd("", inventory.Inbound{Quantity: dec(1)}), domain.ErrInvalidInput, "warehouse_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ledger.CommitMovement(ctx, tc.cmd)
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.Contains(t, domain.FieldsOf(err), tc.field)
		})
	}
	assert.Equal(t, 0, f.countMovements(t))
}

func TestCommitMovement_CatalogoInexistente(t *testing.T) {
	f := newFixture(t)
	c := cmd("W9", inventory.Inbound{Quantity: dec(1)})
	_, err := f.ledger.CommitMovement(context.Background(), c)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, domain.FieldsOf(err), "warehouse_id")

	c = cmd("W1", inventory.Inbound{Quantity: dec(1)})
	c.ProductID = "P9"
	_, err = f.ledger.CommitMovement(context.Background(), c)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCommitMovement_SalidaNoConsumeLoReservado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.commit(t, cmd("W1", inventory.Inbound{Quantity: dec(30)}))
	_, err := f.reservations.Reserve(ctx, inventory.ReserveCommand{ProductID: "P1", WarehouseID: "W1", Quantity: dec(10)})
	require.NoError(t, err)

	_, err = f.ledger.CommitMovement(ctx, cmd("W1", inventory.Outbound{Quantity: dec(25)}))
	require.ErrorIs(t, err, domain.ErrInsufficientAvailable)

	f.commit(t, cmd("W1", inventory.Outbound{Quantity: dec(20)}))
	lvl := f.level(t, "W1")
	assert.True(t, lvl.CurrentQuantity.Equal(dec(10)))
	assert.True(t, lvl.AvailableQuantity().IsZero())
}

func TestTransfer_UnSoloRegistroYAtomico(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.commit(t, cmd("W1", inventory.Inbound{Quantity: dec(50)}))

	res := f.commit(t, cmd("W1", inventory.Transfer{DestinationWarehouseID: "W2", Quantity: dec(30)}))
	assert.Equal(t, entity.MovementTypeTRANSFER, res.Movement.Type)
	assert.Len(t, res.Levels, 2)
	assert.True(t, f.level(t, "W1").CurrentQuantity.Equal(dec(20)))
	assert.True(t, f.level(t, "W2").CurrentQuantity.Equal(dec(30)))

	n := 0
	for m, err := range f.ledger.ListMovements(ctx, repository.MovementFilter{Type: entity.MovementTypeTRANSFER}) {
		require.NoError(t, err)
		assert.Equal(t, "W2", m.DestinationWarehouseID)
		n++
	}
	assert.Equal(t, 1, n, "un traslado es un solo registro")

	_, err := f.transfers.ExecuteTransfer(ctx, inventory.TransferCommand{
		ProductID: "P1", SourceWarehouseID: "W1", DestinationWarehouseID: "W2", Quantity: dec(21),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, f.level(t, "W1").CurrentQuantity.Equal(dec(20)))
	assert.True(t, f.level(t, "W2").CurrentQuantity.Equal(dec(30)))

	_, err = f.transfers.ExecuteTransfer(ctx, inventory.TransferCommand{
		ProductID: "P1", SourceWarehouseID: "W1", DestinationWarehouseID: "W9", Quantity: dec(1),
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, domain.FieldsOf(err), "destination_warehouse_id")
}

func TestCommitMovement_ConcurrenciaConservaCantidad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.commit(t, cmd("W1", inventory.Inbound{Quantity: dec(100)}))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.CommitMovement(ctx, cmd("W1", inventory.Outbound{Quantity: dec(3)}))
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, 33, accepted)
	assert.True(t, f.level(t, "W1").CurrentQuantity.Equal(dec(1)))
	assert.Equal(t, 1+accepted, f.countMovements(t))
}

func TestTransfer_ConcurrenciaEnAmbosSentidos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.commit(t, cmd("W1", inventory.Inbound{Quantity: dec(100)}))
	f.commit(t, cmd("W2", inventory.Inbound{Quantity: dec(100)}))

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		src, dst := "W1", "W2"
		if i%2 == 1 {
			src, dst = dst, src
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.CommitMovement(ctx, cmd(src, inventory.Transfer{DestinationWarehouseID: dst, Quantity: dec(5)}))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	total := f.level(t, "W1").CurrentQuantity.Add(f.level(t, "W2").CurrentQuantity)
	assert.True(t, total.Equal(dec(200)), "los traslados conservan el total")
}

func TestGetLevel_PorLoteYAgregado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := cmd("W1", inventory.Inbound{Quantity: dec(5)})
	c.BatchNumber = "L1"
	f.commit(t, c)
	f.commit(t, cmd("W1", inventory.Inbound{Quantity: dec(2)}))

	assert.True(t, f.level(t, "W1").CurrentQuantity.Equal(dec(7)))
	batch := "L1"
	lvl, err := f.ledger.GetLevel(ctx, "P1", "W1", &batch)
	require.NoError(t, err)
	assert.True(t, lvl.CurrentQuantity.Equal(dec(5)))

	empty := ""
	lvl, err = f.ledger.GetLevel(ctx, "P1", "W1", &empty)
	require.NoError(t, err)
	assert.True(t, lvl.CurrentQuantity.Equal(dec(2)))

	lvl, err = f.ledger.GetLevel(ctx, "P1", "W2", nil)
	require.NoError(t, err)
	assert.True(t, lvl.CurrentQuantity.IsZero(), "una llave sin movimientos está en cero")

	_, err = f.ledger.GetLevel(ctx, "", "W1", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetLevel_LecturaRepetidaSinEscriturasEsIdentica(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := cmd("W1", inventory.Inbound{Quantity: dec(8)})
	c.BatchNumber = "L1"
	f.commit(t, c)
	f.commit(t, cmd("W1", inventory.Inbound{Quantity: dec(4)}))
	_, err := f.reservations.Reserve(ctx, reserve(3))
	require.NoError(t, err)

	batch := "L1"
	for _, b := range []*string{&batch, nil} {
		first, err := f.ledger.GetLevel(ctx, "P1", "W1", b)
		require.NoError(t, err)
		second, err := f.ledger.GetLevel(ctx, "P1", "W1", b)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}

	agg, err := f.ledger.GetLevel(ctx, "P1", "W1", nil)
	require.NoError(t, err)
	assert.True(t, agg.CurrentQuantity.Equal(dec(12)))
	assert.True(t, agg.ReservedQuantity.Equal(dec(3)))
	assert.Equal(t, 2, f.countMovements(t), "las lecturas no agregan movimientos")
}

func TestListMovements_ReiniciableYOrdenado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, q := range []int64{1, 2, 3} {
		f.commit(t, cmd("W1", inventory.Inbound{Quantity: dec(q)}))
	}
	seq := f.ledger.ListMovements(ctx, repository.MovementFilter{ProductID: "P1"})
	read := func() []int64 {
		var out []int64
		for m, err := range seq {
			require.NoError(t, err)
			out = append(out, m.Quantity.IntPart())
		}
		return out
	}
	assert.Equal(t, []int64{1, 2, 3}, read())
	assert.Equal(t, []int64{1, 2, 3}, read(), "cada recorrido empieza desde el origen")

	var desc []int64
	for m, err := range f.ledger.ListMovements(ctx, repository.MovementFilter{Descending: true}) {
		require.NoError(t, err)
		desc = append(desc, m.Quantity.IntPart())
	}
	assert.Equal(t, []int64{3, 2, 1}, desc)
}

func TestReverseMovement_Compensa(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := f.commit(t, cmd("W1", inventory.Inbound{Quantity: dec(10)}))
	out := f.commit(t, cmd("W1", inventory.Outbound{Quantity: dec(4)}))
	adj := f.commit(t, cmd("W1", inventory.Adjustment{Delta: dec(-1)}))

	rev, err := f.ledger.ReverseMovement(ctx, adj.Movement.ID, "auditor")
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeADJUSTMENT, rev.Movement.Type)
	assert.True(t, rev.Movement.Quantity.Equal(dec(1)))
	assert.Equal(t, entity.ReferenceMovementReversal, rev.Movement.ReferenceType)
	assert.Equal(t, adj.Movement.ID, rev.Movement.ReferenceID)
	assert.Equal(t, "auditor", rev.Movement.CreatedBy)

	rev, err = f.ledger.ReverseMovement(ctx, out.Movement.ID, "auditor")
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeIN, rev.Movement.Type)
	assert.True(t, f.level(t, "W1").CurrentQuantity.Equal(dec(10)))

	rev, err = f.ledger.ReverseMovement(ctx, in.Movement.ID, "auditor")
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeOUT, rev.Movement.Type)
	assert.True(t, f.level(t, "W1").CurrentQuantity.IsZero())

	_, err = f.ledger.GetMovement(ctx, in.Movement.ID)
	assert.NoError(t, err, "el original nunca se borra")
	assert.Equal(t, 6, f.countMovements(t))
}

func TestReverseMovement_Rechazos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := f.commit(t, cmd("W1", inventory.Inbound{Quantity: dec(10)}))
	tr := f.commit(t, cmd("W1", inventory.Transfer{DestinationWarehouseID: "W2", Quantity: dec(2)}))

	_, err := f.ledger.ReverseMovement(ctx, tr.Movement.ID, "")
	assert.ErrorIs(t, err, domain.ErrImmutableLedger, "traslado")

	_, err = f.ledger.ReverseMovement(ctx, in.Movement.ID, "")
	assert.ErrorIs(t, err, domain.ErrImmutableLedger, "la entrada ya fue movida aguas abajo")

	in2 := f.commit(t, cmd("W1", inventory.Inbound{Quantity: dec(5)}))
	rev, err := f.ledger.ReverseMovement(ctx, in2.Movement.ID, "")
	require.NoError(t, err)
	_, err = f.ledger.ReverseMovement(ctx, in2.Movement.ID, "")
	assert.ErrorIs(t, err, domain.ErrImmutableLedger, "ya revertido")
	_, err = f.ledger.ReverseMovement(ctx, rev.Movement.ID, "")
	assert.ErrorIs(t, err, domain.ErrImmutableLedger, "una reversión no se revierte")

	_, err = f.ledger.ReverseMovement(ctx, "no-existe", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.KindImmutable, domain.KindOf(domain.ErrImmutableLedger))
}
