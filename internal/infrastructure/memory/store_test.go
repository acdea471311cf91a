package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type txFn = func(repository.StockMovementRepository, repository.StockLevelRepository, repository.ReservationRepository) error

func commitIN(t *testing.T, s *memory.Store, id string, qty int64) {
	t.Helper()
	ctx := context.Background()
	key := entity.NewLevelKey("p1", "w1", "")
	err := s.TxRunner().Run(ctx, func(mr repository.StockMovementRepository, lr repository.StockLevelRepository, _ repository.ReservationRepository) error {
		lvl, err := lr.GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		lvl.CurrentQuantity = lvl.CurrentQuantity.Add(decimal.NewFromInt(qty))
		if err := lr.Upsert(ctx, lvl); err != nil {
			return err
		}
		return mr.Create(ctx, &entity.StockMovement{ID: id, ProductID: "p1", WarehouseID: "w1",
			Type: entity.MovementTypeIN, Quantity: decimal.NewFromInt(qty), BatchNumber: entity.UnbatchedBatch})
	})
	require.NoError(t, err)
}

func TestTxRunner_ErrorNoAplicaNada(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	key := entity.NewLevelKey("p1", "w1", "")
	boom := errors.New("boom")

	var fn txFn = func(mr repository.StockMovementRepository, lr repository.StockLevelRepository, _ repository.ReservationRepository) error {
		lvl, err := lr.GetForUpdate(ctx, key)
		require.NoError(t, err)
		lvl.CurrentQuantity = decimal.NewFromInt(10)
		require.NoError(t, lr.Upsert(ctx, lvl))
		require.NoError(t, mr.Create(ctx, &entity.StockMovement{ID: "m1", ProductID: "p1", WarehouseID: "w1",
			Type: entity.MovementTypeIN, Quantity: decimal.NewFromInt(10)}))
		return boom
	}
	err := s.TxRunner().Run(ctx, fn)
	assert.ErrorIs(t, err, boom)

	lvl, err := s.Levels().Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, lvl.CurrentQuantity.IsZero())
	m, err := s.Movements().GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestTxRunner_ContextoCanceladoAntesDeConfirmar(t *testing.T) {
	s := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	key := entity.NewLevelKey("p1", "w1", "")

	err := s.TxRunner().Run(ctx, func(_ repository.StockMovementRepository, lr repository.StockLevelRepository, _ repository.ReservationRepository) error {
		lvl, err := lr.GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		lvl.CurrentQuantity = decimal.NewFromInt(5)
		cancel()
		return lr.Upsert(ctx, lvl)
	})
	require.ErrorIs(t, err, context.Canceled)

	lvl, _ := s.Levels().Get(context.Background(), key)
	assert.True(t, lvl.CurrentQuantity.IsZero(), "una llamada cancelada no deja efectos parciales")
}

func TestStore_EscrituraFueraDeTransaccion(t *testing.T) {
	s := memory.NewStore()
	err := s.Levels().Upsert(context.Background(), entity.NewStockLevel(entity.NewLevelKey("p1", "w1", "")))
	assert.Error(t, err)
	_, err = s.Levels().GetForUpdate(context.Background(), entity.NewLevelKey("p1", "w1", ""))
	assert.Error(t, err)
}

func TestMovementRepo_ListEsReiniciableYOrdenado(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := memory.NewStore(memory.WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	commitIN(t, s, "a", 1)
	commitIN(t, s, "b", 2)
	commitIN(t, s, "c", 3)

	seq := s.Movements().List(context.Background(), repository.MovementFilter{ProductID: "p1"})
	collect := func() []string {
		var ids []string
		for m, err := range seq {
			require.NoError(t, err)
			ids = append(ids, m.ID)
		}
		return ids
	}
	assert.Equal(t, []string{"a", "b", "c"}, collect())
	assert.Equal(t, []string{"a", "b", "c"}, collect(), "un segundo recorrido vuelve a empezar")

	var prev int64
	for m, err := range seq {
		require.NoError(t, err)
		assert.Greater(t, m.Seq, prev)
		prev = m.Seq
	}

	var desc []string
	for m, err := range s.Movements().List(context.Background(), repository.MovementFilter{Descending: true}) {
		require.NoError(t, err)
		desc = append(desc, m.ID)
	}
	assert.Equal(t, []string{"c", "b", "a"}, desc)

	lvl, err := s.Levels().Get(context.Background(), entity.NewLevelKey("p1", "w1", ""))
	require.NoError(t, err)
	assert.True(t, lvl.CurrentQuantity.Equal(decimal.NewFromInt(6)))
}

func TestStore_LoadSeedFile(t *testing.T) {
	path := t.TempDir() + "/seed.json"
	raw := `{"products":[{"id":"p1","sku":"SKU-1","name":"Tornillo","stock_notification":true,"stock_notification_threshold":"100"}],
"warehouses":[{"id":"w1","code":"BOD-1","name":"Principal"}]}`
	require.NoError(t, writeFile(path, raw))

	s := memory.NewStore()
	require.NoError(t, s.LoadSeedFile(path))

	p, err := s.Products().GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	th, ok := p.AlertThreshold()
	assert.True(t, ok)
	assert.True(t, th.Equal(decimal.NewFromInt(100)))

	w, err := s.Warehouses().GetByID(context.Background(), "w1")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "BOD-1", w.Code)
}
