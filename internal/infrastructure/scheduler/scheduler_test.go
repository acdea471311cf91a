package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/analytics"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvaluator struct {
	calls int
	pub   analytics.AlertPublisher
	err   error
}

func (f *fakeEvaluator) EvaluateAndPublish(_ context.Context, pub analytics.AlertPublisher, now time.Time) (analytics.AlertSnapshot, error) {
	f.calls++
	f.pub = pub
	return analytics.AlertSnapshot{EvaluatedAt: now}, f.err
}

type fakeSweeper struct {
	calls int
	at    time.Time
}

func (f *fakeSweeper) SweepExpired(_ context.Context, now time.Time) (int, error) {
	f.calls++
	f.at = now
	return 2, nil
}

func TestScheduler_ExpresionInvalida(t *testing.T) {
	s := New(config.SchedulerConfig{LowStockCron: "no es cron"}, &fakeEvaluator{}, nil, &fakeSweeper{}, logger.Nop())
	assert.Error(t, s.Start())
}

func TestScheduler_TareasUsanDependencias(t *testing.T) {
	ev := &fakeEvaluator{}
	sw := &fakeSweeper{}
	pub := analytics.NewLogAlertPublisher(logger.Nop())
	s := New(config.SchedulerConfig{LowStockCron: "*/15 * * * *", ReservationSweepCron: "@every 1m"}, ev, pub, sw, logger.Nop())
	fixed := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.evaluateLowStock()
	s.sweepReservations()
	assert.Equal(t, 1, ev.calls)
	assert.Same(t, pub, ev.pub)
	assert.Equal(t, 1, sw.calls)
	assert.Equal(t, fixed, sw.at)

	ev.err = errors.New("db caída")
	s.evaluateLowStock()
	assert.Equal(t, 2, ev.calls, "un error se registra y no detiene al scheduler")

	require.NoError(t, s.Start())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
