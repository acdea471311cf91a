// Package scheduler corre las tareas periódicas del ledger con robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/analytics"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/robfig/cron/v3"
)

// AlertEvaluator evaluación de stock bajo publicada (LowStockMonitor).
type AlertEvaluator interface {
	EvaluateAndPublish(ctx context.Context, pub analytics.AlertPublisher, now time.Time) (analytics.AlertSnapshot, error)
}

// ReservationSweeper liberación de reservas vencidas (ReservationManager).
type ReservationSweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

const jobTimeout = 2 * time.Minute

// Scheduler tareas programadas: evaluación de stock bajo y barrido de reservas vencidas.
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.SchedulerConfig
	evaluator AlertEvaluator
	publisher analytics.AlertPublisher
	sweeper   ReservationSweeper
	log       *logger.Logger
	now       func() time.Time
}

// New construye el scheduler. SkipIfStillRunning evita que una corrida lenta se solape con la siguiente.
func New(cfg config.SchedulerConfig, evaluator AlertEvaluator, publisher analytics.AlertPublisher, sweeper ReservationSweeper, log *logger.Logger) *Scheduler {
	l := log.Component("scheduler")
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{l}),
		cron.SkipIfStillRunning(cronLogger{l}),
	))
	return &Scheduler{
		cron:      c,
		cfg:       cfg,
		evaluator: evaluator,
		publisher: publisher,
		sweeper:   sweeper,
		log:       l,
		now:       time.Now,
	}
}

// Start registra las tareas y arranca el cron. Una expresión inválida es un error de configuración.
func (s *Scheduler) Start() error {
	if s.cfg.LowStockCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.LowStockCron, s.evaluateLowStock); err != nil {
			return fmt.Errorf("programar stock bajo (%q): %w", s.cfg.LowStockCron, err)
		}
	}
	if s.cfg.ReservationSweepCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.ReservationSweepCron, s.sweepReservations); err != nil {
			return fmt.Errorf("programar barrido de reservas (%q): %w", s.cfg.ReservationSweepCron, err)
		}
	}
	s.log.Info().Str("low_stock", s.cfg.LowStockCron).Str("reservation_sweep", s.cfg.ReservationSweepCron).
		Msg("scheduler iniciado")
	s.cron.Start()
	return nil
}

// Stop detiene el cron y espera a que terminen las tareas en curso (o a que ctx termine).
func (s *Scheduler) Stop(ctx context.Context) {
	s.log.Info().Msg("deteniendo scheduler")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler detenido sin esperar tareas en curso")
	}
}

func (s *Scheduler) evaluateLowStock() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	snap, err := s.evaluator.EvaluateAndPublish(ctx, s.publisher, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("falló la evaluación de stock bajo")
		return
	}
	s.log.Info().Int("total", snap.Summary.Total).Int("critical_items", snap.Summary.CriticalItems).
		Msg("evaluación de stock bajo terminada")
}

func (s *Scheduler) sweepReservations() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.sweeper.SweepExpired(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Int("released", n).Msg("falló el barrido de reservas vencidas")
		return
	}
	if n > 0 {
		s.log.Info().Int("released", n).Msg("barrido de reservas terminado")
	}
}

// cronLogger adapta el logger de la app a cron.Logger.
type cronLogger struct{ l *logger.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
