package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner aplica las escrituras de fn de forma atómica. Los bloqueos por llave tomados con
// GetForUpdate se mantienen hasta el final, así que la validación ve siempre el último estado confirmado.
type TxRunner struct {
	s *Store
}

// tx escrituras pendientes de una unidad de trabajo.
type tx struct {
	s            *Store
	ctx          context.Context
	held         map[string]bool
	order        []string
	levels       map[entity.LevelKey]*entity.StockLevel
	movements    []*entity.StockMovement
	reservations map[string]*entity.Reservation
	created      map[string]bool
}

// Run ejecuta fn. Si fn falla o el contexto terminó antes de confirmar, nada se aplica.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
	resRepo repository.ReservationRepository,
) error) error {
	t := &tx{
		s:            r.s,
		ctx:          ctx,
		held:         make(map[string]bool),
		levels:       make(map[entity.LevelKey]*entity.StockLevel),
		reservations: make(map[string]*entity.Reservation),
		created:      make(map[string]bool),
	}
	defer t.release()

	if err := fn(&MovementRepo{s: r.s, tx: t}, &LevelRepo{s: r.s, tx: t}, &ReservationRepo{s: r.s, tx: t}); err != nil {
		return err
	}
	return t.commit()
}

// lock toma la llave una sola vez por transacción.
func (t *tx) lock(ctx context.Context, key string) error {
	if t.held[key] {
		return nil
	}
	if t.s.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.s.lockTimeout)
		defer cancel()
	}
	if err := t.s.locks.Lock(ctx, key); err != nil {
		return err
	}
	t.held[key] = true
	t.order = append(t.order, key)
	return nil
}

func (t *tx) release() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.s.locks.Unlock(t.order[i])
	}
	t.order = nil
	t.held = nil
}

func (t *tx) commit() error {
	if err := t.ctx.Err(); err != nil {
		return fmt.Errorf("transacción cancelada antes de confirmar: %w", err)
	}
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range t.created {
		if _, exists := s.reservations[id]; exists {
			return fmt.Errorf("reserva %s duplicada", id)
		}
	}
	for _, m := range t.movements {
		if _, exists := s.movByID[m.ID]; exists {
			return fmt.Errorf("movimiento %s duplicado", m.ID)
		}
	}

	now := s.now()
	for _, m := range t.movements {
		s.seq++
		m.Seq = s.seq
		m.CreatedAt = now
		c := copyMovement(m)
		s.movements = append(s.movements, c)
		s.movByID[c.ID] = c
	}
	for k, l := range t.levels {
		s.levels[k] = l
	}
	for id, r := range t.reservations {
		s.reservations[id] = r
	}
	return nil
}

func levelLockKey(k entity.LevelKey) string { return "level:" + k.String() }

func reservationLockKey(id string) string { return "reservation:" + id }
