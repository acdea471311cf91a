// Package memory implementa los puertos del ledger en memoria de proceso.
// Se usa en tests y con LEDGER_STORE_DRIVER=memory.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Store estado confirmado del ledger. Las escrituras pasan por una transacción (TxRunner) que las
// aplica todas juntas bajo mu; las lecturas toman mu en modo lectura y devuelven copias.
type Store struct {
	mu           sync.RWMutex
	seq          int64
	movements    []*entity.StockMovement // orden de confirmación
	movByID      map[string]*entity.StockMovement
	levels       map[entity.LevelKey]*entity.StockLevel
	reservations map[string]*entity.Reservation
	products     map[string]*entity.Product
	warehouses   map[string]*entity.Warehouse

	locks       *KeyLocker
	lockTimeout time.Duration
	now         func() time.Time
}

// Option configura el Store.
type Option func(*Store)

// WithLockTimeout tiempo máximo de espera por el bloqueo de una llave. Cero espera lo que permita el ctx.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// WithClock reloj usado para created_at (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore crea un store vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{
		movByID:      make(map[string]*entity.StockMovement),
		levels:       make(map[entity.LevelKey]*entity.StockLevel),
		reservations: make(map[string]*entity.Reservation),
		products:     make(map[string]*entity.Product),
		warehouses:   make(map[string]*entity.Warehouse),
		locks:        NewKeyLocker(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Movements repositorio de lectura de movimientos.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

// Levels repositorio de lectura de niveles.
func (s *Store) Levels() *LevelRepo { return &LevelRepo{s: s} }

// Reservations repositorio de lectura de reservas.
func (s *Store) Reservations() *ReservationRepo { return &ReservationRepo{s: s} }

// Products catálogo de productos.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Warehouses catálogo de bodegas.
func (s *Store) Warehouses() *WarehouseRepo { return &WarehouseRepo{s: s} }

// TxRunner unidad de trabajo sobre este store.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

func copyMovement(m *entity.StockMovement) *entity.StockMovement {
	c := *m
	if m.UnitCost != nil {
		u := *m.UnitCost
		c.UnitCost = &u
	}
	return &c
}

func copyLevel(l *entity.StockLevel) *entity.StockLevel {
	c := *l
	return &c
}

func copyReservation(r *entity.Reservation) *entity.Reservation {
	c := *r
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		c.ExpiresAt = &t
	}
	if r.SettledAt != nil {
		t := *r.SettledAt
		c.SettledAt = &t
	}
	return &c
}

// level devuelve una copia del nivel confirmado (en cero si no existe). Requiere mu.
func (s *Store) level(key entity.LevelKey) *entity.StockLevel {
	if l, ok := s.levels[key]; ok {
		return copyLevel(l)
	}
	return entity.NewStockLevel(key)
}

func sortLevels(out []*entity.StockLevel) {
	sort.Slice(out, func(i, j int) bool { return out[i].LevelKey.Less(out[j].LevelKey) })
}
