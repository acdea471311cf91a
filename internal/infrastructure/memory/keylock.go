package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// KeyLocker mutex por llave que respeta la cancelación del contexto.
// Las entradas se eliminan cuando nadie espera ni sostiene la llave.
type KeyLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyLocker construye un locker vacío.
func NewKeyLocker() *KeyLocker {
	return &KeyLocker{locks: make(map[string]*keyLock)}
}

// Lock bloquea hasta obtener la llave o hasta que ctx termine (ErrConflict).
func (l *KeyLocker) Lock(ctx context.Context, key string) error {
	l.mu.Lock()
	kl := l.locks[key]
	if kl == nil {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		l.drop(key, kl)
		l.mu.Unlock()
		return fmt.Errorf("%w: esperando bloqueo de %s: %w", domain.ErrConflict, key, ctx.Err())
	}
}

// Unlock libera una llave tomada con Lock.
func (l *KeyLocker) Unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl := l.locks[key]
	if kl == nil {
		panic("memory: unlock de llave no bloqueada " + key)
	}
	<-kl.ch
	l.drop(key, kl)
}

func (l *KeyLocker) drop(key string, kl *keyLock) {
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// size número de llaves vivas (tests).
func (l *KeyLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
