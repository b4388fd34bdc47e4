package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

type keyLock struct {
	sem  *semaphore.Weighted
	refs int
}

// LockRegistry entrega un bloqueo exclusivo por clave (producto/variante), nunca uno global.
// Las entradas se eliminan cuando nadie las usa ni espera.
type LockRegistry struct {
	mu      sync.Mutex
	locks   map[entity.StockKey]*keyLock
	maxWait time.Duration
}

// NewLockRegistry construye el registro. maxWait <= 0 espera solo lo que permita el ctx del caller.
func NewLockRegistry(maxWait time.Duration) *LockRegistry {
	return &LockRegistry{
		locks:   make(map[entity.StockKey]*keyLock),
		maxWait: maxWait,
	}
}

// Acquire bloquea la clave. Devuelve una función de liberación idempotente que debe llamarse
// en todos los caminos (usar defer). Si se agota la espera devuelve domain.ErrLockTimeout.
func (r *LockRegistry) Acquire(ctx context.Context, key entity.StockKey) (func(), error) {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &keyLock{sem: semaphore.NewWeighted(1)}
		r.locks[key] = l
	}
	l.refs++
	r.mu.Unlock()

	waitCtx := ctx
	if r.maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.maxWait)
		defer cancel()
	}
	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		r.unref(key, l)
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrLockTimeout, key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.sem.Release(1)
			r.unref(key, l)
		})
	}, nil
}

func (r *LockRegistry) unref(key entity.StockKey, l *keyLock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(r.locks, key)
	}
}

// Len número de claves con bloqueo tomado o en espera.
func (r *LockRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
