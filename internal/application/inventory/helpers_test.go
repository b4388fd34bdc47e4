package inventory_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/infrastructure/memory"
)

var key = entity.NewStockKey("prod-1", "var-1")

// fakeDispatcher guarda los eventos despachados; err simula un sink caído.
type fakeDispatcher struct {
	mu     sync.Mutex
	events []entity.AlertEvent
	err    error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, e entity.AlertEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, e)
	return nil
}

func (d *fakeDispatcher) all() []entity.AlertEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]entity.AlertEvent(nil), d.events...)
}

// failingRepo envuelve el repo en memoria y falla Save para las claves marcadas.
type failingRepo struct {
	*memory.StockRecordRepo
	mu       sync.Mutex
	failSave map[entity.StockKey]bool
}

func (r *failingRepo) Save(ctx context.Context, rec *entity.StockRecord) error {
	r.mu.Lock()
	fail := r.failSave[rec.Key()]
	r.mu.Unlock()
	if fail {
		return errors.New("disco lleno")
	}
	return r.StockRecordRepo.Save(ctx, rec)
}

func (r *failingRepo) failOn(k entity.StockKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failSave[k] = true
}

type engine struct {
	repo        *failingRepo
	locks       *inventory.LockRegistry
	cache       *inventory.ReservationCache
	dispatcher  *fakeDispatcher
	monitor     *inventory.LowStockMonitor
	reservation *inventory.ReservationUseCase
}

func newEngine() *engine {
	repo := &failingRepo{StockRecordRepo: memory.NewStockRecordRepository(), failSave: map[entity.StockKey]bool{}}
	locks := inventory.NewLockRegistry(time.Second)
	cache := inventory.NewReservationCache()
	dispatcher := &fakeDispatcher{}
	monitor := inventory.NewLowStockMonitor(repo, dispatcher, inventory.MonitorConfig{
		DefaultReorderPoint: 5,
		Cooldown:            24 * time.Hour,
	}, zerolog.Nop())
	return &engine{
		repo:        repo,
		locks:       locks,
		cache:       cache,
		dispatcher:  dispatcher,
		monitor:     monitor,
		reservation: inventory.NewReservationUseCase(repo, locks, cache, monitor, zerolog.Nop()),
	}
}

func (e *engine) seed(total, reserved int64) {
	e.repo.Seed(&entity.StockRecord{
		ProductID:        key.ProductID,
		VariantID:        key.VariantID,
		TotalQuantity:    total,
		ReservedQuantity: reserved,
	})
}

func (e *engine) load(k entity.StockKey) *entity.StockRecord {
	rec, err := e.repo.Load(context.Background(), k)
	if err != nil {
		return nil
	}
	return rec
}

func ptr(v int64) *int64 { return &v }
