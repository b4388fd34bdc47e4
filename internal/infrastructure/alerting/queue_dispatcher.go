package alerting

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

var _ inventory.AlertDispatcher = (*QueueDispatcher)(nil)

// Errores del despachador asíncrono.
var (
	ErrQueueFull   = errors.New("cola de alertas llena")
	ErrQueueClosed = errors.New("cola de alertas cerrada")
)

// QueueDispatcher encola alertas y las entrega a otro despachador desde un worker en segundo plano,
// para que el camino de mutación de stock no espere al sink externo.
type QueueDispatcher struct {
	next    inventory.AlertDispatcher
	events  chan entity.AlertEvent
	log     zerolog.Logger
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewQueueDispatcher construye la cola y arranca el worker. size <= 0 usa 256.
func NewQueueDispatcher(next inventory.AlertDispatcher, size int, log zerolog.Logger) *QueueDispatcher {
	if size <= 0 {
		size = 256
	}
	d := &QueueDispatcher{
		next:   next,
		events: make(chan entity.AlertEvent, size),
		log:    log.With().Str("component", "alert_queue").Logger(),
	}
	d.wg.Add(1)
	go d.worker()
	return d
}

// Dispatch encola sin bloquear. Si la cola está llena el evento se descarta.
func (d *QueueDispatcher) Dispatch(_ context.Context, event entity.AlertEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.events <- event:
		return nil
	default:
		d.dropped.Add(1)
		d.log.Warn().
			Str("product_id", event.ProductID).
			Str("variant_id", event.VariantID).
			Str("severity", string(event.Severity)).
			Msg("cola de alertas llena, evento descartado")
		return ErrQueueFull
	}
}

func (d *QueueDispatcher) worker() {
	defer d.wg.Done()
	for event := range d.events {
		if err := d.next.Dispatch(context.Background(), event); err != nil {
			d.failed.Add(1)
			d.log.Error().Err(err).
				Str("alert_id", event.ID).
				Str("product_id", event.ProductID).
				Msg("sink de alertas falló")
		}
	}
}

// Close deja de aceptar eventos y espera a que se entreguen los encolados.
func (d *QueueDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.events)
	d.mu.Unlock()
	d.wg.Wait()
}

// Stats devuelve eventos descartados por cola llena y fallidos en el sink.
func (d *QueueDispatcher) Stats() (dropped, failed uint64) {
	return d.dropped.Load(), d.failed.Load()
}
