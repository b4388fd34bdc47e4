package inventory

import (
	"hash/fnv"
	"sync"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

const cacheShards = 32

type cacheShard struct {
	mu sync.RWMutex
	m  map[entity.StockKey]int64
}

// ReservationCache guarda en memoria las reservas en vuelo por clave, repartidas en shards.
// No se persiste: al reiniciar queda vacía y el ReservedQuantity durable es el piso autoritativo.
// Se actualiza tras el save y se recorta al reservado durable, así que bajo el bloqueo de la clave
// max(reservado, cache) es siempre el reservado; solo acota lo que ve CheckAvailability sin bloqueo.
type ReservationCache struct {
	shards [cacheShards]*cacheShard
}

// NewReservationCache construye una cache vacía.
func NewReservationCache() *ReservationCache {
	c := &ReservationCache{}
	for i := range c.shards {
		c.shards[i] = &cacheShard{m: make(map[entity.StockKey]int64)}
	}
	return c
}

func (c *ReservationCache) shard(key entity.StockKey) *cacheShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.ProductID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(key.VariantID))
	return c.shards[h.Sum32()%cacheShards]
}

// Get devuelve la reserva en vuelo de la clave (0 si no hay entrada).
func (c *ReservationCache) Get(key entity.StockKey) int64 {
	s := c.shard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m[key]
}

// Add suma delta a la entrada y la elimina si llega a cero o menos. Devuelve el valor resultante.
func (c *ReservationCache) Add(key entity.StockKey, delta int64) int64 {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.m[key] + delta
	if v <= 0 {
		delete(s.m, key)
		return 0
	}
	s.m[key] = v
	return v
}

// Cap limita la entrada a max (el reservado durable) para que la cache no diverja
// de forma permanente del registro.
func (c *ReservationCache) Cap(key entity.StockKey, max int64) {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if !ok || v <= max {
		return
	}
	if max <= 0 {
		delete(s.m, key)
		return
	}
	s.m[key] = max
}

// Len número de claves con reserva en vuelo.
func (c *ReservationCache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}
