package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo almacenamiento en memoria de registros de stock (tests y ejecución local).
// Guarda copias, así ningún lector observa un registro a medio escribir.
type StockRecordRepo struct {
	mu sync.RWMutex
	m  map[entity.StockKey]*entity.StockRecord
}

// NewStockRecordRepository construye el repositorio vacío.
func NewStockRecordRepository() *StockRecordRepo {
	return &StockRecordRepo{m: make(map[entity.StockKey]*entity.StockRecord)}
}

func (r *StockRecordRepo) Load(ctx context.Context, key entity.StockKey) (*entity.StockRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.m[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec.Clone(), nil
}

func (r *StockRecordRepo) Save(ctx context.Context, record *entity.StockRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil || !record.Key().Valid() {
		return domain.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[record.Key()] = record.Clone()
	return nil
}

// Seed carga registros directamente (bootstrap y tests).
func (r *StockRecordRepo) Seed(records ...*entity.StockRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.m[rec.Key()] = rec.Clone()
	}
}

// Len número de registros almacenados.
func (r *StockRecordRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.m)
}
