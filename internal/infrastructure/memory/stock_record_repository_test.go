package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/infrastructure/memory"
)

func TestStockRecordRepo_LoadInexistenteDevuelveNotFound(t *testing.T) {
	repo := memory.NewStockRecordRepository()
	_, err := repo.Load(context.Background(), entity.NewStockKey("p1", "v1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStockRecordRepo_GuardaCopias(t *testing.T) {
	repo := memory.NewStockRecordRepository()
	ctx := context.Background()
	rp := int64(5)
	rec := &entity.StockRecord{ProductID: "p1", VariantID: "v1", TotalQuantity: 10, ReorderPoint: &rp, LastUpdated: time.Now()}
	require.NoError(t, repo.Save(ctx, rec))

	rec.TotalQuantity = 99
	*rec.ReorderPoint = 1

	got, err := repo.Load(ctx, rec.Key())
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.TotalQuantity, "mutar el original no debe afectar lo guardado")
	assert.Equal(t, int64(5), *got.ReorderPoint)

	got.TotalQuantity = 0
	again, _ := repo.Load(ctx, rec.Key())
	assert.Equal(t, int64(10), again.TotalQuantity, "mutar lo cargado tampoco")
}

func TestStockRecordRepo_RechazaClaveVacia(t *testing.T) {
	repo := memory.NewStockRecordRepository()
	assert.ErrorIs(t, repo.Save(context.Background(), &entity.StockRecord{}), domain.ErrInvalidInput)
}

func TestStockRecordRepo_EscriturasConcurrentes(t *testing.T) {
	repo := memory.NewStockRecordRepository()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			_ = repo.Save(ctx, &entity.StockRecord{ProductID: "p", VariantID: "v", TotalQuantity: n, ReservedQuantity: n})
		}(int64(i))
	}
	wg.Wait()
	got, err := repo.Load(ctx, entity.NewStockKey("p", "v"))
	require.NoError(t, err)
	assert.Equal(t, got.TotalQuantity, got.ReservedQuantity, "nunca se observa un registro parcial")
	assert.Equal(t, 1, repo.Len())
}
