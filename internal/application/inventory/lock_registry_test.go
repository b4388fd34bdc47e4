package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

func TestLockRegistry_TimeoutEsReintentable(t *testing.T) {
	r := inventory.NewLockRegistry(20 * time.Millisecond)
	unlock, err := r.Acquire(context.Background(), key)
	require.NoError(t, err)

	_, err = r.Acquire(context.Background(), key)
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.True(t, domain.IsRetryable(err))

	unlock()
	unlock() // idempotente
	assert.Equal(t, 0, r.Len())
}

func TestLockRegistry_ClavesDistintasNoSeBloquean(t *testing.T) {
	r := inventory.NewLockRegistry(20 * time.Millisecond)
	unlockA, err := r.Acquire(context.Background(), entity.NewStockKey("a", ""))
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := r.Acquire(context.Background(), entity.NewStockKey("b", ""))
	require.NoError(t, err, "otra clave no espera al bloqueo de 'a'")
	unlockB()
}

func TestLockRegistry_RespetaCancelacionDelCaller(t *testing.T) {
	r := inventory.NewLockRegistry(0)
	unlock, err := r.Acquire(context.Background(), key)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Acquire(ctx, key)
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.Equal(t, 1, r.Len(), "solo queda la entrada del bloqueo tomado")
}

func TestReservationCache_AddYCap(t *testing.T) {
	c := inventory.NewReservationCache()
	assert.Equal(t, int64(5), c.Add(key, 5))
	c.Cap(key, 3)
	assert.Equal(t, int64(3), c.Get(key))
	assert.Equal(t, int64(0), c.Add(key, -7))
	assert.Equal(t, 0, c.Len())
	c.Add(key, 2)
	c.Cap(key, 0)
	assert.Equal(t, 0, c.Len())
}
