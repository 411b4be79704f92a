package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/salesflow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, *time.Time) {
	t.Helper()
	store := NewInMemoryIdempotencyStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	return store, &now
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()
	store, now := newTestStore(t)

	first, err := store.MarkProcessed(ctx, "manual:MAN-1A2B3C4D:evt-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.MarkProcessed(ctx, "manual:MAN-1A2B3C4D:evt-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, again, "duplicate delivery")

	processed, err := store.IsProcessed(ctx, "manual:MAN-1A2B3C4D:evt-1")
	require.NoError(t, err)
	assert.True(t, processed)

	*now = now.Add(2 * time.Hour)

	processed, err = store.IsProcessed(ctx, "manual:MAN-1A2B3C4D:evt-1")
	require.NoError(t, err)
	assert.False(t, processed, "expired")

	afterExpiry, err := store.MarkProcessed(ctx, "manual:MAN-1A2B3C4D:evt-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, afterExpiry)
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store, now := newTestStore(t)

	_, _ = store.MarkProcessed(ctx, "short", time.Minute)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	require.Equal(t, 2, store.Size())

	*now = now.Add(10 * time.Minute)
	store.sweep()

	assert.Equal(t, 1, store.Size())
	processed, _ := store.IsProcessed(ctx, "long")
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentMarkWinsOnce(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Close()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.MarkProcessed(context.Background(), "evt-race", time.Hour)
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Millisecond)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestNewIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("no host selects in-memory", func(t *testing.T) {
		store, err := NewIdempotencyStore(ctx, config.RedisConfig{}, false, zap.NewNop())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	unreachable := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	t.Run("unreachable redis without fallback", func(t *testing.T) {
		_, err := NewIdempotencyStore(ctx, unreachable, false, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis required")
	})

	t.Run("unreachable redis with fallback", func(t *testing.T) {
		store, err := NewIdempotencyStore(ctx, unreachable, true, nil)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})
}
