package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", map[string]int{"n": 1}, time.Minute))

	var out map[string]int
	require.NoError(t, c.Get(ctx, "k", &out))
	assert.Equal(t, 1, out["n"])

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "k", &out), ErrCacheMiss)

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCacheSetNX(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	ok, err := c.SetNX(ctx, "evt", true, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "evt", true, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Delete(ctx, "evt"))
	ok, err = c.SetNX(ctx, "evt", true, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStoreImplementations(t *testing.T) {
	var _ Store = (*MemoryCache)(nil)
	var _ Store = (*RedisCache)(nil)
}
