package services

import (
	"context"
	"testing"
	"time"

	"ourskilllab/pkg/cache"
	"ourskilllab/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServiceRevocationOnRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewCacheService(cache.NewRedisCacheFromClient(client), "ourskilllab", time.Hour, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.RevokeToken(ctx, "jti-1", time.Now().Add(time.Hour)))
	assert.True(t, mr.Exists("ourskilllab:revoked:jti-1"))

	revoked, err := svc.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = svc.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestCacheServiceSkipsExpiredTokens(t *testing.T) {
	svc := NewCacheService(cache.NewMemoryCache(), "", time.Hour, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.RevokeToken(ctx, "jti-2", time.Now().Add(-time.Minute)))
	revoked, err := svc.IsTokenRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestCacheServiceSetNXIsPrefixed(t *testing.T) {
	store := cache.NewMemoryCache()
	svc := NewCacheService(store, "app", time.Hour, logger.NewNop())
	ctx := context.Background()

	first, err := svc.SetNX(ctx, "evt", true, 0)
	require.NoError(t, err)
	assert.True(t, first)

	exists, err := store.Exists(ctx, "app:evt")
	require.NoError(t, err)
	assert.True(t, exists)

	again, err := svc.SetNX(ctx, "evt", true, 0)
	require.NoError(t, err)
	assert.False(t, again)
}
