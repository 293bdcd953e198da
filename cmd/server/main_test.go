package main

import (
	"testing"
	"time"

	"ourskilllab/internal/config"
	"ourskilllab/pkg/otp"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ttlStore interface {
	TTL() time.Duration
}

func TestNewOTPStoreUsesConfiguredExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	for _, kind := range []string{"memory", "redis"} {
		t.Run(kind, func(t *testing.T) {
			cfg := &config.Config{Security: &config.SecurityConfig{
				OTPStore:     kind,
				OTPExpiry:    2 * time.Minute,
				OTPRetention: 5 * time.Minute,
			}}

			store, err := newOTPStore(cfg, client)
			require.NoError(t, err)

			s, ok := store.(ttlStore)
			require.True(t, ok)
			assert.Equal(t, 2*time.Minute, s.TTL())
		})
	}
}

func TestNewOTPStoreRedisNeedsClient(t *testing.T) {
	cfg := &config.Config{Security: &config.SecurityConfig{OTPStore: "redis", OTPExpiry: time.Minute}}

	_, err := newOTPStore(cfg, nil)
	assert.Error(t, err)
}

var _ ttlStore = (*otp.MemoryStore)(nil)
