package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ourskilllab/internal/utils"
	"ourskilllab/pkg/cache"
	"ourskilllab/pkg/logger"
)

type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// RevokeToken blocks a token id until its own expiry.
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

type cacheService struct {
	store      cache.Store
	keyPrefix  string
	defaultTTL time.Duration
	logger     *logger.Logger
}

func NewCacheService(store cache.Store, keyPrefix string, defaultTTL time.Duration, logger *logger.Logger) CacheService {
	return &cacheService{
		store:      store,
		keyPrefix:  keyPrefix,
		defaultTTL: defaultTTL,
		logger:     logger,
	}
}

func (s *cacheService) buildKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", s.keyPrefix, key)
}

func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	return s.store.Get(ctx, s.buildKey(key), dest)
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.store.Set(ctx, s.buildKey(key), value, ttl); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to set cache value")
		return err
	}
	return nil
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = s.buildKey(key)
	}
	return s.store.Delete(ctx, full...)
}

func (s *cacheService) Exists(ctx context.Context, key string) (bool, error) {
	return s.store.Exists(ctx, s.buildKey(key))
}

func (s *cacheService) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.store.SetNX(ctx, s.buildKey(key), value, ttl)
}

func (s *cacheService) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return errors.New("token id is required")
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.Set(ctx, utils.CacheKeyRevokedToken+tokenID, true, ttl)
}

func (s *cacheService) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	return s.Exists(ctx, utils.CacheKeyRevokedToken+tokenID)
}
