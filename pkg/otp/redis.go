package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "otp:"
	scanBatch = 200
)

// RedisStore shares pending codes between instances. Each key lives for the
// code TTL plus a retention window so an expired code can still be reported
// as expired rather than missing.
type RedisStore struct {
	client redis.UniversalClient
	opts   options
}

func NewRedisStore(client redis.UniversalClient, opts ...Option) *RedisStore {
	return &RedisStore{
		client: client,
		opts:   buildOptions(opts),
	}
}

// TTL is how long an issued code stays valid.
func (s *RedisStore) TTL() time.Duration { return s.opts.ttl }

func (s *RedisStore) key(identifier string) string {
	return keyPrefix + identifier
}

func (s *RedisStore) Issue(ctx context.Context, identifier string) (string, error) {
	code, err := s.opts.codes()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(entry{Code: code, ExpiresAt: s.opts.clock().Add(s.opts.ttl)})
	if err != nil {
		return "", fmt.Errorf("failed to encode otp: %w", err)
	}

	if err := s.client.Set(ctx, s.key(identifier), data, s.opts.ttl+s.opts.retention).Err(); err != nil {
		return "", fmt.Errorf("failed to store otp: %w", err)
	}
	return code, nil
}

// Verify runs inside WATCH so two concurrent verifications of the same code
// cannot both succeed. The loser of the race sees ErrNotFound.
func (s *RedisStore) Verify(ctx context.Context, identifier, code string) error {
	key := s.key(identifier)
	var result error

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			result = ErrNotFound
			return nil
		}
		if err != nil {
			return err
		}

		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("failed to decode otp: %w", err)
		}

		switch {
		case s.opts.clock().After(e.ExpiresAt):
			result = ErrExpired
		case !codesEqual(e.Code, code):
			result = ErrMismatch
			return nil
		default:
			result = nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to verify otp: %w", err)
	}
	return result
}

func (s *RedisStore) PurgeExpired(ctx context.Context) (int, error) {
	now := s.opts.clock()
	removed := 0

	iter := s.client.Scan(ctx, 0, keyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("failed to read otp: %w", err)
		}

		var e entry
		if err := json.Unmarshal(raw, &e); err != nil || s.opts.purgeable(e, now) {
			n, err := s.client.Del(ctx, key).Result()
			if err != nil {
				return removed, fmt.Errorf("failed to delete otp: %w", err)
			}
			removed += int(n)
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan otp keys: %w", err)
	}
	return removed, nil
}
