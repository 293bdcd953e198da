package otp

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps codes in process memory. Suitable for a single instance.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	opts    options
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		opts:    buildOptions(opts),
	}
}

// TTL is how long an issued code stays valid.
func (s *MemoryStore) TTL() time.Duration { return s.opts.ttl }

func (s *MemoryStore) Issue(ctx context.Context, identifier string) (string, error) {
	code, err := s.opts.codes()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[identifier] = entry{
		Code:      code,
		ExpiresAt: s.opts.clock().Add(s.opts.ttl),
	}
	return code, nil
}

func (s *MemoryStore) Verify(ctx context.Context, identifier, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[identifier]
	if !ok {
		return ErrNotFound
	}
	if s.opts.clock().After(e.ExpiresAt) {
		delete(s.entries, identifier)
		return ErrExpired
	}
	if !codesEqual(e.Code, code) {
		return ErrMismatch
	}
	delete(s.entries, identifier)
	return nil
}

func (s *MemoryStore) PurgeExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.clock()
	removed := 0
	for id, e := range s.entries {
		if s.opts.purgeable(e, now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}
