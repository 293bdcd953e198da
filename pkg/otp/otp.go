// Package otp issues and verifies single-use numeric codes bound to an
// identifier such as a phone number or email address.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"
)

var (
	ErrNotFound = errors.New("otp: no pending code")
	ErrExpired  = errors.New("otp: code expired")
	ErrMismatch = errors.New("otp: code mismatch")
)

const (
	DefaultTTL       = 10 * time.Minute
	DefaultRetention = 10 * time.Minute

	minCode = 100000
	maxCode = 999999
)

// Store holds at most one pending code per identifier.
type Store interface {
	// Issue creates a new code for identifier, replacing any pending one.
	Issue(ctx context.Context, identifier string) (string, error)
	// Verify consumes the code on an exact match. A mismatch leaves the
	// pending code in place; an expired code is removed.
	Verify(ctx context.Context, identifier, code string) error
	// PurgeExpired removes entries whose retention window has also passed
	// and returns how many were removed.
	PurgeExpired(ctx context.Context) (int, error)
}

type entry struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Clock lets tests control time.
type Clock func() time.Time

type options struct {
	ttl       time.Duration
	retention time.Duration
	clock     Clock
	codes     func() (string, error)
}

type Option func(*options)

func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithRetention sets how long an expired code is kept so that Verify can
// report ErrExpired instead of ErrNotFound.
func WithRetention(retention time.Duration) Option {
	return func(o *options) {
		if retention > 0 {
			o.retention = retention
		}
	}
}

func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithCodeGenerator replaces the random source. Used in tests.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(o *options) {
		if gen != nil {
			o.codes = gen
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{ttl: DefaultTTL, retention: DefaultRetention, clock: time.Now, codes: GenerateCode}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// GenerateCode returns a uniformly random code in 100000..999999.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+minCode), nil
}

// purgeable reports whether e has outlived its retention window at now.
func (o options) purgeable(e entry, now time.Time) bool {
	return now.After(e.ExpiresAt.Add(o.retention))
}

func codesEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
