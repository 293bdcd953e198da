package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"ourskilllab/internal/utils"
	"ourskilllab/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter enforces a per-key limit, shared across instances through
// redis when available and per process otherwise.
type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	limit    redis_rate.Limit
	name     string
	logger   *logger.Logger
}

// NewRateLimiter accepts a nil client; the in-process limiter is then used
// for every request.
func NewRateLimiter(rdb *redis.Client, name string, limit redis_rate.Limit, log *logger.Logger) *RateLimiter {
	rl := &RateLimiter{
		fallback: newLocalLimiter(),
		limit:    limit,
		name:     name,
		logger:   log,
	}
	if rdb != nil {
		rl.limiter = redis_rate.NewLimiter(rdb)
	}
	return rl
}

func PerMinute(ratePerMinute int) redis_rate.Limit {
	if ratePerMinute <= 0 {
		ratePerMinute = 1
	}
	return redis_rate.PerMinute(ratePerMinute)
}

// Handler limits by client IP.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s", rl.name, c.ClientIP())
		res := rl.allow(c.Request.Context(), key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit.Rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if res.Allowed == 0 {
			retryAfter := int(res.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			rl.logger.LogSecurityEvent("rate_limited", "low", map[string]interface{}{
				"limiter": rl.name,
				"ip":      c.ClientIP(),
				"path":    c.Request.URL.Path,
			})
			utils.TooManyRequestsResponse(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) *redis_rate.Result {
	if rl.limiter != nil {
		res, err := rl.limiter.Allow(ctx, key, rl.limit)
		if err == nil {
			return res
		}
		rl.logger.WithError(err).Warn("Redis rate limiter failed, using local limiter")
	}
	return rl.fallback.allow(key, rl.limit)
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

type localLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	lastGC   time.Time
}

const localEntryTTL = 10 * time.Minute

func newLocalLimiter() *localLimiter {
	return &localLimiter{limiters: make(map[string]*limiterEntry), lastGC: time.Now()}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) *redis_rate.Result {
	ratePerSec := float64(limit.Rate) / limit.Period.Seconds()
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Idle entries are swept inline.
	if now.Sub(l.lastGC) > localEntryTTL {
		for k, entry := range l.limiters {
			if now.Sub(entry.lastAccess) > localEntryTTL {
				delete(l.limiters, k)
			}
		}
		l.lastGC = now
	}

	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(ratePerSec), limit.Burst)}
		l.limiters[key] = entry
	}
	entry.lastAccess = now

	res := &redis_rate.Result{Limit: limit, RetryAfter: -1}
	if entry.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = time.Duration(float64(time.Second) / ratePerSec)
	}
	res.Remaining = int(entry.limiter.TokensAt(now))
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	return res
}

