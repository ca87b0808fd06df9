package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Fixed-window counter: the first hit in a window sets the expiry.
const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RateLimitRepository keeps request counters in Redis.
type RateLimitRepository struct {
	client *redis.Client
	script *redis.Script
}

// NewRateLimitRepository constructs a RateLimitRepository. A nil client allows everything.
func NewRateLimitRepository(client *redis.Client) *RateLimitRepository {
	return &RateLimitRepository{client: client, script: redis.NewScript(fixedWindowScript)}
}

// Allow counts one hit for key and reports whether it is within limit for the current window.
func (r *RateLimitRepository) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r == nil || r.client == nil || limit <= 0 || window <= 0 {
		return true, nil
	}
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	allowed, err := r.script.Run(ctx, r.client, []string{key}, ttl, limit).Int64()
	if err != nil {
		return true, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return allowed == 1, nil
}

// MemoryRateLimiter is the single-process fallback used when Redis is not configured.
// Each key gets a token bucket refilling limit tokens per window. A bucket idle for a whole
// window is full again, so it is dropped on the next sweep.
type MemoryRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*memoryBucket
	lastSweep time.Time
	now       func() time.Time
}

type memoryBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	window   time.Duration
}

// NewMemoryRateLimiter constructs an empty MemoryRateLimiter.
func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{limiters: make(map[string]*memoryBucket), now: time.Now}
}

// Allow consumes one token for key.
func (m *MemoryRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= window {
		m.sweep(now)
		m.lastSweep = now
	}

	bucket, ok := m.limiters[key]
	if !ok {
		bucket = &memoryBucket{
			limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit),
			window:  window,
		}
		m.limiters[key] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter.AllowN(now, 1), nil
}

// Len reports how many keys are tracked.
func (m *MemoryRateLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}

func (m *MemoryRateLimiter) sweep(now time.Time) {
	for key, bucket := range m.limiters {
		if now.Sub(bucket.lastSeen) >= bucket.window {
			delete(m.limiters, key)
		}
	}
}
