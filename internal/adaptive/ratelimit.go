package adaptive

import (
	"sync"
	"time"
)

// RateLimiter spaces out input-triggered recalculations per input kind
type RateLimiter struct {
	mu      sync.Mutex
	last    map[string]time.Time
	minimum time.Duration
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing one recalculation per key per interval
func NewRateLimiter(minimum time.Duration) *RateLimiter {
	return &RateLimiter{
		last:    make(map[string]time.Time),
		minimum: minimum,
		now:     time.Now,
	}
}

// Allow reports whether a recalculation for key may run now and records it if so
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if last, ok := rl.last[key]; ok && now.Sub(last) < rl.minimum {
		return false
	}
	rl.last[key] = now
	return true
}

