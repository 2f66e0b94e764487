package security

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per identifier (a user id, or an IP for
// anonymous callers). Safe for concurrent use.
type RateLimiter struct {
	limiters map[string]*bucket
	mu       sync.Mutex

	limit rate.Limit
	burst int
	idle  time.Duration

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows maxRequests per window for each identifier, refilling
// evenly across the window.
//
// Example:
//
//	// 20 check-ins per minute per user
//	limiter := NewRateLimiter(20, time.Minute, time.Hour, 10*time.Minute)
func NewRateLimiter(maxRequests int, window, idleTTL, sweepEvery time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limiters:      make(map[string]*bucket),
		limit:         rate.Every(window / time.Duration(maxRequests)),
		burst:         maxRequests,
		idle:          idleTTL,
		cleanupTicker: time.NewTicker(sweepEvery),
		stopCleanup:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether identifier may make another request now.
func (rl *RateLimiter) Allow(identifier string) bool {
	rl.mu.Lock()
	b, ok := rl.limiters[identifier]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[identifier] = b
	}
	b.lastSeen = time.Now()
	rl.mu.Unlock()

	return b.limiter.Allow()
}

// Limit returns the configured burst, i.e. requests per window.
func (rl *RateLimiter) Limit() int { return rl.burst }

// Reset drops the bucket for identifier.
func (rl *RateLimiter) Reset(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.limiters, identifier)
}

// Size returns the number of tracked identifiers.
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Sweep removes buckets idle for longer than the configured TTL.
func (rl *RateLimiter) Sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for id, b := range rl.limiters {
		if now.Sub(b.lastSeen) > rl.idle {
			delete(rl.limiters, id)
		}
	}
}

func (rl *RateLimiter) cleanup() {
	for {
		select {
		case now := <-rl.cleanupTicker.C:
			rl.Sweep(now)
		case <-rl.stopCleanup:
			return
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		rl.cleanupTicker.Stop()
		close(rl.stopCleanup)
	})
}
