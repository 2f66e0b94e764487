// Tests for per-identifier rate limiting.
package security

import (
	"sync"
	"testing"
	"time"
)

func newTestLimiter(max int, window time.Duration) *RateLimiter {
	return NewRateLimiter(max, window, time.Hour, time.Hour)
}

// TestRateLimiter_Allow tests basic rate limiting functionality.
func TestRateLimiter_Allow(t *testing.T) {
	// 5 requests per second: one token every 200ms
	limiter := newTestLimiter(5, time.Second)
	defer limiter.Stop()

	identifier := "user-1"

	for i := 0; i < 5; i++ {
		if !limiter.Allow(identifier) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	if limiter.Allow(identifier) {
		t.Error("6th request should be denied")
	}

	time.Sleep(300 * time.Millisecond)

	if !limiter.Allow(identifier) {
		t.Error("Request after refill should be allowed")
	}
}

// TestRateLimiter_MultipleIdentifiers tests that buckets are per identifier.
func TestRateLimiter_MultipleIdentifiers(t *testing.T) {
	limiter := newTestLimiter(3, time.Minute)
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		if !limiter.Allow("user-1") {
			t.Errorf("user-1 request %d should be allowed", i+1)
		}
	}
	if limiter.Allow("user-1") {
		t.Error("user-1 4th request should be denied")
	}

	for i := 0; i < 3; i++ {
		if !limiter.Allow("user-2") {
			t.Errorf("user-2 request %d should be allowed", i+1)
		}
	}
	if limiter.Allow("user-2") {
		t.Error("user-2 4th request should be denied")
	}
}

// TestRateLimiter_Reset tests resetting an identifier.
func TestRateLimiter_Reset(t *testing.T) {
	limiter := newTestLimiter(3, time.Minute)
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		limiter.Allow("user-1")
	}
	if limiter.Allow("user-1") {
		t.Error("Should be rate limited")
	}

	limiter.Reset("user-1")

	if !limiter.Allow("user-1") {
		t.Error("Should be allowed after reset")
	}
}

// TestRateLimiter_Sweep tests that idle buckets are dropped.
func TestRateLimiter_Sweep(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute, time.Minute, time.Hour)
	defer limiter.Stop()

	limiter.Allow("user-1")
	limiter.Allow("user-2")

	limiter.Sweep(time.Now())
	if limiter.Size() != 2 {
		t.Errorf("Fresh buckets should survive, got %d", limiter.Size())
	}

	limiter.Sweep(time.Now().Add(2 * time.Minute))
	if limiter.Size() != 0 {
		t.Errorf("Idle buckets should be dropped, got %d", limiter.Size())
	}
}

// TestRateLimiter_Concurrent tests that the burst is never exceeded under
// concurrent use.
func TestRateLimiter_Concurrent(t *testing.T) {
	limiter := newTestLimiter(10, time.Hour)
	defer limiter.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow("user-1") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 10 {
		t.Errorf("Expected exactly 10 allowed requests, got %d", allowed)
	}
}

// TestRateLimiter_StopTwice tests that Stop is idempotent.
func TestRateLimiter_StopTwice(t *testing.T) {
	limiter := newTestLimiter(1, time.Second)
	limiter.Stop()
	limiter.Stop()
}
