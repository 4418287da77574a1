// Package ratelimiter paces outbound provider requests below a fixed budget.
package ratelimiter

import (
	"context"
	"log/slog"
	"time"
)

// RateLimiterInterface limits the frequency of operations such as API calls.
type RateLimiterInterface interface {
	WaitIfNeeded(ctx context.Context)
}

// RateLimiter enforces a request budget per interval. It is the proactive
// half of throttling control: it keeps the loop under the provider's
// documented quota, while reactive 429 handling lives in the fetcher.
type RateLimiter struct {
	limit     int           // calls allowed per interval
	interval  time.Duration // reset period
	count     int
	lastReset time.Time
}

// NewRateLimiter creates a RateLimiter allowing limit calls per interval.
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
	}
}

// WaitIfNeeded blocks until the next call fits into the current budget or
// ctx is cancelled. Pacing must stay a safe shutdown point: on cancellation
// it returns immediately and the caller observes ctx at its next boundary.
func (rl *RateLimiter) WaitIfNeeded(ctx context.Context) {
	now := time.Now()
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count > rl.limit {
		sleep := rl.interval - now.Sub(rl.lastReset)
		if sleep > 0 {
			slog.Info("request budget exhausted, pacing", "limit", rl.limit, "sleep", sleep)
			t := time.NewTimer(sleep)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
		rl.count = 1
		rl.lastReset = time.Now()
	}
}
