package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"stock_ingest/internal/feature/candles/domain/entity"
)

// MarketRepository fetches candles for a ticker over a window from the
// external provider. Implementations signal throttling with
// *RateLimitedError, non-retryable failures by wrapping ErrProviderFatal,
// and everything else is treated as transient. An empty window is a valid,
// non-error outcome. Following Go convention: interfaces are defined by the
// consumer (usecase), not the provider (adapters).
type MarketRepository interface {
	GetCandles(ctx context.Context, ticker string, win entity.Window, g entity.Granularity) ([]entity.Candle, error)
}

// RetryPolicy bounds the fetcher's retry behavior. Keeping it an explicit
// value object makes the behavior testable with a scripted provider and an
// injected sleep.
type RetryPolicy struct {
	MaxAttempts       int           // total attempts including the first
	InitialBackoff    time.Duration // first transient-error backoff
	MaxBackoff        time.Duration // backoff ceiling
	DefaultRetryAfter time.Duration // used when the provider gives no retry-after hint
}

// DefaultRetryPolicy mirrors the provider's documented throttling window.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		DefaultRetryAfter: 60 * time.Second,
	}
}

// CandleFetcher wraps the provider capability with rate-limit detection and
// bounded retry. It never mutates its arguments and never panics the loop:
// exhausted retries surface as ErrRateLimited or ErrFetchFailed for the
// caller to log and defer to the next pass.
type CandleFetcher struct {
	market MarketRepository
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewCandleFetcher creates a fetcher with the given retry policy.
func NewCandleFetcher(market MarketRepository, policy RetryPolicy) *CandleFetcher {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &CandleFetcher{market: market, policy: policy, sleep: sleepContext}
}

// Fetch retrieves candles for ticker over win at granularity g.
//
// Rate-limit signals sleep for the provider's retry-after hint (or the
// policy default) and retry the same request. Other transient errors retry
// with exponential backoff and jitter. Fatal provider errors are returned
// immediately without retry.
func (f *CandleFetcher) Fetch(ctx context.Context, ticker string, win entity.Window, g entity.Granularity) ([]entity.Candle, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.policy.InitialBackoff
	bo.MaxInterval = f.policy.MaxBackoff
	bo.Reset()

	var lastErr error
	for attempt := 1; attempt <= f.policy.MaxAttempts; attempt++ {
		cs, err := f.market.GetCandles(ctx, ticker, win, g)
		if err == nil {
			return cs, nil
		}
		if errors.Is(err, ErrProviderFatal) {
			return nil, err
		}
		lastErr = err
		if attempt == f.policy.MaxAttempts {
			break
		}

		var wait time.Duration
		var rl *RateLimitedError
		if errors.As(err, &rl) {
			wait = rl.RetryAfter
			if wait <= 0 {
				wait = f.policy.DefaultRetryAfter
			}
		} else {
			wait = bo.NextBackOff()
		}
		if err := f.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	var rl *RateLimitedError
	if errors.As(lastErr, &rl) {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrRateLimited, f.policy.MaxAttempts, lastErr)
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrFetchFailed, f.policy.MaxAttempts, lastErr)
}

// sleepContext waits for d or until ctx is cancelled, whichever comes first.
// Retry sleeps must remain a safe shutdown point.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
