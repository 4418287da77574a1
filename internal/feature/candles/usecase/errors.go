package usecase

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the per-ticker outcome of an ingestion cycle.
var (
	// ErrRateLimited is surfaced after rate-limited retries are exhausted.
	// The ticker is retried on the next pass.
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrFetchFailed is surfaced after transient-error retries are exhausted.
	// The ticker is retried on the next pass.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrProviderFatal marks provider failures that must not be retried
	// (authentication, malformed request). The affected ticker is halted for
	// the remainder of the run.
	ErrProviderFatal = errors.New("provider fatal error")
)

// RateLimitedError is the distinguished throttling condition returned by the
// provider adapter, optionally carrying the provider's retry-after hint.
type RateLimitedError struct {
	RetryAfter time.Duration // zero when the provider gave no hint
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}
