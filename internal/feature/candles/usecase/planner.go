package usecase

import (
	"context"
	"fmt"
	"time"

	"stock_ingest/internal/feature/candles/domain/entity"
)

// CandleCursor reads the per-ticker watch state: the latest persisted bucket
// start in a table. Following Go convention: interfaces are defined by the
// consumer (usecase), not the provider (adapters).
type CandleCursor interface {
	LatestBeginTime(ctx context.Context, kind entity.TableKind, ticker string) (time.Time, bool, error)
}

// Lookback bounds the first-run window per granularity. Hourly history
// reaches further back: one hourly bucket covers six base buckets, so the
// same wall-clock span holds far fewer rows.
type Lookback struct {
	Base   time.Duration
	Hourly time.Duration
}

// For returns the lookback for a granularity, falling back to Base when no
// hourly value is set.
func (l Lookback) For(g entity.Granularity) time.Duration {
	if g == entity.GranularityHourly && l.Hourly > 0 {
		return l.Hourly
	}
	return l.Base
}

// WindowPlanner computes the next fetch window for a ticker. The watch state
// is read fresh from the store on every call, never cached across cycles, so
// a process restart resumes exactly after the last persisted bucket.
type WindowPlanner struct {
	cursor        CandleCursor
	lookback      Lookback
	maxWindowSpan time.Duration
	now           func() time.Time
}

// NewWindowPlanner creates a planner. lookback bounds the first-run window
// per granularity; maxWindowSpan caps any single fetch to keep provider
// responses bounded.
func NewWindowPlanner(cursor CandleCursor, lookback Lookback, maxWindowSpan time.Duration) *WindowPlanner {
	return &WindowPlanner{
		cursor:        cursor,
		lookback:      lookback,
		maxWindowSpan: maxWindowSpan,
		now:           time.Now,
	}
}

// NextWindow returns the next [start, end) window for (ticker, kind). The
// second return value is false when the ticker is caught up and there is
// nothing to fetch this cycle. Successive windows for the same ticker are
// contiguous and non-overlapping as long as writes land between calls.
func (p *WindowPlanner) NextWindow(ctx context.Context, ticker string, kind entity.TableKind) (entity.Window, bool, error) {
	now := p.now()

	last, found, err := p.cursor.LatestBeginTime(ctx, kind, ticker)
	if err != nil {
		return entity.Window{}, false, fmt.Errorf("read cursor for %s/%s: %w", ticker, kind.TableName(), err)
	}

	var start time.Time
	if found {
		start = last.Add(kind.Granularity.BucketWidth())
	} else {
		start = now.Add(-p.lookback.For(kind.Granularity))
	}

	if !start.Before(now) {
		return entity.Window{}, false, nil
	}

	end := start.Add(p.maxWindowSpan)
	if end.After(now) {
		end = now
	}
	return entity.Window{Begin: start, End: end}, true, nil
}
