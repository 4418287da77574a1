package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stock_ingest/internal/feature/candles/domain/entity"
	"stock_ingest/internal/shared/ratelimiter"
)

// ingestGranularities are the bucket widths ingested on every pass. Hourly
// candles are fetched from the provider in their own right, not derived from
// base candles.
var ingestGranularities = []entity.Granularity{entity.GranularityBase, entity.GranularityHourly}

// CandleRepository abstracts the candle store: idempotent batch writes,
// per-ticker cursor reads, and filtered reads. Following Go convention:
// interfaces are defined by the consumer (usecase), not the provider
// (adapters).
type CandleRepository interface {
	CandleCursor
	CandleReader

	// InsertIgnoreBatch persists candles into the table selected by kind,
	// silently skipping rows whose (ticker, begin_time) already exists.
	// The batch is atomic: on error nothing partial persists. Returns the
	// number of rows actually inserted.
	InsertIgnoreBatch(ctx context.Context, kind entity.TableKind, candles []entity.Candle) (int64, error)
}

// Fetcher is the retrying fetch capability consumed by the loop.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string, win entity.Window, g entity.Granularity) ([]entity.Candle, error)
}

// Planner computes the next fetch window for a (ticker, table) pair.
type Planner interface {
	NextWindow(ctx context.Context, ticker string, kind entity.TableKind) (entity.Window, bool, error)
}

// Classifier maps a window to its trading session.
type Classifier interface {
	Classify(w entity.Window) entity.Session
}

// WatchedTicker is one entry of the tracked-ticker set. WeekendVenue marks
// tickers that also trade on the weekend venue; only those are fetched
// during weekend sessions.
type WatchedTicker struct {
	Ticker       string
	WeekendVenue bool
}

// WatchlistRepository supplies the tracked tickers, re-read on every pass.
type WatchlistRepository interface {
	ListWatched(ctx context.Context) ([]WatchedTicker, error)
}

// StaticWatchlist is a fixed, config-supplied watchlist.
type StaticWatchlist []WatchedTicker

func (s StaticWatchlist) ListWatched(ctx context.Context) ([]WatchedTicker, error) {
	return s, nil
}

// IngestUsecase runs the ingestion loop: for every tracked ticker and
// granularity it plans the next window, fetches candles and persists them,
// forever, until the context is cancelled. One ticker failing never aborts
// the pass.
type IngestUsecase struct {
	fetcher     Fetcher
	planner     Planner
	classifier  Classifier
	candle      CandleRepository
	watchlist   WatchlistRepository
	rateLimiter ratelimiter.RateLimiterInterface
	pollInterval time.Duration

	now    func() time.Time
	halted map[string]bool // tickers stopped for the run after a fatal provider error
}

// NewIngestUsecase assembles the loop. pollInterval is the sleep between two
// full passes over the watchlist.
func NewIngestUsecase(
	fetcher Fetcher,
	planner Planner,
	classifier Classifier,
	candle CandleRepository,
	watchlist WatchlistRepository,
	rateLimiter ratelimiter.RateLimiterInterface,
	pollInterval time.Duration,
) *IngestUsecase {
	return &IngestUsecase{
		fetcher:      fetcher,
		planner:      planner,
		classifier:   classifier,
		candle:       candle,
		watchlist:    watchlist,
		rateLimiter:  rateLimiter,
		pollInterval: pollInterval,
		now:          time.Now,
		halted:       make(map[string]bool),
	}
}

// Run executes passes until ctx is cancelled. It only ever returns the
// context's error; everything else is logged and retried on the next pass.
func (iu *IngestUsecase) Run(ctx context.Context) error {
	for {
		iu.RunPass(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(iu.pollInterval):
		}
	}
}

// RunPass processes every tracked ticker once. The session axis is fixed for
// the whole pass by classifying the bucket that begins at the pass start, so
// planning, fetching and writing all target the same table and cursors stay
// contiguous.
func (iu *IngestUsecase) RunPass(ctx context.Context) {
	watched, err := iu.watchlist.ListWatched(ctx)
	if err != nil {
		slog.Error("failed to load watchlist", "error", err)
		return
	}

	start := iu.now()
	session := iu.classifier.Classify(entity.Window{
		Begin: start,
		End:   start.Add(entity.GranularityBase.BucketWidth()),
	})

	for _, w := range watched {
		// Shutdown is observed between tickers; an in-flight write always
		// completes before Run returns.
		if ctx.Err() != nil {
			return
		}
		if iu.halted[w.Ticker] {
			continue
		}
		if session == entity.SessionWeekend && !w.WeekendVenue {
			continue
		}

		for _, g := range ingestGranularities {
			kind := entity.TableKind{Session: session, Granularity: g}
			iu.rateLimiter.WaitIfNeeded(ctx)
			if err := iu.ingestOne(ctx, w.Ticker, kind); err != nil {
				if errors.Is(err, ErrProviderFatal) {
					iu.halted[w.Ticker] = true
					slog.Error("fatal provider error, halting ticker for this run",
						"ticker", w.Ticker, "table", kind.TableName(), "error", err)
					break
				}
				// Transient or rate-limited: log and move on; the ticker is
				// retried on the next pass.
				slog.Error("ingest cycle failed",
					"ticker", w.Ticker, "table", kind.TableName(), "error", err)
				continue
			}
		}
	}
}

// ingestOne runs a single plan → fetch → validate → write cycle for one
// ticker against one table.
func (iu *IngestUsecase) ingestOne(ctx context.Context, ticker string, kind entity.TableKind) error {
	win, ok, err := iu.planner.NextWindow(ctx, ticker, kind)
	if err != nil {
		return fmt.Errorf("plan window: %w", err)
	}
	if !ok {
		// Caught up; nothing to fetch this cycle.
		return nil
	}

	cs, err := iu.fetcher.Fetch(ctx, ticker, win, kind.Granularity)
	if err != nil {
		return fmt.Errorf("fetch [%s, %s): %w", win.Begin.Format(time.RFC3339), win.End.Format(time.RFC3339), err)
	}

	valid := make([]entity.Candle, 0, len(cs))
	for _, c := range cs {
		c.Ticker = ticker
		if c.CloseTime.IsZero() {
			c.CloseTime = c.BeginTime.Add(kind.Granularity.BucketWidth())
		}
		if err := c.Validate(); err != nil {
			// Malformed rows are rejected one by one, never the whole batch.
			slog.Warn("dropping malformed candle", "ticker", ticker, "begin_time", c.BeginTime, "error", err)
			continue
		}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return nil
	}

	inserted, err := iu.candle.InsertIgnoreBatch(ctx, kind, valid)
	if err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	slog.Info("stored candles",
		"ticker", ticker,
		"table", kind.TableName(),
		"fetched", len(cs),
		"inserted", inserted,
		"from", win.Begin.Format(time.RFC3339),
		"to", win.End.Format(time.RFC3339),
	)
	return nil
}
