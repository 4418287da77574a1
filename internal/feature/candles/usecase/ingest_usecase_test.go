package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_ingest/internal/feature/candles/domain/entity"
)

// ErrDB is a sentinel shared between mocks and expectations.
var ErrDB = errors.New("database error")

// mockFetcher is a mock implementation of the Fetcher interface.
type mockFetcher struct {
	FetchFunc  func(ctx context.Context, ticker string, win entity.Window, g entity.Granularity) ([]entity.Candle, error)
	FetchCalls int
}

func (m *mockFetcher) Fetch(ctx context.Context, ticker string, win entity.Window, g entity.Granularity) ([]entity.Candle, error) {
	m.FetchCalls++
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, ticker, win, g)
	}
	return nil, errors.New("FetchFunc is not implemented")
}

// mockPlanner is a mock implementation of the Planner interface.
type mockPlanner struct {
	NextWindowFunc  func(ctx context.Context, ticker string, kind entity.TableKind) (entity.Window, bool, error)
	NextWindowCalls int
}

func (m *mockPlanner) NextWindow(ctx context.Context, ticker string, kind entity.TableKind) (entity.Window, bool, error) {
	m.NextWindowCalls++
	if m.NextWindowFunc != nil {
		return m.NextWindowFunc(ctx, ticker, kind)
	}
	return entity.Window{}, false, errors.New("NextWindowFunc is not implemented")
}

// mockCandleRepository is a mock implementation of the CandleRepository interface.
type mockCandleRepository struct {
	InsertIgnoreBatchFunc func(ctx context.Context, kind entity.TableKind, candles []entity.Candle) (int64, error)
	LatestBeginTimeFunc   func(ctx context.Context, kind entity.TableKind, ticker string) (time.Time, bool, error)
	FindFunc              func(ctx context.Context, kind entity.TableKind, f QueryFilter) ([]entity.Candle, error)
	InsertCalls           int
}

func (m *mockCandleRepository) InsertIgnoreBatch(ctx context.Context, kind entity.TableKind, candles []entity.Candle) (int64, error) {
	m.InsertCalls++
	if m.InsertIgnoreBatchFunc != nil {
		return m.InsertIgnoreBatchFunc(ctx, kind, candles)
	}
	return 0, errors.New("InsertIgnoreBatchFunc is not implemented")
}

func (m *mockCandleRepository) LatestBeginTime(ctx context.Context, kind entity.TableKind, ticker string) (time.Time, bool, error) {
	if m.LatestBeginTimeFunc != nil {
		return m.LatestBeginTimeFunc(ctx, kind, ticker)
	}
	return time.Time{}, false, errors.New("LatestBeginTimeFunc is not implemented")
}

func (m *mockCandleRepository) Find(ctx context.Context, kind entity.TableKind, f QueryFilter) ([]entity.Candle, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, kind, f)
	}
	return nil, errors.New("FindFunc is not implemented")
}

// mockRateLimiter is a mock implementation of the RateLimiterInterface.
type mockRateLimiter struct {
	WaitIfNeededCalls int
}

func (m *mockRateLimiter) WaitIfNeeded(ctx context.Context) { m.WaitIfNeededCalls++ }

// fixedClassifier always returns the same session.
type fixedClassifier struct{ session entity.Session }

func (f fixedClassifier) Classify(w entity.Window) entity.Session { return f.session }

var (
	weekdayNoon  = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) // Wednesday
	saturdayNoon = time.Date(2024, 1, 13, 12, 0, 0, 0, time.UTC)
)

func openWindowPlanner(begin time.Time) *mockPlanner {
	return &mockPlanner{
		NextWindowFunc: func(ctx context.Context, ticker string, kind entity.TableKind) (entity.Window, bool, error) {
			return entity.Window{Begin: begin, End: begin.Add(time.Hour)}, true, nil
		},
	}
}

func fetchedCandle(begin time.Time) entity.Candle {
	return entity.Candle{BeginTime: begin, CloseTime: begin.Add(10 * time.Minute), Open: 100, High: 110, Low: 90, Close: 105}
}

func newLoop(f Fetcher, p Planner, c Classifier, repo CandleRepository, watch WatchlistRepository) (*IngestUsecase, *mockRateLimiter) {
	rl := &mockRateLimiter{}
	iu := NewIngestUsecase(f, p, c, repo, watch, rl, time.Minute)
	return iu, rl
}

func TestIngestUsecase_RunPass_WritesFetchedCandles(t *testing.T) {
	begin := weekdayNoon.Add(-time.Hour)

	var gotKinds []entity.TableKind
	var gotBatches [][]entity.Candle
	repo := &mockCandleRepository{
		InsertIgnoreBatchFunc: func(ctx context.Context, kind entity.TableKind, candles []entity.Candle) (int64, error) {
			gotKinds = append(gotKinds, kind)
			gotBatches = append(gotBatches, candles)
			return int64(len(candles)), nil
		},
	}
	fetcher := &mockFetcher{
		FetchFunc: func(ctx context.Context, ticker string, win entity.Window, g entity.Granularity) ([]entity.Candle, error) {
			return []entity.Candle{fetchedCandle(begin)}, nil
		},
	}

	iu, rl := newLoop(fetcher, openWindowPlanner(begin), fixedClassifier{entity.SessionClassic}, repo,
		StaticWatchlist{{Ticker: "SBER", WeekendVenue: false}})
	iu.now = func() time.Time { return weekdayNoon }

	iu.RunPass(context.Background())

	// One ticker, two granularities (base + hourly).
	require.Equal(t, 2, fetcher.FetchCalls)
	require.Equal(t, 2, repo.InsertCalls)
	assert.Equal(t, 2, rl.WaitIfNeededCalls)
	assert.Equal(t, []entity.TableKind{
		{Session: entity.SessionClassic, Granularity: entity.GranularityBase},
		{Session: entity.SessionClassic, Granularity: entity.GranularityHourly},
	}, gotKinds)
	for _, batch := range gotBatches {
		for _, c := range batch {
			assert.Equal(t, "SBER", c.Ticker, "loop must stamp the ticker onto fetched candles")
		}
	}
}

func TestIngestUsecase_RunPass_OneTickerFailingDoesNotAbortThePass(t *testing.T) {
	begin := weekdayNoon.Add(-time.Hour)

	fetcher := &mockFetcher{
		FetchFunc: func(ctx context.Context, ticker string, win entity.Window, g entity.Granularity) ([]entity.Candle, error) {
			if ticker == "FLAKY" {
				return nil, fmt.Errorf("%w: boom", ErrFetchFailed)
			}
			return []entity.Candle{fetchedCandle(begin)}, nil
		},
	}
	repo := &mockCandleRepository{
		InsertIgnoreBatchFunc: func(ctx context.Context, kind entity.TableKind, candles []entity.Candle) (int64, error) {
			return int64(len(candles)), nil
		},
	}

	iu, _ := newLoop(fetcher, openWindowPlanner(begin), fixedClassifier{entity.SessionClassic}, repo,
		StaticWatchlist{{Ticker: "FLAKY"}, {Ticker: "SBER"}})
	iu.now = func() time.Time { return weekdayNoon }

	iu.RunPass(context.Background())

	// FLAKY fails on both granularities but SBER is still processed.
	assert.Equal(t, 4, fetcher.FetchCalls)
	assert.Equal(t, 2, repo.InsertCalls)
}

func TestIngestUsecase_RunPass_WeekendSkipsNonWeekendTickers(t *testing.T) {
	begin := saturdayNoon.Add(-time.Hour)

	var gotTickers []string
	fetcher := &mockFetcher{
		FetchFunc: func(ctx context.Context, ticker string, win entity.Window, g entity.Granularity) ([]entity.Candle, error) {
			gotTickers = append(gotTickers, ticker)
			return []entity.Candle{fetchedCandle(begin)}, nil
		},
	}
	var gotKinds []entity.TableKind
	repo := &mockCandleRepository{
		InsertIgnoreBatchFunc: func(ctx context.Context, kind entity.TableKind, candles []entity.Candle) (int64, error) {
			gotKinds = append(gotKinds, kind)
			return int64(len(candles)), nil
		},
	}

	iu, _ := newLoop(fetcher, openWindowPlanner(begin), fixedClassifier{entity.SessionWeekend}, repo,
		StaticWatchlist{
			{Ticker: "SBER", WeekendVenue: false},
			{Ticker: "YDEX", WeekendVenue: true},
		})
	iu.now = func() time.Time { return saturdayNoon }

	iu.RunPass(context.Background())

	assert.Equal(t, []string{"YDEX", "YDEX"}, gotTickers)
	for _, k := range gotKinds {
		assert.Equal(t, entity.SessionWeekend, k.Session, "weekend pass must write to weekend tables")
	}
}

func TestIngestUsecase_RunPass_MalformedRowsDroppedIndividually(t *testing.T) {
	begin := weekdayNoon.Add(-time.Hour)

	bad := fetchedCandle(begin)
	bad.Low = bad.High + 1 // fails validation
	fetcher := &mockFetcher{
		FetchFunc: func(ctx context.Context, ticker string, win entity.Window, g entity.Granularity) ([]entity.Candle, error) {
			return []entity.Candle{fetchedCandle(begin), bad, fetchedCandle(begin.Add(10 * time.Minute))}, nil
		},
	}
	var batchSizes []int
	repo := &mockCandleRepository{
		InsertIgnoreBatchFunc: func(ctx context.Context, kind entity.TableKind, candles []entity.Candle) (int64, error) {
			batchSizes = append(batchSizes, len(candles))
			return int64(len(candles)), nil
		},
	}

	iu, _ := newLoop(fetcher, openWindowPlanner(begin), fixedClassifier{entity.SessionClassic}, repo,
		StaticWatchlist{{Ticker: "SBER"}})
	iu.now = func() time.Time { return weekdayNoon }

	iu.RunPass(context.Background())

	require.NotEmpty(t, batchSizes)
	for _, n := range batchSizes {
		assert.Equal(t, 2, n, "the malformed row is dropped, the rest of the batch is written")
	}
}

func TestIngestUsecase_RunPass_CaughtUpTickerWritesNothing(t *testing.T) {
	planner := &mockPlanner{
		NextWindowFunc: func(ctx context.Context, ticker string, kind entity.TableKind) (entity.Window, bool, error) {
			return entity.Window{}, false, nil
		},
	}
	fetcher := &mockFetcher{}
	repo := &mockCandleRepository{}

	iu, _ := newLoop(fetcher, planner, fixedClassifier{entity.SessionClassic}, repo,
		StaticWatchlist{{Ticker: "SBER"}})
	iu.now = func() time.Time { return weekdayNoon }

	iu.RunPass(context.Background())

	assert.Equal(t, 0, fetcher.FetchCalls)
	assert.Equal(t, 0, repo.InsertCalls)
}

func TestIngestUsecase_RunPass_FatalProviderErrorHaltsTickerForTheRun(t *testing.T) {
	begin := weekdayNoon.Add(-time.Hour)

	fetcher := &mockFetcher{
		FetchFunc: func(ctx context.Context, ticker string, win entity.Window, g entity.Granularity) ([]entity.Candle, error) {
			if ticker == "REVOKED" {
				return nil, fmt.Errorf("%w: http 401", ErrProviderFatal)
			}
			return []entity.Candle{fetchedCandle(begin)}, nil
		},
	}
	repo := &mockCandleRepository{
		InsertIgnoreBatchFunc: func(ctx context.Context, kind entity.TableKind, candles []entity.Candle) (int64, error) {
			return int64(len(candles)), nil
		},
	}

	iu, _ := newLoop(fetcher, openWindowPlanner(begin), fixedClassifier{entity.SessionClassic}, repo,
		StaticWatchlist{{Ticker: "REVOKED"}, {Ticker: "SBER"}})
	iu.now = func() time.Time { return weekdayNoon }

	iu.RunPass(context.Background())
	firstPassCalls := fetcher.FetchCalls
	// REVOKED fails once (halted before the second granularity), SBER gets 2.
	assert.Equal(t, 3, firstPassCalls)

	iu.RunPass(context.Background())
	// Second pass skips REVOKED entirely.
	assert.Equal(t, firstPassCalls+2, fetcher.FetchCalls)
}

func TestIngestUsecase_Run_StopsOnContextCancel(t *testing.T) {
	fetcher := &mockFetcher{}
	planner := &mockPlanner{
		NextWindowFunc: func(ctx context.Context, ticker string, kind entity.TableKind) (entity.Window, bool, error) {
			return entity.Window{}, false, nil
		},
	}
	repo := &mockCandleRepository{}

	rl := &mockRateLimiter{}
	iu := NewIngestUsecase(fetcher, planner, fixedClassifier{entity.SessionClassic}, repo,
		StaticWatchlist{{Ticker: "SBER"}}, rl, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := iu.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
