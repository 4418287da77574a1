package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_ingest/internal/feature/candles/domain/entity"
)

// mockCandleCursor is a mock implementation of the CandleCursor interface.
type mockCandleCursor struct {
	LatestBeginTimeFunc  func(ctx context.Context, kind entity.TableKind, ticker string) (time.Time, bool, error)
	LatestBeginTimeCalls int
}

func (m *mockCandleCursor) LatestBeginTime(ctx context.Context, kind entity.TableKind, ticker string) (time.Time, bool, error) {
	m.LatestBeginTimeCalls++
	if m.LatestBeginTimeFunc != nil {
		return m.LatestBeginTimeFunc(ctx, kind, ticker)
	}
	return time.Time{}, false, errors.New("LatestBeginTimeFunc is not implemented")
}

func TestWindowPlanner_NextWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	baseKind := entity.TableKind{Session: entity.SessionClassic, Granularity: entity.GranularityBase}
	hourlyKind := entity.TableKind{Session: entity.SessionClassic, Granularity: entity.GranularityHourly}
	errCursor := errors.New("cursor read failed")

	tests := []struct {
		name       string
		kind       entity.TableKind
		lookback   Lookback
		maxSpan    time.Duration
		cursorFunc func(ctx context.Context, kind entity.TableKind, ticker string) (time.Time, bool, error)
		wantOK     bool
		wantBegin  time.Time
		wantEnd    time.Time
		wantErr    error
	}{
		{
			name:     "first run falls back to lookback",
			kind:     baseKind,
			lookback: Lookback{Base: 24 * time.Hour},
			maxSpan:  48 * time.Hour,
			cursorFunc: func(ctx context.Context, kind entity.TableKind, ticker string) (time.Time, bool, error) {
				return time.Time{}, false, nil
			},
			wantOK:    true,
			wantBegin: now.Add(-24 * time.Hour),
			wantEnd:   now,
		},
		{
			name:     "hourly first run uses the wider hourly lookback",
			kind:     hourlyKind,
			lookback: Lookback{Base: 24 * time.Hour, Hourly: 72 * time.Hour},
			maxSpan:  96 * time.Hour,
			cursorFunc: func(ctx context.Context, kind entity.TableKind, ticker string) (time.Time, bool, error) {
				return time.Time{}, false, nil
			},
			wantOK:    true,
			wantBegin: now.Add(-72 * time.Hour),
			wantEnd:   now,
		},
		{
			name:     "resumes one bucket after the last stored candle",
			kind:     baseKind,
			lookback: Lookback{Base: 24 * time.Hour},
			maxSpan:  24 * time.Hour,
			cursorFunc: func(ctx context.Context, kind entity.TableKind, ticker string) (time.Time, bool, error) {
				return now.Add(-30 * time.Minute), true, nil
			},
			wantOK:    true,
			wantBegin: now.Add(-20 * time.Minute), // last + 10m bucket
			wantEnd:   now,
		},
		{
			name:     "hourly bucket width",
			kind:     hourlyKind,
			lookback: Lookback{Base: 24 * time.Hour},
			maxSpan:  24 * time.Hour,
			cursorFunc: func(ctx context.Context, kind entity.TableKind, ticker string) (time.Time, bool, error) {
				return now.Add(-3 * time.Hour), true, nil
			},
			wantOK:    true,
			wantBegin: now.Add(-2 * time.Hour),
			wantEnd:   now,
		},
		{
			name:     "span capped by maxWindowSpan",
			kind:     baseKind,
			lookback: Lookback{Base: 24 * time.Hour},
			maxSpan:  time.Hour,
			cursorFunc: func(ctx context.Context, kind entity.TableKind, ticker string) (time.Time, bool, error) {
				return now.Add(-10 * time.Hour), true, nil
			},
			wantOK:    true,
			wantBegin: now.Add(-10 * time.Hour).Add(10 * time.Minute),
			wantEnd:   now.Add(-10 * time.Hour).Add(10 * time.Minute).Add(time.Hour),
		},
		{
			name:     "caught up yields empty window",
			kind:     baseKind,
			lookback: Lookback{Base: 24 * time.Hour},
			maxSpan:  24 * time.Hour,
			cursorFunc: func(ctx context.Context, kind entity.TableKind, ticker string) (time.Time, bool, error) {
				return now.Add(-5 * time.Minute), true, nil // next bucket starts in the future
			},
			wantOK: false,
		},
		{
			name:     "cursor error propagates",
			kind:     baseKind,
			lookback: Lookback{Base: 24 * time.Hour},
			maxSpan:  24 * time.Hour,
			cursorFunc: func(ctx context.Context, kind entity.TableKind, ticker string) (time.Time, bool, error) {
				return time.Time{}, false, errCursor
			},
			wantErr: errCursor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor := &mockCandleCursor{LatestBeginTimeFunc: tt.cursorFunc}
			p := NewWindowPlanner(cursor, tt.lookback, tt.maxSpan)
			p.now = func() time.Time { return now }

			win, ok, err := p.NextWindow(ctx, "SBER", tt.kind)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, win.Begin.Equal(tt.wantBegin), "begin: got %s, want %s", win.Begin, tt.wantBegin)
				assert.True(t, win.End.Equal(tt.wantEnd), "end: got %s, want %s", win.End, tt.wantEnd)
			}
			assert.Equal(t, 1, cursor.LatestBeginTimeCalls)
		})
	}
}

// Restart behavior: consecutive plans around a persisted bucket T leave no
// gap and never re-fetch T.
func TestWindowPlanner_NextWindow_ContiguousAfterRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	kind := entity.TableKind{Session: entity.SessionClassic, Granularity: entity.GranularityBase}
	lastWritten := time.Date(2024, 1, 10, 11, 40, 0, 0, time.UTC)

	cursor := &mockCandleCursor{
		LatestBeginTimeFunc: func(ctx context.Context, kind entity.TableKind, ticker string) (time.Time, bool, error) {
			return lastWritten, true, nil
		},
	}
	p := NewWindowPlanner(cursor, Lookback{Base: 24 * time.Hour}, 24*time.Hour)
	p.now = func() time.Time { return now }

	win, ok, err := p.NextWindow(ctx, "SBER", kind)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, win.Begin.Equal(lastWritten.Add(10*time.Minute)), "window must start exactly one bucket after T")
	assert.True(t, win.Begin.After(lastWritten), "T itself must not be re-fetched")
}
