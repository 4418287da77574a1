package usecase

import (
	"context"
	"time"

	"stock_ingest/internal/feature/candles/domain/entity"
)

const (
	// DefaultQueryLimit is used when the caller gives no limit.
	DefaultQueryLimit = 10
	// MaxQueryLimit caps a single read.
	MaxQueryLimit = 1000
)

// QueryFilter narrows a candle read. Zero values mean "no filter". Dates are
// day-granular and inclusive on both ends.
type QueryFilter struct {
	Ticker    string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}

// CandleReader is the read side of the candle store. Both query front ends
// (CLI and HTTP) and the cache decorator speak this one contract.
type CandleReader interface {
	// Find returns candles from the table selected by kind, matching the
	// filter, ordered most-recent-first.
	Find(ctx context.Context, kind entity.TableKind, f QueryFilter) ([]entity.Candle, error)
}

// QueryUsecase serves filtered reads over the stored candles.
type QueryUsecase struct {
	candle CandleReader
}

// NewQueryUsecase creates a QueryUsecase backed by the given reader.
func NewQueryUsecase(candle CandleReader) *QueryUsecase {
	return &QueryUsecase{candle: candle}
}

// GetCandles applies limit defaults and delegates to the reader.
func (qu *QueryUsecase) GetCandles(ctx context.Context, kind entity.TableKind, f QueryFilter) ([]entity.Candle, error) {
	if f.Limit <= 0 || f.Limit > MaxQueryLimit {
		f.Limit = DefaultQueryLimit
	}
	return qu.candle.Find(ctx, kind, f)
}
