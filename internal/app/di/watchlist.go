package di

import (
	"context"
	"os"
	"strings"

	"gorm.io/gorm"

	candleusecase "stock_ingest/internal/feature/candles/usecase"
	watchadapters "stock_ingest/internal/feature/watchlist/adapters"
	watchusecase "stock_ingest/internal/feature/watchlist/usecase"
)

// dbWatchlist adapts the watchlist feature to the ingest loop's view of a
// tracked ticker.
type dbWatchlist struct {
	uc *watchusecase.SymbolUsecase
}

var _ candleusecase.WatchlistRepository = (*dbWatchlist)(nil)

func (w *dbWatchlist) ListWatched(ctx context.Context) ([]candleusecase.WatchedTicker, error) {
	symbols, err := w.uc.ListActiveSymbols(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]candleusecase.WatchedTicker, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, candleusecase.WatchedTicker{
			Ticker:       s.Ticker,
			WeekendVenue: s.WeekendVenue,
		})
	}
	return out, nil
}

// NewWatchlist selects the tracked-ticker source. A non-empty TICKERS
// variable (comma separated, "*" suffix marks weekend-venue tickers) wins
// over the watch_symbols table, which keeps local runs database-free.
func NewWatchlist(db *gorm.DB) candleusecase.WatchlistRepository {
	if raw := os.Getenv("TICKERS"); raw != "" {
		var static candleusecase.StaticWatchlist
		for _, part := range strings.Split(raw, ",") {
			t := strings.TrimSpace(part)
			if t == "" {
				continue
			}
			weekend := strings.HasSuffix(t, "*")
			static = append(static, candleusecase.WatchedTicker{
				Ticker:       strings.TrimSuffix(t, "*"),
				WeekendVenue: weekend,
			})
		}
		return static
	}
	return &dbWatchlist{uc: watchusecase.NewSymbolUsecase(watchadapters.NewSymbolRepository(db))}
}
