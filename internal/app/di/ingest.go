package di

import (
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"

	"stock_ingest/internal/feature/candles/adapters"
	"stock_ingest/internal/feature/candles/usecase"
	"stock_ingest/internal/shared/ratelimiter"
)

// Ingest loop tuning, overridable from the environment.
const (
	defaultPollInterval       = 10 * time.Minute
	defaultLookback           = 24 * time.Hour
	defaultHourlyLookback     = 7 * 24 * time.Hour
	defaultMaxWindowSpan      = 24 * time.Hour
	defaultRateLimitPerMinute = 120
)

// NewIngest assembles the full ingestion loop over the given DB handle.
func NewIngest(db *gorm.DB) *usecase.IngestUsecase {
	candleRepo := adapters.NewCandleRepository(db)

	fetcher := usecase.NewCandleFetcher(NewMarket(), usecase.DefaultRetryPolicy())
	planner := usecase.NewWindowPlanner(
		candleRepo,
		usecase.Lookback{
			Base:   durationEnv("DEFAULT_LOOKBACK", defaultLookback),
			Hourly: durationEnv("HOURLY_LOOKBACK", defaultHourlyLookback),
		},
		durationEnv("MAX_WINDOW_SPAN", defaultMaxWindowSpan),
	)
	limiter := ratelimiter.NewRateLimiter(intEnv("RATE_LIMIT_PER_MINUTE", defaultRateLimitPerMinute), time.Minute)

	return usecase.NewIngestUsecase(
		fetcher,
		planner,
		usecase.NewSessionClassifier(),
		candleRepo,
		NewWatchlist(db),
		limiter,
		durationEnv("POLL_INTERVAL", defaultPollInterval),
	)
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
