package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"stock_ingest/internal/app/router"
	"stock_ingest/internal/feature/candles/adapters"
	candlehandler "stock_ingest/internal/feature/candles/transport/handler"
	"stock_ingest/internal/feature/candles/usecase"
	"stock_ingest/internal/platform/cache"
	"stock_ingest/internal/platform/db"
	infraredis "stock_ingest/internal/platform/redis"
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	gormDB, err := db.OpenDB()
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	// Redis is optional; the server runs cacheless without it.
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(); err != nil {
		slog.Warn("Redis unavailable, running without cache")
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	candleRepo := adapters.NewCandleRepository(gormDB)
	cachedReader := cache.NewCachingCandleReader(rdb, 0, candleRepo, "candles")

	queryUC := usecase.NewQueryUsecase(cachedReader)
	candleH := candlehandler.NewCandleHandler(queryUC)

	r := router.NewRouter(candleH)

	if err := r.Run(":8080"); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
