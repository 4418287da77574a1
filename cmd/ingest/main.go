package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"stock_ingest/internal/app/di"
	"stock_ingest/internal/platform/db"
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	gormDB, err := db.OpenDB()
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	uc := di.NewIngest(gormDB)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("ingest loop starting")
	if err := uc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("ingest loop stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("ingest loop stopped")
}
