// Package db opens the PostgreSQL connection and runs schema migrations.
package db

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	gpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	candleadapters "stock_ingest/internal/feature/candles/adapters"
	watchentity "stock_ingest/internal/feature/watchlist/domain/entity"
)

// Config holds the database connection settings.
type Config struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// LoadConfigFromEnv reads the connection settings from the environment,
// falling back to local development defaults.
func LoadConfigFromEnv() Config {
	return Config{
		Host:     envOr("DB_HOST", "localhost"),
		Port:     envOr("DB_PORT", "5432"),
		Name:     envOr("DB_NAME", "quantify_moex_stocks"),
		User:     envOr("DB_USER", "quantify_system_account"),
		Password: os.Getenv("DB_PASSWORD"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// BuildDSN renders the PostgreSQL DSN for the given config.
func BuildDSN(cfg Config) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
}

// Opener abstracts gorm.Open so connection retry logic is testable without
// a running database.
type Opener func(dsn string) (*gorm.DB, error)

// ConnectWithRetry keeps attempting to connect until it succeeds or the
// timeout elapses. The database regularly comes up after the service under
// container orchestration, so refusals during startup are expected.
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("database connect failed after %s: %w", timeout, err)
		}
		slog.Warn("database connect failed, retrying", "error", err)
		time.Sleep(3 * time.Second)
	}
}

// OpenDB connects to PostgreSQL using the environment configuration and,
// when RUN_MIGRATIONS=true, creates the candle and watchlist tables.
func OpenDB() (*gorm.DB, error) {
	dsn := BuildDSN(LoadConfigFromEnv())

	db, err := ConnectWithRetry(dsn, 60*time.Second, func(dsn string) (*gorm.DB, error) {
		return gorm.Open(gpostgres.Open(dsn), &gorm.Config{})
	})
	if err != nil {
		return nil, err
	}

	if os.Getenv("RUN_MIGRATIONS") == "true" {
		if err := candleadapters.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrate candle tables: %w", err)
		}
		if err := db.AutoMigrate(&watchentity.Symbol{}); err != nil {
			return nil, fmt.Errorf("migrate watch_symbols: %w", err)
		}
	}

	return db, nil
}
