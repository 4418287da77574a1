// Package adapters provides the repository implementations for the watchlist feature.
package adapters

import (
	"context"

	"gorm.io/gorm"

	"stock_ingest/internal/feature/watchlist/domain/entity"
	"stock_ingest/internal/feature/watchlist/usecase"
)

// symbolPostgres is the PostgreSQL implementation of SymbolRepository.
type symbolPostgres struct {
	db *gorm.DB
}

var _ usecase.SymbolRepository = (*symbolPostgres)(nil)

// NewSymbolRepository creates a symbol repository on the given DB handle.
func NewSymbolRepository(db *gorm.DB) *symbolPostgres {
	return &symbolPostgres{db: db}
}

// ListActive returns all active tracked tickers ordered by sort_key.
func (r *symbolPostgres) ListActive(ctx context.Context) ([]entity.Symbol, error) {
	var symbols []entity.Symbol
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_key ASC").
		Find(&symbols).Error; err != nil {
		return nil, err
	}
	return symbols, nil
}
