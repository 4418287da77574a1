// Package usecase implements the business logic for watchlist operations.
package usecase

import (
	"context"

	"stock_ingest/internal/feature/watchlist/domain/entity"
)

// SymbolRepository abstracts the persistence layer for tracked tickers.
// Following Go convention: interfaces are defined by the consumer (usecase),
// not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
}

// SymbolUsecase provides business logic for watchlist operations.
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository.
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListActiveSymbols returns all active tracked tickers in display order.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.repo.ListActive(ctx)
}
