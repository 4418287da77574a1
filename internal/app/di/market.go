// Package di provides dependency injection factories for creating application components.
package di

import (
	"stock_ingest/internal/feature/candles/adapters/investapi"
	infrahttp "stock_ingest/internal/platform/http"
)

// NewMarket creates a fully configured InvestAPIMarket with HTTP client.
func NewMarket() *investapi.InvestAPIMarket {
	cfg := investapi.LoadConfig()
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return investapi.NewInvestAPIMarket(cfg, httpClient)
}
