package investapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"stock_ingest/internal/feature/candles/adapters/investapi/dto"
	"stock_ingest/internal/feature/candles/domain/entity"
	"stock_ingest/internal/feature/candles/usecase"
)

// InvestAPIMarket is the MarketRepository implementation backed by the
// invest HTTP API.
type InvestAPIMarket struct {
	cfg    Config
	client *http.Client
}

// Compile-time check that InvestAPIMarket implements MarketRepository.
var _ usecase.MarketRepository = (*InvestAPIMarket)(nil)

// NewInvestAPIMarket creates a market client with the given configuration
// and HTTP client.
func NewInvestAPIMarket(cfg Config, client *http.Client) *InvestAPIMarket {
	return &InvestAPIMarket{cfg: cfg, client: client}
}

// candleRequest is the GetCandles request body.
type candleRequest struct {
	InstrumentID string `json:"instrumentId"`
	From         string `json:"from"`
	To           string `json:"to"`
	Interval     string `json:"interval"`
}

// intervalName maps a granularity to the provider's interval identifier.
func intervalName(g entity.Granularity) string {
	if g == entity.GranularityHourly {
		return "CANDLE_INTERVAL_HOUR"
	}
	return "CANDLE_INTERVAL_10_MIN"
}

// GetCandles fetches candles for the ticker over the half-open window.
//
// Error mapping: HTTP 429 becomes *usecase.RateLimitedError carrying the
// Retry-After hint when present; 401/403/400 wrap usecase.ErrProviderFatal;
// other failure statuses and transport errors are returned as plain
// (transient) errors. A response body that cannot be decoded is treated as
// an empty window, not an error.
func (m *InvestAPIMarket) GetCandles(ctx context.Context, ticker string, win entity.Window, g entity.Granularity) ([]entity.Candle, error) {
	body, err := json.Marshal(candleRequest{
		InstrumentID: ticker,
		From:         win.Begin.UTC().Format(time.RFC3339),
		To:           win.End.UTC().Format(time.RFC3339),
		Interval:     intervalName(g),
	})
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/tinkoff.public.invest.api.contract.v1.MarketDataService/GetCandles", m.cfg.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIToken)

	res, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return nil, &usecase.RateLimitedError{RetryAfter: retryAfter(res)}
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: http %d", usecase.ErrProviderFatal, res.StatusCode)
	case res.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: http 400", usecase.ErrProviderFatal)
	case res.StatusCode >= 400:
		return nil, fmt.Errorf("invest api http %d", res.StatusCode)
	}

	var payload dto.GetCandlesResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		// Absence of usable data in a window is a valid outcome.
		slog.Warn("undecodable candles response, treating window as empty", "ticker", ticker, "error", err)
		return []entity.Candle{}, nil
	}

	width := g.BucketWidth()
	candles := make([]entity.Candle, 0, len(payload.Candles))
	for _, v := range payload.Candles {
		tm, err := time.Parse(time.RFC3339, v.Time)
		if err != nil {
			slog.Warn("skipping candle with unparseable time", "ticker", ticker, "time", v.Time, "error", err)
			continue
		}
		o, h, l, c, err := parsePrices(v.Open, v.High, v.Low, v.Close)
		if err != nil {
			// A bad quotation rejects the row, never the window.
			slog.Warn("skipping candle with unparseable quotation", "ticker", ticker, "time", v.Time, "error", err)
			continue
		}

		candles = append(candles, entity.Candle{
			BeginTime: tm,
			CloseTime: tm.Add(width),
			Open:      o,
			High:      h,
			Low:       l,
			Close:     c,
		})
	}
	return candles, nil
}

// retryAfter reads the throttling hint from the response headers. Zero means
// no hint was given.
func retryAfter(res *http.Response) time.Duration {
	v := res.Header.Get("Retry-After")
	if v == "" {
		v = res.Header.Get("X-Ratelimit-Reset")
	}
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// parsePrices decodes all four OHLC quotations of one candle.
func parsePrices(open, high, low, cl dto.Quotation) (o, h, l, c float64, err error) {
	if o, err = quotationToFloat(open); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("parse open: %w", err)
	}
	if h, err = quotationToFloat(high); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("parse high: %w", err)
	}
	if l, err = quotationToFloat(low); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("parse low: %w", err)
	}
	if c, err = quotationToFloat(cl); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("parse close: %w", err)
	}
	return o, h, l, c, nil
}

// quotationToFloat collapses the units/nano pair into a float price.
func quotationToFloat(q dto.Quotation) (float64, error) {
	units, err := strconv.ParseInt(q.Units, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("units %q: %w", q.Units, err)
	}
	return float64(units) + float64(q.Nano)/1e9, nil
}
