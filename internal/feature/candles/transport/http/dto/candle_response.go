// Package dto defines the candle HTTP response shapes.
package dto

// CandleResponse is one stored candle as returned by the read API.
type CandleResponse struct {
	Ticker    string  `json:"ticker"`
	BeginTime string  `json:"begin_time"` // RFC3339, UTC
	CloseTime string  `json:"close_time"` // RFC3339, UTC
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
}

// ErrorResponse is the uniform error payload of the read API.
type ErrorResponse struct {
	Error string `json:"error"`
}
