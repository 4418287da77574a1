// Package entity defines the domain models for the candles feature.
package entity

import (
	"errors"
	"fmt"
	"time"
)

// Candle represents one OHLC observation for one ticker over one time bucket.
// BeginTime identifies the bucket; together with the ticker it forms the
// storage identity, so a bucket is never written twice.
type Candle struct {
	Ticker    string    // Stock ticker symbol (e.g., "SBER", "AAPL")
	BeginTime time.Time // Start of the bucket
	CloseTime time.Time // End of the bucket (BeginTime + bucket width)
	Open      float64   // Opening price
	High      float64   // Highest price during the bucket
	Low       float64   // Lowest price during the bucket
	Close     float64   // Closing price
}

// ErrInvalidCandle marks a candle that fails domain validation.
var ErrInvalidCandle = errors.New("invalid candle")

// Validate checks the structural invariants of a candle. Invalid candles are
// dropped row by row before a write; they never abort the rest of a batch.
func (c Candle) Validate() error {
	if c.Ticker == "" {
		return fmt.Errorf("%w: empty ticker", ErrInvalidCandle)
	}
	if !c.BeginTime.Before(c.CloseTime) {
		return fmt.Errorf("%w: begin_time %s not before close_time %s", ErrInvalidCandle, c.BeginTime, c.CloseTime)
	}
	if c.Low > c.High {
		return fmt.Errorf("%w: low %v above high %v", ErrInvalidCandle, c.Low, c.High)
	}
	if c.Open < c.Low || c.Open > c.High {
		return fmt.Errorf("%w: open %v outside [%v, %v]", ErrInvalidCandle, c.Open, c.Low, c.High)
	}
	if c.Close < c.Low || c.Close > c.High {
		return fmt.Errorf("%w: close %v outside [%v, %v]", ErrInvalidCandle, c.Close, c.Low, c.High)
	}
	return nil
}
