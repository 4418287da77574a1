// Package render formats query results for terminal output.
package render

import (
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"stock_ingest/internal/feature/candles/domain/entity"
)

// CandleTable writes candles as an aligned text table.
func CandleTable(w io.Writer, candles []entity.Candle) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Ticker", "Begin Time", "Close Time", "Open", "High", "Low", "Close"})

	for _, c := range candles {
		table.Append([]string{
			c.Ticker,
			c.BeginTime.UTC().Format(time.RFC3339),
			c.CloseTime.UTC().Format(time.RFC3339),
			formatPrice(c.Open),
			formatPrice(c.High),
			formatPrice(c.Low),
			formatPrice(c.Close),
		})
	}

	table.Render()
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
