// Package dto defines data transfer objects for the invest API responses.
package dto

// Quotation is the provider's decimal representation: integer units plus
// nanounits (billionths of a unit).
type Quotation struct {
	Units string `json:"units"`
	Nano  int64  `json:"nano"`
}

// GetCandlesResponse represents the JSON response from the GetCandles endpoint.
type GetCandlesResponse struct {
	Candles []struct {
		Time       string    `json:"time"`
		Open       Quotation `json:"open"`
		High       Quotation `json:"high"`
		Low        Quotation `json:"low"`
		Close      Quotation `json:"close"`
		IsComplete bool      `json:"isComplete"`
	} `json:"candles"`
}
