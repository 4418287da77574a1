// Package investapi provides a client for the invest market-data HTTP API.
package investapi

import (
	"os"
	"time"
)

// Config holds configuration for the invest API client.
type Config struct {
	APIToken string        // Bearer token for authentication, configured out of band
	BaseURL  string        // Base URL for the API
	Timeout  time.Duration // HTTP request timeout
}

// LoadConfig loads invest API configuration from environment variables.
func LoadConfig() Config {
	return Config{
		APIToken: os.Getenv("API_TOKEN"),
		BaseURL:  os.Getenv("INVEST_API_BASE_URL"),
		Timeout:  10 * time.Second,
	}
}
