// Package router assembles the HTTP routes of the read API.
package router

import (
	"github.com/gin-gonic/gin"

	candlehandler "stock_ingest/internal/feature/candles/transport/handler"
	"stock_ingest/internal/platform/http/handler"
)

// NewRouter wires the read API endpoints.
func NewRouter(candles *candlehandler.CandleHandler) *gin.Engine {
	r := gin.Default()

	// Liveness probe
	r.GET("/healthz", handler.Health)

	r.GET("/candles", candles.GetCandlesHandler)

	return r
}
