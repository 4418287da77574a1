// Package handler provides the HTTP handlers for the candles feature.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stock_ingest/internal/feature/candles/domain/entity"
	"stock_ingest/internal/feature/candles/transport/http/dto"
	"stock_ingest/internal/feature/candles/usecase"
)

// dateLayout is the day-granular format accepted by the date filters.
const dateLayout = "2006-01-02"

// CandleQueryUsecase is the read usecase as the handler consumes it.
// Following Go convention, the interface is defined on the consumer side.
type CandleQueryUsecase interface {
	GetCandles(ctx context.Context, kind entity.TableKind, f usecase.QueryFilter) ([]entity.Candle, error)
}

// CandleHandler serves HTTP reads over the stored candles.
type CandleHandler struct {
	uc CandleQueryUsecase
}

// NewCandleHandler creates a CandleHandler backed by the given usecase.
func NewCandleHandler(uc CandleQueryUsecase) *CandleHandler {
	return &CandleHandler{uc: uc}
}

// GetCandlesHandler returns stored candles matching the query filters.
//
// Example:
// GET /candles?session=classic&granularity=base&ticker=SBER&start_date=2024-01-01&end_date=2024-01-31&limit=50
func (h *CandleHandler) GetCandlesHandler(c *gin.Context) {
	session, err := entity.ParseSession(c.DefaultQuery("session", "classic"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	granularity, err := entity.ParseGranularity(c.DefaultQuery("granularity", "base"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	filter := usecase.QueryFilter{Ticker: c.Query("ticker")}
	if v := c.Query("start_date"); v != "" {
		filter.StartDate, err = time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "start_date must be YYYY-MM-DD"})
			return
		}
	}
	if v := c.Query("end_date"); v != "" {
		filter.EndDate, err = time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "end_date must be YYYY-MM-DD"})
			return
		}
	}
	// An unparseable limit passes through as zero and the usecase applies
	// its default.
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))

	kind := entity.TableKind{Session: session, Granularity: granularity}
	candles, err := h.uc.GetCandles(c.Request.Context(), kind, filter)
	if err != nil {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]dto.CandleResponse, 0, len(candles))
	for _, x := range candles {
		out = append(out, dto.CandleResponse{
			Ticker:    x.Ticker,
			BeginTime: x.BeginTime.UTC().Format(time.RFC3339),
			CloseTime: x.CloseTime.UTC().Format(time.RFC3339),
			Open:      x.Open,
			High:      x.High,
			Low:       x.Low,
			Close:     x.Close,
		})
	}

	c.JSON(http.StatusOK, out)
}
