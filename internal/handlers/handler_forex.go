package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/apperrors"
	portssvc "github.com/apparelmetrics/market_cap_app/internal/core/ports/services"

	"github.com/apparelmetrics/market_cap_app/internal/dto"
	"github.com/apparelmetrics/market_cap_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 30

// forexHandler handles HTTP requests related to forex rates and conversions.
type forexHandler struct {
	rateService portssvc.RateSvcFacade
}

// newForexHandler creates a new forexHandler.
func newForexHandler(rs portssvc.RateSvcFacade) *forexHandler {
	return &forexHandler{
		rateService: rs,
	}
}

// registerForexRoutes registers routes related to forex rates.
func registerForexRoutes(rg *gin.RouterGroup, rateService portssvc.RateSvcFacade) {
	h := newForexHandler(rateService)

	rates := rg.Group("/rates")
	{
		rates.GET("", h.getSnapshot)
		rates.GET("/convert", h.convert)
		rates.GET("/history/:from/:to", h.getRateHistory)
	}
}

// getSnapshot godoc
// @Summary Get the rate snapshot
// @Description Lists every currency pair resolvable from the stored quotes, including derived reverse and cross rates
// @Tags rates
// @Produce  json
// @Param   date query string false "Snapshot cutoff date (YYYY-MM-DD), defaults to latest"
// @Success 200 {object} dto.SnapshotResponse
// @Failure 400 {object} map[string]string "Invalid date"
// @Failure 500 {object} map[string]string "Failed to build snapshot"
// @Security BearerAuth
// @Router /rates [get]
func (h *forexHandler) getSnapshot(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	date, cutoff, err := parseCutoffQuery(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	snapshot, err := h.rateService.SnapshotAt(c.Request.Context(), cutoff)
	if err != nil {
		logger.Error("Failed to build rate snapshot", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build rate snapshot"})
		return
	}

	logger.Info("Rate snapshot built", slog.Int("pairs", snapshot.Len()))
	c.JSON(http.StatusOK, dto.ToSnapshotResponse(snapshot, date))
}

// convert godoc
// @Summary Convert an amount between currencies
// @Description Converts an amount using the rate snapshot; subunit codes such as GBp are canonicalized. An unresolvable pair returns the original amount with a warning.
// @Tags rates
// @Produce  json
// @Param   amount query number true  "Amount to convert"
// @Param   from   query string true  "Source currency code (e.g. USD, GBp)"
// @Param   to     query string true  "Target currency code"
// @Param   at     query string false "Snapshot cutoff date (YYYY-MM-DD), defaults to latest"
// @Success 200 {object} dto.ConversionResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Failure 500 {object} map[string]string "Failed to convert"
// @Security BearerAuth
// @Router /rates/convert [get]
func (h *forexHandler) convert(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var query dto.ConvertQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		logger.Warn("Failed to bind query for Convert", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	_, cutoff, err := parseCutoffQuery(query.At)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid at date, expected YYYY-MM-DD"})
		return
	}

	logger = logger.With(slog.String("from", query.From), slog.String("to", query.To))
	logger.Info("Received request to convert amount", slog.Float64("amount", query.Amount))

	result, err := h.rateService.ConvertAmount(c.Request.Context(), query.Amount, query.From, query.To, cutoff)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error converting amount", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to convert amount", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to convert amount"})
		}
		return
	}

	logger.Info("Amount converted", slog.String("source", string(result.Source)))
	c.JSON(http.StatusOK, dto.ToConversionResponse(result, query.Amount, query.From, query.To))
}

// getRateHistory godoc
// @Summary Get rate history for a pair
// @Description Retrieves one page of stored quote history for a currency pair, newest first. The response carries a nextToken when more pages exist.
// @Tags rates
// @Produce  json
// @Param   from      path  string true  "Source currency code (3 letters)"
// @Param   to        path  string true  "Target currency code (3 letters)"
// @Param   limit     query int    false "Maximum rows per page" default(30)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.RateHistoryResponse
// @Failure 400 {object} map[string]string "Invalid currency pair or token"
// @Failure 500 {object} map[string]string "Failed to retrieve history"
// @Security BearerAuth
// @Router /rates/history/{from}/{to} [get]
func (h *forexHandler) getRateHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	fromCode := c.Param("from")
	toCode := c.Param("to")

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	var nextToken *string
	if raw := c.Query("nextToken"); raw != "" {
		nextToken = &raw
	}

	logger = logger.With(slog.String("from_code", fromCode), slog.String("to_code", toCode))
	logger.Info("Received request for rate history", slog.Int("limit", limit))

	rates, token, err := h.rateService.ListRateHistory(c.Request.Context(), fromCode+"/"+toCode, limit, nextToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error listing rate history", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to list rate history", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rate history"})
		}
		return
	}

	logger.Info("Rate history retrieved", slog.Int("count", len(rates)))
	c.JSON(http.StatusOK, dto.RateHistoryResponse{
		Rates:     dto.ToListForexRateResponse(rates),
		NextToken: token,
	})
}

// parseCutoffQuery interprets an optional YYYY-MM-DD query value as an
// end-of-day cutoff so data recorded during that day is included. An empty
// value means latest.
func parseCutoffQuery(raw string) (date *time.Time, cutoff *time.Time, err error) {
	if raw == "" {
		return nil, nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, nil, err
	}
	end := parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return &parsed, &end, nil
}
