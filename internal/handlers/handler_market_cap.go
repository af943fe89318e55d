package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/apparelmetrics/market_cap_app/internal/apperrors"
	portssvc "github.com/apparelmetrics/market_cap_app/internal/core/ports/services"

	"github.com/apparelmetrics/market_cap_app/internal/dto"
	"github.com/apparelmetrics/market_cap_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

const defaultDateLimit = 100

// marketCapHandler handles HTTP requests related to market cap data.
type marketCapHandler struct {
	marketCapService portssvc.MarketCapSvcFacade
}

// newMarketCapHandler creates a new marketCapHandler.
func newMarketCapHandler(ms portssvc.MarketCapSvcFacade) *marketCapHandler {
	return &marketCapHandler{
		marketCapService: ms,
	}
}

// RegisterMarketCapRoutes registers routes related to market caps.
func RegisterMarketCapRoutes(rg *gin.RouterGroup, marketCapService portssvc.MarketCapSvcFacade) {
	h := newMarketCapHandler(marketCapService)

	marketCaps := rg.Group("/marketcaps")
	{
		marketCaps.GET("", h.listMarketCaps)
		marketCaps.GET("/dates", h.listAvailableDates)
		marketCaps.GET("/ticker/:ticker", h.getMarketCapByTicker)
	}
}

// listMarketCaps godoc
// @Summary List market caps
// @Description Retrieves the ranked market cap listing, by EUR value descending, as of a date
// @Tags marketcaps
// @Produce  json
// @Param   date query string false "Listing date (YYYY-MM-DD), defaults to latest"
// @Success 200 {object} dto.ListMarketCapsResponse
// @Failure 400 {object} map[string]string "Invalid date"
// @Failure 500 {object} map[string]string "Failed to list market caps"
// @Security BearerAuth
// @Router /marketcaps [get]
func (h *marketCapHandler) listMarketCaps(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	date, _, err := parseCutoffQuery(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	entries, err := h.marketCapService.ListMarketCaps(c.Request.Context(), date)
	if err != nil {
		logger.Error("Failed to list market caps", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list market caps"})
		return
	}

	logger.Info("Market caps listed", slog.Int("count", len(entries)))
	c.JSON(http.StatusOK, dto.ToListMarketCapsResponse(entries, date))
}

// listAvailableDates godoc
// @Summary List dates with market cap data
// @Description Retrieves the distinct dates that have stored market cap data, newest first
// @Tags marketcaps
// @Produce  json
// @Param   limit query int false "Maximum rows to return" default(100)
// @Success 200 {array} string
// @Failure 400 {object} map[string]string "Invalid limit"
// @Failure 500 {object} map[string]string "Failed to list dates"
// @Security BearerAuth
// @Router /marketcaps/dates [get]
func (h *marketCapHandler) listAvailableDates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	limit := defaultDateLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	dates, err := h.marketCapService.ListAvailableDates(c.Request.Context(), limit)
	if err != nil {
		logger.Error("Failed to list available dates", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list available dates"})
		return
	}

	formatted := make([]string, len(dates))
	for i, d := range dates {
		formatted[i] = d.Format("2006-01-02")
	}

	logger.Info("Available dates listed", slog.Int("count", len(formatted)))
	c.JSON(http.StatusOK, formatted)
}

// getMarketCapByTicker godoc
// @Summary Get the latest market cap for a ticker
// @Description Retrieves the most recent stored market cap entry for one ticker
// @Tags marketcaps
// @Produce  json
// @Param   ticker path string true "Ticker symbol (e.g. NKE, MC.PA)"
// @Success 200 {object} dto.MarketCapResponse
// @Failure 404 {object} map[string]string "Ticker not found"
// @Failure 500 {object} map[string]string "Failed to retrieve market cap"
// @Security BearerAuth
// @Router /marketcaps/ticker/{ticker} [get]
func (h *marketCapHandler) getMarketCapByTicker(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ticker := strings.ToUpper(c.Param("ticker"))

	logger = logger.With(slog.String("ticker", ticker))
	logger.Info("Received request to get market cap by ticker")

	entry, err := h.marketCapService.GetMarketCapByTicker(c.Request.Context(), ticker)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Ticker not found")
			c.JSON(http.StatusNotFound, gin.H{"error": "No market cap data for ticker"})
		} else {
			logger.Error("Failed to get market cap", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve market cap"})
		}
		return
	}

	logger.Info("Market cap retrieved")
	c.JSON(http.StatusOK, dto.ToMarketCapResponse(entry))
}
