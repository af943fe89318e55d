package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/apparelmetrics/market_cap_app/internal/apperrors"
	portssvc "github.com/apparelmetrics/market_cap_app/internal/core/ports/services"

	"github.com/apparelmetrics/market_cap_app/internal/dto"
	"github.com/apparelmetrics/market_cap_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// comparisonHandler handles HTTP requests for two-date market cap comparisons.
type comparisonHandler struct {
	comparisonService portssvc.ComparisonSvcFacade
}

// newComparisonHandler creates a new comparisonHandler.
func newComparisonHandler(cs portssvc.ComparisonSvcFacade) *comparisonHandler {
	return &comparisonHandler{
		comparisonService: cs,
	}
}

// registerComparisonRoutes registers routes related to comparisons.
func registerComparisonRoutes(rg *gin.RouterGroup, comparisonService portssvc.ComparisonSvcFacade) {
	h := newComparisonHandler(comparisonService)

	rg.GET("/comparisons", h.getComparison)
}

// getComparison godoc
// @Summary Compare market caps between two dates
// @Description Builds the full comparison between two stored dates. Both sides are valued through one rate snapshot as of the later date, so change figures reflect business moves rather than exchange-rate noise.
// @Tags comparisons
// @Produce  json
// @Param   fromDate query string true "Earlier date (YYYY-MM-DD)"
// @Param   toDate   query string true "Later date (YYYY-MM-DD)"
// @Success 200 {object} dto.ComparisonResponse
// @Failure 400 {object} map[string]string "Invalid dates"
// @Failure 404 {object} map[string]string "No data for one of the dates"
// @Failure 500 {object} map[string]string "Failed to build comparison"
// @Security BearerAuth
// @Router /comparisons [get]
func (h *comparisonHandler) getComparison(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var query dto.ComparisonQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		logger.Warn("Failed to bind query for Comparison", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	fromDate, err := time.Parse("2006-01-02", query.FromDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fromDate, expected YYYY-MM-DD"})
		return
	}
	toDate, err := time.Parse("2006-01-02", query.ToDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid toDate, expected YYYY-MM-DD"})
		return
	}
	if toDate.Before(fromDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "toDate must not be before fromDate"})
		return
	}

	logger = logger.With(slog.String("from_date", query.FromDate), slog.String("to_date", query.ToDate))
	logger.Info("Received request for market cap comparison")

	comparison, err := h.comparisonService.Compare(c.Request.Context(), fromDate, toDate)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("No market cap data for requested dates")
			c.JSON(http.StatusNotFound, gin.H{"error": "No market cap data stored for one of the requested dates"})
		} else {
			logger.Error("Failed to build comparison", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build comparison"})
		}
		return
	}

	logger.Info("Comparison built", slog.Int("rows", len(comparison.Rows)))
	c.JSON(http.StatusOK, dto.ToComparisonResponse(comparison))
}
