package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ravijp/portfolio-advisor/pkg/services"
	"github.com/rs/zerolog"
)

// BatchHandler runs operations over every holding
type BatchHandler struct {
	holdings *services.HoldingService
	logger   zerolog.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(holdings *services.HoldingService, logger zerolog.Logger) *BatchHandler {
	return &BatchHandler{holdings: holdings, logger: logger}
}

// UpdateAllPrices refreshes the price of every holding
func (h *BatchHandler) UpdateAllPrices(c *gin.Context) {
	result, err := h.holdings.RefreshAllPrices(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to update prices")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Prices updated",
		"updated": result.Succeeded,
		"total":   result.Total,
		"failed":  result.Failed,
	})
}

// AnalyzeAll requests recommendations for every holding, one at a time
func (h *BatchHandler) AnalyzeAll(c *gin.Context) {
	result, err := h.holdings.AnalyzeAll(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to analyze holdings")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Analysis complete",
		"analyzed": result.Succeeded,
		"total":    result.Total,
		"failed":   result.Failed,
	})
}
