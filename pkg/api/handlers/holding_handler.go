package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ravijp/portfolio-advisor/pkg/models"
	"github.com/ravijp/portfolio-advisor/pkg/services"
	"github.com/ravijp/portfolio-advisor/pkg/store"
	"github.com/rs/zerolog"
)

// HoldingHandler handles holding CRUD and the per-holding actions
type HoldingHandler struct {
	store    *store.Store
	holdings *services.HoldingService
	logger   zerolog.Logger
}

// NewHoldingHandler creates a new holding handler
func NewHoldingHandler(st *store.Store, holdings *services.HoldingService, logger zerolog.Logger) *HoldingHandler {
	return &HoldingHandler{
		store:    st,
		holdings: holdings,
		logger:   logger,
	}
}

type createHoldingRequest struct {
	Name         string           `json:"name" binding:"required"`
	Symbol       string           `json:"symbol" binding:"required,ticker"`
	Type         models.AssetType `json:"type" binding:"omitempty,oneof=stock mutual-fund"`
	Quantity     float64          `json:"quantity" binding:"gte=0"`
	AvgPrice     float64          `json:"avg_price" binding:"gte=0"`
	CurrentPrice *float64         `json:"current_price" binding:"omitempty,gte=0"`
	Sector       string           `json:"sector"`
}

// CreateHolding creates a holding, pricing it live when no price is given
func (h *HoldingHandler) CreateHolding(c *gin.Context) {
	var req createHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	holding := models.Holding{
		Name:         strings.TrimSpace(req.Name),
		Symbol:       strings.TrimSpace(req.Symbol),
		Type:         req.Type,
		Quantity:     req.Quantity,
		AvgPrice:     req.AvgPrice,
		CurrentPrice: req.CurrentPrice,
		Sector:       strings.TrimSpace(req.Sector),
	}
	if err := h.holdings.CreateHolding(c.Request.Context(), &holding); err != nil {
		respondError(c, h.logger, err, "Failed to create holding")
		return
	}

	h.logger.Info().Uint("holding_id", holding.ID).Str("ticker", holding.Symbol).Msg("Holding created")
	c.JSON(http.StatusCreated, holding)
}

// GetHoldings returns all holdings
func (h *HoldingHandler) GetHoldings(c *gin.Context) {
	holdings, err := h.store.ListHoldings(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch holdings")
		return
	}
	c.JSON(http.StatusOK, holdings)
}

// GetHolding returns a single holding
func (h *HoldingHandler) GetHolding(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	holding, err := h.store.GetHolding(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch holding")
		return
	}
	c.JSON(http.StatusOK, holding)
}

// DeleteHolding deletes a holding
func (h *HoldingHandler) DeleteHolding(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteHolding(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to delete holding")
		return
	}
	h.logger.Info().Uint("holding_id", id).Msg("Holding deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Holding deleted successfully"})
}

// RefreshPrice fetches the live price of one holding
func (h *HoldingHandler) RefreshPrice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	update, err := h.holdings.RefreshPrice(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to refresh price")
		return
	}
	c.JSON(http.StatusOK, update)
}

// AnalyzeHolding requests fresh recommendations for one holding
func (h *HoldingHandler) AnalyzeHolding(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	set, err := h.holdings.Analyze(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to analyze holding")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"holding_id":      id,
		"recommendations": set,
	})
}

// GetPriceHistory returns the recorded prices of a holding, newest first
func (h *HoldingHandler) GetPriceHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	holding, err := h.store.GetHolding(ctx, id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch holding")
		return
	}
	history, err := h.store.ListPriceHistory(ctx, holding.Symbol, limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch price history")
		return
	}
	c.JSON(http.StatusOK, history)
}
