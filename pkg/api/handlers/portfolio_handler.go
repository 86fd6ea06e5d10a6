package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ravijp/portfolio-advisor/pkg/models"
	"github.com/ravijp/portfolio-advisor/pkg/services"
	"github.com/ravijp/portfolio-advisor/pkg/store"
	"github.com/rs/zerolog"
)

// PortfolioHandler handles portfolio-level requests
type PortfolioHandler struct {
	store  *store.Store
	logger zerolog.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(st *store.Store, logger zerolog.Logger) *PortfolioHandler {
	return &PortfolioHandler{store: st, logger: logger}
}

// GetPortfolioSummary returns aggregated portfolio metrics
func (h *PortfolioHandler) GetPortfolioSummary(c *gin.Context) {
	holdings, err := h.store.ListHoldings(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch holdings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":  services.CalculatePortfolioMetrics(holdings),
		"holdings": holdings,
	})
}

// GetSnapshots returns recorded portfolio values, newest first
func (h *PortfolioHandler) GetSnapshots(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	snaps, err := h.store.ListSnapshots(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch snapshots")
		return
	}
	c.JSON(http.StatusOK, snaps)
}

var csvHeader = []string{
	"ID", "Name", "Symbol", "Type", "Sector", "Quantity", "Avg Price",
	"Current Price", "Value", "Unrealized P&L", "1m Action", "Last Updated",
}

// ExportCSV exports all holdings to CSV
func (h *PortfolioHandler) ExportCSV(c *gin.Context) {
	holdings, err := h.store.ListHoldings(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch holdings")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment;filename=portfolio_export.csv")
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write(csvHeader)
	for _, holding := range holdings {
		_ = writer.Write(csvRow(holding))
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write CSV export")
	}
}

func csvRow(h models.Holding) []string {
	price := services.EffectivePrice(h)
	current := ""
	if h.CurrentPrice != nil {
		current = formatAmount(*h.CurrentPrice)
	}
	action := ""
	if rec, ok := h.RecommendationSet().For(models.HorizonOneMonth); ok {
		action = string(rec.Action)
	}

	return []string{
		strconv.FormatUint(uint64(h.ID), 10),
		h.Name,
		h.Symbol,
		string(h.Type),
		h.Sector,
		strconv.FormatFloat(h.Quantity, 'f', -1, 64),
		formatAmount(h.AvgPrice),
		current,
		formatAmount(h.Quantity * price),
		formatAmount(h.Quantity * (price - h.AvgPrice)),
		action,
		h.LastUpdated.UTC().Format(time.RFC3339),
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
