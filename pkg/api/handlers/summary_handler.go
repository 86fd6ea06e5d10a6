package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ravijp/portfolio-advisor/pkg/store"
	"github.com/ravijp/portfolio-advisor/pkg/summary"
	"github.com/rs/zerolog"
)

// SummaryHandler handles daily summary previews and on-demand sends
type SummaryHandler struct {
	store      *store.Store
	dispatcher *summary.Dispatcher
	logger     zerolog.Logger
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(st *store.Store, dispatcher *summary.Dispatcher, logger zerolog.Logger) *SummaryHandler {
	return &SummaryHandler{
		store:      st,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func emailParam(c *gin.Context) string {
	return strings.ToLower(strings.TrimSpace(c.Param("email")))
}

// PreviewSummary generates a user's summary without sending it
func (h *SummaryHandler) PreviewSummary(c *gin.Context) {
	s, err := h.dispatcher.Preview(c.Request.Context(), emailParam(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to generate summary")
		return
	}
	c.JSON(http.StatusOK, s)
}

// SendSummary generates and emails a user's summary immediately
func (h *SummaryHandler) SendSummary(c *gin.Context) {
	email := emailParam(c)
	s, err := h.dispatcher.SendNow(c.Request.Context(), email)
	if err != nil {
		respondError(c, h.logger, err, "Failed to send summary")
		return
	}
	h.logger.Info().Str("email", email).Msg("Summary sent on demand")
	c.JSON(http.StatusOK, gin.H{
		"message": "Summary sent",
		"summary": s,
	})
}

// GetDeliveries returns the most recent delivery attempts
func (h *SummaryHandler) GetDeliveries(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	deliveries, err := h.store.ListDeliveries(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch deliveries")
		return
	}
	c.JSON(http.StatusOK, deliveries)
}
