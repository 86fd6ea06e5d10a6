package handlers

import (
	"net/http"
	"strings"

	"github.com/creasty/defaults"
	"github.com/gin-gonic/gin"
	"github.com/ravijp/portfolio-advisor/pkg/models"
	"github.com/ravijp/portfolio-advisor/pkg/store"
	"github.com/rs/zerolog"
)

// PreferencesHandler handles user preference requests
type PreferencesHandler struct {
	store  *store.Store
	logger zerolog.Logger
}

// NewPreferencesHandler creates a new preferences handler
func NewPreferencesHandler(st *store.Store, logger zerolog.Logger) *PreferencesHandler {
	return &PreferencesHandler{store: st, logger: logger}
}

type preferencesRequest struct {
	Email               string             `json:"email" binding:"required,email"`
	NotificationTime    string             `json:"notification_time" default:"08:00" binding:"datetime=15:04"`
	RiskProfile         models.RiskProfile `json:"risk_profile" default:"moderate" binding:"oneof=conservative moderate aggressive"`
	PreferredSectors    []string           `json:"preferred_sectors"`
	DailySummaryEnabled *bool              `json:"daily_summary_enabled" default:"true"`
}

// UpsertPreferences creates or replaces the preferences of one email
func (h *PreferencesHandler) UpsertPreferences(c *gin.Context) {
	var req preferencesRequest
	if err := defaults.Set(&req); err != nil {
		respondError(c, h.logger, err, "Failed to save preferences")
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sectors := make([]string, 0, len(req.PreferredSectors))
	for _, s := range req.PreferredSectors {
		if s = strings.TrimSpace(s); s != "" {
			sectors = append(sectors, s)
		}
	}

	prefs := models.UserPreferences{
		Email:               strings.ToLower(strings.TrimSpace(req.Email)),
		NotificationTime:    req.NotificationTime,
		RiskProfile:         req.RiskProfile,
		PreferredSectors:    sectors,
		DailySummaryEnabled: req.DailySummaryEnabled == nil || *req.DailySummaryEnabled,
	}
	created, err := h.store.UpsertPreferences(c.Request.Context(), &prefs)
	if err != nil {
		respondError(c, h.logger, err, "Failed to save preferences")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.logger.Info().Str("email", prefs.Email).Bool("created", created).Msg("Preferences saved")
	c.JSON(status, prefs)
}

// GetPreferences returns the preferences of one email
func (h *PreferencesHandler) GetPreferences(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.Param("email")))
	prefs, err := h.store.GetPreferences(c.Request.Context(), email)
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}
