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

// GoalHandler handles financial goal requests
type GoalHandler struct {
	store  *store.Store
	logger zerolog.Logger
}

// NewGoalHandler creates a new goal handler
func NewGoalHandler(st *store.Store, logger zerolog.Logger) *GoalHandler {
	return &GoalHandler{store: st, logger: logger}
}

type createGoalRequest struct {
	Name          string          `json:"name" binding:"required"`
	TargetAmount  float64         `json:"target_amount" binding:"gt=0"`
	CurrentAmount float64         `json:"current_amount" binding:"gte=0"`
	TimeHorizon   models.Horizon  `json:"time_horizon" default:"1-3y" binding:"horizon"`
	Priority      models.Priority `json:"priority" default:"medium" binding:"oneof=high medium low"`
}

// CreateGoal creates a financial goal
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	var req createGoalRequest
	if err := defaults.Set(&req); err != nil {
		respondError(c, h.logger, err, "Failed to create goal")
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	goal := models.Goal{
		Name:          strings.TrimSpace(req.Name),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		TimeHorizon:   req.TimeHorizon,
		Priority:      req.Priority,
	}
	if err := h.store.CreateGoal(c.Request.Context(), &goal); err != nil {
		respondError(c, h.logger, err, "Failed to create goal")
		return
	}
	c.JSON(http.StatusCreated, goal)
}

// GetGoals returns all goals
func (h *GoalHandler) GetGoals(c *gin.Context) {
	goals, err := h.store.ListGoals(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch goals")
		return
	}
	c.JSON(http.StatusOK, goals)
}

// DeleteGoal deletes a goal
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteGoal(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to delete goal")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Goal deleted successfully"})
}
