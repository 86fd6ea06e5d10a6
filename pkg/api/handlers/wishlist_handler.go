package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ravijp/portfolio-advisor/pkg/models"
	"github.com/ravijp/portfolio-advisor/pkg/store"
	"github.com/rs/zerolog"
)

// WishlistHandler handles wishlist requests
type WishlistHandler struct {
	store  *store.Store
	logger zerolog.Logger
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(st *store.Store, logger zerolog.Logger) *WishlistHandler {
	return &WishlistHandler{store: st, logger: logger}
}

type createWishlistRequest struct {
	Name         string  `json:"name" binding:"required"`
	Symbol       string  `json:"symbol" binding:"required,ticker"`
	CurrentPrice float64 `json:"current_price" binding:"gte=0"`
	TargetPrice  float64 `json:"target_price" binding:"gte=0"`
	Sector       string  `json:"sector"`
	Reasoning    string  `json:"reasoning"`
}

// CreateItem adds an instrument to the wishlist
func (h *WishlistHandler) CreateItem(c *gin.Context) {
	var req createWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item := models.WishlistItem{
		Name:         strings.TrimSpace(req.Name),
		Symbol:       strings.TrimSpace(req.Symbol),
		CurrentPrice: req.CurrentPrice,
		TargetPrice:  req.TargetPrice,
		Sector:       strings.TrimSpace(req.Sector),
		Reasoning:    req.Reasoning,
	}
	if err := h.store.CreateWishlistItem(c.Request.Context(), &item); err != nil {
		respondError(c, h.logger, err, "Failed to create wishlist item")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItems returns the whole wishlist
func (h *WishlistHandler) GetItems(c *gin.Context) {
	items, err := h.store.ListWishlist(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to fetch wishlist")
		return
	}
	c.JSON(http.StatusOK, items)
}

// DeleteItem removes a wishlist item
func (h *WishlistHandler) DeleteItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteWishlistItem(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to delete wishlist item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Wishlist item deleted successfully"})
}
