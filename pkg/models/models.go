package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AssetType is the kind of instrument a holding represents
type AssetType string

const (
	AssetTypeStock      AssetType = "stock"
	AssetTypeMutualFund AssetType = "mutual-fund"
)

// Horizon is one of the six fixed recommendation buckets
type Horizon string

const (
	HorizonOneMonth       Horizon = "1m"
	HorizonOneToSixMonths Horizon = "1-6m"
	HorizonSixMonthsToOne Horizon = "6m-1y"
	HorizonOneToThree     Horizon = "1-3y"
	HorizonThreeToFive    Horizon = "3-5y"
	HorizonFivePlus       Horizon = "5y+"
)

// Horizons lists every bucket in ascending order
var Horizons = []Horizon{
	HorizonOneMonth,
	HorizonOneToSixMonths,
	HorizonSixMonthsToOne,
	HorizonOneToThree,
	HorizonThreeToFive,
	HorizonFivePlus,
}

// Valid reports whether h is one of the six known buckets
func (h Horizon) Valid() bool {
	for _, known := range Horizons {
		if h == known {
			return true
		}
	}
	return false
}

// Action is a recommendation verb
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionHold Action = "HOLD"
	ActionSell Action = "SELL"
)

// RiskProfile describes the user's appetite for risk
type RiskProfile string

const (
	RiskConservative RiskProfile = "conservative"
	RiskModerate     RiskProfile = "moderate"
	RiskAggressive   RiskProfile = "aggressive"
)

// Priority of a financial goal
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is the advice for one horizon bucket
type Recommendation struct {
	Action Action `json:"action" validate:"required,oneof=BUY HOLD SELL"`
	Reason string `json:"reason" validate:"required"`
}

// RecommendationSet maps each horizon bucket to its recommendation.
// A set read back from storage may be missing buckets.
type RecommendationSet map[Horizon]Recommendation

// For returns the recommendation of one bucket, if present
func (s RecommendationSet) For(h Horizon) (Recommendation, bool) {
	if s == nil {
		return Recommendation{}, false
	}
	r, ok := s[h]
	return r, ok
}

// Holding is a position owned by the user
type Holding struct {
	ID              uint                                  `gorm:"primarykey" json:"id"`
	Name            string                                `gorm:"not null;index" json:"name"`
	Symbol          string                                `gorm:"not null;index" json:"symbol"`
	Type            AssetType                             `gorm:"not null" json:"type"`
	Quantity        float64                               `gorm:"not null" json:"quantity"`
	AvgPrice        float64                               `gorm:"not null" json:"avg_price"`
	CurrentPrice    *float64                              `json:"current_price"`
	Sector          string                                `json:"sector,omitempty"`
	Recommendations datatypes.JSONType[RecommendationSet] `json:"recommendations"`
	LastUpdated     time.Time                             `json:"last_updated"`
	CreatedAt       time.Time                             `json:"created_at"`
}

// RecommendationSet returns the stored recommendations, nil when never analyzed
func (h *Holding) RecommendationSet() RecommendationSet {
	return h.Recommendations.Data()
}

// WishlistItem is an instrument the user would like to buy at a target price
type WishlistItem struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Symbol       string    `gorm:"not null;index" json:"symbol"`
	CurrentPrice float64   `json:"current_price"`
	TargetPrice  float64   `json:"target_price"`
	Sector       string    `json:"sector,omitempty"`
	Reasoning    string    `json:"reasoning,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Goal is a financial target the user is saving towards
type Goal struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	TargetAmount  float64   `gorm:"not null" json:"target_amount"`
	CurrentAmount float64   `json:"current_amount"`
	TimeHorizon   Horizon   `json:"time_horizon"`
	Priority      Priority  `json:"priority"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserPreferences holds one user's notification and risk settings, keyed by email
type UserPreferences struct {
	ID                  uint                        `gorm:"primarykey" json:"id"`
	Email               string                      `gorm:"uniqueIndex;not null" json:"email"`
	NotificationTime    string                      `json:"notification_time"` // HH:MM
	RiskProfile         RiskProfile                 `json:"risk_profile"`
	PreferredSectors    datatypes.JSONSlice[string] `json:"preferred_sectors"`
	DailySummaryEnabled bool                        `json:"daily_summary_enabled"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

// PriceHistory is an append-only log of refreshed prices
type PriceHistory struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Symbol     string    `gorm:"not null;index" json:"symbol"`
	Price      float64   `json:"price"`
	RecordedAt time.Time `gorm:"index" json:"recorded_at"`
}

// TableName keeps the table name singular like the log it is
func (PriceHistory) TableName() string {
	return "price_history"
}

// NewsArticle is one row of the news cache
type NewsArticle struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Symbol      string    `gorm:"index" json:"symbol,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   string    `json:"sentiment,omitempty"` // positive, negative, neutral
	FetchedAt   time.Time `gorm:"index" json:"fetched_at"`
}

// PortfolioSnapshot records the aggregate portfolio value at the end of a
// scheduled summary run. It is the baseline for the next day's change.
type PortfolioSnapshot struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Value         float64   `json:"value"`
	HoldingsCount int       `json:"holdings_count"`
	CapturedAt    time.Time `gorm:"index" json:"captured_at"`
}

// Delivery statuses
const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// SummaryDelivery records one attempt to deliver a daily summary
type SummaryDelivery struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	RunID     string    `gorm:"index" json:"run_id"`
	Email     string    `gorm:"index" json:"email"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage,omitempty"` // generate, render, send
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate hook for Holding to set defaults
func (h *Holding) BeforeCreate(tx *gorm.DB) error {
	if h.Type == "" {
		h.Type = AssetTypeStock
	}
	if h.LastUpdated.IsZero() {
		h.LastUpdated = time.Now().UTC()
	}
	return nil
}

// BeforeCreate hook for UserPreferences to set defaults
func (p *UserPreferences) BeforeCreate(tx *gorm.DB) error {
	if p.NotificationTime == "" {
		p.NotificationTime = "08:00"
	}
	if p.RiskProfile == "" {
		p.RiskProfile = RiskModerate
	}
	return nil
}
