package models

// Action item kinds
const (
	ActionItemSell    = "SELL"
	ActionItemBuyMore = "BUY_MORE"
)

// DailySummary is the per-user report assembled by the summary engine
type DailySummary struct {
	Date               string           `json:"date"`
	PortfolioValue     float64          `json:"portfolio_value"`
	DailyChange        float64          `json:"daily_change"`
	DailyChangePercent float64          `json:"daily_change_percent"`
	ActionItems        []ActionItem     `json:"action_items"`
	NewOpportunities   []Opportunity    `json:"new_opportunities"`
	WatchlistAlerts    []WatchlistAlert `json:"watchlist_alerts"`
	NewsDigest         []NewsItem       `json:"news_digest"`
	GoalProgress       []GoalProgress   `json:"goal_progress"`
}

// ActionItem is a suggested trade derived from a holding's 1-month recommendation
type ActionItem struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// WatchlistAlert is emitted for a wishlist item trading at or below its target
type WatchlistAlert struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"current_price"`
	TargetPrice  float64 `json:"target_price"`
}

// Opportunity is a not-yet-held candidate suggested by the recommendation gateway
type Opportunity struct {
	Name         string  `json:"name" validate:"required"`
	Symbol       string  `json:"symbol" validate:"required"`
	Sector       string  `json:"sector"`
	CurrentPrice float64 `json:"current_price" validate:"gte=0"`
	TargetPrice  float64 `json:"target_price" validate:"gte=0"`
	Reasoning    string  `json:"reasoning"`
}

// NewsItem is one entry of the news digest
type NewsItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	Sentiment   string `json:"sentiment,omitempty"`
}

// GoalProgress reports how far a goal has advanced
type GoalProgress struct {
	Name     string  `json:"name"`
	Progress float64 `json:"progress"`
	Current  float64 `json:"current"`
	Target   float64 `json:"target"`
}
