// Package summary builds the per-user daily report, renders it and delivers it.
package summary

import (
	"context"
	"sync"
	"time"

	"github.com/ravijp/portfolio-advisor/pkg/models"
	"github.com/ravijp/portfolio-advisor/pkg/services"
	"github.com/rs/zerolog"
)

const (
	maxOpportunities = 3
	maxNewsItems     = 5
)

// Store is the read side of persistence the engine needs
type Store interface {
	ListHoldings(ctx context.Context) ([]models.Holding, error)
	ListGoals(ctx context.Context) ([]models.Goal, error)
	ListWishlist(ctx context.Context) ([]models.WishlistItem, error)
	LatestSnapshotBefore(ctx context.Context, t time.Time) (*models.PortfolioSnapshot, error)
}

// OpportunitySource suggests investments the user does not hold yet
type OpportunitySource interface {
	SuggestOpportunities(ctx context.Context, risk models.RiskProfile, sectors []string) ([]models.Opportunity, error)
}

// NewsSource returns market news, optionally narrowed to tickers
type NewsSource interface {
	Fetch(ctx context.Context, tickers []string) ([]models.NewsItem, error)
}

// Engine computes a DailySummary from stored data and two external sources.
// Failures of the external sources degrade their sections to empty; store
// failures are returned.
type Engine struct {
	store         Store
	opportunities OpportunitySource
	news          NewsSource
	timeout       time.Duration
	logger        zerolog.Logger
}

// NewEngine creates an engine. A positive timeout bounds each external call.
func NewEngine(store Store, opportunities OpportunitySource, news NewsSource, timeout time.Duration, logger zerolog.Logger) *Engine {
	return &Engine{
		store:         store,
		opportunities: opportunities,
		news:          news,
		timeout:       timeout,
		logger:        logger,
	}
}

// Generate builds the report for prefs as of now
func (e *Engine) Generate(ctx context.Context, now time.Time, prefs models.UserPreferences) (*models.DailySummary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	holdings, err := e.store.ListHoldings(ctx)
	if err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(holdings))
	for _, h := range holdings {
		tickers = append(tickers, h.Symbol)
	}

	var (
		wg            sync.WaitGroup
		opportunities []models.Opportunity
		news          []models.NewsItem
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		opportunities = e.fetchOpportunities(ctx, prefs)
	}()
	go func() {
		defer wg.Done()
		news = e.fetchNews(ctx, tickers)
	}()

	goals, goalsErr := e.store.ListGoals(ctx)
	wishlist, wishlistErr := e.store.ListWishlist(ctx)
	baseline, baselineErr := e.store.LatestSnapshotBefore(ctx, now.UTC())
	if goalsErr != nil || wishlistErr != nil || baselineErr != nil {
		cancel()
		wg.Wait()
		return nil, firstError(goalsErr, wishlistErr, baselineErr)
	}

	value := services.PortfolioValue(holdings)
	report := &models.DailySummary{
		Date:             now.Format("2006-01-02"),
		PortfolioValue:   value,
		ActionItems:      actionItems(holdings),
		WatchlistAlerts:  watchlistAlerts(wishlist),
		GoalProgress:     goalProgress(goals),
		NewOpportunities: []models.Opportunity{},
		NewsDigest:       []models.NewsItem{},
	}
	if baseline != nil {
		report.DailyChange = value - baseline.Value
		report.DailyChangePercent = services.ChangePercent(value, baseline.Value)
	}

	wg.Wait()
	report.NewOpportunities = append(report.NewOpportunities, truncate(opportunities, maxOpportunities)...)
	report.NewsDigest = append(report.NewsDigest, truncate(news, maxNewsItems)...)
	return report, nil
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithCancel(ctx)
}

func (e *Engine) fetchOpportunities(ctx context.Context, prefs models.UserPreferences) []models.Opportunity {
	if e.opportunities == nil {
		return nil
	}
	ctx, cancel := e.callContext(ctx)
	defer cancel()

	items, err := e.opportunities.SuggestOpportunities(ctx, prefs.RiskProfile, prefs.PreferredSectors)
	if err != nil {
		e.logger.Warn().Err(err).Str("email", prefs.Email).Str("gateway", "recommendations").Msg("Opportunities unavailable, continuing without them")
		return nil
	}
	return items
}

func (e *Engine) fetchNews(ctx context.Context, tickers []string) []models.NewsItem {
	if e.news == nil {
		return nil
	}
	ctx, cancel := e.callContext(ctx)
	defer cancel()

	items, err := e.news.Fetch(ctx, tickers)
	if err != nil {
		e.logger.Warn().Err(err).Str("gateway", "news").Msg("News unavailable, continuing without it")
		return nil
	}
	return items
}

// actionItems inspects only the 1-month bucket of each holding
func actionItems(holdings []models.Holding) []models.ActionItem {
	items := []models.ActionItem{}
	for i := range holdings {
		h := &holdings[i]
		rec, ok := h.RecommendationSet().For(models.HorizonOneMonth)
		if !ok {
			continue
		}
		var kind string
		switch rec.Action {
		case models.ActionSell:
			kind = models.ActionItemSell
		case models.ActionBuy:
			kind = models.ActionItemBuyMore
		default:
			continue
		}
		items = append(items, models.ActionItem{
			Type:   kind,
			Symbol: h.Symbol,
			Name:   h.Name,
			Reason: rec.Reason,
		})
	}
	return items
}

// watchlistAlerts fires for every item at or below its target price
func watchlistAlerts(wishlist []models.WishlistItem) []models.WatchlistAlert {
	alerts := []models.WatchlistAlert{}
	for _, w := range wishlist {
		if w.CurrentPrice <= w.TargetPrice {
			alerts = append(alerts, models.WatchlistAlert{
				Symbol:       w.Symbol,
				Name:         w.Name,
				CurrentPrice: w.CurrentPrice,
				TargetPrice:  w.TargetPrice,
			})
		}
	}
	return alerts
}

func goalProgress(goals []models.Goal) []models.GoalProgress {
	out := make([]models.GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, models.GoalProgress{
			Name:     g.Name,
			Progress: services.GoalProgressPercent(g.CurrentAmount, g.TargetAmount),
			Current:  g.CurrentAmount,
			Target:   g.TargetAmount,
		})
	}
	return out
}

func truncate[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
