package services

import (
	"context"
	"time"

	"github.com/ravijp/portfolio-advisor/pkg/metrics"
	"github.com/ravijp/portfolio-advisor/pkg/models"
	"github.com/rs/zerolog"
)

const gatewayNews = "news"

// NewsFeed is a source of market news. Articles without a symbol are market-wide.
type NewsFeed interface {
	Fetch(ctx context.Context, tickers []string) ([]models.NewsArticle, error)
}

// StaticFeed serves a fixed market headline until a real news provider is wired in
type StaticFeed struct {
	Now func() time.Time
}

func (f StaticFeed) Fetch(_ context.Context, _ []string) ([]models.NewsArticle, error) {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	return []models.NewsArticle{
		{
			Title:       "Indian Markets Rally on Positive Economic Data",
			Description: "Sensex and Nifty hit new highs",
			URL:         "https://example.com/news1",
			PublishedAt: now().UTC(),
			Sentiment:   "positive",
		},
	}, nil
}

// NewsCache is the slice of the store the news service needs
type NewsCache interface {
	ReplaceNews(ctx context.Context, items []models.NewsArticle, fetchedAt time.Time) error
	ListNewsSince(ctx context.Context, since time.Time) ([]models.NewsArticle, error)
}

// NewsService serves news from the database cache while it is fresh
type NewsService struct {
	feed    NewsFeed
	cache   NewsCache
	ttl     time.Duration
	metrics *metrics.Recorder
	logger  zerolog.Logger
	now     func() time.Time
}

// NewNewsService creates a news service. A non-positive ttl disables caching.
func NewNewsService(feed NewsFeed, cache NewsCache, ttl time.Duration, rec *metrics.Recorder, logger zerolog.Logger) *NewsService {
	return &NewsService{
		feed:    feed,
		cache:   cache,
		ttl:     ttl,
		metrics: rec,
		logger:  logger,
		now:     time.Now,
	}
}

// Fetch returns news relevant to tickers; an empty list means market-wide news only
func (s *NewsService) Fetch(ctx context.Context, tickers []string) ([]models.NewsItem, error) {
	now := s.now().UTC()

	if s.cache != nil && s.ttl > 0 {
		cached, err := s.cache.ListNewsSince(ctx, now.Add(-s.ttl))
		if err != nil {
			s.logger.Warn().Err(err).Msg("News cache read failed")
		} else if len(cached) > 0 {
			return toNewsItems(filterNews(cached, tickers)), nil
		}
	}

	start := time.Now()
	articles, err := s.feed.Fetch(ctx, tickers)
	s.metrics.ObserveGateway(gatewayNews, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.ReplaceNews(ctx, articles, now); err != nil {
			s.logger.Warn().Err(err).Msg("News cache write failed")
		}
	}
	return toNewsItems(filterNews(articles, tickers)), nil
}

func filterNews(articles []models.NewsArticle, tickers []string) []models.NewsArticle {
	if len(tickers) == 0 {
		return articles
	}
	wanted := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		wanted[t] = true
	}
	out := make([]models.NewsArticle, 0, len(articles))
	for _, a := range articles {
		if a.Symbol == "" || wanted[a.Symbol] {
			out = append(out, a)
		}
	}
	return out
}

func toNewsItems(articles []models.NewsArticle) []models.NewsItem {
	items := make([]models.NewsItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, models.NewsItem{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: a.PublishedAt.Format(time.RFC3339),
			Sentiment:   a.Sentiment,
		})
	}
	return items
}
