package services

import (
	"context"
	"sync"
	"time"

	"github.com/ravijp/portfolio-advisor/pkg/config"
	"github.com/ravijp/portfolio-advisor/pkg/metrics"
	"github.com/ravijp/portfolio-advisor/pkg/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// HoldingStore is the slice of the store the holding service needs
type HoldingStore interface {
	CreateHolding(ctx context.Context, h *models.Holding) error
	GetHolding(ctx context.Context, id uint) (*models.Holding, error)
	ListHoldings(ctx context.Context) ([]models.Holding, error)
	UpdateHoldingPrice(ctx context.Context, id uint, price float64, at time.Time) error
	SetRecommendations(ctx context.Context, id uint, set models.RecommendationSet, at time.Time) error
	AddPriceHistory(ctx context.Context, entry *models.PriceHistory) error
}

// HoldingAnalyzer produces a recommendation set for one holding
type HoldingAnalyzer interface {
	AnalyzeHolding(ctx context.Context, h HoldingSnapshot) (models.RecommendationSet, error)
}

// PriceUpdate is the outcome of a single price refresh
type PriceUpdate struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// BatchResult summarises a batch operation over all holdings
type BatchResult struct {
	Succeeded int      `json:"succeeded"`
	Total     int      `json:"total"`
	Failed    []string `json:"failed"`
}

// HoldingService implements the price refresh and analysis operations on holdings
type HoldingService struct {
	store       HoldingStore
	prices      PriceFetcher
	analyzer    HoldingAnalyzer
	suffix      string
	delay       time.Duration
	concurrency int
	metrics     *metrics.Recorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewHoldingService creates a new holding service
func NewHoldingService(cfg *config.Config, store HoldingStore, prices PriceFetcher, analyzer HoldingAnalyzer, rec *metrics.Recorder, logger zerolog.Logger) *HoldingService {
	concurrency := cfg.PriceRefreshConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &HoldingService{
		store:       store,
		prices:      prices,
		analyzer:    analyzer,
		suffix:      cfg.DefaultExchangeSuffix,
		delay:       cfg.AnalyzeDelay,
		concurrency: concurrency,
		metrics:     rec,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateHolding saves h, fetching a live price first when none was supplied.
// A failed fetch leaves the price empty.
func (s *HoldingService) CreateHolding(ctx context.Context, h *models.Holding) error {
	if h.CurrentPrice == nil {
		price, err := s.prices.FetchPrice(ctx, NormalizeSymbol(h.Symbol, s.suffix))
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", h.Symbol).Msg("Could not fetch initial price")
		} else {
			h.CurrentPrice = &price
		}
	}
	h.LastUpdated = s.now().UTC()
	return s.store.CreateHolding(ctx, h)
}

// RefreshPrice fetches the live price of one holding and records it
func (s *HoldingService) RefreshPrice(ctx context.Context, id uint) (*PriceUpdate, error) {
	h, err := s.store.GetHolding(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, h)
}

func (s *HoldingService) refresh(ctx context.Context, h *models.Holding) (*PriceUpdate, error) {
	price, err := s.prices.FetchPrice(ctx, NormalizeSymbol(h.Symbol, s.suffix))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.store.UpdateHoldingPrice(ctx, h.ID, price, now); err != nil {
		return nil, err
	}
	if err := s.store.AddPriceHistory(ctx, &models.PriceHistory{Symbol: h.Symbol, Price: price, RecordedAt: now}); err != nil {
		return nil, err
	}

	h.CurrentPrice = &price
	h.LastUpdated = now
	s.metrics.RecordPrice(h.Symbol, price)
	return &PriceUpdate{Symbol: h.Symbol, Price: price}, nil
}

// Analyze refreshes the price when possible, then replaces the holding's
// recommendation set. Gateway failures are returned to the caller.
func (s *HoldingService) Analyze(ctx context.Context, id uint) (models.RecommendationSet, error) {
	h, err := s.store.GetHolding(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, h)
}

func (s *HoldingService) analyze(ctx context.Context, h *models.Holding) (models.RecommendationSet, error) {
	if _, err := s.refresh(ctx, h); err != nil {
		s.logger.Warn().Err(err).Str("ticker", h.Symbol).Msg("Price refresh before analysis failed")
	}

	set, err := s.analyzer.AnalyzeHolding(ctx, SnapshotOf(*h))
	if err != nil {
		return nil, err
	}
	if err := s.store.SetRecommendations(ctx, h.ID, set, s.now().UTC()); err != nil {
		return nil, err
	}
	return set, nil
}

// RefreshAllPrices refreshes every holding with bounded concurrency
func (s *HoldingService) RefreshAllPrices(ctx context.Context) (BatchResult, error) {
	holdings, err := s.store.ListHoldings(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	var (
		mu     sync.Mutex
		result = BatchResult{Total: len(holdings), Failed: []string{}}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range holdings {
		h := holdings[i]
		g.Go(func() error {
			_, err := s.refresh(gctx, &h)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn().Err(err).Str("ticker", h.Symbol).Msg("Price refresh failed")
				result.Failed = append(result.Failed, h.Symbol)
				return nil
			}
			result.Succeeded++
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info().Int("count", result.Succeeded).Int("total", result.Total).Msg("Batch price refresh finished")
	return result, ctx.Err()
}

// AnalyzeAll analyzes holdings one at a time, waiting the configured delay
// between consecutive calls. Cancelling ctx stops the loop.
func (s *HoldingService) AnalyzeAll(ctx context.Context) (BatchResult, error) {
	holdings, err := s.store.ListHoldings(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Total: len(holdings), Failed: []string{}}
	for i := range holdings {
		if i > 0 && s.delay > 0 {
			timer := time.NewTimer(s.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		h := holdings[i]
		if _, err := s.analyze(ctx, &h); err != nil {
			s.logger.Warn().Err(err).Str("ticker", h.Symbol).Uint("holding_id", h.ID).Msg("Analysis failed")
			result.Failed = append(result.Failed, h.Symbol)
			continue
		}
		result.Succeeded++
	}

	s.logger.Info().Int("count", result.Succeeded).Int("total", result.Total).Msg("Batch analysis finished")
	return result, nil
}
