// Package scheduler triggers the daily summary run and the optional price refresh.
package scheduler

import (
	"context"
	"fmt"

	"github.com/go-co-op/gocron"
	"github.com/ravijp/portfolio-advisor/pkg/config"
	"github.com/ravijp/portfolio-advisor/pkg/services"
	"github.com/ravijp/portfolio-advisor/pkg/summary"
	"github.com/rs/zerolog"
)

const (
	tagDailySummary = "daily-summary"
	tagPriceRefresh = "price-refresh"
)

// SummaryRunner delivers the daily summaries
type SummaryRunner interface {
	RunDaily(ctx context.Context) (summary.DispatchReport, error)
}

// PriceRefresher refreshes all holding prices
type PriceRefresher interface {
	RefreshAllPrices(ctx context.Context) (services.BatchResult, error)
}

// Scheduler wraps a gocron scheduler with the application's jobs
type Scheduler struct {
	cron      *gocron.Scheduler
	summaries SummaryRunner
	prices    PriceRefresher
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New registers the jobs described by cfg. refresher may be nil when no
// price refresh cron is configured.
func New(cfg *config.Config, summaries SummaryRunner, refresher PriceRefresher, logger zerolog.Logger) (*Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:      gocron.NewScheduler(loc),
		summaries: summaries,
		prices:    refresher,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
	// A slow run never overlaps the next one
	s.cron.SingletonModeAll()

	if _, err := s.cron.Cron(cfg.SummaryCron).Tag(tagDailySummary).Do(s.runSummaries); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to schedule daily summary: %w", err)
	}

	if cfg.PriceRefreshCron != "" && refresher != nil {
		if _, err := s.cron.Cron(cfg.PriceRefreshCron).Tag(tagPriceRefresh).Do(s.refreshPrices); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to schedule price refresh: %w", err)
		}
	}

	return s, nil
}

// Start runs the scheduler in the background
func (s *Scheduler) Start() {
	s.cron.StartAsync()
	s.logger.Info().Int("count", len(s.cron.Jobs())).Msg("Scheduler initialized and started")
}

// Stop cancels in-flight jobs and stops the scheduler
func (s *Scheduler) Stop() {
	s.cancel()
	s.cron.Stop()
}

func (s *Scheduler) runSummaries() {
	s.logger.Info().Msg("Running daily summary job")
	report, err := s.summaries.RunDaily(s.ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", report.RunID).Msg("Daily summary job failed")
		return
	}
	s.logger.Info().
		Str("run_id", report.RunID).
		Int("count", report.Sent).
		Int("failed", len(report.Failed)).
		Msg("Daily summary job finished")
}

func (s *Scheduler) refreshPrices() {
	s.logger.Info().Msg("Running price refresh job")
	result, err := s.prices.RefreshAllPrices(s.ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Price refresh job failed")
		return
	}
	s.logger.Info().Int("count", result.Succeeded).Int("total", result.Total).Msg("Price refresh job finished")
}
