// Package app wires configuration, storage, gateways and the HTTP router
// together for both the long-running server and the serverless entry point.
package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ravijp/portfolio-advisor/pkg/api"
	"github.com/ravijp/portfolio-advisor/pkg/cache"
	"github.com/ravijp/portfolio-advisor/pkg/config"
	"github.com/ravijp/portfolio-advisor/pkg/database"
	"github.com/ravijp/portfolio-advisor/pkg/metrics"
	"github.com/ravijp/portfolio-advisor/pkg/services"
	"github.com/ravijp/portfolio-advisor/pkg/store"
	"github.com/ravijp/portfolio-advisor/pkg/summary"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// App holds the wired application
type App struct {
	DB         *gorm.DB
	Router     *gin.Engine
	Holdings   *services.HoldingService
	Dispatcher *summary.Dispatcher
}

// NewLogger builds the process logger at the configured level
func NewLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Build validates cfg and constructs every component
func Build(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.InitDB(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.InitializePreferences(db, cfg.DefaultUserEmail); err != nil {
		return nil, err
	}

	quotes, err := cache.New(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize quote cache: %w", err)
	}

	st := store.New(db)
	rec := metrics.New()

	prices := services.NewMarketDataService(cfg, quotes, rec, logger)
	recommendations := services.NewRecommendationService(cfg, rec, logger)
	news := services.NewNewsService(services.StaticFeed{}, st, cfg.NewsCacheTTL, rec, logger)
	email := services.NewEmailService(cfg, rec, logger)
	holdings := services.NewHoldingService(cfg, st, prices, recommendations, rec, logger)

	renderer, err := summary.NewRenderer(cfg.CurrencySymbol)
	if err != nil {
		return nil, err
	}
	engine := summary.NewEngine(st, recommendations, news, cfg.GatewayTimeout, logger)
	dispatcher := summary.NewDispatcher(engine, renderer, email, st, rec, logger)

	router, err := api.SetupRouter(cfg, api.Deps{
		Store:      st,
		Holdings:   holdings,
		Dispatcher: dispatcher,
		Metrics:    rec,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		DB:         db,
		Router:     router,
		Holdings:   holdings,
		Dispatcher: dispatcher,
	}, nil
}

// Close releases the database connection
func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
