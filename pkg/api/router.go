package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ravijp/portfolio-advisor/pkg/api/handlers"
	"github.com/ravijp/portfolio-advisor/pkg/config"
	"github.com/ravijp/portfolio-advisor/pkg/metrics"
	"github.com/ravijp/portfolio-advisor/pkg/middleware"
	"github.com/ravijp/portfolio-advisor/pkg/services"
	"github.com/ravijp/portfolio-advisor/pkg/store"
	"github.com/ravijp/portfolio-advisor/pkg/summary"
	"github.com/rs/zerolog"
)

// Deps are the services the HTTP layer is built on
type Deps struct {
	Store      *store.Store
	Holdings   *services.HoldingService
	Dispatcher *summary.Dispatcher
	Metrics    *metrics.Recorder
}

// SetupRouter sets up the Gin router with all routes and middleware
func SetupRouter(cfg *config.Config, deps Deps, logger zerolog.Logger) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOriginFunc: func(origin string) bool {
			// Allow localhost for development
			if origin == "http://localhost:3000" || origin == "http://localhost:5173" {
				return true
			}
			if cfg.FrontendURL != "" && origin == strings.TrimRight(cfg.FrontendURL, "/") {
				return true
			}
			// Allow any vercel.app subdomain
			return strings.HasSuffix(origin, ".vercel.app")
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	// Initialize handlers
	holdingHandler := handlers.NewHoldingHandler(deps.Store, deps.Holdings, logger)
	wishlistHandler := handlers.NewWishlistHandler(deps.Store, logger)
	goalHandler := handlers.NewGoalHandler(deps.Store, logger)
	preferencesHandler := handlers.NewPreferencesHandler(deps.Store, logger)
	summaryHandler := handlers.NewSummaryHandler(deps.Store, deps.Dispatcher, logger)
	batchHandler := handlers.NewBatchHandler(deps.Holdings, logger)
	portfolioHandler := handlers.NewPortfolioHandler(deps.Store, logger)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Portfolio routes
		api.GET("/portfolio/summary", portfolioHandler.GetPortfolioSummary)
		api.GET("/portfolio/snapshots", portfolioHandler.GetSnapshots)
		api.GET("/export/csv", portfolioHandler.ExportCSV)

		// Holding routes
		api.POST("/holdings", holdingHandler.CreateHolding)
		api.GET("/holdings", holdingHandler.GetHoldings)
		api.GET("/holdings/:id", holdingHandler.GetHolding)
		api.DELETE("/holdings/:id", holdingHandler.DeleteHolding)
		api.PUT("/holdings/:id/price", holdingHandler.RefreshPrice)
		api.POST("/holdings/:id/analyze", holdingHandler.AnalyzeHolding)
		api.GET("/holdings/:id/history", holdingHandler.GetPriceHistory)

		// Wishlist routes
		api.POST("/wishlist", wishlistHandler.CreateItem)
		api.GET("/wishlist", wishlistHandler.GetItems)
		api.DELETE("/wishlist/:id", wishlistHandler.DeleteItem)

		// Goal routes
		api.POST("/goals", goalHandler.CreateGoal)
		api.GET("/goals", goalHandler.GetGoals)
		api.DELETE("/goals/:id", goalHandler.DeleteGoal)

		// Preference routes
		api.POST("/preferences", preferencesHandler.UpsertPreferences)
		api.GET("/preferences/:email", preferencesHandler.GetPreferences)

		// Summary routes
		api.GET("/summary/deliveries", summaryHandler.GetDeliveries)
		api.GET("/summary/:email", summaryHandler.PreviewSummary)
		api.POST("/summary/send/:email", summaryHandler.SendSummary)

		// Batch routes
		api.POST("/batch/update-prices", batchHandler.UpdateAllPrices)
		api.POST("/batch/analyze-all", batchHandler.AnalyzeAll)
	}

	return router, nil
}
