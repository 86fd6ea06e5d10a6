package handler

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/ravijp/portfolio-advisor/pkg/app"
	"github.com/ravijp/portfolio-advisor/pkg/config"
)

var (
	application *app.App
	once        sync.Once
	initErr     error
)

// Initialize the application once per cold start
func initialize() {
	once.Do(func() {
		gin.SetMode(gin.ReleaseMode)

		cfg := config.Load()
		logger := app.NewLogger(cfg)

		// Scheduled summaries need a long-running process, so none run here
		logger.Info().Msg("Running in serverless mode - scheduler disabled")

		application, initErr = app.Build(cfg, logger)
		if initErr != nil {
			logger.Error().Err(initErr).Msg("Failed to initialize application")
			return
		}
		logger.Info().Msg("Serverless function initialized successfully")
	})
}

// Handler is the entry point for Vercel serverless function
func Handler(w http.ResponseWriter, r *http.Request) {
	initialize()

	if initErr != nil {
		log.Printf("Initialization error: %v", initErr)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	application.Router.ServeHTTP(w, r)
}
