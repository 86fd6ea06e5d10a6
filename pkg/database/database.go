package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ravijp/portfolio-advisor/pkg/config"
	"github.com/ravijp/portfolio-advisor/pkg/models"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB initializes the database connection and runs migrations
// Supports both PostgreSQL (via DATABASE_URL) and SQLite (via DatabasePath for local dev)
func InitDB(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}
	if cfg.IsProduction() {
		gormCfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	var db *gorm.DB
	var err error

	if databaseURL := cfg.DatabaseURL; databaseURL != "" {
		log.Info().Msg("Using PostgreSQL database")

		// Handle Vercel Postgres format: postgres:// -> postgresql://
		if strings.HasPrefix(databaseURL, "postgres://") {
			databaseURL = strings.Replace(databaseURL, "postgres://", "postgresql://", 1)
		}

		db, err = gorm.Open(postgres.Open(databaseURL), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
	} else {
		log.Info().Str("path", cfg.DatabasePath).Msg("Using SQLite database")

		dir := filepath.Dir(cfg.DatabasePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		db, err = gorm.Open(sqlite.Open(cfg.DatabasePath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates every table the application uses
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Holding{},
		&models.WishlistItem{},
		&models.Goal{},
		&models.UserPreferences{},
		&models.PriceHistory{},
		&models.NewsArticle{},
		&models.PortfolioSnapshot{},
		&models.SummaryDelivery{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// InitializePreferences creates default preferences for email if none exist,
// so a fresh deployment has a recipient for the daily summary.
func InitializePreferences(db *gorm.DB, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	var prefs models.UserPreferences
	err := db.Where("email = ?", email).First(&prefs).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up preferences: %w", err)
	}

	prefs = models.UserPreferences{
		Email:               email,
		NotificationTime:    "08:00",
		RiskProfile:         models.RiskModerate,
		DailySummaryEnabled: true,
	}
	if err := db.Create(&prefs).Error; err != nil {
		return fmt.Errorf("failed to create default preferences: %w", err)
	}

	return nil
}
