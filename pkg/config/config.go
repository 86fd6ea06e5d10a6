package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // serverless images ship without zoneinfo

	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
type Config struct {
	AppEnv      string
	Port        string
	LogLevel    string
	FrontendURL string

	DatabasePath string
	DatabaseURL  string
	RedisURL     string

	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string

	AlphaVantageAPIKey    string
	MarketDataURL         string
	DefaultExchangeSuffix string

	SendGridAPIKey   string
	SummaryEmailFrom string
	SummaryFromName  string
	DefaultUserEmail string

	EnableScheduler   bool
	SummaryCron       string
	PriceRefreshCron  string
	SchedulerTimezone string

	AnalyzeDelay            time.Duration
	PriceRefreshConcurrency int
	GatewayTimeout          time.Duration
	QuoteCacheTTL           time.Duration
	NewsCacheTTL            time.Duration

	CurrencySymbol string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:8501"),

		DatabasePath: getEnv("DATABASE_PATH", "./data/portfolio.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),

		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		AnthropicBaseURL: os.Getenv("ANTHROPIC_BASE_URL"),

		AlphaVantageAPIKey:    os.Getenv("ALPHA_VANTAGE_API_KEY"),
		MarketDataURL:         getEnv("MARKET_DATA_URL", "https://query1.finance.yahoo.com"),
		DefaultExchangeSuffix: getEnv("DEFAULT_EXCHANGE_SUFFIX", ".NS"),

		SendGridAPIKey:   os.Getenv("SENDGRID_API_KEY"),
		SummaryEmailFrom: os.Getenv("SUMMARY_EMAIL_FROM"),
		SummaryFromName:  getEnv("SUMMARY_FROM_NAME", "Portfolio Advisor"),
		DefaultUserEmail: os.Getenv("DEFAULT_USER_EMAIL"),

		EnableScheduler:   getBool("ENABLE_SCHEDULER", true),
		SummaryCron:       getEnv("SUMMARY_CRON", "0 8 * * *"),
		PriceRefreshCron:  os.Getenv("PRICE_REFRESH_CRON"),
		SchedulerTimezone: getEnv("SCHEDULER_TIMEZONE", "UTC"),

		AnalyzeDelay:            getDuration("ANALYZE_DELAY", time.Second),
		PriceRefreshConcurrency: getInt("PRICE_REFRESH_CONCURRENCY", 4),
		GatewayTimeout:          getDuration("GATEWAY_TIMEOUT", 30*time.Second),
		QuoteCacheTTL:           getDuration("QUOTE_CACHE_TTL", time.Minute),
		NewsCacheTTL:            getDuration("NEWS_CACHE_TTL", time.Hour),

		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "₹"),
	}
}

// Validate checks values that would otherwise only fail once the scheduler fires
func (c *Config) Validate() error {
	if _, err := cron.ParseStandard(c.SummaryCron); err != nil {
		return fmt.Errorf("invalid SUMMARY_CRON %q: %w", c.SummaryCron, err)
	}
	if c.PriceRefreshCron != "" {
		if _, err := cron.ParseStandard(c.PriceRefreshCron); err != nil {
			return fmt.Errorf("invalid PRICE_REFRESH_CRON %q: %w", c.PriceRefreshCron, err)
		}
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid SCHEDULER_TIMEZONE %q: %w", c.SchedulerTimezone, err)
	}
	if c.AnalyzeDelay < 0 || c.GatewayTimeout < 0 || c.QuoteCacheTTL < 0 || c.NewsCacheTTL < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.PriceRefreshConcurrency < 1 {
		return fmt.Errorf("PRICE_REFRESH_CONCURRENCY must be at least 1, got %d", c.PriceRefreshConcurrency)
	}
	return nil
}

// Location returns the timezone the scheduler runs in
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.SchedulerTimezone)
}

// IsProduction reports whether the app runs with APP_ENV=production
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
