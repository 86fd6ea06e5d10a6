package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUMMARY_CRON", "")
	t.Setenv("ANALYZE_DELAY", "")
	t.Setenv("ENABLE_SCHEDULER", "")

	cfg := Load()

	assert.Equal(t, "0 8 * * *", cfg.SummaryCron)
	assert.Equal(t, time.Second, cfg.AnalyzeDelay)
	assert.Equal(t, ".NS", cfg.DefaultExchangeSuffix)
	assert.True(t, cfg.EnableScheduler)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ANALYZE_DELAY", "250ms")
	t.Setenv("PRICE_REFRESH_CONCURRENCY", "8")
	t.Setenv("ENABLE_SCHEDULER", "false")
	t.Setenv("SCHEDULER_TIMEZONE", "Asia/Kolkata")

	cfg := Load()

	assert.Equal(t, 250*time.Millisecond, cfg.AnalyzeDelay)
	assert.Equal(t, 8, cfg.PriceRefreshConcurrency)
	assert.False(t, cfg.EnableScheduler)
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("ANALYZE_DELAY", "soon")
	t.Setenv("PRICE_REFRESH_CONCURRENCY", "many")

	cfg := Load()

	assert.Equal(t, time.Second, cfg.AnalyzeDelay)
	assert.Equal(t, 4, cfg.PriceRefreshConcurrency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "bad summary cron",
			mutate:  func(c *Config) { c.SummaryCron = "every day" },
			wantErr: "SUMMARY_CRON",
		},
		{
			name:    "bad refresh cron",
			mutate:  func(c *Config) { c.PriceRefreshCron = "61 * * * *" },
			wantErr: "PRICE_REFRESH_CRON",
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.SchedulerTimezone = "Mars/Olympus" },
			wantErr: "SCHEDULER_TIMEZONE",
		},
		{
			name:    "negative delay",
			mutate:  func(c *Config) { c.AnalyzeDelay = -time.Second },
			wantErr: "negative",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.PriceRefreshConcurrency = 0 },
			wantErr: "PRICE_REFRESH_CONCURRENCY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
