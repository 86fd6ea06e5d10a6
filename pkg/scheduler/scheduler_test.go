package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/ravijp/portfolio-advisor/pkg/config"
	"github.com/ravijp/portfolio-advisor/pkg/services"
	"github.com/ravijp/portfolio-advisor/pkg/summary"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) RunDaily(ctx context.Context) (summary.DispatchReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(summary.DispatchReport), args.Error(1)
}

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) RefreshAllPrices(ctx context.Context) (services.BatchResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(services.BatchResult), args.Error(1)
}

func tags(s *Scheduler) []string {
	var out []string
	for _, j := range s.cron.Jobs() {
		out = append(out, j.Tags()...)
	}
	return out
}

func TestNew_RegistersJobs(t *testing.T) {
	cfg := &config.Config{SummaryCron: "0 8 * * *", PriceRefreshCron: "*/30 9-15 * * 1-5", SchedulerTimezone: "Asia/Kolkata"}

	s, err := New(cfg, &mockRunner{}, &mockRefresher{}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	assert.ElementsMatch(t, []string{tagDailySummary, tagPriceRefresh}, tags(s))
	assert.Equal(t, "Asia/Kolkata", s.cron.Location().String())
}

func TestNew_PriceRefreshOptional(t *testing.T) {
	cfg := &config.Config{SummaryCron: "0 8 * * *", SchedulerTimezone: "UTC"}

	s, err := New(cfg, &mockRunner{}, &mockRefresher{}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	assert.Equal(t, []string{tagDailySummary}, tags(s))
}

func TestNew_Errors(t *testing.T) {
	_, err := New(&config.Config{SummaryCron: "0 8 * * *", SchedulerTimezone: "Nowhere/Land"}, &mockRunner{}, nil, zerolog.Nop())
	assert.Error(t, err)

	_, err = New(&config.Config{SummaryCron: "not a cron", SchedulerTimezone: "UTC"}, &mockRunner{}, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestJobs_CallDependencies(t *testing.T) {
	runner := &mockRunner{}
	runner.On("RunDaily", mock.Anything).Return(summary.DispatchReport{RunID: "r1", Sent: 2}, nil).Once()
	runner.On("RunDaily", mock.Anything).Return(summary.DispatchReport{}, errors.New("db down")).Once()
	refresher := &mockRefresher{}
	refresher.On("RefreshAllPrices", mock.Anything).Return(services.BatchResult{Succeeded: 1, Total: 1}, nil).Once()

	s, err := New(&config.Config{SummaryCron: "0 8 * * *", PriceRefreshCron: "0 * * * *", SchedulerTimezone: "UTC"}, runner, refresher, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	assert.NotPanics(t, s.runSummaries)
	assert.NotPanics(t, s.runSummaries)
	assert.NotPanics(t, s.refreshPrices)

	runner.AssertExpectations(t)
	refresher.AssertExpectations(t)
}
