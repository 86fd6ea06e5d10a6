package summary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ravijp/portfolio-advisor/pkg/apperrors"
	"github.com/ravijp/portfolio-advisor/pkg/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeStore struct {
	holdings []models.Holding
	goals    []models.Goal
	wishlist []models.WishlistItem
	baseline *models.PortfolioSnapshot
	err      error
}

func (f *fakeStore) ListHoldings(context.Context) ([]models.Holding, error) {
	return f.holdings, nil
}

func (f *fakeStore) ListGoals(context.Context) ([]models.Goal, error) {
	return f.goals, f.err
}

func (f *fakeStore) ListWishlist(context.Context) ([]models.WishlistItem, error) {
	return f.wishlist, nil
}

func (f *fakeStore) LatestSnapshotBefore(_ context.Context, t time.Time) (*models.PortfolioSnapshot, error) {
	if f.baseline != nil && f.baseline.CapturedAt.Before(t) {
		return f.baseline, nil
	}
	return nil, nil
}

type mockOpportunities struct {
	mock.Mock
}

func (m *mockOpportunities) SuggestOpportunities(ctx context.Context, risk models.RiskProfile, sectors []string) ([]models.Opportunity, error) {
	args := m.Called(ctx, risk, sectors)
	items, _ := args.Get(0).([]models.Opportunity)
	return items, args.Error(1)
}

type mockNews struct {
	mock.Mock
}

func (m *mockNews) Fetch(ctx context.Context, tickers []string) ([]models.NewsItem, error) {
	args := m.Called(ctx, tickers)
	items, _ := args.Get(0).([]models.NewsItem)
	return items, args.Error(1)
}

func amount(f float64) *float64 { return &f }

func withRecs(h models.Holding, set models.RecommendationSet) models.Holding {
	h.Recommendations = datatypes.NewJSONType(set)
	return h
}

var (
	testNow   = time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	testPrefs = models.UserPreferences{
		Email:            "me@example.com",
		RiskProfile:      models.RiskModerate,
		PreferredSectors: []string{"IT"},
	}
)

func quietGateways() (*mockOpportunities, *mockNews) {
	opp := &mockOpportunities{}
	opp.On("SuggestOpportunities", mock.Anything, mock.Anything, mock.Anything).Return([]models.Opportunity{}, nil)
	news := &mockNews{}
	news.On("Fetch", mock.Anything, mock.Anything).Return([]models.NewsItem{}, nil)
	return opp, news
}

func TestGenerate_EndToEndExample(t *testing.T) {
	st := &fakeStore{
		holdings: []models.Holding{
			withRecs(models.Holding{Name: "Acme", Symbol: "ACME.NS", Quantity: 10, AvgPrice: 100, CurrentPrice: amount(120)},
				models.RecommendationSet{models.HorizonOneMonth: {Action: models.ActionSell, Reason: "X"}}),
		},
		goals:    []models.Goal{{Name: "Car", TargetAmount: 1000, CurrentAmount: 250}},
		wishlist: []models.WishlistItem{{Name: "Beta", Symbol: "BETA.NS", CurrentPrice: 50, TargetPrice: 60}},
	}
	opp, news := quietGateways()

	s, err := NewEngine(st, opp, news, time.Second, zerolog.Nop()).Generate(context.Background(), testNow, testPrefs)
	require.NoError(t, err)

	assert.Equal(t, "2026-10-16", s.Date)
	assert.Equal(t, 1200.0, s.PortfolioValue)
	assert.Zero(t, s.DailyChange)
	assert.Zero(t, s.DailyChangePercent)

	require.Len(t, s.GoalProgress, 1)
	assert.Equal(t, 25.0, s.GoalProgress[0].Progress)

	require.Len(t, s.WatchlistAlerts, 1)
	assert.Equal(t, models.WatchlistAlert{Symbol: "BETA.NS", Name: "Beta", CurrentPrice: 50, TargetPrice: 60}, s.WatchlistAlerts[0])

	require.Len(t, s.ActionItems, 1)
	assert.Equal(t, models.ActionItem{Type: models.ActionItemSell, Symbol: "ACME.NS", Name: "Acme", Reason: "X"}, s.ActionItems[0])
}

func TestGenerate_ActionItems(t *testing.T) {
	st := &fakeStore{holdings: []models.Holding{
		withRecs(models.Holding{Name: "A", Symbol: "A"}, models.RecommendationSet{models.HorizonOneMonth: {Action: models.ActionBuy, Reason: "cheap"}}),
		withRecs(models.Holding{Name: "B", Symbol: "B"}, models.RecommendationSet{models.HorizonOneMonth: {Action: models.ActionHold, Reason: "wait"}}),
		{Name: "C", Symbol: "C"},
		withRecs(models.Holding{Name: "D", Symbol: "D"}, models.RecommendationSet{models.HorizonFivePlus: {Action: models.ActionSell, Reason: "late"}}),
		withRecs(models.Holding{Name: "E", Symbol: "E"}, models.RecommendationSet{models.HorizonOneMonth: {Action: models.ActionSell, Reason: "exit"}}),
	}}
	opp, news := quietGateways()

	s, err := NewEngine(st, opp, news, 0, zerolog.Nop()).Generate(context.Background(), testNow, testPrefs)
	require.NoError(t, err)

	require.Len(t, s.ActionItems, 2)
	assert.Equal(t, models.ActionItem{Type: models.ActionItemBuyMore, Symbol: "A", Name: "A", Reason: "cheap"}, s.ActionItems[0])
	assert.Equal(t, models.ActionItem{Type: models.ActionItemSell, Symbol: "E", Name: "E", Reason: "exit"}, s.ActionItems[1])
}

func TestGenerate_WatchlistBoundary(t *testing.T) {
	st := &fakeStore{wishlist: []models.WishlistItem{
		{Symbol: "EQ", CurrentPrice: 60, TargetPrice: 60},
		{Symbol: "ABOVE", CurrentPrice: 60.01, TargetPrice: 60},
		{Symbol: "BELOW", CurrentPrice: 10, TargetPrice: 60},
	}}
	opp, news := quietGateways()
	e := NewEngine(st, opp, news, 0, zerolog.Nop())

	first, err := e.Generate(context.Background(), testNow, testPrefs)
	require.NoError(t, err)
	require.Len(t, first.WatchlistAlerts, 2)
	assert.Equal(t, "EQ", first.WatchlistAlerts[0].Symbol)
	assert.Equal(t, "BELOW", first.WatchlistAlerts[1].Symbol)

	// Not edge-triggered: the same data yields the same alerts again
	second, err := e.Generate(context.Background(), testNow, testPrefs)
	require.NoError(t, err)
	assert.Equal(t, first.WatchlistAlerts, second.WatchlistAlerts)
}

func TestGenerate_TruncatesGatewayResults(t *testing.T) {
	opps := make([]models.Opportunity, 5)
	for i := range opps {
		opps[i] = models.Opportunity{Name: string(rune('A' + i)), Symbol: string(rune('A' + i))}
	}
	news := make([]models.NewsItem, 8)
	for i := range news {
		news[i] = models.NewsItem{Title: string(rune('a' + i))}
	}

	opp := &mockOpportunities{}
	opp.On("SuggestOpportunities", mock.Anything, models.RiskModerate, []string{"IT"}).Return(opps, nil)
	nw := &mockNews{}
	nw.On("Fetch", mock.Anything, []string{}).Return(news, nil)

	s, err := NewEngine(&fakeStore{}, opp, nw, 0, zerolog.Nop()).Generate(context.Background(), testNow, testPrefs)
	require.NoError(t, err)

	require.Len(t, s.NewOpportunities, 3)
	assert.Equal(t, "A", s.NewOpportunities[0].Symbol)
	assert.Equal(t, "C", s.NewOpportunities[2].Symbol)
	require.Len(t, s.NewsDigest, 5)
	assert.Equal(t, "a", s.NewsDigest[0].Title)
	opp.AssertExpectations(t)
	nw.AssertExpectations(t)
}

func TestGenerate_GatewayFailuresDegrade(t *testing.T) {
	st := &fakeStore{
		holdings: []models.Holding{{Name: "A", Symbol: "A", Quantity: 2, AvgPrice: 10}},
		goals:    []models.Goal{{Name: "G", TargetAmount: 0, CurrentAmount: 5}},
	}
	opp := &mockOpportunities{}
	opp.On("SuggestOpportunities", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.Malformed("recommendations", errors.New("not json")))
	nw := &mockNews{}
	nw.On("Fetch", mock.Anything, mock.Anything).Return(nil, apperrors.Upstream("news", errors.New("timeout")))

	s, err := NewEngine(st, opp, nw, 0, zerolog.Nop()).Generate(context.Background(), testNow, testPrefs)
	require.NoError(t, err)

	assert.NotNil(t, s.NewOpportunities)
	assert.Empty(t, s.NewOpportunities)
	assert.NotNil(t, s.NewsDigest)
	assert.Empty(t, s.NewsDigest)
	assert.Equal(t, 20.0, s.PortfolioValue)
	require.Len(t, s.GoalProgress, 1)
	assert.Zero(t, s.GoalProgress[0].Progress)
}

func TestGenerate_SlowGatewayTimesOut(t *testing.T) {
	opp := &mockOpportunities{}
	opp.On("SuggestOpportunities", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)
	_, nw := quietGateways()

	start := time.Now()
	s, err := NewEngine(&fakeStore{}, opp, nw, 20*time.Millisecond, zerolog.Nop()).Generate(context.Background(), testNow, testPrefs)
	require.NoError(t, err)
	assert.Empty(t, s.NewOpportunities)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGenerate_StoreFailurePropagates(t *testing.T) {
	opp, news := quietGateways()
	st := &fakeStore{err: errors.New("database is locked")}

	_, err := NewEngine(st, opp, news, 0, zerolog.Nop()).Generate(context.Background(), testNow, testPrefs)
	assert.EqualError(t, err, "database is locked")
}

func TestGenerate_DailyChangeFromSnapshot(t *testing.T) {
	st := &fakeStore{
		holdings: []models.Holding{{Quantity: 10, AvgPrice: 100, CurrentPrice: amount(110)}},
		baseline: &models.PortfolioSnapshot{Value: 1000, CapturedAt: testNow.Add(-24 * time.Hour)},
	}
	opp, news := quietGateways()

	s, err := NewEngine(st, opp, news, 0, zerolog.Nop()).Generate(context.Background(), testNow, testPrefs)
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.DailyChange)
	assert.Equal(t, 10.0, s.DailyChangePercent)
}

func TestGenerate_ZeroBaseline(t *testing.T) {
	st := &fakeStore{
		holdings: []models.Holding{{Quantity: 1, AvgPrice: 50}},
		baseline: &models.PortfolioSnapshot{Value: 0, CapturedAt: testNow.Add(-time.Hour)},
	}
	opp, news := quietGateways()

	s, err := NewEngine(st, opp, news, 0, zerolog.Nop()).Generate(context.Background(), testNow, testPrefs)
	require.NoError(t, err)
	assert.Equal(t, 50.0, s.DailyChange)
	assert.Zero(t, s.DailyChangePercent)
}
