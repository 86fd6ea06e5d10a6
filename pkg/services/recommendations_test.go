package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ravijp/portfolio-advisor/pkg/apperrors"
	"github.com/ravijp/portfolio-advisor/pkg/config"
	"github.com/ravijp/portfolio-advisor/pkg/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sixHorizons = `{
  "1m": {"action": "SELL", "reason": "Overbought after results"},
  "1-6m": {"action": "HOLD", "reason": "Range bound"},
  "6m-1y": {"action": "HOLD", "reason": "Fairly valued"},
  "1-3y": {"action": "BUY", "reason": "Capex cycle"},
  "3-5y": {"action": "BUY", "reason": "Market share gains"},
  "5y+": {"action": "BUY", "reason": "Long runway"}
}`

// claudeStub answers every Messages call with text and records the last request
func claudeStub(t *testing.T, text string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var last map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&last))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "msg_test",
			"type":          "message",
			"role":          "assistant",
			"model":         "claude-test",
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"content":       []map[string]any{{"type": "text", "text": text}},
			"usage":         map[string]any{"input_tokens": 10, "output_tokens": 20},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func newRecommendationService(url string) *RecommendationService {
	cfg := &config.Config{
		AnthropicAPIKey:  "test-key",
		AnthropicModel:   "claude-test",
		AnthropicBaseURL: url,
		CurrencySymbol:   "₹",
	}
	s := NewRecommendationService(cfg, nil, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC) }
	return s
}

func TestAnalyzeHolding_ParsesFencedReply(t *testing.T) {
	srv, last := claudeStub(t, "```json\n"+sixHorizons+"\n```")
	s := newRecommendationService(srv.URL)

	set, err := s.AnalyzeHolding(context.Background(), HoldingSnapshot{
		Name: "Reliance Industries", Symbol: "RELIANCE.NS", Type: models.AssetTypeStock,
		AvgPrice: 2400, CurrentPrice: 2900, Quantity: 10,
	})
	require.NoError(t, err)
	require.Len(t, set, 6)
	rec, ok := set.For(models.HorizonOneMonth)
	require.True(t, ok)
	assert.Equal(t, models.ActionSell, rec.Action)
	assert.Equal(t, "Overbought after results", rec.Reason)

	assert.Equal(t, "claude-test", (*last)["model"])
	assert.EqualValues(t, analysisMaxTokens, (*last)["max_tokens"])
}

func TestAnalyzeHolding_MalformedReplies(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "I think you should buy."},
		{"missing bucket", `{"1m": {"action": "BUY", "reason": "x"}}`},
		{"bad action", `{"1m": {"action": "ACCUMULATE", "reason": "x"}, "1-6m": {"action": "HOLD", "reason": "x"}, "6m-1y": {"action": "HOLD", "reason": "x"}, "1-3y": {"action": "HOLD", "reason": "x"}, "3-5y": {"action": "HOLD", "reason": "x"}, "5y+": {"action": "HOLD", "reason": "x"}}`},
		{"empty reason", `{"1m": {"action": "BUY", "reason": ""}, "1-6m": {"action": "HOLD", "reason": "x"}, "6m-1y": {"action": "HOLD", "reason": "x"}, "1-3y": {"action": "HOLD", "reason": "x"}, "3-5y": {"action": "HOLD", "reason": "x"}, "5y+": {"action": "HOLD", "reason": "x"}}`},
		{"unknown bucket", `{"10y": {"action": "BUY", "reason": "x"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := claudeStub(t, tt.reply)
			s := newRecommendationService(srv.URL)

			_, err := s.AnalyzeHolding(context.Background(), HoldingSnapshot{Name: "X", Symbol: "X.NS"})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrMalformedResponse)
		})
	}
}

func TestAnalyzeHolding_NoAPIKey(t *testing.T) {
	s := NewRecommendationService(&config.Config{AnthropicModel: "claude-test"}, nil, zerolog.Nop())

	_, err := s.AnalyzeHolding(context.Background(), HoldingSnapshot{Name: "X", Symbol: "X.NS"})
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
}

func TestAnalyzeHolding_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	t.Cleanup(srv.Close)
	s := newRecommendationService(srv.URL)

	_, err := s.AnalyzeHolding(context.Background(), HoldingSnapshot{Name: "X", Symbol: "X.NS"})
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
}

func TestSuggestOpportunities(t *testing.T) {
	reply := `[
  {"name": "Larsen & Toubro", "symbol": "LT", "sector": "Infrastructure", "current_price": 3600, "target_price": 4200, "reasoning": "Order book"},
  {"name": "Dixon", "symbol": "DIXON", "sector": "Electronics", "current_price": 14000, "target_price": 17000, "reasoning": "PLI"}
]`
	srv, last := claudeStub(t, reply)
	s := newRecommendationService(srv.URL)

	items, err := s.SuggestOpportunities(context.Background(), models.RiskAggressive, []string{"Infrastructure", "Electronics"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "LT", items[0].Symbol)
	assert.Equal(t, 4200.0, items[0].TargetPrice)

	body, err := json.Marshal(*last)
	require.NoError(t, err)
	assert.Contains(t, string(body), "October 2026")
	assert.Contains(t, string(body), "Infrastructure, Electronics")
	assert.Contains(t, string(body), "aggressive")
}

func TestSuggestOpportunities_RejectsInvalidItems(t *testing.T) {
	srv, _ := claudeStub(t, `[{"name": "", "symbol": "X", "current_price": 1, "target_price": 2}]`)
	s := newRecommendationService(srv.URL)

	_, err := s.SuggestOpportunities(context.Background(), models.RiskModerate, nil)
	assert.ErrorIs(t, err, apperrors.ErrMalformedResponse)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}```"))
	assert.Equal(t, `[1]`, stripCodeFences("  [1]  "))
}

func TestParseRecommendationSet_RejectsTrailingText(t *testing.T) {
	_, err := parseRecommendationSet(sixHorizons+"\nHope this helps!", validator.New())
	assert.Error(t, err)
}
