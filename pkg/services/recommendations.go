package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/go-playground/validator/v10"
	"github.com/ravijp/portfolio-advisor/pkg/apperrors"
	"github.com/ravijp/portfolio-advisor/pkg/config"
	"github.com/ravijp/portfolio-advisor/pkg/metrics"
	"github.com/ravijp/portfolio-advisor/pkg/models"
	"github.com/rs/zerolog"
)

const (
	gatewayRecommendations = "recommendations"

	analysisMaxTokens    = 3000
	opportunityMaxTokens = 2000
)

// HoldingSnapshot is the view of a holding sent to the language model
type HoldingSnapshot struct {
	Name         string
	Symbol       string
	Type         models.AssetType
	Sector       string
	AvgPrice     float64
	CurrentPrice float64
	Quantity     float64
}

// SnapshotOf builds a snapshot, pricing the holding at its effective price
func SnapshotOf(h models.Holding) HoldingSnapshot {
	return HoldingSnapshot{
		Name:         h.Name,
		Symbol:       h.Symbol,
		Type:         h.Type,
		Sector:       h.Sector,
		AvgPrice:     h.AvgPrice,
		CurrentPrice: EffectivePrice(h),
		Quantity:     h.Quantity,
	}
}

// RecommendationService asks Claude for per-horizon advice and new ideas
type RecommendationService struct {
	client         anthropic.Client
	model          string
	configured     bool
	currencySymbol string
	validate       *validator.Validate
	metrics        *metrics.Recorder
	logger         zerolog.Logger
	now            func() time.Time
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(cfg *config.Config, rec *metrics.Recorder, logger zerolog.Logger) *RecommendationService {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.AnthropicAPIKey),
		option.WithMaxRetries(2),
	}
	if cfg.AnthropicBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.AnthropicBaseURL))
	}

	return &RecommendationService{
		client:         anthropic.NewClient(opts...),
		model:          cfg.AnthropicModel,
		configured:     cfg.AnthropicAPIKey != "",
		currencySymbol: cfg.CurrencySymbol,
		validate:       validator.New(),
		metrics:        rec,
		logger:         logger,
		now:            time.Now,
	}
}

// AnalyzeHolding returns BUY/HOLD/SELL advice for all six horizons
func (s *RecommendationService) AnalyzeHolding(ctx context.Context, h HoldingSnapshot) (models.RecommendationSet, error) {
	sector := h.Sector
	if sector == "" {
		sector = UnknownSector
	}

	prompt := fmt.Sprintf(`Analyze this Indian investment and provide recommendations:

Stock: %s (%s)
Type: %s
Sector: %s
Average Price: %s%.2f
Current Price: %s%.2f
Quantity: %g

Provide recommendations (BUY/HOLD/SELL) with brief reasoning for each time horizon.

RESPOND ONLY WITH THIS JSON FORMAT:
{
  "1m": {"action": "BUY/HOLD/SELL", "reason": "brief reason"},
  "1-6m": {"action": "BUY/HOLD/SELL", "reason": "brief reason"},
  "6m-1y": {"action": "BUY/HOLD/SELL", "reason": "brief reason"},
  "1-3y": {"action": "BUY/HOLD/SELL", "reason": "brief reason"},
  "3-5y": {"action": "BUY/HOLD/SELL", "reason": "brief reason"},
  "5y+": {"action": "BUY/HOLD/SELL", "reason": "brief reason"}
}`,
		h.Name, h.Symbol, h.Type, sector,
		s.currencySymbol, h.AvgPrice,
		s.currencySymbol, h.CurrentPrice,
		h.Quantity)

	text, err := s.complete(ctx, prompt, analysisMaxTokens)
	if err != nil {
		return nil, err
	}

	set, err := parseRecommendationSet(text, s.validate)
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", h.Symbol).Msg("Rejected analysis reply")
		return nil, apperrors.Malformed("recommendations", err)
	}
	return set, nil
}

// SuggestOpportunities asks for new investment ideas matching the user's profile
func (s *RecommendationService) SuggestOpportunities(ctx context.Context, risk models.RiskProfile, sectors []string) ([]models.Opportunity, error) {
	preferred := "Any"
	if len(sectors) > 0 {
		preferred = strings.Join(sectors, ", ")
	}

	prompt := fmt.Sprintf(`Based on current Indian market conditions (%s), suggest 3 stocks for investment.

Risk Profile: %s
Preferred Sectors: %s

For each stock, provide:
- Name
- Symbol
- Sector
- Current Price (estimate)
- Target Price
- Reasoning (2-3 sentences)

RESPOND ONLY WITH THIS JSON FORMAT:
[
  {
    "name": "Company Name",
    "symbol": "SYMBOL",
    "sector": "Sector",
    "current_price": 0,
    "target_price": 0,
    "reasoning": "Why this is a good opportunity"
  }
]`, s.now().Format("January 2006"), risk, preferred)

	text, err := s.complete(ctx, prompt, opportunityMaxTokens)
	if err != nil {
		return nil, err
	}

	items, err := parseOpportunities(text, s.validate)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Rejected opportunities reply")
		return nil, apperrors.Malformed("recommendations", err)
	}
	return items, nil
}

// complete sends one user message and returns the concatenated text blocks
func (s *RecommendationService) complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	if !s.configured {
		return "", apperrors.Upstream("recommendations", errors.New("Anthropic API key not configured"))
	}

	start := time.Now()
	msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	s.metrics.ObserveGateway(gatewayRecommendations, time.Since(start), err)
	if err != nil {
		return "", apperrors.Upstream("recommendations", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", apperrors.Malformed("recommendations", errors.New("reply has no text content"))
	}
	return sb.String(), nil
}

// stripCodeFences removes a surrounding Markdown code fence, if any
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	// Drop the info string, e.g. ```json
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	} else {
		text = ""
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func strictDecode(text string, out any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(stripCodeFences(text))))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return errors.New("trailing content after JSON document")
	}
	return nil
}

func parseRecommendationSet(text string, validate *validator.Validate) (models.RecommendationSet, error) {
	var raw map[string]models.Recommendation
	if err := strictDecode(text, &raw); err != nil {
		return nil, err
	}

	set := make(models.RecommendationSet, len(models.Horizons))
	for key, rec := range raw {
		h := models.Horizon(key)
		if !h.Valid() {
			return nil, fmt.Errorf("unknown horizon %q", key)
		}
		if err := validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("horizon %s: %w", key, err)
		}
		set[h] = rec
	}
	for _, h := range models.Horizons {
		if _, ok := set[h]; !ok {
			return nil, fmt.Errorf("missing horizon %q", h)
		}
	}
	return set, nil
}

func parseOpportunities(text string, validate *validator.Validate) ([]models.Opportunity, error) {
	var items []models.Opportunity
	if err := strictDecode(text, &items); err != nil {
		return nil, err
	}
	for i := range items {
		if err := validate.Struct(items[i]); err != nil {
			return nil, fmt.Errorf("opportunity %d: %w", i, err)
		}
	}
	return items, nil
}
