package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ravijp/portfolio-advisor/pkg/apperrors"
	"github.com/ravijp/portfolio-advisor/pkg/cache"
	"github.com/ravijp/portfolio-advisor/pkg/config"
	"github.com/ravijp/portfolio-advisor/pkg/metrics"
	"github.com/rs/zerolog"
)

const gatewayMarketData = "market_data"

// ErrNoPrice is wrapped when the market data source has no usable price for a symbol
var ErrNoPrice = errors.New("no price available")

// PriceFetcher returns the current price of a ticker
type PriceFetcher interface {
	FetchPrice(ctx context.Context, symbol string) (float64, error)
}

// MarketDataService fetches quotes from Yahoo Finance, or Alpha Vantage when
// an API key is configured. Successful quotes are cached.
type MarketDataService struct {
	client          *http.Client
	yahooURL        string
	alphaVantageURL string
	alphaVantageKey string
	quotes          cache.Store
	quoteTTL        time.Duration
	metrics         *metrics.Recorder
	logger          zerolog.Logger
}

// NewMarketDataService creates a new market data service. quotes may be nil.
func NewMarketDataService(cfg *config.Config, quotes cache.Store, rec *metrics.Recorder, logger zerolog.Logger) *MarketDataService {
	return &MarketDataService{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		yahooURL:        strings.TrimRight(cfg.MarketDataURL, "/"),
		alphaVantageURL: "https://www.alphavantage.co",
		alphaVantageKey: cfg.AlphaVantageAPIKey,
		quotes:          quotes,
		quoteTTL:        cfg.QuoteCacheTTL,
		metrics:         rec,
		logger:          logger,
	}
}

// NormalizeSymbol uppercases a ticker and appends the default exchange suffix
// unless one is already present.
func NormalizeSymbol(symbol, suffix string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" || suffix == "" {
		return s
	}
	if i := strings.LastIndexByte(s, '.'); i > 0 && i < len(s)-1 {
		ext := s[i+1:]
		if len(ext) <= 3 && isAlpha(ext) {
			return s
		}
	}
	return s + strings.ToUpper(suffix)
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// FetchPrice returns the latest price for symbol
func (s *MarketDataService) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	key := "quote:" + symbol
	if price, ok := s.cachedPrice(ctx, key); ok {
		return price, nil
	}

	start := time.Now()
	var (
		price float64
		err   error
	)
	if s.alphaVantageKey != "" {
		price, err = s.fetchAlphaVantageQuote(ctx, symbol)
	} else {
		price, err = s.fetchYahooChart(ctx, symbol)
	}
	s.metrics.ObserveGateway(gatewayMarketData, time.Since(start), err)
	if err != nil {
		return 0, apperrors.Upstream("market data", err)
	}

	if s.quotes != nil {
		if err := s.quotes.Set(ctx, key, []byte(strconv.FormatFloat(price, 'f', -1, 64)), s.quoteTTL); err != nil {
			s.logger.Warn().Err(err).Str("ticker", symbol).Msg("Failed to cache quote")
		}
	}
	return price, nil
}

func (s *MarketDataService) cachedPrice(ctx context.Context, key string) (float64, bool) {
	if s.quotes == nil || s.quoteTTL <= 0 {
		return 0, false
	}
	b, found, err := s.quotes.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Quote cache read failed")
		return 0, false
	}
	if !found {
		return 0, false
	}
	price, err := strconv.ParseFloat(string(b), 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}

// yahooChart is the subset of the Yahoo Finance chart response we read
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (s *MarketDataService) fetchYahooChart(ctx context.Context, symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=5d&interval=1d", s.yahooURL, url.PathEscape(symbol))

	var chart yahooChart
	if err := s.getJSON(ctx, endpoint, &chart); err != nil {
		return 0, err
	}
	if chart.Chart.Error != nil {
		return 0, fmt.Errorf("%w for %s: %s", ErrNoPrice, symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return 0, fmt.Errorf("%w for %s", ErrNoPrice, symbol)
	}

	result := chart.Chart.Result[0]
	if p := result.Meta.RegularMarketPrice; p != nil && *p > 0 {
		return *p, nil
	}
	// Fall back to the last close the chart carries
	for _, q := range result.Indicators.Quote {
		for i := len(q.Close) - 1; i >= 0; i-- {
			if c := q.Close[i]; c != nil && *c > 0 {
				return *c, nil
			}
		}
	}
	return 0, fmt.Errorf("%w for %s", ErrNoPrice, symbol)
}

// AlphaVantageQuote represents Alpha Vantage real-time quote data
type AlphaVantageQuote struct {
	GlobalQuote struct {
		Symbol           string `json:"01. symbol"`
		Price            string `json:"05. price"`
		LatestTradingDay string `json:"07. latest trading day"`
		PreviousClose    string `json:"08. previous close"`
	} `json:"Global Quote"`
}

func (s *MarketDataService) fetchAlphaVantageQuote(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", s.alphaVantageKey)
	endpoint := s.alphaVantageURL + "/query?" + q.Encode()

	var quote AlphaVantageQuote
	if err := s.getJSON(ctx, endpoint, &quote); err != nil {
		return 0, err
	}
	if quote.GlobalQuote.Symbol == "" {
		return 0, fmt.Errorf("%w for %s", ErrNoPrice, symbol)
	}
	price, err := strconv.ParseFloat(quote.GlobalQuote.Price, 64)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("%w for %s", ErrNoPrice, symbol)
	}
	return price, nil
}

func (s *MarketDataService) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	// Yahoo rejects requests without a browser-like user agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (portfolio-advisor)")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNoPrice
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("quote service returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode quote: %w", err)
	}
	return nil
}
