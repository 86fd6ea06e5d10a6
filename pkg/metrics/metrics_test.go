package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecorder_Counts(t *testing.T) {
	r := New()

	r.ObserveGateway("market_data", 10*time.Millisecond, nil)
	r.ObserveGateway("market_data", 10*time.Millisecond, errors.New("boom"))
	r.ObserveGateway("market_data", 10*time.Millisecond, errors.New("boom"))
	r.RecordSummary("sent")
	r.RecordPrice("TCS.NS", 3500)

	body := scrape(t, r)
	assert.Contains(t, body, `portfolio_gateway_calls_total{gateway="market_data",outcome="ok"} 1`)
	assert.Contains(t, body, `portfolio_gateway_calls_total{gateway="market_data",outcome="error"} 2`)
	assert.Contains(t, body, `portfolio_summaries_total{status="sent"} 1`)
	assert.Contains(t, body, `portfolio_last_price{symbol="TCS.NS"} 3500`)
	assert.Contains(t, body, "portfolio_prices_updated_total 1")
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveGateway("news", time.Second, nil)
		r.RecordSummary("failed")
		r.RecordPrice("X", 1)
	})
	assert.Nil(t, r.Registry())

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordSummary("failed")

	assert.Contains(t, scrape(t, a), `portfolio_summaries_total{status="failed"} 1`)
	assert.NotContains(t, scrape(t, b), `portfolio_summaries_total{status="failed"}`)
}
