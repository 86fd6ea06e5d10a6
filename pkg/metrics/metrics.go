// Package metrics exposes Prometheus counters for the gateways and the
// summary dispatcher. A nil *Recorder is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry so several instances can coexist in tests
type Recorder struct {
	registry       *prometheus.Registry
	gatewayCalls   *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
	summaries      *prometheus.CounterVec
	pricesUpdated  prometheus.Counter
	lastPrice      *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		gatewayCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_gateway_calls_total",
				Help: "Calls to external gateways by outcome",
			},
			[]string{"gateway", "outcome"},
		),
		gatewayLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portfolio_gateway_duration_seconds",
				Help:    "Duration of external gateway calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"gateway"},
		),
		summaries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_summaries_total",
				Help: "Daily summary deliveries by status",
			},
			[]string{"status"},
		),
		pricesUpdated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portfolio_prices_updated_total",
				Help: "Holding prices refreshed successfully",
			},
		),
		lastPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "portfolio_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
	}
}

// ObserveGateway records one gateway call and its latency
func (r *Recorder) ObserveGateway(gateway string, d time.Duration, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.gatewayCalls.WithLabelValues(gateway, outcome).Inc()
	r.gatewayLatency.WithLabelValues(gateway).Observe(d.Seconds())
}

// RecordSummary counts a delivery attempt with the given status
func (r *Recorder) RecordSummary(status string) {
	if r == nil {
		return
	}
	r.summaries.WithLabelValues(status).Inc()
}

// RecordPrice records a successful price refresh
func (r *Recorder) RecordPrice(symbol string, price float64) {
	if r == nil {
		return
	}
	r.pricesUpdated.Inc()
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// Registry exposes the underlying registry, mainly for tests
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
