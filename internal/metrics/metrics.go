package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scoring outcomes
const (
	OutcomeOK          = "ok"
	OutcomeValidation  = "validation_error"
	OutcomeUnavailable = "model_unavailable"
	OutcomeInference   = "inference_error"
)

// Metrics holds every collector of the service.
// ⭐ SSOT: 메트릭 이름은 여기서만 정의, nil 수신자는 아무것도 하지 않음
type Metrics struct {
	registry *prometheus.Registry

	ScoringRequests *prometheus.CounterVec
	ScoringDuration *prometheus.HistogramVec
	RiskTiers       *prometheus.CounterVec
	ExplainFailures prometheus.Counter
	ModelReloads    *prometheus.CounterVec
	ModelInfo       *prometheus.GaugeVec
	CacheLookups    *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ScoringRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sycamore_scoring_requests_total",
				Help: "Total number of scoring operations by outcome",
			},
			[]string{"operation", "outcome"},
		),

		ScoringDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sycamore_scoring_duration_seconds",
				Help:    "Duration of scoring operations in seconds",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),

		RiskTiers: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sycamore_risk_tier_total",
				Help: "Credit decisions by risk tier",
			},
			[]string{"tier"},
		),

		ExplainFailures: f.NewCounter(
			prometheus.CounterOpts{
				Name: "sycamore_explain_failures_total",
				Help: "Explanations that degraded to empty factor lists",
			},
		),

		ModelReloads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sycamore_model_reloads_total",
				Help: "Model reload attempts by result",
			},
			[]string{"result"},
		),

		ModelInfo: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sycamore_model_info",
				Help: "Currently loaded model (value is always 1)",
			},
			[]string{"backend", "version", "has_explainer"},
		),

		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sycamore_cache_lookups_total",
				Help: "Score cache lookups by result",
			},
			[]string{"result"},
		),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sycamore_http_requests_total",
				Help: "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),

		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sycamore_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// Handler exposes the registry in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry (tests)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveScoring records one scoring operation
func (m *Metrics) ObserveScoring(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScoringRequests.WithLabelValues(operation, outcome).Inc()
	m.ScoringDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveTier counts a credit decision
func (m *Metrics) ObserveTier(tier string) {
	if m == nil {
		return
	}
	m.RiskTiers.WithLabelValues(tier).Inc()
}

// ExplainFailed counts a degraded explanation
func (m *Metrics) ExplainFailed() {
	if m == nil {
		return
	}
	m.ExplainFailures.Inc()
}

// ObserveReload counts a reload attempt; result is "swapped", "missing" or "failed"
func (m *Metrics) ObserveReload(result string) {
	if m == nil {
		return
	}
	m.ModelReloads.WithLabelValues(result).Inc()
}

// SetModel publishes the loaded model identity
func (m *Metrics) SetModel(backend, version string, hasExplainer bool) {
	if m == nil {
		return
	}
	m.ModelInfo.Reset()
	explainer := "false"
	if hasExplainer {
		explainer = "true"
	}
	m.ModelInfo.WithLabelValues(backend, version, explainer).Set(1)
}

// ObserveCache counts a cache lookup; result is "hit", "miss" or "error"
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveHTTP records one HTTP request
func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
