// Package metrics owns the Prometheus collectors for the dashboard. Collectors
// live on a private registry passed around explicitly.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dispatch outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
)

type Metrics struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	dispatch *prometheus.HistogramVec
	sessions prometheus.Gauge
	consumed *prometheus.CounterVec
	requests *prometheus.CounterVec
	limited  prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_events_total",
			Help: "Dashboard events dispatched, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		dispatch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_dispatch_seconds",
			Help:    "Time to compute one dashboard update.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_sessions",
			Help: "Live dashboard sessions.",
		}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "selection_events_consumed_total",
			Help: "Selection events processed by the tally worker, by result.",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by route pattern and status class.",
		}, []string{"route", "status"}),
		limited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(
		m.events, m.dispatch, m.sessions, m.consumed, m.requests, m.limited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveDispatch records one controller dispatch.
func (m *Metrics) ObserveDispatch(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind, outcome).Inc()
	m.dispatch.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.sessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.sessions.Dec()
	}
}

// EventConsumed counts a selection event handled by the worker; result is
// "ok" or "rejected".
func (m *Metrics) EventConsumed(result string) {
	if m != nil {
		m.consumed.WithLabelValues(result).Inc()
	}
}

// ObserveRequest counts one served request. Status is bucketed to its class
// ("2xx", "4xx", ...) to keep cardinality bounded.
func (m *Metrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, statusClass(status)).Inc()
}

func (m *Metrics) RateLimited() {
	if m != nil {
		m.limited.Inc()
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Server returns a standalone server exposing /metrics, for processes that
// have no HTTP surface of their own.
func (m *Metrics) Server(addr string) *http.Server {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
