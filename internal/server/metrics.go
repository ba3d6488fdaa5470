package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/songzhibin97/tokenlens/internal/analysis"
)

// Metrics owns its registry so tests and multiple servers do not collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	analyses      *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	scores        prometheus.Histogram
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenlens_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tokenlens_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"route"},
		),
		analyses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenlens_analyses_total",
				Help: "Completed analyses by verdict",
			},
			[]string{"verdict"},
		),
		fetchFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenlens_fetch_failures_total",
				Help: "Fetches that fell back to zero values, by concern",
			},
			[]string{"concern"},
		),
		scores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tokenlens_analysis_score",
			Help:    "Distribution of overall scores",
			Buckets: prometheus.LinearBuckets(10, 10, 9),
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveReport(report *analysis.Report) {
	m.analyses.WithLabelValues(report.Recommendation.Verdict).Inc()
	m.scores.Observe(report.Recommendation.Score)
	for _, concern := range report.Failed() {
		m.fetchFailures.WithLabelValues(concern).Inc()
	}
}
