package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for the marketplace backend
type Metrics struct {
	// AI quality gate
	AIChecksTotal           *prometheus.CounterVec
	AIGateDurationSeconds   prometheus.Histogram
	ProposalsQualifiedTotal prometheus.Counter

	// Payment webhook
	WebhookEventsTotal *prometheus.CounterVec

	// Queue
	JobsPublishedTotal *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		AIChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creatorhub_ai_checks_total",
				Help: "AI quality checks by outcome",
			},
			[]string{"outcome"},
		),
		AIGateDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "creatorhub_ai_gate_duration_seconds",
				Help:    "Latency of calls to the AI quality gate",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
			},
		),
		ProposalsQualifiedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "creatorhub_proposals_qualified_total",
				Help: "Proposals that passed the AI quality gate",
			},
		),
		WebhookEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creatorhub_payment_webhook_events_total",
				Help: "Payment webhook deliveries by result",
			},
			[]string{"result"},
		),
		JobsPublishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creatorhub_queue_jobs_published_total",
				Help: "Jobs published to the work queue",
			},
			[]string{"queue", "status"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creatorhub_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "creatorhub_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.AIChecksTotal,
		m.AIGateDurationSeconds,
		m.ProposalsQualifiedTotal,
		m.WebhookEventsTotal,
		m.JobsPublishedTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// The helpers below are no-ops until SetGlobal has been called, so tests need no registry.

func IncAICheck(outcome string) {
	if m := Global(); m != nil {
		m.AIChecksTotal.WithLabelValues(outcome).Inc()
	}
}

func ObserveAIGate(seconds float64) {
	if m := Global(); m != nil {
		m.AIGateDurationSeconds.Observe(seconds)
	}
}

func IncQualified() {
	if m := Global(); m != nil {
		m.ProposalsQualifiedTotal.Inc()
	}
}

func IncWebhookEvent(result string) {
	if m := Global(); m != nil {
		m.WebhookEventsTotal.WithLabelValues(result).Inc()
	}
}

func IncJobPublished(queue, status string) {
	if m := Global(); m != nil {
		m.JobsPublishedTotal.WithLabelValues(queue, status).Inc()
	}
}
