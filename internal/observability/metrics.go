package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like
// without duplicate-registration panics. All methods are nil-safe.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	llmRequests *prometheus.CounterVec
	llmDuration *prometheus.HistogramVec
	llmRetries  *prometheus.CounterVec

	planRequests *prometheus.CounterVec
	planUnits    *prometheus.CounterVec

	renders *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "lessonplan"
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Generation backend calls by final status",
		}, []string{"model", "status"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Generation backend latency including retries",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		}, []string{"model"}),
		llmRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_retries_total",
			Help:      "Retried generation backend attempts",
		}, []string{"model"}),
		planRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_requests_total",
			Help:      "Lesson plan requests by mode and outcome",
		}, []string{"mode", "outcome"}),
		planUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_units_total",
			Help:      "Generation units by mode and outcome",
		}, []string{"mode", "outcome"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_renders_total",
			Help:      "Document renders by format and outcome",
		}, []string{"format", "outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration,
		m.llmRequests, m.llmDuration, m.llmRetries,
		m.planRequests, m.planUnits,
		m.renders,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ObserveLLMRequest(model, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(model, status).Inc()
	m.llmDuration.WithLabelValues(model).Observe(dur.Seconds())
}

func (m *Metrics) IncLLMRetry(model string) {
	if m == nil {
		return
	}
	m.llmRetries.WithLabelValues(model).Inc()
}

func (m *Metrics) IncPlanRequest(mode, outcome string) {
	if m == nil {
		return
	}
	m.planRequests.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) IncPlanUnit(mode, outcome string) {
	if m == nil {
		return
	}
	m.planUnits.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) IncRender(format, outcome string) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(format, outcome).Inc()
}
