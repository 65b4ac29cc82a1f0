package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ============================================================
// Metrics
// ============================================================

// Metrics хранит собственный реестр Prometheus сервиса карт.
// Все методы безопасны для nil-получателя.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	documentLoads       *prometheus.CounterVec
	sanitizerRemovals   *prometheus.CounterVec
	gestures            *prometheus.CounterVec
	selections          prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusmap",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by the map viewer",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "campusmap",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by the map viewer",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	documentLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusmap",
		Name:      "document_loads_total",
		Help:      "Vector document loads by outcome (ok, error, superseded)",
	}, []string{"outcome"})

	sanitizerRemovals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusmap",
		Name:      "sanitizer_removals_total",
		Help:      "Constructs stripped from untrusted markup by kind",
	}, []string{"kind"})

	gestures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campusmap",
		Name:      "viewport_gestures_total",
		Help:      "Viewport input events handled by kind",
	}, []string{"kind"})

	selections := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "campusmap",
		Name:      "selection_changes_total",
		Help:      "Number of selection changes across all sessions",
	})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		documentLoads,
		sanitizerRemovals,
		gestures,
		selections,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		documentLoads:       documentLoads,
		sanitizerRemovals:   sanitizerRemovals,
		gestures:            gestures,
		selections:          selections,
	}
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

func (m *Metrics) IncDocumentLoad(outcome string) {
	if m == nil {
		return
	}
	m.documentLoads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddSanitizerRemovals(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sanitizerRemovals.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) IncGesture(kind string) {
	if m == nil {
		return
	}
	m.gestures.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncSelection() {
	if m == nil {
		return
	}
	m.selections.Inc()
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
