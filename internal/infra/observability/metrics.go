package observability

import (
	"time"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	backendRequests  *prometheus.CounterVec
	backendErrors    *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	superseded       *prometheus.CounterVec
	instrumentWrites *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bfa_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		backendRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_backend_requests_total",
				Help: "Total round trips to the analytics backend.",
			},
			[]string{"endpoint"},
		),
		backendErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_backend_errors_total",
				Help: "Total failed round trips to the analytics backend.",
			},
			[]string{"endpoint"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		superseded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_superseded_requests_total",
				Help: "Requests whose result was discarded because a newer one for the same view arrived.",
			},
			[]string{"view"},
		),
		instrumentWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_instrument_mutations_total",
				Help: "Instrument create/update/delete calls by kind, action and outcome.",
			},
			[]string{"kind", "action", "status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrBackendRequest counts one round trip to the backend.
func (m *Metrics) IncrBackendRequest(endpoint string) {
	m.backendRequests.WithLabelValues(endpoint).Inc()
}

// IncrBackendError counts one failed round trip to the backend.
func (m *Metrics) IncrBackendError(endpoint string) {
	m.backendErrors.WithLabelValues(endpoint).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrSuperseded counts a discarded stale result.
func (m *Metrics) IncrSuperseded(view string) {
	m.superseded.WithLabelValues(view).Inc()
}

// IncrInstrumentMutation counts a create/update/delete attempt.
func (m *Metrics) IncrInstrumentMutation(kind, action, status string) {
	m.instrumentWrites.WithLabelValues(kind, action, status).Inc()
}

// Snapshot returns cumulative counters for GET /v1/metrics/bff.
func (m *Metrics) Snapshot() *domain.BFFMetrics {
	requests := sumCounterVec(m.backendRequests)
	errs := sumCounterVec(m.backendErrors)
	hits := sumCounterVec(m.cacheHits)
	misses := sumCounterVec(m.cacheMisses)

	errorRate := float64(0)
	cacheHitRate := float64(0)
	if requests > 0 {
		errorRate = errs / requests
	}
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	return &domain.BFFMetrics{
		BackendRequests:     int64(requests),
		BackendErrors:       int64(errs),
		BackendErrorRate:    errorRate,
		CacheHitRate:        cacheHitRate,
		SupersededRequests:  int64(sumCounterVec(m.superseded)),
		InstrumentMutations: int64(sumCounterVec(m.instrumentWrites)),
		Period:              "all_time",
	}
}

// sumCounterVec adds up every child counter of a CounterVec.
func sumCounterVec(cv *prometheus.CounterVec) float64 {
	ch := make(chan prometheus.Metric, 64)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	total := float64(0)
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil {
			continue
		}
		if m.Counter != nil && m.Counter.Value != nil {
			total += *m.Counter.Value
		}
	}
	return total
}
