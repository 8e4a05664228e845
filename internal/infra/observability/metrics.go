package observability

import (
	"time"

	"github.com/finboard/recurring-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	storeErrors       *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	detectionRuns     *prometheus.CounterVec
	candidatesEmitted prometheus.Counter
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
				Name:    "finboard_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finboard_store_errors_total",
				Help: "Total errors from the persistence backend.",
			},
			[]string{"store"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finboard_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finboard_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		detectionRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finboard_detection_runs_total",
				Help: "Total detection engine invocations by outcome.",
			},
			[]string{"outcome"},
		),
		candidatesEmitted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "finboard_detection_candidates_total",
				Help: "Total candidates emitted across all detection runs.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrStoreError increments the persistence error counter.
func (m *Metrics) IncrStoreError(store string) {
	m.storeErrors.WithLabelValues(store).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordDetectionRun records one engine invocation and the number of
// candidates it produced.
func (m *Metrics) RecordDetectionRun(outcome string, candidates int) {
	m.detectionRuns.WithLabelValues(outcome).Inc()
	m.candidatesEmitted.Add(float64(candidates))
}

// GetDetectionSnapshot returns a snapshot of detection metrics suitable for
// the GET /v1/metrics/detection endpoint.
func (m *Metrics) GetDetectionSnapshot() *domain.DetectionMetrics {
	// Prometheus counters expose cumulative values; derive rates here.
	runsOK := getCounterValue(m.detectionRuns, "success")
	runsErr := getCounterValue(m.detectionRuns, "error")
	totalRuns := runsOK + runsErr
	candidates := getSingleCounterValue(m.candidatesEmitted)
	cacheHits := getCounterValue(m.cacheHits, "detection")
	cacheMisses := getCounterValue(m.cacheMisses, "detection")

	avgCandidates := float64(0)
	storeErrorRate := float64(0)
	cacheHitRate := float64(0)

	if totalRuns > 0 {
		avgCandidates = candidates / totalRuns
		storeErrorRate = runsErr / totalRuns
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.DetectionMetrics{
		TotalRuns:           int64(totalRuns),
		CandidatesEmitted:   int64(candidates),
		AvgCandidatesPerRun: avgCandidates,
		CacheHitRate:        cacheHitRate,
		StoreErrorRate:      storeErrorRate,
		Period:              "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getSingleCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
