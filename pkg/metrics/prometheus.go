// Package metrics provides Prometheus metrics for the snapdeck capture
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Capture loop
	framesCaptured     prometheus.Counter
	captureFailures    prometheus.Counter
	captureEscalations prometheus.Counter
	captureLatency     prometheus.Histogram

	// Deduplication engine
	framesDuplicate   prometheus.Counter
	framesUnique      prometheus.Counter
	framesInvalid     prometheus.Counter
	comparisonLatency *prometheus.HistogramVec
	engineQueueDepth  prometheus.Gauge

	// Event bus
	eventsPublished *prometheus.CounterVec
	handlerPanics   *prometheus.CounterVec

	// Storage coordinator
	slidesStored  prometheus.Counter
	storageErrors prometheus.Counter
	storeLatency  prometheus.Histogram

	// Sessions
	sessionsActive prometheus.Gauge

	// Process health
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "snapdeck",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.framesCaptured = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_captured_total",
		Help:      "Total number of frames acquired from the capture backend",
	})

	m.captureFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "capture_failures_total",
		Help:      "Total number of failed capture ticks",
	})

	m.captureEscalations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "capture_escalations_total",
		Help:      "Total number of escalations after consecutive capture failures",
	})

	m.captureLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "capture_latency_milliseconds",
		Help:      "Histogram of backend capture latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.framesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_duplicate_total",
		Help:      "Total number of frames classified as duplicates and discarded",
	})

	m.framesUnique = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_unique_total",
		Help:      "Total number of frames classified as unique slides",
	})

	m.framesInvalid = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_invalid_total",
		Help:      "Total number of corrupt or zero-size frames dropped before comparison",
	})

	m.comparisonLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "comparison_latency_milliseconds",
			Help:      "Histogram of duplicate-detection latency in milliseconds by strategy",
			Buckets:   m.histogramBuckets,
		},
		[]string{"strategy"},
	)

	m.engineQueueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "engine_queue_depth",
		Help:      "Current number of frames waiting for comparison",
	})

	m.eventsPublished = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_published_total",
			Help:      "Total number of events published on the bus by kind",
		},
		[]string{"kind"},
	)

	m.handlerPanics = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "handler_panics_total",
			Help:      "Total number of recovered subscriber panics by event kind",
		},
		[]string{"kind"},
	)

	m.slidesStored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "slides_stored_total",
		Help:      "Total number of slides persisted by the storage coordinator",
	})

	m.storageErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "storage_errors_total",
		Help:      "Total number of slide persistence failures",
	})

	m.storeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_latency_milliseconds",
		Help:      "Histogram of slide persistence latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_active",
		Help:      "Number of capture sessions currently running",
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap allocation in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Histogram of average GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Capture loop helpers.

func RecordFrameCaptured() {
	globalManager.framesCaptured.Inc()
}

func RecordCaptureFailure() {
	globalManager.captureFailures.Inc()
}

func RecordCaptureEscalation() {
	globalManager.captureEscalations.Inc()
}

func RecordCaptureLatency(latencyMs float64) {
	globalManager.captureLatency.Observe(latencyMs)
}

// Deduplication engine helpers.

func RecordFrameDuplicate() {
	globalManager.framesDuplicate.Inc()
}

func RecordFrameUnique() {
	globalManager.framesUnique.Inc()
}

func RecordFrameInvalid() {
	globalManager.framesInvalid.Inc()
}

func RecordComparisonLatency(strategy string, latencyMs float64) {
	globalManager.comparisonLatency.WithLabelValues(strategy).Observe(latencyMs)
}

func UpdateEngineQueueDepth(depth int) {
	globalManager.engineQueueDepth.Set(float64(depth))
}

// Event bus helpers.

func RecordEventPublished(kind string) {
	globalManager.eventsPublished.WithLabelValues(kind).Inc()
}

func RecordHandlerPanic(kind string) {
	globalManager.handlerPanics.WithLabelValues(kind).Inc()
}

// Storage helpers.

func RecordSlideStored() {
	globalManager.slidesStored.Inc()
}

func RecordStorageError() {
	globalManager.storageErrors.Inc()
}

func RecordStoreLatency(latencyMs float64) {
	globalManager.storeLatency.Observe(latencyMs)
}

// Session helpers.

func UpdateSessionsActive(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// Process health helpers.

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry serving /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
