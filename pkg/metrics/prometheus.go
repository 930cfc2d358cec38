// Package metrics provides Prometheus metrics for the tokenrain game service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the tokenrain service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline metrics - event flow from transport to spawn
	eventsSeen       prometheus.Counter
	eventsDuplicate  prometheus.Counter
	eventsSampledOut prometheus.Counter
	eventsDropped    prometheus.Counter

	// Gameplay metrics
	tokensSpawned    *prometheus.CounterVec
	tapsScored       prometheus.Counter
	hazardsDetonated prometheus.Counter
	missesTotal      prometheus.Counter
	sessionsStarted  prometheus.Counter
	sessionsEnded    *prometheus.CounterVec
	finalScore       prometheus.Histogram

	// Operational health metrics
	activeTokens  prometheus.Gauge
	queueSize     prometheus.Gauge
	sessionStatus prometheus.Gauge

	// Transport metrics
	transportErrors   prometheus.Counter
	transportReadLag  prometheus.Histogram
	transportMessages prometheus.Counter

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tokenrain",
		subsystem:        "game",
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

	m.eventsSeen = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_seen_total",
		Help:      "Total transfer notifications that reached the deduplicator",
	})
	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Total redelivered notifications dropped by the deduplicator",
	})
	m.eventsSampledOut = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_sampled_out_total",
		Help:      "Total deduplicated events thinned away by the difficulty sampler",
	})
	m.eventsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_dropped_total",
		Help:      "Total events shed because the intake queue was full",
	})

	m.tokensSpawned = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tokens_spawned_total",
		Help:      "Total tokens spawned, by kind",
	}, []string{"kind"})
	m.tapsScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "taps_scored_total",
		Help:      "Total favorable tokens tapped in time",
	})
	m.hazardsDetonated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hazards_detonated_total",
		Help:      "Total hazard taps, each one ending a session",
	})
	m.missesTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "misses_total",
		Help:      "Total favorable tokens whose deadline elapsed untapped",
	})
	m.sessionsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_started_total",
		Help:      "Total game sessions started",
	})
	m.sessionsEnded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_ended_total",
		Help:      "Total game sessions ended, by cause",
	}, []string{"cause"})
	m.finalScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "final_score",
		Help:      "Distribution of final scores at game over",
		Buckets:   []float64{0, 5, 10, 25, 50, 100, 200, 500},
	})

	m.activeTokens = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_tokens",
		Help:      "Tokens currently in flight",
	})
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the raw event intake queue",
	})
	m.sessionStatus = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_status",
		Help:      "Current session status: 0 idle, 1 playing, 2 game over",
	})

	m.transportErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "transport_errors_total",
		Help:      "Total chain subscription errors (connect, read, decode)",
	})
	m.transportReadLag = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "transport_read_lag_milliseconds",
		Help:      "Gap between successive shred receipts from the feed",
		Buckets:   m.histogramBuckets,
	})
	m.transportMessages = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "transport_messages_total",
		Help:      "Total shred notifications received from the feed",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint, method, and status",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration by endpoint, method, and status",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// Package-level recording helpers backed by the global manager.

func RecordEventSeen()       { globalManager.eventsSeen.Inc() }
func RecordEventDuplicate()  { globalManager.eventsDuplicate.Inc() }
func RecordEventSampledOut() { globalManager.eventsSampledOut.Inc() }
func RecordEventDropped()    { globalManager.eventsDropped.Inc() }

func RecordTokenSpawned(kind string) { globalManager.tokensSpawned.WithLabelValues(kind).Inc() }
func RecordTapScored()               { globalManager.tapsScored.Inc() }
func RecordHazardDetonated()         { globalManager.hazardsDetonated.Inc() }
func RecordMiss()                    { globalManager.missesTotal.Inc() }
func RecordSessionStarted()          { globalManager.sessionsStarted.Inc() }

// RecordSessionEnded records a finished session and its final score.
// cause is "detonated", "miss_limit", or "reset".
func RecordSessionEnded(cause string, finalScore int) {
	globalManager.sessionsEnded.WithLabelValues(cause).Inc()
	globalManager.finalScore.Observe(float64(finalScore))
}

func UpdateActiveTokens(count int)    { globalManager.activeTokens.Set(float64(count)) }
func UpdateQueueSize(size int)        { globalManager.queueSize.Set(float64(size)) }
func UpdateSessionStatus(status int)  { globalManager.sessionStatus.Set(float64(status)) }
func RecordTransportError()           { globalManager.transportErrors.Inc() }
func RecordTransportMessage()         { globalManager.transportMessages.Inc() }
func RecordTransportReadLag(ms float64) { globalManager.transportReadLag.Observe(ms) }

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry exposes the custom registry for the exposition handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
