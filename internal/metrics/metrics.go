package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracks the number of outbound calls per provider endpoint.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketdata_upstream_requests_total",
			Help: "Total number of upstream API requests (by provider, endpoint and status).",
		},
		[]string{"provider", "endpoint", "status"},
	)

	// Measures duration of upstream requests.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketdata_upstream_request_duration_seconds",
			Help:    "Duration of upstream API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms → ~10s
		},
		[]string{"provider", "endpoint"},
	)

	// Tracks response cache hits and misses.
	CacheAccessTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketdata_cache_access_total",
			Help: "Number of response cache hits/misses.",
		},
		[]string{"backend", "result"}, // hit | miss | error
	)

	// Tracks reconcile runs.
	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketdata_reconcile_runs_total",
			Help: "Number of catalog reconciliations by result.",
		},
		[]string{"result"}, // ok | error
	)

	ReconciledCoins = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketdata_reconciled_coins",
			Help: "Number of coins in the last reconciled catalog.",
		},
	)

	NATSMessageCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketdata_nats_messages_total",
			Help: "Total number of NATS messages published.",
		},
		[]string{"subject", "result"},
	)

	NATSMessageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketdata_nats_message_latency_seconds",
			Help:    "Time taken to publish NATS messages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"subject"},
	)

	// Tracks total errors (aggregated).
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketdata_errors_total",
			Help: "Count of errors by component.",
		},
		[]string{"component", "reason"},
	)

	// Gauges the last successful catalog refresh (seconds since epoch).
	LastRefreshTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketdata_last_catalog_refresh_timestamp",
			Help: "Timestamp (unix seconds) of the last successful catalog refresh.",
		},
	)
)

// ObserveDuration records the time taken since start on the given histogram.
func ObserveDuration(h *prometheus.HistogramVec, start time.Time, labels ...string) {
	h.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
}

func IncUpstreamRequest(provider, endpoint, status string) {
	UpstreamRequestsTotal.WithLabelValues(provider, endpoint, status).Inc()
}

func IncCache(backend, result string) {
	CacheAccessTotal.WithLabelValues(backend, result).Inc()
}

func IncReconcile(result string) {
	ReconcileRunsTotal.WithLabelValues(result).Inc()
}

func IncNATSMessage(subject, result string) {
	NATSMessageCount.WithLabelValues(subject, result).Inc()
}

func IncError(component, reason string) {
	ErrorsTotal.WithLabelValues(component, reason).Inc()
}

func SetLastRefresh(t time.Time) {
	LastRefreshTimestamp.Set(float64(t.Unix()))
}
