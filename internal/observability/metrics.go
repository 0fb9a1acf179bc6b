// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the indexer.
type Metrics struct {
	// Ingestion metrics
	PagesFetched       prometheus.Counter
	RawTxStored        prometheus.Counter
	WalletEventsStored prometheus.Counter
	ProviderCalls      *prometheus.CounterVec
	ProviderRetries    prometheus.Counter
	ProviderLatency    prometheus.Histogram

	// Reconciliation metrics
	ReconcileRuns     *prometheus.CounterVec
	ReconcileRepaired prometheus.Counter

	// Oracle metrics
	CandleCacheHits   prometheus.Counter
	CandleCacheMisses prometheus.Counter
	OracleCalls       *prometheus.CounterVec

	// Metadata metrics
	MetaResolved *prometheus.CounterVec

	// Position metrics
	ReconstructionRuns    prometheus.Counter
	ReconstructionLatency prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "fade_indexer"
	}

	return &Metrics{
		PagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "pages_fetched_total",
			Help:      "Total number of provider pages fetched",
		}),
		RawTxStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "raw_transactions_stored_total",
			Help:      "Total number of raw transactions upserted",
		}),
		WalletEventsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "wallet_events_stored_total",
			Help:      "Total number of wallet events upserted",
		}),
		ProviderCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Total number of provider calls by status",
		}, []string{"status"}),
		ProviderRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "retries_total",
			Help:      "Total number of provider call retries",
		}),
		ProviderLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_latency_seconds",
			Help:      "Provider call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		ReconcileRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Total number of reconciliation runs by outcome",
		}, []string{"outcome"}),
		ReconcileRepaired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "signatures_repaired_total",
			Help:      "Total number of missing signatures re-ingested",
		}),

		CandleCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "candle_cache_hits_total",
			Help:      "Total number of candle windows served from the store",
		}),
		CandleCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "candle_cache_misses_total",
			Help:      "Total number of candle windows fetched upstream",
		}),
		OracleCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "calls_total",
			Help:      "Total number of oracle calls by provider and status",
		}, []string{"provider", "status"}),

		MetaResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tokenmeta",
			Name:      "resolved_total",
			Help:      "Total number of mints resolved by source",
		}, []string{"source"}),

		ReconstructionRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "reconstruction_runs_total",
			Help:      "Total number of position reconstruction runs",
		}),
		ReconstructionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "reconstruction_latency_seconds",
			Help:      "Position reconstruction latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPageFetched increments the pages fetched counter.
func RecordPageFetched() {
	DefaultMetrics.PagesFetched.Inc()
}

// RecordRawStored adds to the raw transactions stored counter.
func RecordRawStored(n int) {
	DefaultMetrics.RawTxStored.Add(float64(n))
}

// RecordEventsStored adds to the wallet events stored counter.
func RecordEventsStored(n int) {
	DefaultMetrics.WalletEventsStored.Add(float64(n))
}

// RecordProviderCall records one provider call with latency and outcome.
func RecordProviderCall(seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.ProviderCalls.WithLabelValues(status).Inc()
	DefaultMetrics.ProviderLatency.Observe(seconds)
}

// RecordProviderRetry increments the provider retries counter.
func RecordProviderRetry() {
	DefaultMetrics.ProviderRetries.Inc()
}

// RecordReconcileRun records one reconciliation run outcome.
func RecordReconcileRun(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "mismatch"
	}
	DefaultMetrics.ReconcileRuns.WithLabelValues(outcome).Inc()
}

// RecordReconcileRepaired adds to the repaired signatures counter.
func RecordReconcileRepaired(n int) {
	DefaultMetrics.ReconcileRepaired.Add(float64(n))
}

// RecordCandleCache records a candle window lookup outcome.
func RecordCandleCache(hit bool) {
	if hit {
		DefaultMetrics.CandleCacheHits.Inc()
	} else {
		DefaultMetrics.CandleCacheMisses.Inc()
	}
}

// RecordOracleCall records one upstream oracle call.
func RecordOracleCall(provider string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.OracleCalls.WithLabelValues(provider, status).Inc()
}

// RecordMetaResolved adds resolved mints for a source.
func RecordMetaResolved(source string, n int) {
	DefaultMetrics.MetaResolved.WithLabelValues(source).Add(float64(n))
}

// RecordReconstruction records one reconstruction run with latency.
func RecordReconstruction(seconds float64) {
	DefaultMetrics.ReconstructionRuns.Inc()
	DefaultMetrics.ReconstructionLatency.Observe(seconds)
}
