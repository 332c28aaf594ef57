// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Wallet outcomes used as the "outcome" label.
const (
	OutcomeFetched  = "fetched"
	OutcomeCacheHit = "cache_hit"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Profiling metrics
	WalletsProcessed *prometheus.CounterVec
	WalletsSelected  prometheus.Gauge
	ProfileDuration  *prometheus.HistogramVec
	SwapLabelsLoaded prometheus.Gauge

	// Checkpoint metrics
	ManifestWallets prometheus.Gauge
	ManifestFlushes *prometheus.CounterVec
	StorageErrors   *prometheus.CounterVec
	SinkWrites      *prometheus.CounterVec

	// Latency metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with the default registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith creates a new Metrics instance registered with reg.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "stake_wallet_profiler"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Profiling metrics
		WalletsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "profiler",
			Name:      "wallets_processed_total",
			Help:      "Total number of wallets processed by outcome",
		}, []string{"outcome"}),
		WalletsSelected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "profiler",
			Name:      "wallets_selected",
			Help:      "Number of wallets selected for the current run",
		}),
		ProfileDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "profiler",
			Name:      "profile_duration_seconds",
			Help:      "Time to acquire and assemble one wallet profile",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"strategy"}),
		SwapLabelsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "profiler",
			Name:      "swap_program_labels",
			Help:      "Number of swap program labels loaded for the run",
		}),

		// Checkpoint metrics
		ManifestWallets: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "checkpoint",
			Name:      "manifest_wallets",
			Help:      "Number of wallets recorded in the manifest",
		}),
		ManifestFlushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkpoint",
			Name:      "manifest_flushes_total",
			Help:      "Total number of manifest flushes by status",
		}, []string{"status"}),
		StorageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkpoint",
			Name:      "storage_errors_total",
			Help:      "Total number of best-effort storage failures",
		}, []string{"store", "operation"}),
		SinkWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkpoint",
			Name:      "sink_writes_total",
			Help:      "Total number of post-run sink writes by status",
		}, []string{"sink", "status"}),

		// Latency metrics
		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed RPC calls by method",
		}, []string{"method"}),

		// Run metrics
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "runs_total",
			Help:      "Total number of profiling runs by status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Profiling run duration in seconds",
			Buckets:   []float64{10, 60, 300, 900, 1800, 3600, 7200, 14400},
		}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful profiling run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordWallet counts one wallet under outcome.
func RecordWallet(outcome string) {
	DefaultMetrics.WalletsProcessed.WithLabelValues(outcome).Inc()
}

// SetWalletsSelected sets the selected wallets gauge.
func SetWalletsSelected(n int) {
	DefaultMetrics.WalletsSelected.Set(float64(n))
}

// RecordProfileDuration records the time spent profiling one wallet.
func RecordProfileDuration(strategy string, seconds float64) {
	DefaultMetrics.ProfileDuration.WithLabelValues(strategy).Observe(seconds)
}

// SetSwapLabels sets the number of loaded swap program labels.
func SetSwapLabels(n int) {
	DefaultMetrics.SwapLabelsLoaded.Set(float64(n))
}

// RecordManifestFlush records a manifest flush and the resulting manifest size.
func RecordManifestFlush(wallets int, err error) {
	if err != nil {
		DefaultMetrics.ManifestFlushes.WithLabelValues("error").Inc()
		return
	}
	DefaultMetrics.ManifestFlushes.WithLabelValues("success").Inc()
	DefaultMetrics.ManifestWallets.Set(float64(wallets))
}

// RecordStorageError counts a best-effort storage failure.
func RecordStorageError(store, operation string) {
	DefaultMetrics.StorageErrors.WithLabelValues(store, operation).Inc()
}

// RecordSinkWrite records a post-run sink write.
func RecordSinkWrite(sink string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.SinkWrites.WithLabelValues(sink, status).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordRPCError counts a failed RPC call.
func RecordRPCError(method string) {
	DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordRun records a finished profiling run.
func RecordRun(status string, durationSeconds float64, finishedAt float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RunDuration.Observe(durationSeconds)
	if status == "success" {
		DefaultMetrics.LastSuccessfulRun.Set(finishedAt)
	}
}
