// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger metrics
	TradesRecorded  *prometheus.CounterVec
	TradesRejected  *prometheus.CounterVec
	OpenPositions   prometheus.Gauge
	RealizedPnLSOL  prometheus.Gauge

	// Strategy metrics
	StrategyRunsTotal *prometheus.CounterVec
	IntentsProposed   *prometheus.CounterVec
	StrategyDuration  *prometheus.HistogramVec

	// Scheduler metrics
	TaskRunsTotal  *prometheus.CounterVec
	TaskSkipsTotal *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec

	// Market data metrics
	TokensDiscovered  prometheus.Counter
	IndexerCallErrors *prometheus.CounterVec
	OracleErrors      prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRefresh prometheus.Gauge
	WebsocketClients      prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pumpwatch"
	}

	return &Metrics{
		// Ledger metrics
		TradesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "trades_recorded_total",
			Help:      "Total number of trades accepted by the ledger",
		}, []string{"side", "strategy"}),
		TradesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "trades_rejected_total",
			Help:      "Total number of trades rejected by the ledger",
		}, []string{"side", "reason"}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "open_positions",
			Help:      "Current number of open positions",
		}),
		RealizedPnLSOL: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "realized_pnl_sol",
			Help:      "Cumulative realized PnL across all positions in SOL",
		}),

		// Strategy metrics
		StrategyRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "strategy",
			Name:      "runs_total",
			Help:      "Total number of strategy evaluations by status",
		}, []string{"strategy", "status"}),
		IntentsProposed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "strategy",
			Name:      "intents_proposed_total",
			Help:      "Total number of trade intents proposed",
		}, []string{"strategy", "side"}),
		StrategyDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "strategy",
			Name:      "duration_seconds",
			Help:      "Strategy evaluation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy"}),

		// Scheduler metrics
		TaskRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "task_runs_total",
			Help:      "Total number of scheduled task runs by status",
		}, []string{"task", "status"}),
		TaskSkipsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "task_skips_total",
			Help:      "Total number of ticks skipped because the previous run was in flight",
		}, []string{"task"}),
		TaskDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "task_duration_seconds",
			Help:      "Scheduled task duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"task"}),

		// Market data metrics
		TokensDiscovered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "tokens_discovered_total",
			Help:      "Total number of new tokens added to the watch registry",
		}),
		IndexerCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "indexer_call_errors_total",
			Help:      "Total number of failed indexer API calls by operation",
		}, []string{"operation"}),
		OracleErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "oracle_errors_total",
			Help:      "Total number of price lookups with no usable quote",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRefresh: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of the last successful registry refresh",
		}),
		WebsocketClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "websocket_clients",
			Help:      "Number of connected websocket subscribers",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTrade increments the accepted-trade counter.
func RecordTrade(side, strategy string) {
	DefaultMetrics.TradesRecorded.WithLabelValues(side, strategy).Inc()
}

// RecordTradeRejected increments the rejected-trade counter.
func RecordTradeRejected(side, reason string) {
	DefaultMetrics.TradesRejected.WithLabelValues(side, reason).Inc()
}

// RecordStrategyRun records one strategy evaluation.
func RecordStrategyRun(strategy, status string, seconds float64) {
	DefaultMetrics.StrategyRunsTotal.WithLabelValues(strategy, status).Inc()
	DefaultMetrics.StrategyDuration.WithLabelValues(strategy).Observe(seconds)
}

// RecordIntent increments the proposed-intent counter.
func RecordIntent(strategy, side string) {
	DefaultMetrics.IntentsProposed.WithLabelValues(strategy, side).Inc()
}

// RecordTaskRun records one scheduled task run.
func RecordTaskRun(task, status string, seconds float64) {
	DefaultMetrics.TaskRunsTotal.WithLabelValues(task, status).Inc()
	DefaultMetrics.TaskDuration.WithLabelValues(task).Observe(seconds)
}

// RecordTaskSkip increments the skipped-tick counter.
func RecordTaskSkip(task string) {
	DefaultMetrics.TaskSkipsTotal.WithLabelValues(task).Inc()
}

// RecordIndexerError records a failed indexer API call.
func RecordIndexerError(operation string) {
	DefaultMetrics.IndexerCallErrors.WithLabelValues(operation).Inc()
}

// RecordOracleError increments the unusable-quote counter.
func RecordOracleError() {
	DefaultMetrics.OracleErrors.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// UpdateOpenPositions sets the open-position gauge.
func UpdateOpenPositions(count int) {
	DefaultMetrics.OpenPositions.Set(float64(count))
}

// UpdateRealizedPnL sets the realized-PnL gauge.
func UpdateRealizedPnL(sol float64) {
	DefaultMetrics.RealizedPnLSOL.Set(sol)
}

// UpdateWebsocketClients sets the connected-subscriber gauge.
func UpdateWebsocketClients(count int) {
	DefaultMetrics.WebsocketClients.Set(float64(count))
}
