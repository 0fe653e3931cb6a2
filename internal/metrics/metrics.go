package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Anomaly kinds recorded when a single record is recovered locally during an analysis
const (
	AnomalyUnparseableCurrency = "unparseable_currency"
	AnomalyUnparseableDate     = "unparseable_date"
	AnomalyMissingCostPlan     = "missing_cost_plan"
)

var (
	// RecordAnomalies counts single-record anomalies that were recovered instead of failing a batch.
	RecordAnomalies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "margem",
		Name:      "record_anomalies_total",
		Help:      "Records recovered with a fallback value during computations, by kind.",
	}, []string{"kind"})

	// ProfitAnalysisDuration tracks full pipeline latency per view mode.
	ProfitAnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "margem",
		Subsystem: "profit",
		Name:      "analysis_duration_seconds",
		Help:      "Duration of a profitability analysis (snapshot load, revenue, allocation, aggregation).",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"view_mode"})

	// ProfitAnalysisContracts observes the size of the allocation set.
	ProfitAnalysisContracts = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "margem",
		Subsystem: "profit",
		Name:      "analysis_contracts",
		Help:      "Number of contracts in the allocation set of an analysis.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	// AdjustmentsTotal counts adjustment creation attempts by outcome.
	AdjustmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "margem",
		Subsystem: "ledger",
		Name:      "adjustments_total",
		Help:      "Adjustment creation attempts by outcome (created, locked, rejected, failed).",
	}, []string{"outcome"})

	// ReportsGenerated counts exported reports by format.
	ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "margem",
		Subsystem: "reports",
		Name:      "generated_total",
		Help:      "Profitability reports generated by format.",
	}, []string{"format"})

	// RenewalNotices counts renewal_due events published by the renewal worker.
	RenewalNotices = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "margem",
		Subsystem: "worker",
		Name:      "renewal_notices_total",
		Help:      "Contract renewal notices published.",
	})

	// RenewalRolls counts renewal dates moved forward by the renewal worker.
	RenewalRolls = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "margem",
		Subsystem: "worker",
		Name:      "renewal_rolls_total",
		Help:      "Contract renewal dates rolled to the next anniversary.",
	})

	// LiveConnections tracks open websocket connections across all workspaces.
	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "margem",
		Subsystem: "live",
		Name:      "connections",
		Help:      "Open websocket connections.",
	})

	// LiveDeliveries counts per-connection event deliveries by event type and outcome (sent, dropped).
	LiveDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "margem",
		Subsystem: "live",
		Name:      "deliveries_total",
		Help:      "Websocket event deliveries by event type and outcome.",
	}, []string{"event", "outcome"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "margem",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration observed at the API layer.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "route", "status"})

	httpRequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "margem",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled by the API.",
	}, []string{"method", "route", "status"})
)

// RecordAnomaly increments the anomaly counter for kind
func RecordAnomaly(kind string) {
	RecordAnomalies.WithLabelValues(kind).Inc()
}

// ObserveAnalysis records one completed profitability analysis
func ObserveAnalysis(viewMode string, contracts int, elapsed time.Duration) {
	ProfitAnalysisDuration.WithLabelValues(viewMode).Observe(elapsed.Seconds())
	ProfitAnalysisContracts.Observe(float64(contracts))
}

// RecordHTTPRequest records one served request. route is the echo route pattern, not the raw path.
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	code := strconv.Itoa(status)
	httpRequestDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
	httpRequestTotal.WithLabelValues(method, route, code).Inc()
}

// RecordDelivery records the outcome of sending one event to one connection
func RecordDelivery(eventType string, delivered bool) {
	outcome := "sent"
	if !delivered {
		outcome = "dropped"
	}
	LiveDeliveries.WithLabelValues(eventType, outcome).Inc()
}
