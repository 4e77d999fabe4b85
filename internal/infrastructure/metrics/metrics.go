package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the settlement core.
type Metrics struct {
	// Conversion metrics
	ConversionsTotal    *prometheus.CounterVec // labels: from, to, convertible
	SnapshotsCreated    prometheus.Counter
	ConversionDuration  prometheus.Histogram
	NonConvertibleTotal prometheus.Counter

	// Rate resolver metrics
	RateFetches   *prometheus.CounterVec // labels: feed, outcome (ok|stale|identity|error)
	RateCacheHits *prometheus.CounterVec // labels: outcome (hit|miss)

	// Entry metrics
	EntriesPosted *prometheus.CounterVec // labels: kind
	EntryErrors   *prometheus.CounterVec // labels: reason

	// Reconciliation metrics
	ReconcileRuns      *prometheus.CounterVec // labels: mode (dry_run|apply)
	DiscrepanciesFound prometheus.Counter
	FixesApplied       prometheus.Counter
	FixConflicts       prometheus.Counter
	ReconcileDuration  prometheus.Histogram

	// Consolidation metrics
	ConsolidationRuns     prometheus.Counter
	ConsolidationDuration prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ConversionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "settlecore_conversions_total",
			Help: "Total number of currency conversions",
		}, []string{"from", "to", "convertible"}),
		SnapshotsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "settlecore_conversion_snapshots_created_total",
			Help: "Total number of conversion snapshots persisted",
		}),
		ConversionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "settlecore_conversion_duration_seconds",
			Help:    "Duration of conversion operations including rate resolution",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		NonConvertibleTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "settlecore_non_convertible_total",
			Help: "Total number of conversions that passed through unconverted",
		}),

		RateFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "settlecore_rate_fetches_total",
			Help: "Total number of rate feed fetches by outcome",
		}, []string{"feed", "outcome"}),
		RateCacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "settlecore_rate_cache_total",
			Help: "Rate cache lookups by outcome",
		}, []string{"outcome"}),

		EntriesPosted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "settlecore_ledger_entries_posted_total",
			Help: "Total number of ledger entries posted by kind",
		}, []string{"kind"}),
		EntryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "settlecore_ledger_entry_errors_total",
			Help: "Total number of rejected entry posts by reason",
		}, []string{"reason"}),

		ReconcileRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "settlecore_reconcile_runs_total",
			Help: "Total number of reconciliation runs by mode",
		}, []string{"mode"}),
		DiscrepanciesFound: promauto.NewCounter(prometheus.CounterOpts{
			Name: "settlecore_discrepancies_found_total",
			Help: "Total number of accounts flagged beyond tolerance",
		}),
		FixesApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "settlecore_fixes_applied_total",
			Help: "Total number of stored-balance corrections written",
		}),
		FixConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "settlecore_fix_conflicts_total",
			Help: "Total number of fixes aborted by a newer ledger entry",
		}),
		ReconcileDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "settlecore_reconcile_duration_seconds",
			Help:    "Duration of project reconciliation runs",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
		}),

		ConsolidationRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "settlecore_consolidation_runs_total",
			Help: "Total number of consolidation reports computed",
		}),
		ConsolidationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "settlecore_consolidation_duration_seconds",
			Help:    "Duration of consolidation report computation",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10},
		}),
	}
}
