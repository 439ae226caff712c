package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for a breakdown run.
type Metrics struct {
	IndexerPages   *prometheus.CounterVec
	IndexerRecords *prometheus.CounterVec
	ChainCalls     *prometheus.CounterVec

	PoolsAttributed        *prometheus.CounterVec
	OwnersAttributed       prometheus.Gauge
	ReconciliationFailures prometheus.Counter
	RunDuration            prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "breakdown"
	}
	factory := promauto.With(reg)

	return &Metrics{
		IndexerPages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indexer_pages_total",
			Help:      "Indexer pages fetched, labeled by query.",
		}, []string{"query"}),
		IndexerRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indexer_records_total",
			Help:      "Indexer records received, labeled by query.",
		}, []string{"query"}),
		ChainCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chain_calls_total",
			Help:      "Contract reads issued, labeled by method.",
		}, []string{"method"}),
		PoolsAttributed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pools_attributed_total",
			Help:      "Pools broken down to owners, labeled by wrapper kind.",
		}, []string{"wrapper"}),
		OwnersAttributed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "owners_attributed",
			Help:      "Owner entries across every pool of the last built tree.",
		}),
		ReconciliationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_failures_total",
			Help:      "Trees rejected by the validator.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time to build a tree.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

// NewNop returns metrics bound to a private registry that nothing exports.
func NewNop() *Metrics {
	return NewMetrics(prometheus.NewRegistry(), "")
}

// WriteFile dumps every metric gathered by g in the text exposition format.
func WriteFile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, g)
}
