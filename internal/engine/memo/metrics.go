package memo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lookupsTotal counts Get calls by cache and by whether a fresh value was found.
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loom",
		Subsystem: "memo",
		Name:      "lookups_total",
		Help:      "Cache lookups by cache name and result (hit, miss)",
	}, []string{"cache", "result"})

	// computationsTotal counts factory invocations by cache and outcome.
	computationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loom",
		Subsystem: "memo",
		Name:      "computations_total",
		Help:      "Factory invocations by cache name and outcome (ok, error)",
	}, []string{"cache", "outcome"})

	// invalidationsTotal counts entries found stale on lookup.
	invalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loom",
		Subsystem: "memo",
		Name:      "stale_entries_total",
		Help:      "Entries found stale on lookup by cache name",
	}, []string{"cache"})
)
