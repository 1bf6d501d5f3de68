package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRuns counts ingestion runs by source and outcome (ok/error).
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_sync_runs_total",
		Help: "Number of ingestion runs",
	}, []string{"source", "outcome"})

	// ItemsCreated counts work items persisted per source.
	ItemsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_items_created_total",
		Help: "Number of work items created",
	}, []string{"source"})

	// ItemsSkipped counts messages skipped as duplicates per source.
	ItemsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_items_skipped_total",
		Help: "Number of duplicate messages skipped",
	}, []string{"source"})

	// ItemErrors counts per-message processing failures per source.
	ItemErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_item_errors_total",
		Help: "Number of per-message processing errors",
	}, []string{"source"})

	// CacheHits counts listing queries served from the query cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triage_query_cache_hits_total",
		Help: "Number of listing queries served from cache",
	})

	// CacheMisses counts listing queries that fell through to storage.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triage_query_cache_misses_total",
		Help: "Number of listing queries that hit storage",
	})
)
