package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "robotcode_parsing_seconds",
		Help:    "Time spent parsing a Robot Framework document.",
		Buckets: prometheus.DefBuckets,
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "robotcode_analysis_seconds",
		Help:    "Time spent building a document namespace.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	DocumentsAnalyzed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "robotcode_documents_analyzed_total",
		Help: "Total number of completed document analysis passes.",
	})

	VariableDefinitions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "robotcode_variable_definitions_total",
		Help: "Number of variable definitions in the current workspace.",
	})

	ImportEntities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "robotcode_import_entities_total",
		Help: "Number of import entities in the current workspace.",
	})

	ResolverLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "robotcode_resolver_lookups_total",
		Help: "Variable lookups partitioned by outcome.",
	}, []string{"outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "robotcode_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	ReferenceCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "robotcode_reference_cache_hits_total",
		Help: "Total number of reference queries served from the cache.",
	})

	ReferenceCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "robotcode_reference_cache_misses_total",
		Help: "Total number of reference queries computed from scratch.",
	})
)
