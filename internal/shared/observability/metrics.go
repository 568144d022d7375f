package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blastradius_scan_seconds",
		Help:    "Time spent scanning a source tree.",
		Buckets: prometheus.DefBuckets,
	})

	ScannedFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blastradius_scanned_files",
		Help: "Number of source files included in the last scan.",
	})

	GraphModules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blastradius_graph_modules_total",
		Help: "Total number of modules in the dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blastradius_graph_edges_total",
		Help: "Total number of import edges in the dependency graph.",
	})

	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blastradius_analyses_total",
		Help: "Total number of impact analyses run.",
	}, []string{"outcome"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blastradius_analysis_seconds",
		Help:    "End-to-end time for one impact analysis.",
		Buckets: prometheus.DefBuckets,
	})

	EnrichmentCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blastradius_enrichment_calls_total",
		Help: "Reasoning enricher calls by outcome.",
	}, []string{"outcome"})

	EnrichmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blastradius_enrichment_seconds",
		Help:    "Latency of one reasoning enricher call.",
		Buckets: prometheus.DefBuckets,
	})
)
