// Package metrics exposes the daemon's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ItemsIngested counts persisted catalog items by type
	ItemsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogo_items_ingested_total",
		Help: "Total number of catalog items ingested, by item type",
	}, []string{"item_type"})

	// IngestRuns counts ingestion runs by source type and outcome
	IngestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalogo_ingest_runs_total",
		Help: "Total number of ingestion runs, by source type and result",
	}, []string{"source_type", "result"})

	// IngestDuration observes how long a full ingestion run takes
	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalogo_ingest_duration_seconds",
		Help:    "Duration of ingestion runs in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// PlaylistsTracked gauges the number of playlists currently stored
	PlaylistsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalogo_playlists_tracked",
		Help: "Number of playlists currently tracked",
	})
)

// RecordIngestResult increments the run counter for a source type
func RecordIngestResult(sourceType, result string) {
	IngestRuns.WithLabelValues(sourceType, result).Inc()
}

// RecordItemsIngested adds to the per-type item counter
func RecordItemsIngested(itemType string, count int) {
	ItemsIngested.WithLabelValues(itemType).Add(float64(count))
}
