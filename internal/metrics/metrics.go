// Package metrics defines Prometheus metrics for the ingestion pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propfair_ingest_records_total",
			Help: "Ingested records by outcome",
		},
		[]string{"outcome"},
	)

	DroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propfair_ingest_dropped_total",
			Help: "Dropped records by reason",
		},
		[]string{"reason"},
	)

	PriceChangesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "propfair_price_changes_total",
			Help: "Detected listing price changes",
		},
	)

	RecordDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "propfair_ingest_record_duration_seconds",
			Help:    "Per-record ingestion duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		RecordsTotal, DroppedTotal, PriceChangesTotal, RecordDuration,
	)
}
