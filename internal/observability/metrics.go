package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// volume transform pipeline.
type Metrics struct {
	VolumesWritten prometheus.Counter
	VolumesSkipped prometheus.Counter
	VolumesFailed  prometheus.Counter

	FieldNormalizeErrors prometheus.Counter
	ReferenceFallbacks   prometheus.Counter
	ArchivesExtracted    prometheus.Counter

	TransformDuration prometheus.Histogram
	PipelineRunning   prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		VolumesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_etl",
			Name:      "volumes_written_total",
			Help:      "Total output volumes written.",
		}),
		VolumesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_etl",
			Name:      "volumes_skipped_total",
			Help:      "Total volumes skipped because the output already exists.",
		}),
		VolumesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_etl",
			Name:      "volumes_failed_total",
			Help:      "Total volumes that failed to transform or write.",
		}),
		FieldNormalizeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_etl",
			Name:      "field_normalize_errors_total",
			Help:      "Total per-field normalization failures (non-fatal).",
		}),
		ReferenceFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_etl",
			Name:      "reference_fallbacks_total",
			Help:      "Total level-1a reference lookups that used the fixed fallback file.",
		}),
		ArchivesExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radar_etl",
			Name:      "archives_extracted_total",
			Help:      "Total zip batches extracted.",
		}),
		TransformDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "radar_etl",
			Name:      "transform_duration_seconds",
			Help:      "Duration of one read-transform-write cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radar_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
	}

	prometheus.MustRegister(
		m.VolumesWritten,
		m.VolumesSkipped,
		m.VolumesFailed,
		m.FieldNormalizeErrors,
		m.ReferenceFallbacks,
		m.ArchivesExtracted,
		m.TransformDuration,
		m.PipelineRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		VolumesWritten:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "radar_etl", Name: "volumes_written_total"}),
		VolumesSkipped:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "radar_etl", Name: "volumes_skipped_total"}),
		VolumesFailed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "radar_etl", Name: "volumes_failed_total"}),
		FieldNormalizeErrors: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "radar_etl", Name: "field_normalize_errors_total"}),
		ReferenceFallbacks:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "radar_etl", Name: "reference_fallbacks_total"}),
		ArchivesExtracted:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "radar_etl", Name: "archives_extracted_total"}),
		TransformDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "radar_etl", Name: "transform_duration_seconds"}),
		PipelineRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "radar_etl", Name: "pipeline_running"}),
	}
}
