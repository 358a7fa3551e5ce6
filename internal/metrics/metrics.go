package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingest carries the loader's prometheus instruments. Labels: stage is the
// run-log package name; outcome matches the run-log counters.
type Ingest struct {
	FilesProcessed *prometheus.CounterVec
	Rows           *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
}

// New registers the ingest instruments on reg.
func New(reg *prometheus.Registry) *Ingest {
	factory := promauto.With(reg)
	return &Ingest{
		FilesProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunelake_files_processed_total",
				Help: "Source files processed, by stage and commit status",
			},
			[]string{"stage", "status"},
		),
		Rows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunelake_rows_total",
				Help: "Row outcomes by stage: extracted, loaded or rejected",
			},
			[]string{"stage", "outcome"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tunelake_stage_duration_seconds",
				Help:    "Duration of each pipeline stage",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"stage"},
		),
	}
}

// ObserveCounts records one stage's reduced row counts.
func (m *Ingest) ObserveCounts(stage string, extracted, loaded, rejected int64) {
	if m == nil {
		return
	}
	m.Rows.WithLabelValues(stage, "extracted").Add(float64(extracted))
	m.Rows.WithLabelValues(stage, "loaded").Add(float64(loaded))
	m.Rows.WithLabelValues(stage, "rejected").Add(float64(rejected))
}

// ObserveFile records one processed file.
func (m *Ingest) ObserveFile(stage, status string) {
	if m == nil {
		return
	}
	m.FilesProcessed.WithLabelValues(stage, status).Inc()
}

// ObserveDuration records one stage's wall time in seconds.
func (m *Ingest) ObserveDuration(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}
