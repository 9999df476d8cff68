// Package metrics records run metrics on a private registry and pushes them
// to a Prometheus Pushgateway at the end of a batch run.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder groups the run metrics. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	registry *prometheus.Registry

	// FilesProcessed counts export files by outcome ("ok", "warning", "failed").
	FilesProcessed *prometheus.CounterVec

	// RowsParsed counts data rows read from exports.
	RowsParsed prometheus.Counter

	// ValuesDefaulted counts numeric tokens that failed to parse.
	ValuesDefaulted prometheus.Counter

	// Forecasts counts forecasts by scope ("global", "category") and status.
	Forecasts *prometheus.CounterVec

	// HistoryMonths is the number of distinct months in the global series.
	HistoryMonths prometheus.Gauge

	// FileDuration tracks per-file processing time.
	FileDuration prometheus.Histogram
}

// NewRecorder registers the run metrics on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		FilesProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contas_files_processed_total",
				Help: "Export files processed, by outcome",
			},
			[]string{"status"},
		),
		RowsParsed: factory.NewCounter(prometheus.CounterOpts{
			Name: "contas_rows_parsed_total",
			Help: "Data rows read from export files",
		}),
		ValuesDefaulted: factory.NewCounter(prometheus.CounterOpts{
			Name: "contas_values_defaulted_total",
			Help: "Numeric values that failed to parse and counted as zero",
		}),
		Forecasts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contas_forecasts_total",
				Help: "Forecasts computed, by scope and status",
			},
			[]string{"scope", "status"},
		),
		HistoryMonths: factory.NewGauge(prometheus.GaugeOpts{
			Name: "contas_history_months",
			Help: "Distinct months in the global history series",
		}),
		FileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "contas_file_duration_seconds",
			Help:    "Export file processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// FileProcessed records one processed file.
func (r *Recorder) FileProcessed(status string, rows, defaulted int, took time.Duration) {
	if r == nil {
		return
	}
	r.FilesProcessed.WithLabelValues(status).Inc()
	r.RowsParsed.Add(float64(rows))
	r.ValuesDefaulted.Add(float64(defaulted))
	r.FileDuration.Observe(took.Seconds())
}

// Forecast records one forecast outcome.
func (r *Recorder) Forecast(scope, status string) {
	if r == nil {
		return
	}
	r.Forecasts.WithLabelValues(scope, status).Inc()
}

// SetHistoryMonths records the length of the global series.
func (r *Recorder) SetHistoryMonths(n int) {
	if r == nil {
		return
	}
	r.HistoryMonths.Set(float64(n))
}

// Push sends every metric to the Pushgateway at url under job, grouped by
// runID. An empty url is a no-op.
func (r *Recorder) Push(ctx context.Context, url, job, runID string) error {
	if r == nil || url == "" {
		return nil
	}
	return push.New(url, job).
		Gatherer(r.registry).
		Grouping("run_id", runID).
		PushContext(ctx)
}
