package batch

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
)

// Metrics collects per-file outcomes of a run into its own registry, so that
// several runs in one process never share counters.
type Metrics struct {
	registry *prometheus.Registry

	filesProcessed *prometheus.CounterVec
	fileDuration   prometheus.Histogram
	thresholds     prometheus.Histogram
	changePoints   prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ncd_files_processed_total",
				Help: "Series files analyzed, by outcome status",
			},
			[]string{"status", "reason"},
		),
		fileDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ncd_file_duration_seconds",
				Help:    "Wall time of the per-file pipeline",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		thresholds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ncd_thresholds_per_file",
				Help:    "SOH thresholds crossed per successfully analyzed file",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		changePoints: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ncd_soh_change_points_total",
				Help: "Fade rate change points found across all files",
			},
		),
	}
	m.registry.MustRegister(m.filesProcessed, m.fileDuration, m.thresholds, m.changePoints)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records one finished row. A nil receiver is a no-op.
func (m *Metrics) Observe(row *model.ResultRow, elapsed time.Duration) {
	if m == nil || row == nil {
		return
	}
	m.filesProcessed.With(prometheus.Labels{
		"status": string(row.Status),
		"reason": row.Reason,
	}).Inc()
	m.fileDuration.Observe(elapsed.Seconds())
	if row.Status == common.StatusOK {
		m.thresholds.Observe(float64(row.Thresholds))
	}
	m.changePoints.Add(float64(row.SOHChangePoints))
}

// WriteTextfile dumps the registry in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(common.ErrLoad, "write metrics %v: %v", path, err)
	}
	return nil
}
