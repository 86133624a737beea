package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SweepMetrics provides observability for reconciliation sweeps.
type SweepMetrics interface {
	// RecordSweep records a completed reconciliation sweep.
	RecordSweep(orphansDeleted, orphansFailed, dangling uint64, duration time.Duration, err error)
}

// sweepMetrics is the Prometheus implementation of SweepMetrics.
type sweepMetrics struct {
	sweepsTotal    *prometheus.CounterVec
	sweepDuration  prometheus.Histogram
	orphansDeleted prometheus.Counter
	orphansFailed  prometheus.Counter
	danglingSeen   prometheus.Gauge
}

// NewSweepMetrics creates a Prometheus-backed SweepMetrics instance, or a
// no-op when metrics are not enabled.
func NewSweepMetrics() SweepMetrics {
	if !IsEnabled() {
		return noopSweepMetrics{}
	}

	reg := GetRegistry()

	return &sweepMetrics{
		sweepsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodrive_gc_sweeps_total",
				Help: "Total number of reconciliation sweeps by status",
			},
			[]string{"status"},
		),
		sweepDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "dittodrive_gc_sweep_duration_seconds",
				Help: "Duration of reconciliation sweeps in seconds",
				Buckets: []float64{
					0.1,   // 100ms
					0.5,   // 500ms
					1.0,   // 1s
					5.0,   // 5s
					15.0,  // 15s
					60.0,  // 1min
					300.0, // 5min
					600.0, // 10min
				},
			},
		),
		orphansDeleted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittodrive_gc_orphaned_blobs_deleted_total",
				Help: "Total number of orphaned blobs deleted by reconciliation",
			},
		),
		orphansFailed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittodrive_gc_orphaned_blob_failures_total",
				Help: "Total number of orphaned blob deletions that failed",
			},
		),
		danglingSeen: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittodrive_gc_dangling_records",
				Help: "Records referencing a missing blob, as of the last sweep",
			},
		),
	}
}

func (m *sweepMetrics) RecordSweep(orphansDeleted, orphansFailed, dangling uint64, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.sweepsTotal.WithLabelValues(status).Inc()
	m.sweepDuration.Observe(duration.Seconds())
	m.orphansDeleted.Add(float64(orphansDeleted))
	m.orphansFailed.Add(float64(orphansFailed))
	m.danglingSeen.Set(float64(dangling))
}

// noopSweepMetrics is a no-op implementation with zero overhead.
type noopSweepMetrics struct{}

func (noopSweepMetrics) RecordSweep(orphansDeleted, orphansFailed, dangling uint64, duration time.Duration, err error) {
}
