package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BlobMetrics provides observability for blob store operations.
//
// The interface is satisfied by the Prometheus implementation returned from
// NewBlobMetrics and by a zero-overhead no-op used when metrics are disabled.
type BlobMetrics interface {
	// ObserveOperation records a completed blob store operation with its
	// name, duration, and outcome.
	ObserveOperation(operation string, duration time.Duration, err error)

	// RecordBytes records bytes moved through the store. Direction is
	// "read" or "write".
	RecordBytes(direction string, bytes int64)
}

// blobMetrics is the Prometheus implementation of BlobMetrics.
type blobMetrics struct {
	storeType         string
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
}

// NewBlobMetrics creates a Prometheus-backed BlobMetrics instance.
//
// storeType distinguishes metrics from different blob store implementations
// (e.g. "filesystem", "s3"). Returns a no-op implementation when metrics are
// not enabled.
func NewBlobMetrics(storeType string) BlobMetrics {
	if !IsEnabled() {
		return noopBlobMetrics{}
	}

	reg := GetRegistry()

	return &blobMetrics{
		storeType: storeType,
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodrive_blob_operations_total",
				Help: "Total number of blob store operations by store type, operation, and status",
			},
			[]string{"store_type", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittodrive_blob_operation_duration_seconds",
				Help: "Duration of blob store operations in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.005, // 5ms
					0.01,  // 10ms
					0.025, // 25ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.25,  // 250ms
					0.5,   // 500ms
					1.0,   // 1s
					2.5,   // 2.5s
					5.0,   // 5s
					10.0,  // 10s
				},
			},
			[]string{"store_type", "operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodrive_blob_bytes_transferred_total",
				Help: "Total bytes moved through the blob store by direction",
			},
			[]string{"store_type", "direction"},
		),
		errorsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodrive_blob_errors_total",
				Help: "Total number of blob store operation errors by operation",
			},
			[]string{"store_type", "operation"},
		),
	}
}

func (m *blobMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
		m.errorsTotal.WithLabelValues(m.storeType, operation).Inc()
	}

	m.operationsTotal.WithLabelValues(m.storeType, operation, status).Inc()
	m.operationDuration.WithLabelValues(m.storeType, operation).Observe(duration.Seconds())
}

func (m *blobMetrics) RecordBytes(direction string, bytes int64) {
	m.bytesTransferred.WithLabelValues(m.storeType, direction).Add(float64(bytes))
}

// noopBlobMetrics is a no-op implementation with zero overhead.
type noopBlobMetrics struct{}

func (noopBlobMetrics) ObserveOperation(operation string, duration time.Duration, err error) {}
func (noopBlobMetrics) RecordBytes(direction string, bytes int64)                            {}
