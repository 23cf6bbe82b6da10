package prometheus

import (
	"sync"
	"time"

	"github.com/marmos91/dittoreg/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// snapshotMetrics is the Prometheus implementation of metrics.SnapshotMetrics.
type snapshotMetrics struct {
	transfersTotal   *prometheus.CounterVec
	transferDuration *prometheus.HistogramVec
	bytesTransferred *prometheus.CounterVec
}

var (
	globalSnapshotMetrics     metrics.SnapshotMetrics
	globalSnapshotMetricsOnce sync.Once
)

// NewSnapshotMetrics returns the Prometheus-backed SnapshotMetrics registered
// on the global registry, or a no-op implementation if metrics are disabled.
func NewSnapshotMetrics() metrics.SnapshotMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopSnapshotMetrics()
	}
	globalSnapshotMetricsOnce.Do(func() {
		globalSnapshotMetrics = NewSnapshotMetricsWith(metrics.GetRegistry())
	})
	return globalSnapshotMetrics
}

// NewSnapshotMetricsWith creates a Prometheus-backed SnapshotMetrics
// registered on reg.
func NewSnapshotMetricsWith(reg prometheus.Registerer) metrics.SnapshotMetrics {
	return &snapshotMetrics{
		transfersTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoreg_snapshot_transfers_total",
				Help: "Total number of snapshot transfers by operation, target and status",
			},
			[]string{"operation", "target", "status"},
		),
		transferDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittoreg_snapshot_transfer_duration_seconds",
				Help: "Duration of snapshot transfers in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.01,  // 10ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.5,   // 500ms
					1.0,   // 1s
					5.0,   // 5s
					30.0,  // 30s
				},
			},
			[]string{"operation", "target"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoreg_snapshot_bytes_total",
				Help: "Total snapshot bytes written or read",
			},
			[]string{"operation", "target"},
		),
	}
}

func (m *snapshotMetrics) ObserveTransfer(operation, target string, duration time.Duration, bytes int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.transfersTotal.WithLabelValues(operation, target, status).Inc()
	m.transferDuration.WithLabelValues(operation, target).Observe(duration.Seconds())
	if err == nil {
		m.bytesTransferred.WithLabelValues(operation, target).Add(float64(bytes))
	}
}
