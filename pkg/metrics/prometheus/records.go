package prometheus

import (
	"sync"

	"github.com/marmos91/dittoreg/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// recordMetrics is the Prometheus implementation of metrics.RecordMetrics.
type recordMetrics struct {
	operationsTotal *prometheus.CounterVec
	nextID          prometheus.Gauge
}

var (
	globalRecordMetrics     metrics.RecordMetrics
	globalRecordMetricsOnce sync.Once
)

// NewRecordMetrics returns the Prometheus-backed RecordMetrics registered on
// the global registry. Collectors are registered once; later calls return
// the same instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewRecordMetrics() metrics.RecordMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopRecordMetrics()
	}
	globalRecordMetricsOnce.Do(func() {
		globalRecordMetrics = NewRecordMetricsWith(metrics.GetRegistry())
	})
	return globalRecordMetrics
}

// NewRecordMetricsWith creates a Prometheus-backed RecordMetrics registered
// on reg.
func NewRecordMetricsWith(reg prometheus.Registerer) metrics.RecordMetrics {
	return &recordMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoreg_operations_total",
				Help: "Total number of registry operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		nextID: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittoreg_next_record_id",
				Help: "Next identifier the allocator will hand out",
			},
		),
	}
}

func (m *recordMetrics) RecordOperation(operation string, outcome metrics.Outcome) {
	m.operationsTotal.WithLabelValues(operation, string(outcome)).Inc()
}

func (m *recordMetrics) SetNextID(next uint64) {
	m.nextID.Set(float64(next))
}
