package config

import (
	"github.com/marmos91/dittoreg/pkg/metrics"
	promMetrics "github.com/marmos91/dittoreg/pkg/metrics/prometheus"
)

// InitializeMetrics creates the registry metrics collector based on configuration.
//
// If metrics are enabled in the configuration the global Prometheus registry
// is initialized and a Prometheus-backed collector is returned. Otherwise a
// no-op implementation is returned (zero overhead).
func InitializeMetrics(cfg *Config) metrics.RecordMetrics {
	if !cfg.Metrics.Enabled {
		return metrics.NewNoopRecordMetrics()
	}

	// Initialize global Prometheus registry
	metrics.InitRegistry()

	return promMetrics.NewRecordMetrics()
}
