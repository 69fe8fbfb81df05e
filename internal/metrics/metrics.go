// Package metrics provides Prometheus metrics collection for the botboard service.
// It defines and manages all polling, resampling, and dashboard delivery metrics
// that are exposed via the Prometheus metrics endpoint for monitoring and alerting.
//
// The package includes metrics for bot API refresh cycles, equity grid
// resampling, WebSocket pushes, chart rendering, and general system health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the dashboard service.
// It provides counters, gauges, and histograms for comprehensive monitoring
// of bot API polling, grid resampling, and dashboard delivery.
type Metrics struct {
	// Polling metrics
	RefreshesTotal    prometheus.Counter   // Total number of bot API refresh cycles started
	RefreshErrors     prometheus.Counter   // Total number of refresh cycles that failed
	RefreshDuration   prometheus.Histogram // Duration of bot API refresh cycles
	SnapshotTimestamp prometheus.Gauge     // Unix time the last snapshot was applied
	SessionsActive    prometheus.Gauge     // Number of sessions in the last snapshot

	// Resampling metrics
	ResamplesTotal   prometheus.Counter   // Total number of equity grid resamples
	ResampleDuration prometheus.Histogram // Equity grid resample latency in seconds
	GridPointsLast   prometheus.Gauge     // Row count of the most recent equity grid

	// Dashboard delivery metrics
	WindowChanges   prometheus.Counter // Total number of window selector changes
	WSClients       prometheus.Gauge   // Number of connected WebSocket clients
	WSPushesTotal   prometheus.Counter // Total number of WebSocket update pushes
	ChartRenders    prometheus.Counter // Total number of PNG chart renders
	BacktestSubmits prometheus.Counter // Total number of backtest submissions forwarded

	// System metrics
	ErrorsTotal prometheus.Counter // Total number of errors encountered
}

// New creates and registers all Prometheus metrics using the default registry.
// This is the standard way to create metrics for production use.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// This allows for isolated metric collection in tests without affecting
// the global Prometheus registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		RefreshesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "refreshes_total",
			Help: "Total number of bot API refresh cycles started",
		}),
		RefreshErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "refresh_errors_total",
			Help: "Total number of refresh cycles that failed",
		}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "refresh_duration_seconds",
			Help:    "Duration of bot API refresh cycles in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		SnapshotTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "snapshot_timestamp_seconds",
			Help: "Unix time the last snapshot was applied",
		}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Number of sessions in the last snapshot",
		}),
		ResamplesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "resamples_total",
			Help: "Total number of equity grid resamples",
		}),
		ResampleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "resample_duration_seconds",
			Help:    "Equity grid resample latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
		GridPointsLast: factory.NewGauge(prometheus.GaugeOpts{
			Name: "grid_points",
			Help: "Row count of the most recent equity grid",
		}),
		WindowChanges: factory.NewCounter(prometheus.CounterOpts{
			Name: "window_changes_total",
			Help: "Total number of window selector changes",
		}),
		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ws_clients",
			Help: "Number of connected WebSocket clients",
		}),
		WSPushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ws_pushes_total",
			Help: "Total number of WebSocket update pushes",
		}),
		ChartRenders: factory.NewCounter(prometheus.CounterOpts{
			Name: "chart_renders_total",
			Help: "Total number of PNG chart renders",
		}),
		BacktestSubmits: factory.NewCounter(prometheus.CounterOpts{
			Name: "backtest_submits_total",
			Help: "Total number of backtest submissions forwarded",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}

// SnapshotApplied records a successfully applied snapshot. It stamps the
// snapshot timestamp and updates the active session count in one call so
// the two gauges never disagree.
func (m *Metrics) SnapshotApplied(sessions int) {
	m.SnapshotTimestamp.SetToCurrentTime()
	m.SessionsActive.Set(float64(sessions))
}
