package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Interfaces for metrics to avoid circular imports
type MetricsCounter interface {
	Inc()
}

type MetricsGauge interface {
	Set(float64)
	Add(float64)
}

type MetricsHistogram interface {
	Observe(float64)
}

// MetricsWrapper provides a simple interface for the poller, resampler and
// dashboard to record metrics without importing prometheus types directly.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) RefreshesTotal() MetricsCounter {
	return &CounterWrapper{w.m.RefreshesTotal}
}

func (w *MetricsWrapper) SessionsActive() MetricsGauge {
	return &GaugeWrapper{w.m.SessionsActive}
}

func (w *MetricsWrapper) RefreshDurationHistogram() MetricsHistogram {
	return &HistogramWrapper{w.m.RefreshDuration}
}

// Polling methods.

func (w *MetricsWrapper) RefreshesInc() {
	w.m.RefreshesTotal.Inc()
}

func (w *MetricsWrapper) RefreshErrorsInc() {
	w.m.RefreshErrors.Inc()
}

func (w *MetricsWrapper) RefreshDurationObserve(seconds float64) {
	w.m.RefreshDuration.Observe(seconds)
}

func (w *MetricsWrapper) SnapshotApplied(sessions int) {
	w.m.SnapshotApplied(sessions)
}

// Resampling methods.

func (w *MetricsWrapper) ResamplesInc() {
	w.m.ResamplesTotal.Inc()
}

// ResampleDuration records a single grid resample duration.
func (w *MetricsWrapper) ResampleDuration(d time.Duration) {
	w.m.ResampleDuration.Observe(d.Seconds())
}

func (w *MetricsWrapper) GridPoints(n int) {
	w.m.GridPointsLast.Set(float64(n))
}

// Dashboard delivery methods.

func (w *MetricsWrapper) WindowChangesInc() {
	w.m.WindowChanges.Inc()
}

func (w *MetricsWrapper) WSClientsAdd(delta float64) {
	w.m.WSClients.Add(delta)
}

func (w *MetricsWrapper) WSPushesInc() {
	w.m.WSPushesTotal.Inc()
}

func (w *MetricsWrapper) ChartRendersInc() {
	w.m.ChartRenders.Inc()
}

func (w *MetricsWrapper) BacktestSubmitsInc() {
	w.m.BacktestSubmits.Inc()
}

func (w *MetricsWrapper) ErrorsInc() {
	w.m.ErrorsTotal.Inc()
}

type CounterWrapper struct {
	c prometheus.Counter
}

func (cw *CounterWrapper) Inc() {
	cw.c.Inc()
}

type GaugeWrapper struct {
	g prometheus.Gauge
}

func (gw *GaugeWrapper) Set(v float64) {
	gw.g.Set(v)
}

func (gw *GaugeWrapper) Add(v float64) {
	gw.g.Add(v)
}

type HistogramWrapper struct {
	h prometheus.Histogram
}

func (hw *HistogramWrapper) Observe(v float64) {
	hw.h.Observe(v)
}
