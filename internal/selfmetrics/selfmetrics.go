// Package selfmetrics exposes the agent's own operational metrics over
// Prometheus text exposition. Grounded on the right-sizer operator's
// metrics package (operator_metrics.go): a single struct of counters,
// gauges, and histograms constructed once and registered against a
// dedicated prometheus.Registry, served via promhttp.Handler. This is the
// ambient self-observability surface; it is independent of the domain
// HTTP surface in internal/httpapi.
package selfmetrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sentineld/sentineld/internal/collectors"
)

// Metrics holds every self-observability instrument the agent exposes.
type Metrics struct {
	TickDuration       *prometheus.HistogramVec
	CollectorErrors    *prometheus.CounterVec
	StoreWriteFailures prometheus.Counter
	StoreDrops         prometheus.Gauge
	SlowConsumerDrops  prometheus.Gauge
	SelfThrottleEvents prometheus.Counter
	ResidentSetBytes   prometheus.Gauge
	CPUOverheadPercent prometheus.Gauge

	registry *prometheus.Registry
}

// New constructs and registers every instrument against a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		TickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sentineld",
			Name:      "tick_duration_seconds",
			Help:      "Pipeline tick duration by cadence.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cadence"}),
		CollectorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentineld",
			Name:      "collector_errors_total",
			Help:      "Collector failures by name and reason.",
		}, []string{"collector", "reason"}),
		StoreWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentineld",
			Name:      "store_write_failures_total",
			Help:      "Snapshot writes that failed.",
		}),
		StoreDrops: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sentineld",
			Name:      "store_drops_total",
			Help:      "Snapshots dropped due to store back-pressure, since process start.",
		}),
		SlowConsumerDrops: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sentineld",
			Name:      "ring_slow_consumer_drops_total",
			Help:      "Ring buffer subscribers disconnected for falling behind, since process start.",
		}),
		SelfThrottleEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentineld",
			Name:      "self_throttle_events_total",
			Help:      "Times the agent disabled optional collectors under resource overrun.",
		}),
		ResidentSetBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sentineld",
			Name:      "resident_set_bytes",
			Help:      "Agent process resident set size.",
		}),
		CPUOverheadPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sentineld",
			Name:      "cpu_overhead_percent",
			Help:      "Agent process CPU usage, averaged over the process lifetime (not a sliding window).",
		}),
	}

	reg.MustRegister(
		m.TickDuration, m.CollectorErrors, m.StoreWriteFailures, m.StoreDrops,
		m.SlowConsumerDrops, m.SelfThrottleEvents, m.ResidentSetBytes, m.CPUOverheadPercent,
	)
	return m
}

// Handler returns the http.Handler serving this registry's Prometheus
// text exposition, mounted at /metrics alongside the domain HTTP surface.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTick implements pipeline.Observer.
func (m *Metrics) ObserveTick(cadence collectors.Cadence, duration time.Duration) {
	m.TickDuration.WithLabelValues(strconv.Itoa(int(cadence))).Observe(duration.Seconds())
}

// ObserveCollectorError implements pipeline.Observer.
func (m *Metrics) ObserveCollectorError(name, reason string) {
	m.CollectorErrors.WithLabelValues(name, reason).Inc()
}

// ObserveStoreWriteFailure implements pipeline.Observer.
func (m *Metrics) ObserveStoreWriteFailure() {
	m.StoreWriteFailures.Inc()
}

// SetStoreDrops syncs the cumulative store-drop count, polled periodically
// from the pipeline's own counter since it is incremented under a mutex the
// metrics registry does not share.
func (m *Metrics) SetStoreDrops(total int64) {
	m.StoreDrops.Set(float64(total))
}

// SetSlowConsumerDrops syncs the cumulative ring disconnect count, polled
// periodically from the ring buffer's own atomic counter.
func (m *Metrics) SetSlowConsumerDrops(total int64) {
	m.SlowConsumerDrops.Set(float64(total))
}

// ObserveSelfThrottle implements scheduler.Observer.
func (m *Metrics) ObserveSelfThrottle() {
	m.SelfThrottleEvents.Inc()
}

// ObserveResourceUsage implements scheduler.Observer.
func (m *Metrics) ObserveResourceUsage(rssBytes uint64, cpuPercent float64) {
	m.ResidentSetBytes.Set(float64(rssBytes))
	m.CPUOverheadPercent.Set(cpuPercent)
}
