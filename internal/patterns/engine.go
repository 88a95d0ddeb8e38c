// Package patterns implements the baseline, threshold, and spike
// detectors that consume each persisted snapshot and emit anomaly
// records. Grounded on the original sentinel/patterns package
// (baseline.py, threshold.py, spike_detector.py), restructured as a
// single stateful Engine holding one baseline and one threshold state
// machine per metric rather than three independently-instantiated
// detector classes, since all three share the same per-metric series.
package patterns

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sentineld/sentineld/internal/model"
)

const (
	severityInfo     = model.SeverityInfo
	severityWarn     = model.SeverityWarn
	severityCritical = model.SeverityCritical
)

// AnomalyWriter is the subset of the store's write contract the pattern
// layer depends on, narrowed to avoid an import cycle. It covers both
// per-anomaly writes and the periodic baseline-row upsert spec.md §3
// describes as "latest baseline is kept as a single row per metric".
type AnomalyWriter interface {
	WriteAnomaly(ctx context.Context, a model.Anomaly) error
	WriteBaseline(ctx context.Context, metric string, mean, stddev float64, sampleCount int64, updatedAt time.Time) error
}

// ThresholdConfig is one metric's warn/critical pair, per spec.md §6.1
// patterns.thresholds.<metric>.{warn,critical}.
type ThresholdConfig struct {
	Warn     float64
	Critical float64
}

// Engine ingests snapshots and maintains rolling baselines and threshold
// hysteresis state per metric, emitting anomaly records synchronously.
type Engine struct {
	store         AnomalyWriter
	logger        *slog.Logger
	spikeK        float64
	sustainWindow int
	windowSamples int

	mu         sync.Mutex
	baselines  map[string]*baseline
	thresholds map[string]*thresholdState
}

// New constructs an Engine. thresholds supplies the configured warn/
// critical pair for every metric that should be threshold-checked;
// metrics absent from thresholds are still baselined and spike-checked.
// windowSamples bounds every metric's baseline to its last W observations
// (spec.md §6.1 patterns.window_samples); a non-positive value falls back
// to defaultWindowSamples.
func New(store AnomalyWriter, thresholds map[string]ThresholdConfig, spikeK float64, sustainWindow, windowSamples int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if spikeK <= 0 {
		spikeK = defaultSpikeK
	}
	if windowSamples <= 0 {
		windowSamples = defaultWindowSamples
	}

	e := &Engine{
		store:         store,
		logger:        logger,
		spikeK:        spikeK,
		sustainWindow: sustainWindow,
		windowSamples: windowSamples,
		baselines:     make(map[string]*baseline),
		thresholds:    make(map[string]*thresholdState),
	}
	for metric, cfg := range thresholds {
		e.thresholds[metric] = newThresholdState(cfg.Warn, cfg.Critical, sustainWindow)
	}
	return e
}

// Ingest extracts the primary metrics from snapshot and runs them through
// the baseline, threshold, and spike detectors, writing any resulting
// anomaly to the store. Ingest never blocks the pipeline for long: the
// store write is the only suspension point, matching the synchronous
// write contract of spec.md §4.7.
func (e *Engine) Ingest(snapshot *model.Snapshot) {
	for metric, value := range extractMetrics(snapshot) {
		e.observe(metric, value, snapshot.Timestamp)
	}
}

// PersistBaselines upserts every ready metric's current rolling mean and
// standard deviation into the store's single-row-per-metric baselines
// table (spec.md §3, §4.8 VERY_LOW "baseline refresh"). Metrics still in
// their cold-start region are skipped; there is nothing useful to persist
// yet.
func (e *Engine) PersistBaselines(ctx context.Context) error {
	if e.store == nil {
		return nil
	}

	type row struct {
		metric      string
		mean, sigma float64
		seen        int
	}
	e.mu.Lock()
	rows := make([]row, 0, len(e.baselines))
	for metric, b := range e.baselines {
		if !b.ready() {
			continue
		}
		rows = append(rows, row{metric: metric, mean: b.mean(), sigma: b.stddev(), seen: b.seen})
	}
	e.mu.Unlock()

	now := time.Now()
	var firstErr error
	for _, r := range rows {
		if err := e.store.WriteBaseline(ctx, r.metric, r.mean, r.sigma, int64(r.seen), now); err != nil {
			e.logger.Error("baseline persist failed", "metric", r.metric, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (e *Engine) observe(metric string, value float64, ts time.Time) {
	e.mu.Lock()
	b, ok := e.baselines[metric]
	if !ok {
		b = &baseline{window: e.windowSamples}
		e.baselines[metric] = b
	}

	// spike check uses the baseline BEFORE this sample updates it, so the
	// comparison is against prior history, not including the current
	// value.
	deviation, spiked := spikeDeviation(b, value, e.spikeK)
	b.update(value)

	th, hasThreshold := e.thresholds[metric]
	var thresholdSeverity string
	if hasThreshold {
		thresholdSeverity = th.observe(value)
	}
	mean := b.mean()
	e.mu.Unlock()

	if thresholdSeverity != "" {
		e.emit(metric, value, mean, deviation, thresholdSeverity, ts)
		return
	}

	if spiked {
		severity := severityInfo
		if hasThreshold && value >= th.warn {
			severity = severityWarn
		}
		e.emit(metric, value, mean, deviation, severity, ts)
	}
}

func (e *Engine) emit(metric string, value, expected, deviation float64, severity string, ts time.Time) {
	if e.store == nil {
		return
	}
	a := model.Anomaly{
		Timestamp:     ts,
		MetricName:    metric,
		CurrentValue:  value,
		ExpectedValue: expected,
		DeviationStd:  deviation,
		Severity:      severity,
	}
	if err := e.store.WriteAnomaly(context.Background(), a); err != nil {
		e.logger.Error("anomaly write failed", "metric", metric, "error", err)
	}
}

// extractMetrics maps a snapshot's populated fragments onto the flat
// metric names the store's history/summary queries understand. A nil
// fragment contributes nothing.
func extractMetrics(s *model.Snapshot) map[string]float64 {
	out := make(map[string]float64, 4)
	if s.CPU != nil {
		out["cpu_percent"] = s.CPU.UsagePercent
	}
	if s.RAM != nil {
		out["ram_percent"] = s.RAM.UsagePercent
	}
	if len(s.GPUs) > 0 {
		out["gpu_percent"] = s.GPUs[0].UsagePercent
	}
	if s.Disk != nil {
		out["disk_read_mbps"] = s.Disk.ReadMbps
		out["disk_write_mbps"] = s.Disk.WriteMbps
	}
	if s.Network != nil {
		out["net_down_mbps"] = s.Network.DownloadMbps
		out["net_up_mbps"] = s.Network.UploadMbps
	}
	return out
}
