// Package pipeline orchestrates one sampling tick: fan-out to collectors
// with a shared deadline, normalization, validation, snapshot assembly,
// and hand-off to the store, ring buffer, and pattern layer.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sentineld/sentineld/internal/collectors"
	"github.com/sentineld/sentineld/internal/model"
	"github.com/sentineld/sentineld/internal/normalize"
	"github.com/sentineld/sentineld/internal/validate"
)

// Store is the subset of the store's write contract the pipeline depends
// on, narrowed to avoid an import cycle with internal/store.
type Store interface {
	Write(ctx context.Context, snapshot *model.Snapshot) (int64, error)
}

// RingBuffer is the subset of the ring buffer's publish contract the
// pipeline depends on.
type RingBuffer interface {
	Publish(snapshot *model.Snapshot)
}

// PatternSink is the subset of the pattern layer's ingestion contract the
// pipeline depends on.
type PatternSink interface {
	Ingest(snapshot *model.Snapshot)
}

// Observer receives tick-level self-observability events. Implemented by
// internal/selfmetrics; nil is a valid Pipeline field and every call site
// guards against it, so the pipeline never depends on prometheus directly.
type Observer interface {
	ObserveTick(cadence collectors.Cadence, duration time.Duration)
	ObserveCollectorError(name, reason string)
	ObserveStoreWriteFailure()
}

// StoreStatusSink receives the store's degraded/recovered transitions.
// Implemented by internal/health.Monitor; the pipeline depends only on this
// narrow interface so it never imports httpapi's health types. Status
// strings mirror health.StatusOK/health.StatusDegraded.
type StoreStatusSink interface {
	SetStoreStatus(status string)
}

// Tracer spans one tick's fan-out/write/publish sequence. Implemented by
// internal/otel.Tracer; a nil Tracer is valid and every call site guards
// against it.
type Tracer interface {
	Tick(ctx context.Context, cadence string, collectorNames []string) (context.Context, func())
}

const (
	storeStatusOK       = "ok"
	storeStatusDegraded = "degraded"
)

// defaultConsecutiveStoreFailureLimit is how many consecutive write
// failures trigger store:degraded before a caller overrides it via
// SetStoreFailureLimit (spec.md §7: "after N consecutive write failures
// (default 5)").
const defaultConsecutiveStoreFailureLimit = 5

// Pipeline runs ticks against a fixed registry of collectors. It is the
// single writer of the monotonic timestamp sequence; callers MUST NOT run
// two ticks concurrently against the same Pipeline.
type Pipeline struct {
	registry *collectors.Registry
	store    Store
	ring     RingBuffer
	patterns PatternSink
	metrics  Observer
	logger   *slog.Logger

	storeHealth       StoreStatusSink
	storeFailureLimit int
	tracer            Tracer

	mu                     sync.Mutex
	lastTimestamp          time.Time
	storeDrops             int64
	consecutiveStoreErrors int
	storeDegraded          bool
	disabled               map[string]bool
	collectorStatus        map[string]CollectorStatus
}

// CollectorStatus is one collector's most recent outcome, surfaced through
// the HTTP health matrix.
type CollectorStatus struct {
	LastSuccessTS int64
	LastError     string
}

// New constructs a Pipeline. logger defaults to slog.Default() if nil.
func New(registry *collectors.Registry, store Store, ring RingBuffer, patterns PatternSink, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		registry:          registry,
		store:             store,
		ring:              ring,
		patterns:          patterns,
		logger:            logger,
		storeFailureLimit: defaultConsecutiveStoreFailureLimit,
		disabled:          make(map[string]bool),
		collectorStatus:   make(map[string]CollectorStatus),
	}
}

// CollectorStatuses returns a snapshot of every collector's last outcome,
// keyed by name.
func (p *Pipeline) CollectorStatuses() map[string]CollectorStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]CollectorStatus, len(p.collectorStatus))
	for k, v := range p.collectorStatus {
		out[k] = v
	}
	return out
}

// SetObserver wires a self-metrics sink into the pipeline. Optional; call
// before the scheduler starts ticking.
func (p *Pipeline) SetObserver(o Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics = o
}

// SetStoreHealth wires a status sink that is told when consecutive store
// write failures cross the configured limit, and when a subsequent
// successful write clears it. Optional; call before the scheduler starts
// ticking.
func (p *Pipeline) SetStoreHealth(h StoreStatusSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.storeHealth = h
}

// SetStoreFailureLimit overrides the number of consecutive store write
// failures that trigger store:degraded. A non-positive value restores
// defaultConsecutiveStoreFailureLimit.
func (p *Pipeline) SetStoreFailureLimit(limit int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if limit <= 0 {
		limit = defaultConsecutiveStoreFailureLimit
	}
	p.storeFailureLimit = limit
}

// SetTracer wires an OpenTelemetry-backed span into every tick. Optional;
// call before the scheduler starts ticking.
func (p *Pipeline) SetTracer(t Tracer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracer = t
}

// Disable permanently excludes a collector from future ticks, used when a
// collector reports unsupported/missing_dependency/permission_denied
// (spec.md §7 permanent collector unavailability).
func (p *Pipeline) Disable(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disabled[name] = true
}

// StoreDrops returns the number of snapshots dropped due to store
// back-pressure since process start.
func (p *Pipeline) StoreDrops() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.storeDrops
}

// Tick runs one sampling pass at the given cadence and tick budget. now is
// the tick's nominal start time; the collector deadline is now.Add(budget).
func (p *Pipeline) Tick(ctx context.Context, cadence collectors.Cadence, now time.Time, budget time.Duration) {
	deadline := now.Add(budget)

	active := p.activeCollectors(cadence)
	if len(active) == 0 {
		return
	}

	if p.tracer != nil {
		names := make([]string, len(active))
		for i, c := range active {
			names[i] = c.Name()
		}
		var end func()
		ctx, end = p.tracer.Tick(ctx, cadence.String(), names)
		defer end()
	}

	results := p.fanOut(ctx, active, deadline)

	snapshot := &model.Snapshot{
		Timestamp:       now,
		CollectorErrors: make(map[string]string),
	}

	for _, r := range results {
		p.apply(snapshot, r)
	}

	snapshot.CollectionDurationMs = int(time.Since(now).Milliseconds())
	if p.metrics != nil {
		p.metrics.ObserveTick(cadence, time.Since(now))
	}

	if !snapshot.HasData() {
		p.logger.Warn("tick produced no data", "cadence", int(cadence))
		return
	}

	if !p.stampTimestamp(snapshot) {
		p.logger.Warn("tick rejected: non-increasing timestamp", "timestamp", snapshot.Timestamp)
		return
	}

	p.writeStore(ctx, snapshot)

	if p.ring != nil {
		p.ring.Publish(snapshot)
	}
	if p.patterns != nil {
		p.patterns.Ingest(snapshot)
	}
}

func (p *Pipeline) activeCollectors(cadence collectors.Cadence) []collectors.Collector {
	p.mu.Lock()
	defer p.mu.Unlock()

	all := p.registry.AtOrFaster(cadence)
	active := make([]collectors.Collector, 0, len(all))
	for _, c := range all {
		if !p.disabled[c.Name()] {
			active = append(active, c)
		}
	}
	return active
}

func (p *Pipeline) fanOut(ctx context.Context, active []collectors.Collector, deadline time.Time) []collectors.Result {
	results := make([]collectors.Result, len(active))
	var wg sync.WaitGroup
	for i, c := range active {
		wg.Add(1)
		go func(i int, c collectors.Collector) {
			defer wg.Done()
			results[i] = c.Sample(ctx, deadline)
		}(i, c)
	}
	wg.Wait()
	return results
}

func (p *Pipeline) apply(snapshot *model.Snapshot, r collectors.Result) {
	if r.Err != nil {
		snapshot.CollectorErrors[r.Name] = string(r.Err.Reason)
		p.mu.Lock()
		p.collectorStatus[r.Name] = CollectorStatus{
			LastSuccessTS: p.collectorStatus[r.Name].LastSuccessTS,
			LastError:     r.Err.Error(),
		}
		p.mu.Unlock()
		if p.metrics != nil {
			p.metrics.ObserveCollectorError(r.Name, string(r.Err.Reason))
		}
		if isPermanent(r.Err.Reason) {
			p.Disable(r.Name)
			p.logger.Info("collector_disabled", "collector", r.Name, "reason", r.Err.Reason)
		}
		return
	}

	p.mu.Lock()
	p.collectorStatus[r.Name] = CollectorStatus{LastSuccessTS: time.Now().Unix()}
	p.mu.Unlock()

	switch r.Name {
	case "cpu":
		frag, _ := r.Fragment.(*model.CPU)
		if res := validate.CPU(frag); res.OK {
			snapshot.CPU = frag
		} else {
			snapshot.CollectorErrors[r.Name] = res.Reason
		}
	case "ram":
		frag, _ := r.Fragment.(*model.RAM)
		frag = normalize.RAM(frag)
		if res := validate.RAM(frag); res.OK {
			snapshot.RAM = frag
		} else {
			snapshot.CollectorErrors[r.Name] = res.Reason
		}
	case "gpu":
		frag, _ := r.Fragment.([]model.GPU)
		frag = normalize.GPUs(frag)
		if res := validate.GPUs(frag); res.OK {
			snapshot.GPUs = frag
		} else {
			snapshot.CollectorErrors[r.Name] = res.Reason
		}
	case "disk":
		frag, _ := r.Fragment.(*model.Disk)
		frag = normalize.Disk(frag)
		if res := validate.Disk(frag); res.OK {
			snapshot.Disk = frag
		} else {
			snapshot.CollectorErrors[r.Name] = res.Reason
		}
	case "network":
		frag, _ := r.Fragment.(*model.Network)
		if res := validate.Network(frag); res.OK {
			snapshot.Network = frag
		} else {
			snapshot.CollectorErrors[r.Name] = res.Reason
		}
	case "process":
		frag, _ := r.Fragment.([]model.Process)
		frag = normalize.Processes(frag)
		if res := validate.Processes(frag); res.OK {
			snapshot.Processes = frag
		} else {
			snapshot.CollectorErrors[r.Name] = res.Reason
		}
	case "context":
		frag, _ := r.Fragment.(*model.Context)
		if res := validate.Context(frag); res.OK {
			snapshot.Context = frag
		} else {
			snapshot.CollectorErrors[r.Name] = res.Reason
		}
	default:
		// optional collectors (exttool, platform) carry no typed fragment
		// slot in the snapshot yet; their failures are still recorded.
	}
}

func isPermanent(reason collectors.ReasonCode) bool {
	switch reason {
	case collectors.ReasonUnsupported, collectors.ReasonMissingDependency, collectors.ReasonPermissionDenied:
		return true
	default:
		return false
	}
}

// stampTimestamp enforces strict monotonicity, bumping by 1ms on a tie and
// rejecting a timestamp earlier than the last committed one.
func (p *Pipeline) stampTimestamp(snapshot *model.Snapshot) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.lastTimestamp.IsZero() {
		if snapshot.Timestamp.Before(p.lastTimestamp) {
			return false
		}
		if snapshot.Timestamp.Equal(p.lastTimestamp) {
			snapshot.Timestamp = p.lastTimestamp.Add(time.Millisecond)
		}
	}
	p.lastTimestamp = snapshot.Timestamp
	return true
}

// writeStore persists snapshot and tracks consecutive failures against the
// store:degraded trigger (spec.md §7): N consecutive write failures (default
// 5) put the store status at degraded; the next successful write clears it.
func (p *Pipeline) writeStore(ctx context.Context, snapshot *model.Snapshot) {
	if p.store == nil {
		return
	}
	_, err := p.store.Write(ctx, snapshot)

	p.mu.Lock()
	var transition string
	if err != nil {
		p.storeDrops++
		p.consecutiveStoreErrors++
		if !p.storeDegraded && p.consecutiveStoreErrors >= p.storeFailureLimit {
			p.storeDegraded = true
			transition = storeStatusDegraded
		}
	} else {
		p.consecutiveStoreErrors = 0
		if p.storeDegraded {
			p.storeDegraded = false
			transition = storeStatusOK
		}
	}
	p.mu.Unlock()

	if err != nil {
		if p.metrics != nil {
			p.metrics.ObserveStoreWriteFailure()
		}
		p.logger.Error("store write failed", "error", err, "timestamp", snapshot.Timestamp)
	}

	if transition != "" && p.storeHealth != nil {
		p.storeHealth.SetStoreStatus(transition)
		if transition == storeStatusDegraded {
			p.logger.Error("store_degraded", "consecutive_failures", p.storeFailureLimit)
		} else {
			p.logger.Info("store_recovered")
		}
	}
}
