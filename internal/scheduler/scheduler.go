// Package scheduler drives the pipeline on a multi-rate clock and owns the
// cooperative shutdown sequence. Grounded on the mcpdrill retention
// Manager's Start/Stop/run loop (stopCh/stoppedCh pair guarded by a mutex,
// a single background goroutine driven by a ticker), generalized here to
// four independent tickers instead of one.
package scheduler

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	gprocess "github.com/shirou/gopsutil/v3/process"

	"github.com/sentineld/sentineld/internal/collectors"
)

// Pipeline is the subset of the pipeline's tick contract the scheduler
// depends on.
type Pipeline interface {
	Tick(ctx context.Context, cadence collectors.Cadence, now time.Time, budget time.Duration)
	StoreDrops() int64
	Disable(name string)
}

// heaviestOptionalCollectors are disabled, in order, when a resource-cap
// overrun sustains for the throttle window. gpu shells out to an external
// binary every LOW tick and is the most expensive enabled-by-default
// collector; process walks every PID on the host each MEDIUM tick.
var heaviestOptionalCollectors = []string{"gpu", "process"}

// Store is the subset of the store's lifecycle and retention contract the
// scheduler depends on.
type Store interface {
	Close() error
	RetentionSweep(ctx context.Context, now time.Time, retentionDays, anomalyRetentionDays int) error
}

// Observer receives scheduler-level self-observability events. Implemented
// by internal/selfmetrics; a nil Observer is valid.
type Observer interface {
	ObserveSelfThrottle()
	ObserveResourceUsage(rssBytes uint64, cpuPercent float64)
}

// BaselinePersister flushes the pattern layer's in-memory rolling baselines
// to durable storage. Implemented by patterns.Engine; a nil
// BaselinePersister leaves the VERY_LOW baseline refresh as a no-op.
type BaselinePersister interface {
	PersistBaselines(ctx context.Context) error
}

// Intervals configures the four cadence periods and the tick budget
// fraction, per spec.md §6.1.
type Intervals struct {
	High, Medium, Low, VeryLow time.Duration
	TickBudgetRatio            float64
	RetentionDays              int
	AnomalyRetentionDays       int
	DrainBudget                time.Duration
	OverrunCapBytes            int64
	OverrunCPUPercent          float64
}

// Scheduler owns the cadence tickers and the cooperative shutdown
// sequence: stop issuing new ticks, await in-flight ticks up to
// DrainBudget, close the store, exit.
type Scheduler struct {
	pipeline  Pipeline
	store     Store
	intervals Intervals
	logger    *slog.Logger

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}

	throttle  *throttleMonitor
	metrics   Observer
	baselines BaselinePersister
}

// SetObserver wires a self-metrics sink into the scheduler. Optional; call
// before Start.
func (s *Scheduler) SetObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = o
}

// SetBaselinePersister wires the pattern engine's baseline refresh into the
// VERY_LOW cadence (spec.md §4.8). Optional; call before Start.
func (s *Scheduler) SetBaselinePersister(b BaselinePersister) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baselines = b
}

// New constructs a Scheduler.
func New(pipeline Pipeline, store Store, intervals Intervals, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if intervals.TickBudgetRatio <= 0 {
		intervals.TickBudgetRatio = 0.8
	}
	if intervals.DrainBudget <= 0 {
		intervals.DrainBudget = 5 * time.Second
	}
	return &Scheduler{
		pipeline:  pipeline,
		store:     store,
		intervals: intervals,
		logger:    logger,
		throttle:  newThrottleMonitor(30 * time.Second),
	}
}

// Start begins the background cadence loops. Calling Start twice is a
// no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.stoppedCh = make(chan struct{})

	go s.run(ctx)
}

// Stop signals the scheduler to drain and exit, blocking until it has, or
// until ctx is done first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stopCh := s.stopCh
	stoppedCh := s.stoppedCh
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-stoppedCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	return s.store.Close()
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.stoppedCh)

	high := time.NewTicker(s.intervals.High)
	medium := time.NewTicker(s.intervals.Medium)
	low := time.NewTicker(s.intervals.Low)
	veryLow := time.NewTicker(s.intervals.VeryLow)
	defer high.Stop()
	defer medium.Stop()
	defer low.Stop()
	defer veryLow.Stop()

	var wg sync.WaitGroup
	drain := func(cadence collectors.Cadence, interval time.Duration) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			now := time.Now()
			budget := time.Duration(float64(interval) * s.intervals.TickBudgetRatio)
			tctx, cancel := context.WithTimeout(ctx, budget)
			defer cancel()
			s.pipeline.Tick(tctx, cadence, now, budget)
		}()
	}

	for {
		select {
		case <-high.C:
			drain(collectors.CadenceHigh, s.intervals.High)
		case <-medium.C:
			drain(collectors.CadenceMedium, s.intervals.Medium)
			s.checkResourceCaps()
		case <-low.C:
			drain(collectors.CadenceLow, s.intervals.Low)
		case <-veryLow.C:
			drain(collectors.CadenceVeryLow, s.intervals.VeryLow)
			s.runRetentionSweep(ctx)
			s.runBaselineRefresh(ctx)
		case <-s.stopCh:
			s.drainAndExit(ctx, &wg)
			return
		}
	}
}

func (s *Scheduler) drainAndExit(ctx context.Context, wg *sync.WaitGroup) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.intervals.DrainBudget):
		s.logger.Warn("shutdown drain budget exceeded, dropping in-flight ticks")
	}
}

// checkResourceCaps samples this process's own RSS and CPU usage and
// self-disables the heaviest optional collectors once an overrun has
// sustained for the throttle window (spec.md §5).
func (s *Scheduler) checkResourceCaps() {
	if s.intervals.OverrunCapBytes <= 0 && s.intervals.OverrunCPUPercent <= 0 {
		return
	}

	self, err := gprocess.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}

	var rss uint64
	var cpuPercent float64
	overCap := false
	if mem, err := self.MemoryInfo(); err == nil && mem != nil {
		rss = mem.RSS
		if s.intervals.OverrunCapBytes > 0 && int64(mem.RSS) > s.intervals.OverrunCapBytes {
			overCap = true
		}
	}
	if pct, err := self.CPUPercent(); err == nil {
		cpuPercent = pct
		if s.intervals.OverrunCPUPercent > 0 && pct > s.intervals.OverrunCPUPercent {
			overCap = true
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveResourceUsage(rss, cpuPercent)
	}

	if s.throttle.Observe(overCap, time.Now()) {
		for _, name := range heaviestOptionalCollectors {
			s.pipeline.Disable(name)
		}
		if s.metrics != nil {
			s.metrics.ObserveSelfThrottle()
		}
		s.logger.Warn("self_throttle", "disabled", heaviestOptionalCollectors)
	}
}

func (s *Scheduler) runRetentionSweep(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.RetentionSweep(ctx, time.Now(), s.intervals.RetentionDays, s.intervals.AnomalyRetentionDays); err != nil {
		s.logger.Error("retention sweep failed", "error", err)
	}
}

func (s *Scheduler) runBaselineRefresh(ctx context.Context) {
	if s.baselines == nil {
		return
	}
	if err := s.baselines.PersistBaselines(ctx); err != nil {
		s.logger.Error("baseline refresh failed", "error", err)
	}
}
