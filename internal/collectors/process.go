package collectors

import (
	"context"
	"sort"
	"time"

	gcpu "github.com/shirou/gopsutil/v3/cpu"
	gprocess "github.com/shirou/gopsutil/v3/process"

	"github.com/sentineld/sentineld/internal/model"
)

// ProcessCollector samples the top-N processes by CPU usage. When
// privacy.process_name_only is set the collector never reads a process's
// command line or executable path, only its reported name and PID
// (spec.md §3 privacy invariant).
type ProcessCollector struct {
	topN            int
	processNameOnly bool
	cpuCeiling      float64
}

// NewProcessCollector constructs a ProcessCollector reporting at most topN
// processes per tick. cpuCeiling bounds a single process's reported
// cpu_percent; per-process usage can exceed 100 on multi-core hosts, so the
// ceiling is logicalCores*100 rather than a flat 100.
func NewProcessCollector(topN int, processNameOnly bool) *ProcessCollector {
	if topN <= 0 {
		topN = 10
	}
	logical, err := gcpu.Counts(true)
	if err != nil || logical <= 0 {
		logical = 1
	}
	return &ProcessCollector{topN: topN, processNameOnly: processNameOnly, cpuCeiling: float64(logical) * 100}
}

func (c *ProcessCollector) Name() string { return "process" }

func (c *ProcessCollector) DefaultCadence() Cadence { return CadenceMedium }

func (c *ProcessCollector) Sample(ctx context.Context, deadline time.Time) Result {
	done := make(chan Result, 1)
	go func() { done <- c.sample() }()

	select {
	case r := <-done:
		return r
	case <-time.After(time.Until(deadline)):
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTimeout}}
	case <-ctx.Done():
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTimeout, Message: ctx.Err().Error()}}
	}
}

func (c *ProcessCollector) sample() Result {
	pids, err := gprocess.Pids()
	if err != nil {
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTransientError, Message: err.Error()}}
	}

	procs := make([]model.Process, 0, len(pids))
	for _, pid := range pids {
		p, err := gprocess.NewProcess(pid)
		if err != nil {
			continue
		}
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		cpuPct, _ := p.CPUPercent()
		memInfo, _ := p.MemoryInfo()
		var memMB float64
		if memInfo != nil {
			memMB = float64(memInfo.RSS) / (1024 * 1024)
		}
		threads, _ := p.NumThreads()
		status := "unknown"
		if st, err := p.Status(); err == nil && len(st) > 0 {
			status = st[0]
		}
		var startedAt time.Time
		if ct, err := p.CreateTime(); err == nil {
			startedAt = time.Unix(0, ct*int64(time.Millisecond))
		}

		procs = append(procs, model.Process{
			Name:        name,
			PID:         pid,
			CPUPercent:  clamp(cpuPct, 0, c.cpuCeiling),
			MemoryMB:    memMB,
			ThreadCount: int(threads),
			Status:      status,
			StartedAt:   startedAt,
		})
	}

	sort.Slice(procs, func(i, j int) bool {
		if procs[i].CPUPercent != procs[j].CPUPercent {
			return procs[i].CPUPercent > procs[j].CPUPercent
		}
		if procs[i].MemoryMB != procs[j].MemoryMB {
			return procs[i].MemoryMB > procs[j].MemoryMB
		}
		return procs[i].Name < procs[j].Name
	})

	if len(procs) > c.topN {
		procs = procs[:c.topN]
	}

	return Result{Name: c.Name(), Fragment: procs}
}
