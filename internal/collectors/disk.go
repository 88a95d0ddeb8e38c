package collectors

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	gdisk "github.com/shirou/gopsutil/v3/disk"

	"github.com/sentineld/sentineld/internal/model"
)

// DiskCollector samples per-disk usage and aggregate read/write rates.
// Rates are a first-difference of cumulative IO counters over wall time
// since the previous call; the first call after process start emits zero
// rates, and a device whose counters decreased (wraparound, remount)
// contributes nothing to that call's rates (spec.md §4.1 delta-based
// collectors). The fragment carries no warming_up flag.
type DiskCollector struct {
	mu       sync.Mutex
	prev     map[string]gdisk.IOCountersStat
	prevWall time.Time
}

// NewDiskCollector constructs a DiskCollector with empty delta state.
func NewDiskCollector() *DiskCollector {
	return &DiskCollector{prev: make(map[string]gdisk.IOCountersStat)}
}

func (c *DiskCollector) Name() string { return "disk" }

func (c *DiskCollector) DefaultCadence() Cadence { return CadenceMedium }

func (c *DiskCollector) Sample(ctx context.Context, deadline time.Time) Result {
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

func (c *DiskCollector) sample() Result {
	partitions, err := gdisk.Partitions(false)
	if err != nil {
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTransientError, Message: err.Error()}}
	}

	var devices []model.DiskDevice
	for _, p := range partitions {
		usage, uerr := gdisk.Usage(p.Mountpoint)
		if uerr != nil || usage == nil {
			continue
		}
		devices = append(devices, model.DiskDevice{
			Device:       p.Device,
			TotalGB:      float64(usage.Total) / bytesPerGB,
			UsedGB:       float64(usage.Used) / bytesPerGB,
			FreeGB:       float64(usage.Free) / bytesPerGB,
			UsagePercent: clamp(usage.UsedPercent, 0, 100),
		})
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Device < devices[j].Device })

	counters, err := gdisk.IOCounters()
	if err != nil {
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTransientError, Message: err.Error()}}
	}

	readMbps, writeMbps, iops := c.rates(counters)

	frag := &model.Disk{
		ReadMbps:    readMbps,
		WriteMbps:   writeMbps,
		QueueLength: 0,
		IOOpsPerSec: iops,
		Devices:     devices,
	}
	return Result{Name: c.Name(), Fragment: frag}
}

func (c *DiskCollector) rates(counters map[string]gdisk.IOCountersStat) (readMbps, writeMbps, iops float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.prevWall.IsZero() {
		c.prev = filterLoop(counters)
		c.prevWall = now
		return 0, 0, 0
	}

	dt := now.Sub(c.prevWall).Seconds()
	if dt <= 0 {
		dt = 1
	}

	var readBytes, writeBytes, ops uint64
	cur := filterLoop(counters)
	for name, stat := range cur {
		prev, ok := c.prev[name]
		if !ok || stat.ReadBytes < prev.ReadBytes || stat.WriteBytes < prev.WriteBytes {
			continue
		}
		readBytes += stat.ReadBytes - prev.ReadBytes
		writeBytes += stat.WriteBytes - prev.WriteBytes
		if stat.ReadCount >= prev.ReadCount && stat.WriteCount >= prev.WriteCount {
			ops += (stat.ReadCount - prev.ReadCount) + (stat.WriteCount - prev.WriteCount)
		}
	}

	c.prev = cur
	c.prevWall = now

	const mb = 1024 * 1024
	return float64(readBytes) / mb / dt, float64(writeBytes) / mb / dt, float64(ops) / dt
}

func filterLoop(counters map[string]gdisk.IOCountersStat) map[string]gdisk.IOCountersStat {
	out := make(map[string]gdisk.IOCountersStat, len(counters))
	for name, stat := range counters {
		if strings.HasPrefix(name, "loop") {
			continue
		}
		out[name] = stat
	}
	return out
}
