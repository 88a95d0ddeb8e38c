// Package validate enforces the per-fragment range invariants from the
// data model. Validation never compares across fragments: a fragment is
// judged solely on its own fields, so collectors stay decoupled from one
// another.
package validate

import (
	"fmt"

	"github.com/sentineld/sentineld/internal/model"
)

// Result is the outcome of validating one fragment.
type Result struct {
	OK     bool
	Reason string // "invalid_range:<field>" when !OK
}

func pass() Result   { return Result{OK: true} }
func reject(field string) Result {
	return Result{OK: false, Reason: fmt.Sprintf("invalid_range:%s", field)}
}

// CPU validates a CPU fragment.
func CPU(c *model.CPU) Result {
	if c == nil {
		return pass()
	}
	if c.UsagePercent < 0 || c.UsagePercent > 100 {
		return reject("usage_percent")
	}
	if c.FrequencyMHz != nil && *c.FrequencyMHz <= 0 {
		return reject("frequency_mhz")
	}
	if c.TemperatureCelsius != nil && (*c.TemperatureCelsius < 0 || *c.TemperatureCelsius > 150) {
		return reject("temperature_celsius")
	}
	if c.LogicalCount <= 0 || c.PhysicalCount <= 0 {
		return reject("logical_count")
	}
	if len(c.PerCoreUsage) != 0 && len(c.PerCoreUsage) != c.LogicalCount {
		return reject("per_core_usage")
	}
	for _, v := range c.PerCoreUsage {
		if v < 0 || v > 100 {
			return reject("per_core_usage")
		}
	}
	return pass()
}

// RAM validates a RAM fragment, including the 5%-tolerance accounting
// invariant between used+available and total.
func RAM(r *model.RAM) Result {
	if r == nil {
		return pass()
	}
	if r.TotalGB <= 0 {
		return reject("total_gb")
	}
	if r.UsedGB < 0 || r.AvailableGB < 0 || r.CachedGB < 0 {
		return reject("used_gb")
	}
	if r.SwapTotalGB < 0 || r.SwapUsedGB < 0 {
		return reject("swap_total_gb")
	}
	if r.UsedGB+r.AvailableGB > r.TotalGB*1.05 {
		return reject("used_gb")
	}
	return pass()
}

// GPUs validates each element of a GPU sequence independently; the whole
// sequence is rejected if any element fails (GPU fragments are not
// partially droppable below the per-device level in this core).
func GPUs(gs []model.GPU) Result {
	for _, g := range gs {
		if g.UsagePercent < 0 || g.UsagePercent > 100 {
			return reject("usage_percent")
		}
		if g.MemoryUsedGB > g.MemoryTotalGB {
			return reject("memory_used_gb")
		}
		if g.TemperatureC != nil && (*g.TemperatureC < 0 || *g.TemperatureC > 150) {
			return reject("temperature_celsius")
		}
		if g.FanRPM < 0 {
			return reject("fan_rpm")
		}
		if g.PowerWatts < 0 {
			return reject("power_watts")
		}
	}
	return pass()
}

// Disk validates a Disk fragment.
func Disk(d *model.Disk) Result {
	if d == nil {
		return pass()
	}
	if d.ReadMbps < 0 || d.WriteMbps < 0 {
		return reject("read_mbps")
	}
	if d.QueueLength < 0 {
		return reject("queue_length")
	}
	if d.IOOpsPerSec < 0 {
		return reject("io_ops_per_sec")
	}
	for _, dev := range d.Devices {
		if dev.UsagePercent < 0 || dev.UsagePercent > 100 {
			return reject("usage_percent")
		}
		if dev.UsedGB > dev.TotalGB*1.05 {
			return reject("used_gb")
		}
	}
	return pass()
}

// Network validates a Network fragment. Rate fields are trusted to be
// non-negative by construction (the collector resets delta state rather
// than emit a negative rate), but are re-checked here since validation
// must not assume a well-behaved collector.
func Network(n *model.Network) Result {
	if n == nil {
		return pass()
	}
	if n.DownloadMbps < 0 || n.UploadMbps < 0 {
		return reject("download_mbps")
	}
	if n.ConnectionsActive < 0 {
		return reject("connections_active")
	}
	return pass()
}

// Processes validates a process sequence; each entry's numeric fields must
// be non-negative.
func Processes(ps []model.Process) Result {
	for _, p := range ps {
		if p.CPUPercent < 0 {
			return reject("cpu_percent")
		}
		if p.MemoryMB < 0 {
			return reject("memory_mb")
		}
		if p.ThreadCount < 0 {
			return reject("thread_count")
		}
	}
	return pass()
}

// Context validates a Context fragment's enumerations and idle_seconds.
func Context(c *model.Context) Result {
	if c == nil {
		return pass()
	}
	if c.IdleSeconds < 0 {
		return reject("idle_seconds")
	}
	switch c.TimeOfDay {
	case model.TimeOfDayMorning, model.TimeOfDayAfternoon, model.TimeOfDayEvening, model.TimeOfDayNight:
	default:
		return reject("time_of_day")
	}
	switch c.UserAction {
	case model.UserActionCoding, model.UserActionGaming, model.UserActionBrowsing,
		model.UserActionStreaming, model.UserActionIdle, model.UserActionUnknown:
	default:
		return reject("user_action")
	}
	return pass()
}
