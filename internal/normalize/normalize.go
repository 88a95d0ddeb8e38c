// Package normalize applies unit coercion and deterministic ordering to
// collector fragments before validation. Normalization is a pure function
// of its input: it never touches the clock, network, or filesystem.
package normalize

import (
	"sort"

	"github.com/sentineld/sentineld/internal/model"
)

// RAM fills in usage_percent when a collector left it at zero but
// total/used are known, mirroring the original aggregator's derivation
// rule for trivially computable fields.
func RAM(r *model.RAM) *model.RAM {
	if r == nil {
		return nil
	}
	if r.UsagePercent == 0 && r.TotalGB > 0 {
		r.UsagePercent = clampPercent(r.UsedGB / r.TotalGB * 100)
	}
	return r
}

// GPUs returns the GPU sequence unchanged, in the order the collector
// emitted it (for the nvidia-smi bridge, nvidia-smi's own device order);
// it performs no sorting of its own.
func GPUs(gs []model.GPU) []model.GPU {
	return gs
}

// Disk sorts per-device entries by device name, the ordering rule spec'd
// for disk fragments, and leaves aggregate fields untouched.
func Disk(d *model.Disk) *model.Disk {
	if d == nil {
		return nil
	}
	sort.Slice(d.Devices, func(i, j int) bool { return d.Devices[i].Device < d.Devices[j].Device })
	return d
}

// Processes re-asserts the (−cpu_percent, −memory_mb, name) ordering so
// normalization is the single place that rule is enforced, independent of
// whether the collector already sorted its output.
func Processes(ps []model.Process) []model.Process {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].CPUPercent != ps[j].CPUPercent {
			return ps[i].CPUPercent > ps[j].CPUPercent
		}
		if ps[i].MemoryMB != ps[j].MemoryMB {
			return ps[i].MemoryMB > ps[j].MemoryMB
		}
		return ps[i].Name < ps[j].Name
	})
	return ps
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
