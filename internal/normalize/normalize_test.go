package normalize

import (
	"testing"

	"github.com/sentineld/sentineld/internal/model"
)

func TestRAMDerivesUsagePercentWhenZero(t *testing.T) {
	r := RAM(&model.RAM{TotalGB: 16, UsedGB: 8})
	if r.UsagePercent != 50 {
		t.Errorf("usage_percent = %v, want 50", r.UsagePercent)
	}
}

func TestRAMLeavesNonzeroUsagePercentAlone(t *testing.T) {
	r := RAM(&model.RAM{TotalGB: 16, UsedGB: 8, UsagePercent: 12.5})
	if r.UsagePercent != 12.5 {
		t.Errorf("usage_percent = %v, want unchanged 12.5", r.UsagePercent)
	}
}

func TestRAMNilIsNoop(t *testing.T) {
	if RAM(nil) != nil {
		t.Errorf("RAM(nil) should return nil")
	}
}

func TestDiskSortsDevicesByName(t *testing.T) {
	d := Disk(&model.Disk{Devices: []model.DiskDevice{
		{Device: "sdb"},
		{Device: "sda"},
		{Device: "nvme0n1"},
	}})
	got := []string{d.Devices[0].Device, d.Devices[1].Device, d.Devices[2].Device}
	want := []string{"nvme0n1", "sda", "sdb"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("devices = %v, want %v", got, want)
		}
	}
}

func TestProcessesOrderingTieBreak(t *testing.T) {
	ps := Processes([]model.Process{
		{Name: "zeta", CPUPercent: 10, MemoryMB: 100},
		{Name: "alpha", CPUPercent: 10, MemoryMB: 100},
		{Name: "beta", CPUPercent: 20, MemoryMB: 50},
		{Name: "gamma", CPUPercent: 10, MemoryMB: 200},
	})
	want := []string{"beta", "gamma", "alpha", "zeta"}
	for i, name := range want {
		if ps[i].Name != name {
			t.Fatalf("order = %v, want %v", namesOf(ps), want)
		}
	}
}

func namesOf(ps []model.Process) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}
