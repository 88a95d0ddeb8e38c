package collectors

import (
	"testing"

	gdisk "github.com/shirou/gopsutil/v3/disk"
)

func TestFilterLoopDropsLoopDevices(t *testing.T) {
	in := map[string]gdisk.IOCountersStat{
		"sda":   {},
		"loop0": {},
		"loop1": {},
		"nvme0n1": {},
	}
	out := filterLoop(in)
	if len(out) != 2 {
		t.Fatalf("got %d devices, want 2: %v", len(out), out)
	}
	if _, ok := out["loop0"]; ok {
		t.Errorf("loop0 should have been filtered out")
	}
	if _, ok := out["sda"]; !ok {
		t.Errorf("sda should survive filtering")
	}
}

func TestDiskRatesFirstCallReportsZero(t *testing.T) {
	c := NewDiskCollector()
	readMbps, writeMbps, iops := c.rates(map[string]gdisk.IOCountersStat{
		"sda": {ReadBytes: 1000, WriteBytes: 2000, ReadCount: 5, WriteCount: 5},
	})
	if readMbps != 0 || writeMbps != 0 || iops != 0 {
		t.Fatalf("first call should report zero rates, got %v %v %v", readMbps, writeMbps, iops)
	}
}

func TestDiskRatesSkipsCounterDecrease(t *testing.T) {
	c := NewDiskCollector()
	c.rates(map[string]gdisk.IOCountersStat{
		"sda": {ReadBytes: 10000, WriteBytes: 10000, ReadCount: 100, WriteCount: 100},
	})
	// Counter went backwards (device reset). Should be skipped, contributing
	// nothing to the aggregate rather than a bogus negative rate.
	readMbps, writeMbps, iops := c.rates(map[string]gdisk.IOCountersStat{
		"sda": {ReadBytes: 500, WriteBytes: 500, ReadCount: 10, WriteCount: 10},
	})
	if readMbps != 0 || writeMbps != 0 || iops != 0 {
		t.Fatalf("counter decrease should be skipped, got %v %v %v", readMbps, writeMbps, iops)
	}
}
