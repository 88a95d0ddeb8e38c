package collectors

import "testing"

func TestClampBoundsValue(t *testing.T) {
	if v := clamp(150, 0, 100); v != 100 {
		t.Errorf("clamp(150,0,100) = %v, want 100", v)
	}
	if v := clamp(-5, 0, 100); v != 0 {
		t.Errorf("clamp(-5,0,100) = %v, want 0", v)
	}
	if v := clamp(42, 0, 100); v != 42 {
		t.Errorf("clamp(42,0,100) = %v, want 42", v)
	}
}

func TestClampAllNilIsNil(t *testing.T) {
	if clampAll(nil) != nil {
		t.Errorf("clampAll(nil) should return nil")
	}
}

func TestClampAllClampsEveryElement(t *testing.T) {
	got := clampAll([]float64{-10, 50, 200})
	want := []float64{0, 50, 100}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("clampAll = %v, want %v", got, want)
		}
	}
}

func TestParseFloatOrZero(t *testing.T) {
	if v := parseFloatOrZero("3.5"); v != 3.5 {
		t.Errorf("parseFloatOrZero(3.5) = %v, want 3.5", v)
	}
	if v := parseFloatOrZero("[N/A]"); v != 0 {
		t.Errorf("parseFloatOrZero(garbage) = %v, want 0", v)
	}
	if v := parseFloatOrZero(""); v != 0 {
		t.Errorf("parseFloatOrZero(empty) = %v, want 0", v)
	}
}

func TestParseNvidiaSMISingleGPU(t *testing.T) {
	out := "GeForce RTX 3080, 42, 4096, 10240, 65, 1800, 220.5, 1900, 9500\n"
	gpus := parseNvidiaSMI(out)
	if len(gpus) != 1 {
		t.Fatalf("got %d gpus, want 1", len(gpus))
	}
	g := gpus[0]
	if g.Name != "GeForce RTX 3080" {
		t.Errorf("name = %q", g.Name)
	}
	if g.UsagePercent != 42 {
		t.Errorf("usage_percent = %v, want 42", g.UsagePercent)
	}
	if g.MemoryUsedGB != 4 {
		t.Errorf("memory_used_gb = %v, want 4", g.MemoryUsedGB)
	}
	if g.MemoryTotalGB != 10 {
		t.Errorf("memory_total_gb = %v, want 10", g.MemoryTotalGB)
	}
	if g.TemperatureC == nil || *g.TemperatureC != 65 {
		t.Errorf("temperature_celsius = %v, want 65", g.TemperatureC)
	}
	if g.FanRPM != 1800 {
		t.Errorf("fan_rpm = %v, want 1800", g.FanRPM)
	}
	if g.PowerWatts != 220.5 {
		t.Errorf("power_watts = %v, want 220.5", g.PowerWatts)
	}
}

func TestParseNvidiaSMIMultipleGPUsAndShortLinesSkipped(t *testing.T) {
	out := "GPU0, 10, 100, 1000, 40, 1000, 50, 1000, 1000\ntoo,short,line\nGPU1, 20, 200, 2000, 50, 2000, 60, 2000, 2000\n"
	gpus := parseNvidiaSMI(out)
	if len(gpus) != 2 {
		t.Fatalf("got %d gpus, want 2 (short line should be skipped)", len(gpus))
	}
}

func TestParseNvidiaSMIEmptyOutputYieldsNoGPUs(t *testing.T) {
	if gpus := parseNvidiaSMI(""); len(gpus) != 0 {
		t.Fatalf("got %d gpus from empty output, want 0", len(gpus))
	}
}
