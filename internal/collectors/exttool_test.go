package collectors

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExtToolCollectorEmptyPathIsUnsupported(t *testing.T) {
	c := NewExtToolCollector("")
	res := c.Sample(context.Background(), time.Now().Add(time.Second))
	if res.Err == nil || res.Err.Reason != ReasonUnsupported {
		t.Fatalf("got %v, want ReasonUnsupported", res.Err)
	}
}

func TestExtToolCollectorMissingFile(t *testing.T) {
	c := NewExtToolCollector(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	res := c.Sample(context.Background(), time.Now().Add(time.Second))
	if res.Err == nil || res.Err.Reason != ReasonMissingDependency {
		t.Fatalf("got %v, want ReasonMissingDependency", res.Err)
	}
}

func TestExtToolCollectorParsesKeyValueLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensors.txt")
	content := "# comment\n\nCPU Temp=62.5\nGPU Temp = 70\nmalformed line\nFan Speed=1200\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewExtToolCollector(path)
	res := c.Sample(context.Background(), time.Now().Add(time.Second))
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	readings := res.Fragment.(map[string]float64)
	if readings["CPU Temp"] != 62.5 {
		t.Errorf("CPU Temp = %v, want 62.5", readings["CPU Temp"])
	}
	if readings["GPU Temp"] != 70 {
		t.Errorf("GPU Temp = %v, want 70", readings["GPU Temp"])
	}
	if readings["Fan Speed"] != 1200 {
		t.Errorf("Fan Speed = %v, want 1200", readings["Fan Speed"])
	}
	if len(readings) != 3 {
		t.Errorf("got %d readings, want 3 (malformed line skipped)", len(readings))
	}
}

func TestExtToolCollectorNoParseableReadingsIsTransientError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("# nothing here\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewExtToolCollector(path)
	res := c.Sample(context.Background(), time.Now().Add(time.Second))
	if res.Err == nil || res.Err.Reason != ReasonTransientError {
		t.Fatalf("got %v, want ReasonTransientError", res.Err)
	}
}
