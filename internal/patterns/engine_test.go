package patterns

import (
	"context"
	"testing"
	"time"

	"github.com/sentineld/sentineld/internal/model"
)

type fakeAnomalyWriter struct {
	written  []model.Anomaly
	baselines map[string]struct {
		mean, stddev float64
		sampleCount  int64
	}
}

func (f *fakeAnomalyWriter) WriteAnomaly(ctx context.Context, a model.Anomaly) error {
	f.written = append(f.written, a)
	return nil
}

func (f *fakeAnomalyWriter) WriteBaseline(ctx context.Context, metric string, mean, stddev float64, sampleCount int64, updatedAt time.Time) error {
	if f.baselines == nil {
		f.baselines = make(map[string]struct {
			mean, stddev float64
			sampleCount  int64
		})
	}
	f.baselines[metric] = struct {
		mean, stddev float64
		sampleCount  int64
	}{mean, stddev, sampleCount}
	return nil
}

func TestEngineIngestEmitsThresholdAnomaly(t *testing.T) {
	writer := &fakeAnomalyWriter{}
	engine := New(writer, map[string]ThresholdConfig{
		"cpu_percent": {Warn: 90, Critical: 98},
	}, 3.0, 3, 0, nil)

	now := time.Now()
	for i := 0; i < 2; i++ {
		engine.Ingest(&model.Snapshot{Timestamp: now, CPU: &model.CPU{UsagePercent: 95}})
	}
	if len(writer.written) != 0 {
		t.Fatalf("fired before sustain window elapsed: %d anomalies", len(writer.written))
	}

	engine.Ingest(&model.Snapshot{Timestamp: now, CPU: &model.CPU{UsagePercent: 95}})
	if len(writer.written) != 1 {
		t.Fatalf("got %d anomalies, want 1", len(writer.written))
	}
	if writer.written[0].MetricName != "cpu_percent" {
		t.Errorf("metric = %q, want cpu_percent", writer.written[0].MetricName)
	}
	if writer.written[0].Severity != severityWarn {
		t.Errorf("severity = %q, want %q", writer.written[0].Severity, severityWarn)
	}
}

func TestEngineIngestSkipsEmptyFragments(t *testing.T) {
	writer := &fakeAnomalyWriter{}
	engine := New(writer, nil, 3.0, 10, 0, nil)
	engine.Ingest(&model.Snapshot{Timestamp: time.Now()})
	if len(writer.written) != 0 {
		t.Fatalf("empty snapshot produced %d anomalies", len(writer.written))
	}
}

func TestEnginePersistBaselinesOnlyWritesReadyMetrics(t *testing.T) {
	writer := &fakeAnomalyWriter{}
	engine := New(writer, nil, 3.0, 10, 5, nil)

	// Fewer than coldStartSamples observations: cpu_percent must not be
	// persisted yet.
	engine.Ingest(&model.Snapshot{Timestamp: time.Now(), CPU: &model.CPU{UsagePercent: 10}})
	if err := engine.PersistBaselines(context.Background()); err != nil {
		t.Fatalf("PersistBaselines: %v", err)
	}
	if len(writer.baselines) != 0 {
		t.Fatalf("got %d persisted baselines before cold start cleared, want 0", len(writer.baselines))
	}

	for i := 0; i < coldStartSamples; i++ {
		engine.Ingest(&model.Snapshot{Timestamp: time.Now(), CPU: &model.CPU{UsagePercent: 10}})
	}
	if err := engine.PersistBaselines(context.Background()); err != nil {
		t.Fatalf("PersistBaselines: %v", err)
	}
	got, ok := writer.baselines["cpu_percent"]
	if !ok {
		t.Fatalf("expected cpu_percent to be persisted once ready")
	}
	if got.mean != 10 {
		t.Errorf("persisted mean = %v, want 10", got.mean)
	}
}

func TestEngineExtractMetricsPullsEveryPopulatedFragment(t *testing.T) {
	snap := &model.Snapshot{
		CPU:     &model.CPU{UsagePercent: 10},
		RAM:     &model.RAM{UsagePercent: 20},
		GPUs:    []model.GPU{{UsagePercent: 30}},
		Disk:    &model.Disk{ReadMbps: 1, WriteMbps: 2},
		Network: &model.Network{DownloadMbps: 3, UploadMbps: 4},
	}
	got := extractMetrics(snap)
	want := map[string]float64{
		"cpu_percent":     10,
		"ram_percent":     20,
		"gpu_percent":     30,
		"disk_read_mbps":  1,
		"disk_write_mbps": 2,
		"net_down_mbps":   3,
		"net_up_mbps":     4,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d metrics, want %d: %v", len(got), len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("metric %q = %v, want %v", k, got[k], v)
		}
	}
}
