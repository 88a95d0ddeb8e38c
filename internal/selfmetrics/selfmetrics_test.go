package selfmetrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sentineld/sentineld/internal/collectors"
)

func TestNewRegistersWithoutPanicking(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("New() panicked: %v", r)
		}
	}()
	New()
}

func TestObserversUpdateExposedMetrics(t *testing.T) {
	m := New()
	m.ObserveTick(collectors.CadenceHigh, 250*time.Millisecond)
	m.ObserveCollectorError("gpu", "unsupported")
	m.ObserveStoreWriteFailure()
	m.SetStoreDrops(7)
	m.SetSlowConsumerDrops(3)
	m.ObserveSelfThrottle()
	m.ObserveResourceUsage(123456789, 1.5)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"sentineld_tick_duration_seconds",
		`sentineld_collector_errors_total{collector="gpu",reason="unsupported"} 1`,
		"sentineld_store_write_failures_total 1",
		"sentineld_store_drops_total 7",
		"sentineld_ring_slow_consumer_drops_total 3",
		"sentineld_self_throttle_events_total 1",
		"sentineld_resident_set_bytes",
		"sentineld_cpu_overhead_percent 1.5",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition text missing %q\n--- full body ---\n%s", want, body)
		}
	}
}
