package collectors

import (
	"context"
	"testing"
	"time"
)

func TestPlatformCollectorEmptyCommandIsUnsupported(t *testing.T) {
	c := NewPlatformCollector("", nil)
	res := c.Sample(context.Background(), time.Now().Add(time.Second))
	if res.Err == nil || res.Err.Reason != ReasonUnsupported {
		t.Fatalf("got %v, want ReasonUnsupported", res.Err)
	}
}

func TestPlatformCollectorMissingCommand(t *testing.T) {
	c := NewPlatformCollector("sentineld-nonexistent-query-tool-xyz", nil)
	res := c.Sample(context.Background(), time.Now().Add(time.Second))
	if res.Err == nil || res.Err.Reason != ReasonMissingDependency {
		t.Fatalf("got %v, want ReasonMissingDependency", res.Err)
	}
}

func TestPlatformCollectorParsesJSONStdout(t *testing.T) {
	c := NewPlatformCollector("echo", []string{`{"battery_percent": 87, "on_ac_power": true}`})
	res := c.Sample(context.Background(), time.Now().Add(2*time.Second))
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	parsed := res.Fragment.(map[string]any)
	if parsed["battery_percent"] != float64(87) {
		t.Errorf("battery_percent = %v, want 87", parsed["battery_percent"])
	}
	if parsed["on_ac_power"] != true {
		t.Errorf("on_ac_power = %v, want true", parsed["on_ac_power"])
	}
}

func TestPlatformCollectorNonJSONOutputIsTransientError(t *testing.T) {
	c := NewPlatformCollector("echo", []string{"this is not json"})
	res := c.Sample(context.Background(), time.Now().Add(2*time.Second))
	if res.Err == nil || res.Err.Reason != ReasonTransientError {
		t.Fatalf("got %v, want ReasonTransientError", res.Err)
	}
}
