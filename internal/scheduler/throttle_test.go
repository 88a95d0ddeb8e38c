package scheduler

import (
	"testing"
	"time"
)

func TestThrottleMonitorFiresOnceAfterSustainWindow(t *testing.T) {
	m := newThrottleMonitor(10 * time.Second)
	base := time.Now()

	if m.Observe(true, base) {
		t.Fatalf("should not fire on the first over-cap observation")
	}
	if m.Observe(true, base.Add(5*time.Second)) {
		t.Fatalf("should not fire before the sustain window elapses")
	}
	if !m.Observe(true, base.Add(10*time.Second)) {
		t.Fatalf("should fire exactly when the sustain window elapses")
	}
	if m.Observe(true, base.Add(15*time.Second)) {
		t.Fatalf("should not fire again while still over cap (dedup)")
	}
}

func TestThrottleMonitorResetsWhenBackUnderCap(t *testing.T) {
	m := newThrottleMonitor(10 * time.Second)
	base := time.Now()

	m.Observe(true, base)
	m.Observe(false, base.Add(time.Second))
	if m.Observe(true, base.Add(2*time.Second)) {
		t.Fatalf("should not fire immediately after a reset; the sustain clock restarts")
	}
	if !m.Observe(true, base.Add(12*time.Second)) {
		t.Fatalf("should fire once the sustain window elapses again")
	}
}
