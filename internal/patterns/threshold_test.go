package patterns

import "testing"

// TestThresholdHysteresisScenarioS3 traces the literal sequence from
// spec.md's S3 scenario: 20 samples at 50, 12 samples at 95, 20 samples
// back at 50, with warn=90 and sustain_window=10. Exactly one warn alert
// fires, at the 30th overall sample (the 10th consecutive sample at or
// above warn), and the symmetric clear back to 50 emits nothing.
func TestThresholdHysteresisScenarioS3(t *testing.T) {
	ts := newThresholdState(90, 0, 10)

	var sequence []float64
	for i := 0; i < 20; i++ {
		sequence = append(sequence, 50)
	}
	for i := 0; i < 12; i++ {
		sequence = append(sequence, 95)
	}
	for i := 0; i < 20; i++ {
		sequence = append(sequence, 50)
	}

	var fired []int
	for i, v := range sequence {
		if sev := ts.observe(v); sev != "" {
			fired = append(fired, i)
			if sev != severityWarn {
				t.Errorf("sample %d fired severity %q, want %q", i, sev, severityWarn)
			}
		}
	}

	if len(fired) != 1 {
		t.Fatalf("fired %d times at indices %v, want exactly 1", len(fired), fired)
	}
	if fired[0] != 29 {
		t.Errorf("fired at index %d, want 29 (the 30th sample)", fired[0])
	}
}

func TestThresholdSingleSampleSpikeDoesNotFire(t *testing.T) {
	ts := newThresholdState(90, 0, 10)
	for i := 0; i < 5; i++ {
		ts.observe(50)
	}
	if sev := ts.observe(95); sev != "" {
		t.Fatalf("single above-warn sample fired %q, want no alert before sustain window elapses", sev)
	}
}

func TestThresholdCriticalSeverity(t *testing.T) {
	ts := newThresholdState(80, 95, 3)
	for i := 0; i < 2; i++ {
		if sev := ts.observe(97); sev != "" {
			t.Fatalf("sample %d fired early: %q", i, sev)
		}
	}
	if sev := ts.observe(97); sev != severityCritical {
		t.Fatalf("sustained above-critical value fired %q, want %q", sev, severityCritical)
	}
}

func TestThresholdDedupWhileActive(t *testing.T) {
	ts := newThresholdState(90, 0, 3)
	for i := 0; i < 3; i++ {
		ts.observe(95)
	}
	for i := 0; i < 5; i++ {
		if sev := ts.observe(95); sev != "" {
			t.Fatalf("already-active alert re-fired at iteration %d: %q", i, sev)
		}
	}
}

func TestThresholdZeroConfigNeverFires(t *testing.T) {
	ts := newThresholdState(0, 0, 10)
	for i := 0; i < 50; i++ {
		if sev := ts.observe(999); sev != "" {
			t.Fatalf("unconfigured threshold fired %q", sev)
		}
	}
}
