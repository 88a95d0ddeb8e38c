package patterns

import "testing"

func TestSpikeDeviationBlockedDuringColdStart(t *testing.T) {
	b := &baseline{}
	for i := 0; i < coldStartSamples-1; i++ {
		b.update(50)
	}
	if _, isSpike := spikeDeviation(b, 1000, defaultSpikeK); isSpike {
		t.Fatalf("spike detected before baseline left cold start")
	}
}

func TestSpikeDeviationDetectsOutlier(t *testing.T) {
	b := &baseline{}
	for i := 0; i < coldStartSamples; i++ {
		b.update(50)
	}
	// identical samples give stddev 0; perturb slightly so sigma is nonzero.
	b.update(51)
	b.update(49)

	deviation, isSpike := spikeDeviation(b, 500, 3.0)
	if !isSpike {
		t.Fatalf("500 against a baseline around 50 should spike, deviation=%v", deviation)
	}
}

func TestSpikeDeviationZeroStddevNeverSpikes(t *testing.T) {
	b := &baseline{}
	for i := 0; i < coldStartSamples+5; i++ {
		b.update(50)
	}
	if _, isSpike := spikeDeviation(b, 999, 3.0); isSpike {
		t.Fatalf("constant baseline with zero variance reported a spike")
	}
}

func TestSpikeDeviationWithinBoundsIsNotASpike(t *testing.T) {
	b := &baseline{}
	for i := 0; i < coldStartSamples; i++ {
		b.update(float64(45 + i%10))
	}
	if _, isSpike := spikeDeviation(b, 50, 3.0); isSpike {
		t.Fatalf("value within normal range reported as a spike")
	}
}
