package patterns

import "math"

// defaultSpikeK is the default standard-deviation multiplier for spike
// detection (spec.md §6.1 patterns.spike_k).
const defaultSpikeK = 3.0

// spikeDeviation returns the number of standard deviations value is from
// the baseline mean, and whether that exceeds k. Spike detection is
// independent of threshold state and is blocked entirely during the
// baseline's cold-start region, per spec.md §4.7.
func spikeDeviation(b *baseline, value, k float64) (deviation float64, isSpike bool) {
	if !b.ready() {
		return 0, false
	}
	sigma := b.stddev()
	if sigma == 0 {
		return 0, false
	}
	deviation = math.Abs(value-b.mean()) / sigma
	return deviation, deviation > k
}
