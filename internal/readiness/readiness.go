// Package readiness computes training-readiness status from the store's
// sample count, per spec.md §8 testable property 10 and the Open Question
// it resolves: defaults are the conservative minimum_required=1000,
// minimum_hours=12, both configurable.
package readiness

import (
	"context"
	"time"

	"github.com/sentineld/sentineld/internal/httpapi"
)

// SampleCounter is the subset of the store's stats contract readiness
// depends on.
type SampleCounter interface {
	SampleCount(ctx context.Context) (count int64, oldestAge time.Duration, err error)
}

// Provider implements httpapi.TrainingReadiness against a store.
type Provider struct {
	store           SampleCounter
	minimumRequired int64
	minimumHours    float64
}

// New constructs a Provider with the configured thresholds.
func New(store SampleCounter, minimumRequired int64, minimumHours float64) *Provider {
	if minimumRequired <= 0 {
		minimumRequired = 1000
	}
	if minimumHours <= 0 {
		minimumHours = 12
	}
	return &Provider{store: store, minimumRequired: minimumRequired, minimumHours: minimumHours}
}

// Status implements httpapi.TrainingReadiness.
func (p *Provider) Status(ctx context.Context) (httpapi.TrainingStatus, error) {
	count, oldestAge, err := p.store.SampleCount(ctx)
	if err != nil {
		return httpapi.TrainingStatus{}, err
	}

	hoursCollected := oldestAge.Hours()
	ready := count >= p.minimumRequired && hoursCollected >= p.minimumHours

	sampleRatio := ratio(float64(count), float64(p.minimumRequired))
	hourRatio := ratio(hoursCollected, p.minimumHours)
	progress := sampleRatio
	if hourRatio < progress {
		progress = hourRatio
	}

	var nextSteps []string
	if count < p.minimumRequired {
		nextSteps = append(nextSteps, "keep the agent running to accumulate more samples")
	}
	if hoursCollected < p.minimumHours {
		nextSteps = append(nextSteps, "keep the agent running longer to cover more wall-clock hours")
	}

	return httpapi.TrainingStatus{
		Samples:         count,
		MinimumRequired: p.minimumRequired,
		HoursCollected:  hoursCollected,
		MinimumHours:    p.minimumHours,
		Ready:           ready,
		ProgressRatio:   progress,
		NextSteps:       nextSteps,
	}, nil
}

func ratio(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 1
	}
	r := numerator / denominator
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
