package httpapi

// HealthMatrix is the body of GET /health: a per-component status plus a
// per-collector liveness map (spec.md §6.2).
type HealthMatrix struct {
	Scheduler  string                    `json:"scheduler"`
	Store      string                    `json:"store"`
	RingBuffer string                    `json:"ring_buffer"`
	Collectors map[string]CollectorHealth `json:"collectors"`
}

// CollectorHealth is one collector's entry in the health matrix.
type CollectorHealth struct {
	LastSuccessTS int64  `json:"last_success_ts"`
	LastError     string `json:"last_error,omitempty"`
}

// TrainingStatus is the body of GET /api/status/training.
type TrainingStatus struct {
	Samples          int64    `json:"samples"`
	MinimumRequired  int64    `json:"minimum_required"`
	HoursCollected   float64  `json:"hours_collected"`
	MinimumHours     float64  `json:"minimum_hours"`
	Ready            bool     `json:"ready"`
	ProgressRatio    float64  `json:"progress_ratio"`
	NextSteps        []string `json:"next_steps"`
}
