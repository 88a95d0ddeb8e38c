// Package health aggregates component liveness into the matrix served by
// GET /health. Grounded on the mcpdrill telemetry Collector's
// HealthProvider seam (collector.go): a narrow interface the rest of the
// system is queried through rather than a shared mutable struct, adapted
// here to assemble httpapi.HealthMatrix instead of worker/session counts.
package health

import (
	"sync"

	"github.com/sentineld/sentineld/internal/httpapi"
)

// Status labels used across the matrix, matching spec.md §6.2's examples.
const (
	StatusOK           = "ok"
	StatusDegraded     = "degraded"
	StatusUnavailable  = "unavailable"
)

// CollectorStatusProvider is the subset of the pipeline's health contract
// this package depends on.
type CollectorStatusProvider interface {
	CollectorStatuses() map[string]CollectorStatus
}

// CollectorStatus mirrors pipeline.CollectorStatus without importing the
// pipeline package, since httpapi (which this package feeds) must not
// depend on pipeline.
type CollectorStatus struct {
	LastSuccessTS int64
	LastError     string
}

// Monitor implements httpapi.HealthProvider by combining a live read of
// collector status with scheduler/store/ring status flags the process
// updates directly at the points where those components can fail.
type Monitor struct {
	mu         sync.RWMutex
	collectors CollectorStatusProvider
	scheduler  string
	store      string
	ring       string
}

// New constructs a Monitor. Every status starts at StatusOK; callers set
// degraded/unavailable explicitly when a component reports trouble.
func New(collectors CollectorStatusProvider) *Monitor {
	return &Monitor{
		collectors: collectors,
		scheduler:  StatusOK,
		store:      StatusOK,
		ring:       StatusOK,
	}
}

// SetSchedulerStatus records the scheduler's current status.
func (m *Monitor) SetSchedulerStatus(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduler = status
}

// SetStoreStatus records the store's current status.
func (m *Monitor) SetStoreStatus(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = status
}

// SetRingStatus records the ring buffer's current status.
func (m *Monitor) SetRingStatus(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ring = status
}

// Health implements httpapi.HealthProvider.
func (m *Monitor) Health() httpapi.HealthMatrix {
	m.mu.RLock()
	scheduler, store, ring := m.scheduler, m.store, m.ring
	m.mu.RUnlock()

	collectorMatrix := make(map[string]httpapi.CollectorHealth)
	if m.collectors != nil {
		for name, st := range m.collectors.CollectorStatuses() {
			collectorMatrix[name] = httpapi.CollectorHealth{
				LastSuccessTS: st.LastSuccessTS,
				LastError:     st.LastError,
			}
		}
	}

	return httpapi.HealthMatrix{
		Scheduler:  scheduler,
		Store:      store,
		RingBuffer: ring,
		Collectors: collectorMatrix,
	}
}
