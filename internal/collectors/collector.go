// Package collectors implements the sentineld collector contract: one
// idempotent, side-effect-free sample operation per metric family, each
// bounded by a caller-supplied deadline and reporting failure rather than
// aborting the tick.
package collectors

import (
	"context"
	"time"
)

// ReasonCode enumerates the structured failure reasons a Collector may
// report instead of a fragment.
type ReasonCode string

// Reason codes a Collector's Failure may carry.
const (
	ReasonTimeout            ReasonCode = "timeout"
	ReasonUnsupported        ReasonCode = "unsupported"
	ReasonPermissionDenied   ReasonCode = "permission_denied"
	ReasonTransientError     ReasonCode = "transient_error"
	ReasonMissingDependency  ReasonCode = "missing_dependency"
)

// Failure is returned by a Collector in place of a fragment when sampling
// did not succeed this tick.
type Failure struct {
	Reason  ReasonCode
	Message string
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	if f.Message == "" {
		return string(f.Reason)
	}
	return string(f.Reason) + ": " + f.Message
}

// Result is the outcome of one Collector.Sample call: exactly one of
// Fragment or Err is set.
type Result struct {
	Name     string
	Fragment any
	Err      *Failure
}

// Collector is the contract every metric-family sampler implements.
// Implementations MUST be safe to invoke concurrently with other
// collectors and MUST NOT mutate any state shared with other collectors.
type Collector interface {
	// Name returns the stable identifier used as the key in
	// collector_errors and in per-metric store tables.
	Name() string

	// Sample produces a typed fragment or a Failure. Sample MUST return
	// by deadline; if it detects it cannot make the deadline it returns
	// ReasonTimeout promptly rather than being killed externally.
	Sample(ctx context.Context, deadline time.Time) Result

	// DefaultCadence is the rate class this collector is normally driven
	// at by the scheduler (spec.md §4.8).
	DefaultCadence() Cadence
}

// Cadence is one of the scheduler's four rate classes.
type Cadence int

// Rate classes, fastest first. A tick at a given cadence also drives every
// collector whose DefaultCadence is faster (spec.md §4.8).
const (
	CadenceHigh Cadence = iota
	CadenceMedium
	CadenceLow
	CadenceVeryLow
)

// String renders the cadence the way log lines and trace attributes name
// it (spec.md §4.8's HIGH/MEDIUM/LOW/VERY_LOW labels, lowercased).
func (c Cadence) String() string {
	switch c {
	case CadenceHigh:
		return "high"
	case CadenceMedium:
		return "medium"
	case CadenceLow:
		return "low"
	case CadenceVeryLow:
		return "very_low"
	default:
		return "unknown"
	}
}

// Registry maps a stable collector name to its instance. There is no
// inheritance hierarchy beyond the Collector contract (Design Note:
// "Collector polymorphism").
type Registry struct {
	byName map[string]Collector
	order  []string
}

// NewRegistry builds a Registry from an ordered list of collectors.
// Order is preserved for deterministic fan-out in tests and logs.
func NewRegistry(cs ...Collector) *Registry {
	r := &Registry{byName: make(map[string]Collector, len(cs))}
	for _, c := range cs {
		r.byName[c.Name()] = c
		r.order = append(r.order, c.Name())
	}
	return r
}

// Get returns the collector registered under name, if any.
func (r *Registry) Get(name string) (Collector, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Names returns the registered collector names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// AtOrFaster returns the collectors whose DefaultCadence is cadence or
// faster, preserving registration order. This is what the scheduler fans
// out to on a tick of the given cadence.
func (r *Registry) AtOrFaster(cadence Cadence) []Collector {
	out := make([]Collector, 0, len(r.order))
	for _, name := range r.order {
		c := r.byName[name]
		if c.DefaultCadence() <= cadence {
			out = append(out, c)
		}
	}
	return out
}
