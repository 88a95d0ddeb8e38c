package collectors

import (
	"context"
	"time"

	"github.com/sentineld/sentineld/internal/model"
)

// ContextCollector derives host usage context: whether a user is actively
// interacting with the machine, idle duration, and a coarse activity
// bucket. Idle-seconds detection is platform-specific and not exposed by
// gopsutil; IdleSecondsFunc is a seam so a platform-specific implementation
// can be substituted, defaulting to a stub that reports the user as
// always-active (idle_seconds 0), matching the original collector's
// documented fallback when no idle API is available.
type ContextCollector struct {
	IdleSecondsFunc func() (float64, error)
	ScreenLockedFunc func() (bool, error)
	Clock            func() time.Time
}

// NewContextCollector constructs a ContextCollector with stub idle/lock
// detection. Callers on a platform with a real idle-time API should
// override IdleSecondsFunc and ScreenLockedFunc after construction.
func NewContextCollector() *ContextCollector {
	return &ContextCollector{
		IdleSecondsFunc:  func() (float64, error) { return 0, nil },
		ScreenLockedFunc: func() (bool, error) { return false, nil },
		Clock:            time.Now,
	}
}

func (c *ContextCollector) Name() string { return "context" }

func (c *ContextCollector) DefaultCadence() Cadence { return CadenceLow }

func (c *ContextCollector) Sample(ctx context.Context, deadline time.Time) Result {
	done := make(chan Result, 1)
	go func() { done <- c.sample() }()

	select {
	case r := <-done:
		return r
	case <-time.After(time.Until(deadline)):
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTimeout}}
	case <-ctx.Done():
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTimeout, Message: ctx.Err().Error()}}
	}
}

const idleThresholdSeconds = 300

func (c *ContextCollector) sample() Result {
	now := c.Clock()

	idleSeconds, err := c.IdleSecondsFunc()
	if err != nil {
		idleSeconds = 0
	}
	locked, err := c.ScreenLockedFunc()
	if err != nil {
		locked = false
	}

	active := !locked && idleSeconds < idleThresholdSeconds

	frag := &model.Context{
		UserActive:   active,
		IdleSeconds:  idleSeconds,
		ScreenLocked: locked,
		TimeOfDay:    model.TimeOfDayFor(now),
		DayOfWeek:    now.Weekday().String(),
		UserAction:   c.userAction(active, locked),
	}
	return Result{Name: c.Name(), Fragment: frag}
}

// userAction is a coarse heuristic: without process/window inspection the
// collector can only distinguish idle from active, deferring finer buckets
// (coding/gaming/browsing/streaming) to a future window-title-aware
// collector. Recorded as unknown rather than guessing.
func (c *ContextCollector) userAction(active, locked bool) string {
	if locked {
		return model.UserActionIdle
	}
	if !active {
		return model.UserActionIdle
	}
	return model.UserActionUnknown
}
