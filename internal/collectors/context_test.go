package collectors

import (
	"context"
	"testing"
	"time"

	"github.com/sentineld/sentineld/internal/model"
)

func TestContextCollectorActiveUserDuringDay(t *testing.T) {
	c := NewContextCollector()
	c.Clock = func() time.Time { return time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC) }
	c.IdleSecondsFunc = func() (float64, error) { return 5, nil }
	c.ScreenLockedFunc = func() (bool, error) { return false, nil }

	res := c.Sample(context.Background(), time.Now().Add(time.Second))
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	frag := res.Fragment.(*model.Context)
	if !frag.UserActive {
		t.Errorf("expected user_active=true")
	}
	if frag.TimeOfDay != model.TimeOfDayAfternoon {
		t.Errorf("time_of_day = %q, want afternoon", frag.TimeOfDay)
	}
	if frag.UserAction != model.UserActionUnknown {
		t.Errorf("user_action = %q, want unknown for an active-but-unclassified user", frag.UserAction)
	}
}

func TestContextCollectorLockedScreenReportsIdle(t *testing.T) {
	c := NewContextCollector()
	c.Clock = func() time.Time { return time.Date(2026, 1, 5, 23, 0, 0, 0, time.UTC) }
	c.IdleSecondsFunc = func() (float64, error) { return 0, nil }
	c.ScreenLockedFunc = func() (bool, error) { return true, nil }

	res := c.Sample(context.Background(), time.Now().Add(time.Second))
	frag := res.Fragment.(*model.Context)
	if frag.UserActive {
		t.Errorf("locked screen should never report user_active")
	}
	if frag.UserAction != model.UserActionIdle {
		t.Errorf("user_action = %q, want idle", frag.UserAction)
	}
	if frag.TimeOfDay != model.TimeOfDayNight {
		t.Errorf("time_of_day = %q, want night", frag.TimeOfDay)
	}
}

func TestContextCollectorLongIdleReportsInactive(t *testing.T) {
	c := NewContextCollector()
	c.Clock = func() time.Time { return time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC) }
	c.IdleSecondsFunc = func() (float64, error) { return idleThresholdSeconds + 1, nil }
	c.ScreenLockedFunc = func() (bool, error) { return false, nil }

	res := c.Sample(context.Background(), time.Now().Add(time.Second))
	frag := res.Fragment.(*model.Context)
	if frag.UserActive {
		t.Errorf("idle beyond threshold should report user_active=false")
	}
	if frag.UserAction != model.UserActionIdle {
		t.Errorf("user_action = %q, want idle", frag.UserAction)
	}
}

func TestContextCollectorErrorsFallBackToSafeDefaults(t *testing.T) {
	c := NewContextCollector()
	c.Clock = func() time.Time { return time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC) }
	c.IdleSecondsFunc = func() (float64, error) { return 0, context.DeadlineExceeded }
	c.ScreenLockedFunc = func() (bool, error) { return false, context.DeadlineExceeded }

	res := c.Sample(context.Background(), time.Now().Add(time.Second))
	if res.Err != nil {
		t.Fatalf("collector itself should not fail when platform probes error: %v", res.Err)
	}
	frag := res.Fragment.(*model.Context)
	if !frag.UserActive {
		t.Errorf("probe errors should fall back to not-locked/zero-idle, i.e. active")
	}
}
