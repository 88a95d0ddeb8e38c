package collectors

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/sentineld/sentineld/internal/model"
)

// CPUCollector samples overall and per-core usage, frequency, and (where
// the platform exposes it) temperature. Temperature is absent, never a
// sentinel value, when unavailable (spec.md Open Question, resolved).
type CPUCollector struct{}

// NewCPUCollector constructs a CPUCollector.
func NewCPUCollector() *CPUCollector { return &CPUCollector{} }

func (c *CPUCollector) Name() string { return "cpu" }

func (c *CPUCollector) DefaultCadence() Cadence { return CadenceHigh }

func (c *CPUCollector) Sample(ctx context.Context, deadline time.Time) Result {
	done := make(chan Result, 1)
	go func() {
		done <- c.sample()
	}()

	select {
	case r := <-done:
		return r
	case <-time.After(time.Until(deadline)):
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTimeout}}
	case <-ctx.Done():
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTimeout, Message: ctx.Err().Error()}}
	}
}

func (c *CPUCollector) sample() Result {
	percentTotal, err := cpu.Percent(0, false)
	if err != nil || len(percentTotal) == 0 {
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTransientError, Message: errString(err)}}
	}

	perCorePct, err := cpu.Percent(0, true)
	if err != nil {
		perCorePct = nil
	}

	info, err := cpu.Info()
	logical, _ := cpu.Counts(true)
	physical, _ := cpu.Counts(false)

	var freq *float64
	if err == nil && len(info) > 0 && info[0].Mhz > 0 {
		v := info[0].Mhz
		freq = &v
	}

	temp := cpuTemperature()

	usage := clamp(percentTotal[0], 0, 100)
	frag := &model.CPU{
		UsagePercent:       usage,
		FrequencyMHz:       freq,
		PerCoreUsage:       clampAll(perCorePct),
		TemperatureCelsius: temp,
		LogicalCount:       logical,
		PhysicalCount:      physical,
	}
	return Result{Name: c.Name(), Fragment: frag}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampAll(vs []float64) []float64 {
	if vs == nil {
		return nil
	}
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = clamp(v, 0, 100)
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
