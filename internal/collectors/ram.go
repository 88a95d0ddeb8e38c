package collectors

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/sentineld/sentineld/internal/model"
)

// RAMCollector samples virtual and swap memory.
type RAMCollector struct{}

// NewRAMCollector constructs a RAMCollector.
func NewRAMCollector() *RAMCollector { return &RAMCollector{} }

func (c *RAMCollector) Name() string { return "ram" }

func (c *RAMCollector) DefaultCadence() Cadence { return CadenceHigh }

func (c *RAMCollector) Sample(ctx context.Context, deadline time.Time) Result {
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

const bytesPerGB = 1024 * 1024 * 1024

func (c *RAMCollector) sample() Result {
	vm, err := mem.VirtualMemory()
	if err != nil || vm == nil {
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTransientError, Message: errString(err)}}
	}
	swap, err := mem.SwapMemory()
	if err != nil || swap == nil {
		swap = &mem.SwapMemoryStat{}
	}

	frag := &model.RAM{
		TotalGB:      float64(vm.Total) / bytesPerGB,
		UsedGB:       float64(vm.Used) / bytesPerGB,
		AvailableGB:  float64(vm.Available) / bytesPerGB,
		CachedGB:     float64(vm.Cached) / bytesPerGB,
		SwapTotalGB:  float64(swap.Total) / bytesPerGB,
		SwapUsedGB:   float64(swap.Used) / bytesPerGB,
		UsagePercent: vm.UsedPercent,
	}
	return Result{Name: c.Name(), Fragment: frag}
}
