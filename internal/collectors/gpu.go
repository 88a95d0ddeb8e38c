package collectors

import (
	"bufio"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sentineld/sentineld/internal/model"
)

// GPUCollector shells out to nvidia-smi with a bounded deadline. On
// platforms without an NVIDIA GPU this reports ReasonUnsupported, which
// causes the pipeline's caller to auto-disable it for the session
// (spec.md §7). Grounded on the rawwerks-srps-arch sampler's nvidia-smi
// query pattern.
type GPUCollector struct{}

// NewGPUCollector constructs a GPUCollector.
func NewGPUCollector() *GPUCollector { return &GPUCollector{} }

func (c *GPUCollector) Name() string { return "gpu" }

func (c *GPUCollector) DefaultCadence() Cadence { return CadenceLow }

func (c *GPUCollector) Sample(ctx context.Context, deadline time.Time) Result {
	cctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	cmd := exec.CommandContext(cctx, "nvidia-smi",
		"--query-gpu=name,utilization.gpu,memory.used,memory.total,temperature.gpu,fan.speed,power.draw,clocks.gr,clocks.mem",
		"--format=csv,noheader,nounits")
	out, err := cmd.Output()
	if cctx.Err() != nil {
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTimeout}}
	}
	if err != nil {
		if _, lookErr := exec.LookPath("nvidia-smi"); lookErr != nil {
			return Result{Name: c.Name(), Err: &Failure{Reason: ReasonUnsupported, Message: "nvidia-smi not found"}}
		}
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTransientError, Message: err.Error()}}
	}

	gpus := parseNvidiaSMI(string(out))
	if len(gpus) == 0 {
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonUnsupported, Message: "no GPU reported"}}
	}
	return Result{Name: c.Name(), Fragment: gpus}
}

func parseNvidiaSMI(out string) []model.GPU {
	var gpus []model.GPU
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Split(sc.Text(), ",")
		if len(fields) < 9 {
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		g := model.GPU{
			Name:          fields[0],
			UsagePercent:  clamp(parseFloatOrZero(fields[1]), 0, 100),
			MemoryUsedGB:  parseFloatOrZero(fields[2]) / 1024,
			MemoryTotalGB: parseFloatOrZero(fields[3]) / 1024,
			FanRPM:        parseFloatOrZero(fields[5]),
			PowerWatts:    parseFloatOrZero(fields[6]),
		}
		if t := parseFloatOrZero(fields[4]); t > 0 {
			g.TemperatureC = &t
		}
		if v := parseFloatOrZero(fields[7]); v > 0 {
			g.CoreClockMHz = &v
		}
		if v := parseFloatOrZero(fields[8]); v > 0 {
			g.MemoryClockMHz = &v
		}
		gpus = append(gpus, g)
	}
	return gpus
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
