package collectors

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

// ExtToolCollector polls a key=value sensor file written by a third-party
// monitoring tool (AIDA64, HWiNFO, and similar tools all support a shared
// export file in this shape). Grounded on the original AIDA64 collector's
// report-file discovery and sensor-parsing behavior, adapted from its XML
// report format to the simpler key=value export most of these tools also
// support, since that format needs no XML dependency. Disabled by default
// (spec.md §4.1): most hosts have no such file.
type ExtToolCollector struct {
	path string
}

// NewExtToolCollector constructs an ExtToolCollector reading the sensor
// export at path.
func NewExtToolCollector(path string) *ExtToolCollector {
	return &ExtToolCollector{path: path}
}

func (c *ExtToolCollector) Name() string { return "exttool" }

func (c *ExtToolCollector) DefaultCadence() Cadence { return CadenceLow }

func (c *ExtToolCollector) Sample(ctx context.Context, deadline time.Time) Result {
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

func (c *ExtToolCollector) sample() Result {
	if c.path == "" {
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonUnsupported, Message: "no sensor export path configured"}}
	}

	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: c.Name(), Err: &Failure{Reason: ReasonMissingDependency, Message: "sensor export file not found"}}
		}
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonPermissionDenied, Message: err.Error()}}
	}
	defer f.Close()

	readings := make(map[string]float64)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			readings[strings.TrimSpace(key)] = v
		}
	}
	if len(readings) == 0 {
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTransientError, Message: "sensor export file had no parseable readings"}}
	}

	return Result{Name: c.Name(), Fragment: readings}
}
