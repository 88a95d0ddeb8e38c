package collectors

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"time"
)

// PlatformCollector shells out to a platform-specific query command
// (PowerShell/WMI on Windows, equivalent tools elsewhere) and parses its
// stdout as JSON into an untyped map. Grounded on the original
// PowerShellCollector's execute-then-json.loads pattern, generalized from
// a hardcoded PowerShell invocation to a configured command so the same
// collector works against any platform's query tool. Disabled by default
// (spec.md §4.1): most deployments have no such tool configured.
type PlatformCollector struct {
	command string
	args    []string
}

// NewPlatformCollector constructs a PlatformCollector invoking command
// with args, expecting JSON on stdout.
func NewPlatformCollector(command string, args []string) *PlatformCollector {
	return &PlatformCollector{command: command, args: args}
}

func (c *PlatformCollector) Name() string { return "platform" }

func (c *PlatformCollector) DefaultCadence() Cadence { return CadenceVeryLow }

func (c *PlatformCollector) Sample(ctx context.Context, deadline time.Time) Result {
	if c.command == "" {
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonUnsupported, Message: "no platform query command configured"}}
	}

	cctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	if _, err := exec.LookPath(c.command); err != nil {
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonMissingDependency, Message: err.Error()}}
	}

	cmd := exec.CommandContext(cctx, c.command, c.args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	err := cmd.Run()
	if cctx.Err() != nil {
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTimeout}}
	}
	if err != nil {
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTransientError, Message: err.Error()}}
	}

	var parsed map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTransientError, Message: "platform query output was not valid JSON"}}
	}

	return Result{Name: c.Name(), Fragment: parsed}
}
