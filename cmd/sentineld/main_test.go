package main

import (
	"testing"

	"github.com/sentineld/sentineld/internal/config"
)

func TestBuildRegistryOnlyIncludesEnabledCollectors(t *testing.T) {
	cfg := config.Default()
	cfg.Collectors.Enabled = []string{"cpu", "ram"}

	reg := buildRegistry(cfg)

	names := make(map[string]bool)
	for _, n := range reg.Names() {
		names[n] = true
	}
	if len(names) != 2 {
		t.Fatalf("got %d active collectors, want 2: %v", len(names), names)
	}
	if !names["cpu"] || !names["ram"] {
		t.Fatalf("expected cpu and ram active, got %v", names)
	}
}

func TestBuildRegistryWithNoEnabledCollectorsIsEmpty(t *testing.T) {
	cfg := config.Default()
	cfg.Collectors.Enabled = nil

	reg := buildRegistry(cfg)
	if len(reg.Names()) != 0 {
		t.Fatalf("got %d active collectors, want 0", len(reg.Names()))
	}
}

func TestPipelineHealthAdapterPanicsOnNilPipeline(t *testing.T) {
	a := pipelineHealthAdapter{p: nil}
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected a nil-pipeline call to panic, guarding against silently returning an empty map")
		}
	}()
	a.CollectorStatuses()
}
