// Command sentineld runs the host telemetry agent: it samples system
// metrics on a multi-rate schedule, persists them to an embedded store,
// detects anomalies against rolling baselines, and serves both a
// read-only query API and a Prometheus self-metrics endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sentineld/sentineld/internal/collectors"
	"github.com/sentineld/sentineld/internal/config"
	"github.com/sentineld/sentineld/internal/health"
	"github.com/sentineld/sentineld/internal/httpapi"
	"github.com/sentineld/sentineld/internal/logging"
	"github.com/sentineld/sentineld/internal/otel"
	"github.com/sentineld/sentineld/internal/patterns"
	"github.com/sentineld/sentineld/internal/pipeline"
	"github.com/sentineld/sentineld/internal/readiness"
	"github.com/sentineld/sentineld/internal/ring"
	"github.com/sentineld/sentineld/internal/scheduler"
	"github.com/sentineld/sentineld/internal/selfmetrics"
	"github.com/sentineld/sentineld/internal/store"
)

// Exit codes: 0 clean shutdown, 1 config error, 2 storage init failure,
// 3 HTTP bind failure, 130 interrupt received during startup.
const (
	exitOK             = 0
	exitConfigError    = 1
	exitStorageFailure = 2
	exitBindFailure    = 3
	exitInterrupted    = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath := flag.String("config", "", "Path to a YAML config file")
	overrides := config.BindFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sentineld: config error: %v\n", err)
		return exitConfigError
	}
	if ctx.Err() != nil {
		return exitInterrupted
	}

	logger, closeLogger, err := logging.New(logging.Options{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.File,
		RotateMB: cfg.Logging.RotateMB,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sentineld: logging init failed: %v\n", err)
		return exitConfigError
	}
	defer closeLogger()
	slog.SetDefault(logger)

	st, err := store.Open(cfg.Store.Path, cfg.Store.SizeCapMB, logger)
	if err != nil {
		logger.Error("storage init failed", "error", err)
		return exitStorageFailure
	}
	if ctx.Err() != nil {
		return exitInterrupted
	}

	tracer, err := otel.New(ctx, &otel.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		ExporterType: otel.ExporterType(cfg.Tracing.ExporterType),
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		logger.Error("tracer init failed", "error", err)
		return exitConfigError
	}
	defer tracer.Shutdown(context.Background())

	ringBuf := ring.New(cfg.Ring.Capacity, cfg.Ring.SubCapacity)

	thresholds := make(map[string]patterns.ThresholdConfig, len(cfg.Patterns.Thresholds))
	for metric, t := range cfg.Patterns.Thresholds {
		thresholds[metric] = patterns.ThresholdConfig{Warn: t.Warn, Critical: t.Critical}
	}
	patternEngine := patterns.New(st, thresholds, cfg.Patterns.SpikeK, cfg.Patterns.SustainWindow, cfg.Patterns.WindowSamples, logger)

	registry := buildRegistry(cfg)
	pl := pipeline.New(registry, st, ringBuf, patternEngine, logger)
	pl.SetTracer(tracer)

	metrics := selfmetrics.New()
	pl.SetObserver(metrics)

	healthMonitor := health.New(pipelineHealthAdapter{pl})
	pl.SetStoreHealth(healthMonitor)

	high, medium, low, veryLow := cfg.Collection.Intervals()
	sched := scheduler.New(pl, st, scheduler.Intervals{
		High:                 high,
		Medium:               medium,
		Low:                  low,
		VeryLow:              veryLow,
		TickBudgetRatio:      cfg.Collection.TickBudgetRatio,
		RetentionDays:        cfg.Store.RetentionDays,
		AnomalyRetentionDays: cfg.Store.AnomalyRetentionDays,
		OverrunCapBytes:      int64(cfg.Collection.ResourceCaps.MaxResidentSetMB) * 1024 * 1024,
		OverrunCPUPercent:    cfg.Collection.ResourceCaps.MaxCPUPercent,
	}, logger)
	sched.SetObserver(metrics)
	sched.SetBaselinePersister(patternEngine)

	readinessProvider := readiness.New(st, cfg.Training.MinimumSamples, cfg.Training.MinimumHours)

	httpServer := httpapi.New(ringBuf, st, healthMonitor, readinessProvider, cfg.HTTP.RequestTimeout())
	httpServer.SetTracer(tracer)
	if err := httpServer.Start(cfg.HTTP.Bind); err != nil {
		logger.Error("http bind failed", "error", err, "addr", cfg.HTTP.Bind)
		return exitBindFailure
	}
	logger.Info("query api listening", "addr", cfg.HTTP.Bind)

	var metricsServer *metricsHTTPServer
	if cfg.HTTP.MetricsBind != "" {
		metricsServer = startMetricsServer(cfg.HTTP.MetricsBind, metrics, logger)
	}

	sched.Start(ctx)
	healthMonitor.SetSchedulerStatus(health.StatusOK)
	go pollDropCounters(ctx, pl, ringBuf, metrics)
	logger.Info("sentineld started", "store", cfg.Store.Path)

	<-ctx.Done()
	logger.Info("shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", "error", err)
	}
	if metricsServer != nil {
		metricsServer.Shutdown(shutdownCtx)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler shutdown error", "error", err)
	}
	ringBuf.CloseAll()

	logger.Info("sentineld stopped")
	return exitOK
}

// buildRegistry wires the collectors enabled in cfg.Collectors.Enabled.
// Unknown names are ignored rather than rejected, so a config file written
// against a future version degrades gracefully.
func buildRegistry(cfg config.Config) *collectors.Registry {
	var active []collectors.Collector
	add := func(name string, c collectors.Collector) {
		if cfg.Collectors.IsEnabled(name) {
			active = append(active, c)
		}
	}

	add("cpu", collectors.NewCPUCollector())
	add("ram", collectors.NewRAMCollector())
	add("gpu", collectors.NewGPUCollector())
	add("disk", collectors.NewDiskCollector())
	add("network", collectors.NewNetworkCollector())
	add("process", collectors.NewProcessCollector(cfg.Collectors.ProcessTopN, cfg.Privacy.ProcessNameOnly))
	add("context", collectors.NewContextCollector())
	add("exttool", collectors.NewExtToolCollector(cfg.Collectors.ExtToolPath))
	add("platform", collectors.NewPlatformCollector(cfg.Collectors.PlatformCommand, cfg.Collectors.PlatformArgs))

	return collectors.NewRegistry(active...)
}

// pollDropCounters periodically syncs the pipeline's store-drop count and
// the ring buffer's slow-consumer-disconnect count into the self-metrics
// gauges. Both counters live behind locks the metrics registry does not
// share, so they are polled rather than updated inline at the drop site.
func pollDropCounters(ctx context.Context, pl *pipeline.Pipeline, ringBuf *ring.Buffer, metrics *selfmetrics.Metrics) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.SetStoreDrops(pl.StoreDrops())
			metrics.SetSlowConsumerDrops(ringBuf.SlowConsumerDrops())
		}
	}
}

// pipelineHealthAdapter narrows pipeline.CollectorStatus to
// health.CollectorStatus so the health package never imports pipeline.
type pipelineHealthAdapter struct {
	p *pipeline.Pipeline
}

func (a pipelineHealthAdapter) CollectorStatuses() map[string]health.CollectorStatus {
	out := make(map[string]health.CollectorStatus)
	for name, st := range a.p.CollectorStatuses() {
		out[name] = health.CollectorStatus{LastSuccessTS: st.LastSuccessTS, LastError: st.LastError}
	}
	return out
}
