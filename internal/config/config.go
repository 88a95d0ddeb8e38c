// Package config loads sentineld's runtime configuration from an optional
// YAML file plus command-line overrides. Grounded on the YAML-singleton
// loader used across the retrieval pack's config packages (the same
// read-file-then-yaml.Unmarshal-into-a-struct shape, without persisting a
// generated default back to disk) and the flag.Parse CLI-override style
// from the teacher's cmd/server/main.go.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full set of tunables named across the pipeline, store,
// ring buffer, HTTP surface, pattern layer, and logging. Every field has a
// conservative default applied by Default.
type Config struct {
	Collection CollectionConfig `yaml:"collection"`
	Collectors CollectorsConfig `yaml:"collectors"`
	Store      StoreConfig      `yaml:"store"`
	Ring       RingConfig       `yaml:"ring"`
	HTTP       HTTPConfig       `yaml:"http"`
	Patterns   PatternsConfig   `yaml:"patterns"`
	Training   TrainingConfig   `yaml:"training"`
	Logging    LoggingConfig    `yaml:"logging"`
	Privacy    PrivacyConfig    `yaml:"privacy"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

// CollectionConfig controls the scheduler's four cadence periods and the
// fraction of each period collectors are given to finish a tick. Interval
// fields are seconds (spec.md §6.1 collection.*_interval_sec), not
// milliseconds, so a hand-edited config file reads the way the spec
// documents it.
type CollectionConfig struct {
	HighIntervalSec    int                `yaml:"high_interval_sec"`
	MediumIntervalSec  int                `yaml:"medium_interval_sec"`
	LowIntervalSec     int                `yaml:"low_interval_sec"`
	VeryLowIntervalSec int                `yaml:"very_low_interval_sec"`
	TickBudgetRatio    float64            `yaml:"tick_budget_ratio"`
	ResourceCaps       ResourceCapsConfig `yaml:"resource_caps"`
}

// ResourceCapsConfig bounds the agent's own resident set and CPU overhead,
// per spec.md §5's self-throttle requirement.
type ResourceCapsConfig struct {
	MaxResidentSetMB int     `yaml:"max_resident_set_mb"`
	MaxCPUPercent    float64 `yaml:"max_cpu_percent"`
}

// CollectorsConfig toggles optional collectors and sizes the process
// collector's top-N window.
type CollectorsConfig struct {
	Enabled         []string `yaml:"enabled"`
	ProcessTopN     int      `yaml:"process_top_n"`
	ExtToolPath     string   `yaml:"ext_tool_path"`
	PlatformCommand string   `yaml:"platform_command"`
	PlatformArgs    []string `yaml:"platform_args"`
}

// StoreConfig controls the embedded store's path, size cap, and retention.
type StoreConfig struct {
	Path                 string `yaml:"path"`
	SizeCapMB            int    `yaml:"size_cap_mb"`
	RetentionDays        int    `yaml:"retention_days"`
	AnomalyRetentionDays int    `yaml:"anomaly_retention_days"`
}

// RingConfig controls the live ring buffer's capacity and subscriber
// channel depth.
type RingConfig struct {
	Capacity    int `yaml:"capacity"`
	SubCapacity int `yaml:"sub_capacity"`
}

// HTTPConfig controls the query HTTP surface.
type HTTPConfig struct {
	Bind              string `yaml:"bind"`
	RequestTimeoutMs  int    `yaml:"request_timeout_ms"`
	MetricsBind       string `yaml:"metrics_bind"`
}

// PatternsConfig controls the pattern layer's thresholds and detection
// sensitivity.
type PatternsConfig struct {
	SustainWindow int                        `yaml:"sustain_window"`
	SpikeK        float64                    `yaml:"spike_k"`
	WindowSamples int                        `yaml:"window_samples"`
	Thresholds    map[string]ThresholdConfig `yaml:"thresholds"`
}

// TrainingConfig controls the readiness thresholds surfaced at
// GET /api/status/training (spec.md's Open Question, resolved: both
// configurable).
type TrainingConfig struct {
	MinimumSamples int64   `yaml:"minimum_samples"`
	MinimumHours   float64 `yaml:"minimum_hours"`
}

// ThresholdConfig is one metric's warn/critical pair.
type ThresholdConfig struct {
	Warn     float64 `yaml:"warn"`
	Critical float64 `yaml:"critical"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	File     string `yaml:"file"`
	RotateMB int    `yaml:"rotate_mb"`
}

// PrivacyConfig controls process-collector disclosure.
type PrivacyConfig struct {
	ProcessNameOnly bool `yaml:"process_name_only"`
}

// TracingConfig controls the optional OpenTelemetry tracing layer. Disabled
// by default: tracing is an ambient diagnostic capability, not a feature
// spec.md requires operators to configure.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"service_name"`
	ExporterType string  `yaml:"exporter_type"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	OTLPInsecure bool    `yaml:"otlp_insecure"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// Default returns the configuration sentineld runs with when no file and
// no flags override a value.
func Default() Config {
	return Config{
		Collection: CollectionConfig{
			HighIntervalSec:    3,
			MediumIntervalSec:  15,
			LowIntervalSec:     60,
			VeryLowIntervalSec: 300,
			TickBudgetRatio:    0.8,
			ResourceCaps: ResourceCapsConfig{
				MaxResidentSetMB: 500,
				MaxCPUPercent:    2,
			},
		},
		Collectors: CollectorsConfig{
			Enabled:     []string{"cpu", "ram", "gpu", "disk", "network", "process", "context"},
			ProcessTopN: 10,
		},
		Store: StoreConfig{
			Path:                 "sentineld.db",
			SizeCapMB:            2048,
			RetentionDays:        30,
			AnomalyRetentionDays: 90,
		},
		Ring: RingConfig{
			Capacity:    600,
			SubCapacity: 64,
		},
		HTTP: HTTPConfig{
			Bind:             "127.0.0.1:8745",
			RequestTimeoutMs: 5000,
			MetricsBind:      "127.0.0.1:8746",
		},
		Patterns: PatternsConfig{
			SustainWindow: 10,
			SpikeK:        3.0,
			WindowSamples: 720,
			Thresholds: map[string]ThresholdConfig{
				"cpu_percent":    {Warn: 80, Critical: 95},
				"ram_percent":    {Warn: 85, Critical: 95},
				"gpu_percent":    {Warn: 90, Critical: 98},
				"disk_read_mbps": {Warn: 400, Critical: 800},
				"disk_write_mbps": {Warn: 400, Critical: 800},
				"net_down_mbps":  {Warn: 800, Critical: 950},
				"net_up_mbps":    {Warn: 800, Critical: 950},
			},
		},
		Training: TrainingConfig{
			MinimumSamples: 1000,
			MinimumHours:   12,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Privacy: PrivacyConfig{
			ProcessNameOnly: true,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			ServiceName:  "sentineld",
			ExporterType: "none",
			SampleRate:   1.0,
		},
	}
}

// Load reads path if non-empty, merging it onto Default, then applies
// flag.CommandLine overrides registered by BindFlags. Call flag.Parse
// before Load so overrides take effect.
func Load(path string, overrides *Overrides) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	overrides.apply(&cfg)
	return cfg, nil
}

// Overrides holds flag.CommandLine values that take precedence over the
// YAML file when set. Every override is a string flag; an empty value
// means "not overridden".
type Overrides struct {
	HTTPBind    string
	MetricsBind string
	StorePath   string
	LogLevel    string
	LogFile     string

	fs *flag.FlagSet
}

// BindFlags registers the overridable flags on fs (typically
// flag.CommandLine) and returns an Overrides that Load consults once fs
// has been parsed.
func BindFlags(fs *flag.FlagSet) *Overrides {
	o := &Overrides{fs: fs}
	fs.StringVar(&o.HTTPBind, "http-bind", "", "Override http.bind")
	fs.StringVar(&o.MetricsBind, "metrics-bind", "", "Override http.metrics_bind")
	fs.StringVar(&o.StorePath, "store-path", "", "Override store.path")
	fs.StringVar(&o.LogLevel, "log-level", "", "Override logging.level")
	fs.StringVar(&o.LogFile, "log-file", "", "Override logging.file")
	return o
}

func (o *Overrides) apply(cfg *Config) {
	if o == nil {
		return
	}
	if o.HTTPBind != "" {
		cfg.HTTP.Bind = o.HTTPBind
	}
	if o.MetricsBind != "" {
		cfg.HTTP.MetricsBind = o.MetricsBind
	}
	if o.StorePath != "" {
		cfg.Store.Path = o.StorePath
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogFile != "" {
		cfg.Logging.File = o.LogFile
	}
}

func (c CollectionConfig) highInterval() time.Duration    { return time.Duration(c.HighIntervalSec) * time.Second }
func (c CollectionConfig) mediumInterval() time.Duration  { return time.Duration(c.MediumIntervalSec) * time.Second }
func (c CollectionConfig) lowInterval() time.Duration     { return time.Duration(c.LowIntervalSec) * time.Second }
func (c CollectionConfig) veryLowInterval() time.Duration { return time.Duration(c.VeryLowIntervalSec) * time.Second }

// Intervals exposes the cadence periods as time.Duration, consumed
// directly by scheduler.Intervals.
func (c CollectionConfig) Intervals() (high, medium, low, veryLow time.Duration) {
	return c.highInterval(), c.mediumInterval(), c.lowInterval(), c.veryLowInterval()
}

// RequestTimeout converts HTTPConfig.RequestTimeoutMs, defaulting to 5s.
func (h HTTPConfig) RequestTimeout() time.Duration {
	if h.RequestTimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(h.RequestTimeoutMs) * time.Millisecond
}

// IsEnabled reports whether a collector name is present in Collectors.Enabled.
func (c CollectorsConfig) IsEnabled(name string) bool {
	for _, n := range c.Enabled {
		if n == name {
			return true
		}
	}
	return false
}
