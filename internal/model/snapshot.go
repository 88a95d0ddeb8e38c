// Package model defines the normalized data types sampled by collectors,
// assembled into snapshots by the pipeline, and persisted by the store.
package model

import "time"

// Snapshot is the aggregate root for one sampling tick. Every fragment is
// optional; at least one must be non-nil for the snapshot to be valid
// (enforced by the pipeline, not by this type).
type Snapshot struct {
	Timestamp            time.Time         `json:"timestamp"`
	CPU                  *CPU              `json:"cpu,omitempty"`
	RAM                  *RAM              `json:"ram,omitempty"`
	GPUs                 []GPU             `json:"gpu,omitempty"`
	Disk                 *Disk             `json:"disk,omitempty"`
	Network              *Network          `json:"network,omitempty"`
	Processes            []Process         `json:"processes,omitempty"`
	Context              *Context          `json:"context,omitempty"`
	CollectionDurationMs int               `json:"collection_duration_ms"`
	CollectorErrors      map[string]string `json:"collector_errors,omitempty"`
}

// HasData reports whether at least one fragment was populated this tick.
func (s *Snapshot) HasData() bool {
	if s == nil {
		return false
	}
	return s.CPU != nil || s.RAM != nil || len(s.GPUs) > 0 || s.Disk != nil ||
		s.Network != nil || len(s.Processes) > 0 || s.Context != nil
}

// CPU is the cpu collector's fragment.
type CPU struct {
	UsagePercent       float64   `json:"usage_percent"`
	FrequencyMHz       *float64  `json:"frequency_mhz"`
	PerCoreUsage       []float64 `json:"per_core_usage,omitempty"`
	TemperatureCelsius *float64  `json:"temperature_celsius"`
	LogicalCount       int       `json:"logical_count"`
	PhysicalCount      int       `json:"physical_count"`
}

// RAM is the ram collector's fragment. Values are in GB.
type RAM struct {
	TotalGB      float64 `json:"total_gb"`
	UsedGB       float64 `json:"used_gb"`
	AvailableGB  float64 `json:"available_gb"`
	CachedGB     float64 `json:"cached_gb"`
	SwapTotalGB  float64 `json:"swap_total_gb"`
	SwapUsedGB   float64 `json:"swap_used_gb"`
	UsagePercent float64 `json:"usage_percent"`
}

// GPU is one element of the gpu collector's fragment sequence.
type GPU struct {
	Name             string   `json:"name"`
	UsagePercent     float64  `json:"usage_percent"`
	MemoryUsedGB     float64  `json:"memory_used_gb"`
	MemoryTotalGB    float64  `json:"memory_total_gb"`
	TemperatureC     *float64 `json:"temperature_celsius"`
	FanRPM           float64  `json:"fan_rpm"`
	PowerWatts       float64  `json:"power_watts"`
	CoreClockMHz     *float64 `json:"core_clock_mhz"`
	MemoryClockMHz   *float64 `json:"memory_clock_mhz"`
}

// Disk is the disk collector's fragment.
type Disk struct {
	ReadMbps     float64      `json:"read_mbps"`
	WriteMbps    float64      `json:"write_mbps"`
	QueueLength  float64      `json:"queue_length"`
	IOOpsPerSec  float64      `json:"io_ops_per_sec"`
	Devices      []DiskDevice `json:"devices,omitempty"`
}

// DiskDevice is one physical/logical disk within the disk fragment.
type DiskDevice struct {
	Device       string  `json:"device"`
	TotalGB      float64 `json:"total_gb"`
	UsedGB       float64 `json:"used_gb"`
	FreeGB       float64 `json:"free_gb"`
	UsagePercent float64 `json:"usage_percent"`
}

// Network is the network collector's fragment. Rates are first-differences
// over wall time; counters are cumulative and monotonically non-decreasing.
type Network struct {
	DownloadMbps      float64            `json:"download_mbps"`
	UploadMbps        float64            `json:"upload_mbps"`
	ConnectionsActive int                `json:"connections_active"`
	BytesSent         uint64             `json:"bytes_sent"`
	BytesReceived     uint64             `json:"bytes_received"`
	PacketsSent       uint64             `json:"packets_sent"`
	PacketsReceived   uint64             `json:"packets_received"`
	Errors            uint64             `json:"errors"`
	WarmingUp         bool               `json:"warming_up,omitempty"`
	Interfaces        []NetworkInterface `json:"interfaces,omitempty"`
}

// NetworkInterface is one NIC within the network fragment.
type NetworkInterface struct {
	Name       string  `json:"name"`
	SpeedMbps  float64 `json:"speed_mbps"`
	IsUp       bool    `json:"is_up"`
}

// Process is one entry in the process collector's ordered top-N sequence.
type Process struct {
	Name        string    `json:"name"`
	PID         int32     `json:"pid"`
	CPUPercent  float64   `json:"cpu_percent"`
	MemoryMB    float64   `json:"memory_mb"`
	ThreadCount int       `json:"thread_count"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
}

// TimeOfDay buckets used by the context fragment.
const (
	TimeOfDayMorning   = "morning"
	TimeOfDayAfternoon = "afternoon"
	TimeOfDayEvening   = "evening"
	TimeOfDayNight     = "night"
)

// UserAction buckets used by the context fragment.
const (
	UserActionCoding    = "coding"
	UserActionGaming    = "gaming"
	UserActionBrowsing  = "browsing"
	UserActionStreaming = "streaming"
	UserActionIdle      = "idle"
	UserActionUnknown   = "unknown"
)

// Context is the context collector's fragment: host-level usage context
// rather than a hardware measurement.
type Context struct {
	UserActive   bool    `json:"user_active"`
	IdleSeconds  float64 `json:"idle_seconds"`
	ScreenLocked bool    `json:"screen_locked"`
	TimeOfDay    string  `json:"time_of_day"`
	DayOfWeek    string  `json:"day_of_week"`
	UserAction   string  `json:"user_action"`
}

// TimeOfDayFor derives the time-of-day bucket for t in its own location.
func TimeOfDayFor(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return TimeOfDayMorning
	case h >= 12 && h < 17:
		return TimeOfDayAfternoon
	case h >= 17 && h < 21:
		return TimeOfDayEvening
	default:
		return TimeOfDayNight
	}
}

// Severity levels for anomaly records.
const (
	SeverityInfo     = "info"
	SeverityWarn     = "warn"
	SeverityCritical = "critical"
)

// Anomaly is an append-only record emitted by the pattern layer.
type Anomaly struct {
	ID             int64          `json:"id,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	MetricName     string         `json:"metric_name"`
	CurrentValue   float64        `json:"current_value"`
	ExpectedValue  float64        `json:"expected_value"`
	DeviationStd   float64        `json:"deviation_std"`
	Severity       string         `json:"severity"`
	Context        map[string]any `json:"context_json,omitempty"`
}
