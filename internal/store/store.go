// Package store implements the embedded single-file relational store:
// schema migrations, atomic snapshot writes, decimated history queries,
// summaries, anomaly persistence, and retention/compaction sweeps.
//
// Grounded on the original Python implementation's database/repository
// split (sentinel/storage/database.py, repository.py, migrations.py):
// this package folds both into one Store using database/sql against
// github.com/mattn/go-sqlite3, the one out-of-pack dependency this repo
// names rather than grounds, since no example in the retrieval pack uses
// any SQL database driver.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sentineld/sentineld/internal/model"
)

// Sentinel write-time errors (spec.md §4.6, §7).
var (
	ErrDuplicateTimestamp = errors.New("duplicate_timestamp")
	ErrStorageFull        = errors.New("storage_full")
	ErrSchemaTooNew       = errors.New("schema_too_new")
)

// Store wraps the embedded database connection. Writes are serialized
// through writeMu, matching the single-writer/many-reader contract of
// spec.md §4.6; SQLite's WAL journal mode lets readers proceed without
// blocking on an in-flight writer transaction.
type Store struct {
	db      *sql.DB
	path    string
	logger  *slog.Logger
	writeMu sync.Mutex

	sizeCapBytes int64
}

// Open opens (creating if absent) the store file at path, applies pending
// migrations, and configures WAL mode plus a busy timeout so readers and
// the single writer can coexist without blocking each other beyond a
// bounded interval.
func Open(path string, sizeCapMB int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(8)

	s := &Store{
		db:           db,
		path:         path,
		logger:       logger,
		sizeCapBytes: int64(sizeCapMB) * 1024 * 1024,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// migrate applies pending schema versions in order and refuses to open a
// store whose recorded version is newer than this binary understands.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var current int
	row := s.db.QueryRow(`SELECT value FROM schema_metadata WHERE key = 'version'`)
	var raw string
	switch err := row.Scan(&raw); {
	case errors.Is(err, sql.ErrNoRows):
		current = 0
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	default:
		fmt.Sscanf(raw, "%d", &current)
	}

	if current > schemaVersion {
		return ErrSchemaTooNew
	}
	if current < schemaVersion {
		if _, err := s.db.Exec(
			`INSERT INTO schema_metadata(key, value) VALUES ('version', ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			fmt.Sprintf("%d", schemaVersion),
		); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	}
	return nil
}

// Write persists snapshot in a single atomic transaction: the parent row
// plus one child row per non-null fragment (N rows for multi-valued
// fragments), or none at all on failure.
func (s *Store) Write(ctx context.Context, snap *model.Snapshot) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if full, err := s.overSizeCap(); err != nil {
		return 0, err
	} else if full {
		return 0, ErrStorageFull
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO system_snapshots(timestamp, created_at) VALUES (?, ?)`,
		snap.Timestamp.UnixMilli(), time.Now().UnixMilli())
	if err != nil {
		if isUniqueConstraint(err) {
			return 0, ErrDuplicateTimestamp
		}
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("snapshot id: %w", err)
	}

	if err := s.writeCPU(ctx, tx, id, snap.CPU); err != nil {
		return 0, err
	}
	if err := s.writeRAM(ctx, tx, id, snap.RAM); err != nil {
		return 0, err
	}
	if err := s.writeGPUs(ctx, tx, id, snap.GPUs); err != nil {
		return 0, err
	}
	if err := s.writeDisk(ctx, tx, id, snap.Disk); err != nil {
		return 0, err
	}
	if err := s.writeNetwork(ctx, tx, id, snap.Network); err != nil {
		return 0, err
	}
	if err := s.writeProcesses(ctx, tx, id, snap.Processes); err != nil {
		return 0, err
	}
	if err := s.writeContext(ctx, tx, id, snap.Context); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func (s *Store) writeCPU(ctx context.Context, tx *sql.Tx, snapID int64, c *model.CPU) error {
	if c == nil {
		return nil
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO cpu_metrics(snapshot_id, usage_percent, frequency_mhz, temperature_celsius, logical_count, physical_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snapID, c.UsagePercent, c.FrequencyMHz, c.TemperatureCelsius, c.LogicalCount, c.PhysicalCount)
	if err != nil {
		return fmt.Errorf("insert cpu_metrics: %w", err)
	}
	cpuID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for i, usage := range c.PerCoreUsage {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cpu_core_usage(cpu_metric_id, core_index, usage_percent) VALUES (?, ?, ?)`,
			cpuID, i, usage); err != nil {
			return fmt.Errorf("insert cpu_core_usage: %w", err)
		}
	}
	return nil
}

func (s *Store) writeRAM(ctx context.Context, tx *sql.Tx, snapID int64, r *model.RAM) error {
	if r == nil {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ram_metrics(snapshot_id, total_gb, used_gb, available_gb, cached_gb, swap_total_gb, swap_used_gb, usage_percent)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snapID, r.TotalGB, r.UsedGB, r.AvailableGB, r.CachedGB, r.SwapTotalGB, r.SwapUsedGB, r.UsagePercent)
	if err != nil {
		return fmt.Errorf("insert ram_metrics: %w", err)
	}
	return nil
}

func (s *Store) writeGPUs(ctx context.Context, tx *sql.Tx, snapID int64, gpus []model.GPU) error {
	for _, g := range gpus {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO gpu_metrics(snapshot_id, name, usage_percent, memory_used_gb, memory_total_gb, temperature_celsius, fan_rpm, power_watts, core_clock_mhz, memory_clock_mhz)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snapID, g.Name, g.UsagePercent, g.MemoryUsedGB, g.MemoryTotalGB, g.TemperatureC, g.FanRPM, g.PowerWatts, g.CoreClockMHz, g.MemoryClockMHz)
		if err != nil {
			return fmt.Errorf("insert gpu_metrics: %w", err)
		}
	}
	return nil
}

func (s *Store) writeDisk(ctx context.Context, tx *sql.Tx, snapID int64, d *model.Disk) error {
	if d == nil {
		return nil
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO disk_metrics(snapshot_id, read_mbps, write_mbps, queue_length, io_ops_per_sec) VALUES (?, ?, ?, ?, ?)`,
		snapID, d.ReadMbps, d.WriteMbps, d.QueueLength, d.IOOpsPerSec)
	if err != nil {
		return fmt.Errorf("insert disk_metrics: %w", err)
	}
	diskID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for _, dev := range d.Devices {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO disk_devices(disk_metric_id, device, total_gb, used_gb, free_gb, usage_percent) VALUES (?, ?, ?, ?, ?, ?)`,
			diskID, dev.Device, dev.TotalGB, dev.UsedGB, dev.FreeGB, dev.UsagePercent); err != nil {
			return fmt.Errorf("insert disk_devices: %w", err)
		}
	}
	return nil
}

func (s *Store) writeNetwork(ctx context.Context, tx *sql.Tx, snapID int64, n *model.Network) error {
	if n == nil {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO network_metrics(snapshot_id, download_mbps, upload_mbps, connections_active, bytes_sent, bytes_received, packets_sent, packets_received, errors, warming_up)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapID, n.DownloadMbps, n.UploadMbps, n.ConnectionsActive, n.BytesSent, n.BytesReceived, n.PacketsSent, n.PacketsReceived, n.Errors, n.WarmingUp)
	if err != nil {
		return fmt.Errorf("insert network_metrics: %w", err)
	}
	return nil
}

func (s *Store) writeProcesses(ctx context.Context, tx *sql.Tx, snapID int64, ps []model.Process) error {
	for _, p := range ps {
		var startedAt any
		if !p.StartedAt.IsZero() {
			startedAt = p.StartedAt.UnixMilli()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO process_info(snapshot_id, name, pid, cpu_percent, memory_mb, thread_count, status, started_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snapID, p.Name, p.PID, p.CPUPercent, p.MemoryMB, p.ThreadCount, p.Status, startedAt); err != nil {
			return fmt.Errorf("insert process_info: %w", err)
		}
	}
	return nil
}

func (s *Store) writeContext(ctx context.Context, tx *sql.Tx, snapID int64, c *model.Context) error {
	if c == nil {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO system_context(snapshot_id, user_active, idle_seconds, screen_locked, time_of_day, day_of_week, user_action)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snapID, c.UserActive, c.IdleSeconds, c.ScreenLocked, c.TimeOfDay, c.DayOfWeek, c.UserAction)
	if err != nil {
		return fmt.Errorf("insert system_context: %w", err)
	}
	return nil
}

// Recent returns the n most recently written snapshots, newest first,
// reassembled from their child tables.
func (s *Store) Recent(ctx context.Context, n int) ([]*model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp FROM system_snapshots ORDER BY timestamp DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	type idTS struct {
		id int64
		ts int64
	}
	var ids []idTS
	for rows.Next() {
		var it idTS
		if err := rows.Scan(&it.id, &it.ts); err != nil {
			return nil, err
		}
		ids = append(ids, it)
	}

	out := make([]*model.Snapshot, 0, len(ids))
	for _, it := range ids {
		snap, err := s.assemble(ctx, it.id, it.ts)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *Store) assemble(ctx context.Context, id, tsMillis int64) (*model.Snapshot, error) {
	snap := &model.Snapshot{Timestamp: time.UnixMilli(tsMillis).UTC()}

	var cpuID sql.NullInt64
	c := &model.CPU{}
	var freq, temp sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, usage_percent, frequency_mhz, temperature_celsius, logical_count, physical_count FROM cpu_metrics WHERE snapshot_id = ?`, id,
	).Scan(&cpuID, &c.UsagePercent, &freq, &temp, &c.LogicalCount, &c.PhysicalCount)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("assemble cpu: %w", err)
	default:
		if freq.Valid {
			v := freq.Float64
			c.FrequencyMHz = &v
		}
		if temp.Valid {
			v := temp.Float64
			c.TemperatureCelsius = &v
		}
		coreRows, err := s.db.QueryContext(ctx,
			`SELECT usage_percent FROM cpu_core_usage WHERE cpu_metric_id = ? ORDER BY core_index`, cpuID)
		if err == nil {
			defer coreRows.Close()
			for coreRows.Next() {
				var v float64
				if err := coreRows.Scan(&v); err == nil {
					c.PerCoreUsage = append(c.PerCoreUsage, v)
				}
			}
		}
		snap.CPU = c
	}

	r := &model.RAM{}
	err = s.db.QueryRowContext(ctx,
		`SELECT total_gb, used_gb, available_gb, cached_gb, swap_total_gb, swap_used_gb, usage_percent FROM ram_metrics WHERE snapshot_id = ?`, id,
	).Scan(&r.TotalGB, &r.UsedGB, &r.AvailableGB, &r.CachedGB, &r.SwapTotalGB, &r.SwapUsedGB, &r.UsagePercent)
	if err == nil {
		snap.RAM = r
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assemble ram: %w", err)
	}

	gpuRows, err := s.db.QueryContext(ctx,
		`SELECT name, usage_percent, memory_used_gb, memory_total_gb, temperature_celsius, fan_rpm, power_watts, core_clock_mhz, memory_clock_mhz FROM gpu_metrics WHERE snapshot_id = ?`, id)
	if err == nil {
		defer gpuRows.Close()
		for gpuRows.Next() {
			var g model.GPU
			var temp, core, mem sql.NullFloat64
			if err := gpuRows.Scan(&g.Name, &g.UsagePercent, &g.MemoryUsedGB, &g.MemoryTotalGB, &temp, &g.FanRPM, &g.PowerWatts, &core, &mem); err == nil {
				if temp.Valid {
					v := temp.Float64
					g.TemperatureC = &v
				}
				if core.Valid {
					v := core.Float64
					g.CoreClockMHz = &v
				}
				if mem.Valid {
					v := mem.Float64
					g.MemoryClockMHz = &v
				}
				snap.GPUs = append(snap.GPUs, g)
			}
		}
	}

	var diskID sql.NullInt64
	d := &model.Disk{}
	err = s.db.QueryRowContext(ctx,
		`SELECT id, read_mbps, write_mbps, queue_length, io_ops_per_sec FROM disk_metrics WHERE snapshot_id = ?`, id,
	).Scan(&diskID, &d.ReadMbps, &d.WriteMbps, &d.QueueLength, &d.IOOpsPerSec)
	if err == nil {
		devRows, err := s.db.QueryContext(ctx,
			`SELECT device, total_gb, used_gb, free_gb, usage_percent FROM disk_devices WHERE disk_metric_id = ? ORDER BY device`, diskID)
		if err == nil {
			defer devRows.Close()
			for devRows.Next() {
				var dev model.DiskDevice
				if err := devRows.Scan(&dev.Device, &dev.TotalGB, &dev.UsedGB, &dev.FreeGB, &dev.UsagePercent); err == nil {
					d.Devices = append(d.Devices, dev)
				}
			}
		}
		snap.Disk = d
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assemble disk: %w", err)
	}

	n := &model.Network{}
	var warming int
	err = s.db.QueryRowContext(ctx,
		`SELECT download_mbps, upload_mbps, connections_active, bytes_sent, bytes_received, packets_sent, packets_received, errors, warming_up FROM network_metrics WHERE snapshot_id = ?`, id,
	).Scan(&n.DownloadMbps, &n.UploadMbps, &n.ConnectionsActive, &n.BytesSent, &n.BytesReceived, &n.PacketsSent, &n.PacketsReceived, &n.Errors, &warming)
	if err == nil {
		n.WarmingUp = warming != 0
		snap.Network = n
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assemble network: %w", err)
	}

	procRows, err := s.db.QueryContext(ctx,
		`SELECT name, pid, cpu_percent, memory_mb, thread_count, status, started_at FROM process_info WHERE snapshot_id = ? ORDER BY cpu_percent DESC, memory_mb DESC, name ASC`, id)
	if err == nil {
		defer procRows.Close()
		for procRows.Next() {
			var p model.Process
			var startedAt sql.NullInt64
			if err := procRows.Scan(&p.Name, &p.PID, &p.CPUPercent, &p.MemoryMB, &p.ThreadCount, &p.Status, &startedAt); err == nil {
				if startedAt.Valid {
					p.StartedAt = time.UnixMilli(startedAt.Int64).UTC()
				}
				snap.Processes = append(snap.Processes, p)
			}
		}
	}

	ctxFrag := &model.Context{}
	var userActive, screenLocked int
	err = s.db.QueryRowContext(ctx,
		`SELECT user_active, idle_seconds, screen_locked, time_of_day, day_of_week, user_action FROM system_context WHERE snapshot_id = ?`, id,
	).Scan(&userActive, &ctxFrag.IdleSeconds, &screenLocked, &ctxFrag.TimeOfDay, &ctxFrag.DayOfWeek, &ctxFrag.UserAction)
	if err == nil {
		ctxFrag.UserActive = userActive != 0
		ctxFrag.ScreenLocked = screenLocked != 0
		snap.Context = ctxFrag
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assemble context: %w", err)
	}

	return snap, nil
}

// metricColumn maps a public history/summary metric name to its backing
// table and column, per the enumerated set in spec.md §6.2.
var metricColumn = map[string]struct {
	table, column, join string
}{
	"cpu_percent":      {"cpu_metrics", "usage_percent", ""},
	"ram_percent":       {"ram_metrics", "usage_percent", ""},
	"gpu_percent":       {"gpu_metrics", "usage_percent", ""},
	"disk_read_mbps":    {"disk_metrics", "read_mbps", ""},
	"disk_write_mbps":   {"disk_metrics", "write_mbps", ""},
	"net_down_mbps":     {"network_metrics", "download_mbps", ""},
	"net_up_mbps":       {"network_metrics", "upload_mbps", ""},
}

// HistoryPoint is one (timestamp, value) pair in a decimated series.
type HistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// History returns a decimated series for metric between from and to. When
// the raw series has more than maxPoints samples, points are bucketed
// averages over equal-width windows aligned to from.
func (s *Store) History(ctx context.Context, metric string, from, to time.Time, maxPoints int) ([]HistoryPoint, error) {
	col, ok := metricColumn[metric]
	if !ok {
		return nil, fmt.Errorf("unknown metric %q", metric)
	}

	query := fmt.Sprintf(
		`SELECT s.timestamp, t.%s FROM %s t JOIN system_snapshots s ON s.id = t.snapshot_id
		 WHERE s.timestamp >= ? AND s.timestamp <= ? ORDER BY s.timestamp ASC`,
		col.column, col.table)

	rows, err := s.db.QueryContext(ctx, query, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var raw []HistoryPoint
	for rows.Next() {
		var tsMillis int64
		var v float64
		if err := rows.Scan(&tsMillis, &v); err != nil {
			return nil, err
		}
		raw = append(raw, HistoryPoint{Timestamp: time.UnixMilli(tsMillis).UTC(), Value: v})
	}

	if maxPoints <= 0 || len(raw) <= maxPoints {
		return raw, nil
	}
	return decimate(raw, from, to, maxPoints), nil
}

// decimate buckets raw points into maxPoints equal-width windows aligned
// to from, each represented by the arithmetic mean of its members.
func decimate(raw []HistoryPoint, from, to time.Time, maxPoints int) []HistoryPoint {
	span := to.Sub(from)
	if span <= 0 {
		return raw
	}
	bucketWidth := span / time.Duration(maxPoints)
	if bucketWidth <= 0 {
		return raw
	}

	sums := make([]float64, maxPoints)
	counts := make([]int, maxPoints)
	for _, p := range raw {
		idx := int(p.Timestamp.Sub(from) / bucketWidth)
		if idx < 0 {
			idx = 0
		}
		if idx >= maxPoints {
			idx = maxPoints - 1
		}
		sums[idx] += p.Value
		counts[idx]++
	}

	out := make([]HistoryPoint, 0, maxPoints)
	for i := 0; i < maxPoints; i++ {
		if counts[i] == 0 {
			continue
		}
		out = append(out, HistoryPoint{
			Timestamp: from.Add(bucketWidth * time.Duration(i)),
			Value:     sums[i] / float64(counts[i]),
		})
	}
	return out
}

// Processes returns the process list from the most recent snapshot.
func (s *Store) Processes(ctx context.Context, n int) ([]model.Process, error) {
	recent, err := s.Recent(ctx, 1)
	if err != nil || len(recent) == 0 {
		return nil, err
	}
	ps := recent[0].Processes
	if n > 0 && len(ps) > n {
		ps = ps[:n]
	}
	return ps, nil
}

// MetricSummary is one metric's avg/min/max/p95 as computed by Summary.
type MetricSummary struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	P95 float64 `json:"p95"`
}

// Summary computes avg/min/max/p95 for every known metric over the
// trailing window.
func (s *Store) Summary(ctx context.Context, window time.Duration) (map[string]MetricSummary, error) {
	to := time.Now()
	from := to.Add(-window)

	out := make(map[string]MetricSummary, len(metricColumn))
	for metric := range metricColumn {
		points, err := s.History(ctx, metric, from, to, 0)
		if err != nil {
			return nil, err
		}
		if len(points) == 0 {
			continue
		}
		out[metric] = summarize(points)
	}
	return out, nil
}

func summarize(points []HistoryPoint) MetricSummary {
	values := make([]float64, len(points))
	var sum float64
	for i, p := range points {
		values[i] = p.Value
		sum += p.Value
	}
	sort.Float64s(values)

	idx := int(float64(len(values)) * 0.95)
	if idx >= len(values) {
		idx = len(values) - 1
	}

	return MetricSummary{
		Avg: sum / float64(len(values)),
		Min: values[0],
		Max: values[len(values)-1],
		P95: values[idx],
	}
}

// Anomalies returns anomaly records in [from, to].
func (s *Store) Anomalies(ctx context.Context, from, to time.Time) ([]model.Anomaly, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, metric_name, current_value, expected_value, deviation_std, severity, context_json
		 FROM anomalies WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC`,
		from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query anomalies: %w", err)
	}
	defer rows.Close()

	var out []model.Anomaly
	for rows.Next() {
		var a model.Anomaly
		var tsMillis int64
		var ctxJSON sql.NullString
		if err := rows.Scan(&a.ID, &tsMillis, &a.MetricName, &a.CurrentValue, &a.ExpectedValue, &a.DeviationStd, &a.Severity, &ctxJSON); err != nil {
			return nil, err
		}
		a.Timestamp = time.UnixMilli(tsMillis).UTC()
		if ctxJSON.Valid && ctxJSON.String != "" {
			_ = json.Unmarshal([]byte(ctxJSON.String), &a.Context)
		}
		out = append(out, a)
	}
	return out, nil
}

// WriteAnomaly appends one anomaly record.
func (s *Store) WriteAnomaly(ctx context.Context, a model.Anomaly) error {
	var ctxJSON []byte
	if a.Context != nil {
		var err error
		ctxJSON, err = json.Marshal(a.Context)
		if err != nil {
			return fmt.Errorf("marshal anomaly context: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO anomalies(timestamp, metric_name, current_value, expected_value, deviation_std, severity, context_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Timestamp.UnixMilli(), a.MetricName, a.CurrentValue, a.ExpectedValue, a.DeviationStd, a.Severity, string(ctxJSON))
	return err
}

// WriteBaseline upserts the single row tracking a metric's current rolling
// baseline (spec.md §3: "latest baseline is kept as a single row per
// metric"). Called by the pattern layer on the VERY_LOW cadence's baseline
// refresh (spec.md §4.8).
func (s *Store) WriteBaseline(ctx context.Context, metric string, mean, stddev float64, sampleCount int64, updatedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO baselines(metric_name, mean, stddev, sample_count, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(metric_name) DO UPDATE SET mean = excluded.mean, stddev = excluded.stddev,
		   sample_count = excluded.sample_count, updated_at = excluded.updated_at`,
		metric, mean, stddev, sampleCount, updatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert baseline: %w", err)
	}
	return nil
}

// RetentionSweep deletes snapshots older than retentionDays and anomalies
// older than anomalyRetentionDays, then compacts the file if it exceeds
// the configured size cap.
func (s *Store) RetentionSweep(ctx context.Context, now time.Time, retentionDays, anomalyRetentionDays int) error {
	cutoff := now.AddDate(0, 0, -retentionDays).UnixMilli()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM system_snapshots WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("retention sweep snapshots: %w", err)
	}

	anomalyCutoff := now.AddDate(0, 0, -anomalyRetentionDays).UnixMilli()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM anomalies WHERE timestamp < ?`, anomalyCutoff); err != nil {
		return fmt.Errorf("retention sweep anomalies: %w", err)
	}

	full, err := s.overSizeCap()
	if err != nil {
		return err
	}
	if full {
		if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
			return fmt.Errorf("vacuum: %w", err)
		}
	}
	return nil
}

func (s *Store) overSizeCap() (bool, error) {
	if s.sizeCapBytes <= 0 {
		return false, nil
	}
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat store file: %w", err)
	}
	return info.Size() > s.sizeCapBytes, nil
}

// SampleCount returns the total number of persisted snapshots and the age
// of the oldest one, the two inputs training-readiness is computed from
// (spec.md §8 testable property 10).
func (s *Store) SampleCount(ctx context.Context) (count int64, oldestAge time.Duration, err error) {
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM system_snapshots`).Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("count snapshots: %w", err)
	}
	if count == 0 {
		return 0, 0, nil
	}

	var oldestMillis int64
	if err := s.db.QueryRowContext(ctx, `SELECT MIN(timestamp) FROM system_snapshots`).Scan(&oldestMillis); err != nil {
		return 0, 0, fmt.Errorf("oldest snapshot: %w", err)
	}
	return count, time.Since(time.UnixMilli(oldestMillis)), nil
}

func isUniqueConstraint(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
