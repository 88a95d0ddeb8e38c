package store

// schemaVersion is the version this binary's schema corresponds to. A
// store file whose schema_metadata.version is numerically greater than
// this is refused with ErrSchemaTooNew (spec.md §6.3).
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS system_snapshots (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp  INTEGER NOT NULL UNIQUE,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cpu_metrics (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    snapshot_id         INTEGER NOT NULL REFERENCES system_snapshots(id) ON DELETE CASCADE,
    usage_percent       REAL NOT NULL,
    frequency_mhz       REAL,
    temperature_celsius REAL,
    logical_count       INTEGER NOT NULL,
    physical_count      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cpu_core_usage (
    cpu_metric_id  INTEGER NOT NULL REFERENCES cpu_metrics(id) ON DELETE CASCADE,
    core_index     INTEGER NOT NULL,
    usage_percent  REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS ram_metrics (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    snapshot_id    INTEGER NOT NULL REFERENCES system_snapshots(id) ON DELETE CASCADE,
    total_gb       REAL NOT NULL,
    used_gb        REAL NOT NULL,
    available_gb   REAL NOT NULL,
    cached_gb      REAL NOT NULL,
    swap_total_gb  REAL NOT NULL,
    swap_used_gb   REAL NOT NULL,
    usage_percent  REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS gpu_metrics (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    snapshot_id      INTEGER NOT NULL REFERENCES system_snapshots(id) ON DELETE CASCADE,
    name             TEXT NOT NULL,
    usage_percent    REAL NOT NULL,
    memory_used_gb   REAL NOT NULL,
    memory_total_gb  REAL NOT NULL,
    temperature_celsius REAL,
    fan_rpm          REAL NOT NULL,
    power_watts      REAL NOT NULL,
    core_clock_mhz   REAL,
    memory_clock_mhz REAL
);

CREATE TABLE IF NOT EXISTS disk_metrics (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    snapshot_id   INTEGER NOT NULL REFERENCES system_snapshots(id) ON DELETE CASCADE,
    read_mbps     REAL NOT NULL,
    write_mbps    REAL NOT NULL,
    queue_length  REAL NOT NULL,
    io_ops_per_sec REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS disk_devices (
    disk_metric_id INTEGER NOT NULL REFERENCES disk_metrics(id) ON DELETE CASCADE,
    device         TEXT NOT NULL,
    total_gb       REAL NOT NULL,
    used_gb        REAL NOT NULL,
    free_gb        REAL NOT NULL,
    usage_percent  REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS network_metrics (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    snapshot_id        INTEGER NOT NULL REFERENCES system_snapshots(id) ON DELETE CASCADE,
    download_mbps      REAL NOT NULL,
    upload_mbps        REAL NOT NULL,
    connections_active INTEGER NOT NULL,
    bytes_sent         INTEGER NOT NULL,
    bytes_received     INTEGER NOT NULL,
    packets_sent       INTEGER NOT NULL,
    packets_received   INTEGER NOT NULL,
    errors             INTEGER NOT NULL,
    warming_up         INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS process_info (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    snapshot_id   INTEGER NOT NULL REFERENCES system_snapshots(id) ON DELETE CASCADE,
    name          TEXT NOT NULL,
    pid           INTEGER NOT NULL,
    cpu_percent   REAL NOT NULL,
    memory_mb     REAL NOT NULL,
    thread_count  INTEGER NOT NULL,
    status        TEXT NOT NULL,
    started_at    INTEGER
);

CREATE TABLE IF NOT EXISTS system_context (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    snapshot_id   INTEGER NOT NULL REFERENCES system_snapshots(id) ON DELETE CASCADE,
    user_active   INTEGER NOT NULL,
    idle_seconds  REAL NOT NULL,
    screen_locked INTEGER NOT NULL,
    time_of_day   TEXT NOT NULL,
    day_of_week   TEXT NOT NULL,
    user_action   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS anomalies (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp      INTEGER NOT NULL,
    metric_name    TEXT NOT NULL,
    current_value  REAL NOT NULL,
    expected_value REAL NOT NULL,
    deviation_std  REAL NOT NULL,
    severity       TEXT NOT NULL,
    context_json   TEXT
);

CREATE TABLE IF NOT EXISTS baselines (
    metric_name TEXT PRIMARY KEY,
    mean        REAL NOT NULL,
    stddev      REAL NOT NULL,
    sample_count INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON system_snapshots(timestamp);
CREATE INDEX IF NOT EXISTS idx_cpu_metrics_snapshot ON cpu_metrics(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_ram_metrics_snapshot ON ram_metrics(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_anomalies_timestamp ON anomalies(timestamp);
`
