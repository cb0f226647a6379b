package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
    bucket               TEXT NOT NULL,
    key                  TEXT NOT NULL,
    value                TEXT NOT NULL,
    updated_at           TEXT NOT NULL,
    PRIMARY KEY (bucket, key)
);

CREATE TABLE IF NOT EXISTS usage_snapshots (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    ts_ms                INTEGER NOT NULL,
    session_pct          INTEGER,
    session_reset        TEXT,
    all_pct              INTEGER,
    all_reset            TEXT,
    sonnet_pct           INTEGER,
    sonnet_reset         TEXT,
    session_pacing       TEXT,
    weekly_pacing        TEXT,
    error                TEXT
);

CREATE INDEX IF NOT EXISTS idx_usage_snapshots_ts ON usage_snapshots(ts_ms);
`
