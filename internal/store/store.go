// Package store provides SQLite-backed persistence for key-value state and
// the usage snapshot history.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/ccpace/internal/kvstore"
	"github.com/theirongolddev/ccpace/internal/usage"

	_ "modernc.org/sqlite" // register sqlite driver
)

// DB wraps the ccpace SQLite database.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db, now: time.Now}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Bucket returns a key-value view scoped to one bucket.
func (d *DB) Bucket(name string) kvstore.Store {
	return &bucket{d: d, name: name}
}

type bucket struct {
	d    *DB
	name string
}

func (b *bucket) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := b.d.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE bucket = ? AND key = ?", b.name, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %q", kvstore.ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("store: get %s/%s: %w", b.name, key, err)
	}
	return v, nil
}

func (b *bucket) Set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("store: key is empty")
	}
	_, err := b.d.db.ExecContext(ctx, `INSERT INTO kv (bucket, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(bucket, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		b.name, key, value, b.d.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: set %s/%s: %w", b.name, key, err)
	}
	return nil
}

func (b *bucket) Delete(ctx context.Context, key string) error {
	if _, err := b.d.db.ExecContext(ctx,
		"DELETE FROM kv WHERE bucket = ? AND key = ?", b.name, key); err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", b.name, key, err)
	}
	return nil
}

func (b *bucket) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := b.d.db.QueryContext(ctx, "SELECT key FROM kv WHERE bucket = ?", b.name)
	if err != nil {
		return nil, fmt.Errorf("store: keys %s: %w", b.name, err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, rows.Err()
}

// SnapshotRecord is one stored usage reading with the pacing labels computed
// when it was taken.
type SnapshotRecord struct {
	ID            int64
	Snapshot      usage.Snapshot
	SessionPacing string
	WeeklyPacing  string
}

// InsertSnapshot stores a usage reading.
func (d *DB) InsertSnapshot(ctx context.Context, rec SnapshotRecord) (int64, error) {
	s := rec.Snapshot
	ts := s.FetchedAt
	if ts.IsZero() {
		ts = d.now()
	}

	res, err := d.db.ExecContext(ctx, `INSERT INTO usage_snapshots
		(ts_ms, session_pct, session_reset, all_pct, all_reset, sonnet_pct, sonnet_reset,
		 session_pacing, weekly_pacing, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.UnixMilli(),
		nullInt(s.Session.UsedPercent), s.Session.ResetIn,
		nullInt(s.AllModels.UsedPercent), s.AllModels.ResetsAt,
		nullInt(s.Sonnet.UsedPercent), s.Sonnet.ResetsAt,
		rec.SessionPacing, rec.WeeklyPacing, s.Err,
	)
	if err != nil {
		return 0, fmt.Errorf("store: inserting snapshot: %w", err)
	}
	return res.LastInsertId()
}

// RecentSnapshots returns up to limit readings, newest first.
func (d *DB) RecentSnapshots(ctx context.Context, limit int) ([]SnapshotRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx, `SELECT id, ts_ms, session_pct, session_reset, all_pct, all_reset,
		sonnet_pct, sonnet_reset, session_pacing, weekly_pacing, error
		FROM usage_snapshots ORDER BY ts_ms DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: querying snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SnapshotRecord
	for rows.Next() {
		var (
			rec                         SnapshotRecord
			tsMs                        int64
			sessPct, allPct, sonnetPct  sql.NullInt64
			sessReset, allReset, sonnet sql.NullString
			sessPacing, weekPacing, msg sql.NullString
		)
		if err := rows.Scan(&rec.ID, &tsMs, &sessPct, &sessReset, &allPct, &allReset,
			&sonnetPct, &sonnet, &sessPacing, &weekPacing, &msg); err != nil {
			return nil, err
		}
		rec.Snapshot = usage.Snapshot{
			Session:   usage.Session{UsedPercent: intPtr(sessPct), ResetIn: sessReset.String},
			AllModels: usage.Weekly{UsedPercent: intPtr(allPct), ResetsAt: allReset.String},
			Sonnet:    usage.Weekly{UsedPercent: intPtr(sonnetPct), ResetsAt: sonnet.String},
			Err:       msg.String,
			FetchedAt: time.UnixMilli(tsMs),
		}
		rec.SessionPacing = sessPacing.String
		rec.WeeklyPacing = weekPacing.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PruneSnapshots deletes readings older than cutoff and reports how many
// were removed.
func (d *DB) PruneSnapshots(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx, "DELETE FROM usage_snapshots WHERE ts_ms < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("store: pruning snapshots: %w", err)
	}
	return res.RowsAffected()
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
