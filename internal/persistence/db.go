// Package persistence stores empire snapshots in SQLite. Each save writes
// the whole state as one compressed, checksummed document and archives
// combat reports and system logs into their own tables for later browsing.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/core-protocol/internal/empire"
	"github.com/talgya/core-protocol/internal/entropy"
)

// KeepSnapshots is how many snapshots survive pruning after a save.
const KeepSnapshots = 5

// DB wraps a SQLite connection for empire state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		saved_at INTEGER NOT NULL,
		codec TEXT NOT NULL,
		checksum TEXT NOT NULL,
		size INTEGER NOT NULL,
		payload BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS combat_reports (
		id TEXT PRIMARY KEY,
		time INTEGER NOT NULL,
		target TEXT NOT NULL,
		defender TEXT NOT NULL,
		winner TEXT NOT NULL,
		body TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS system_logs (
		id TEXT PRIMARY KEY,
		time INTEGER NOT NULL,
		kind TEXT NOT NULL,
		colony TEXT NOT NULL,
		message TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_time ON combat_reports(time);
	CREATE INDEX IF NOT EXISTS idx_logs_time ON system_logs(time);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SnapshotInfo describes a stored snapshot without its payload.
type SnapshotInfo struct {
	ID       int64  `db:"id"`
	SavedAt  int64  `db:"saved_at"` // Unix milliseconds
	Codec    string `db:"codec"`
	Checksum string `db:"checksum"`
	Size     int    `db:"size"`
}

// Time is when the snapshot was written.
func (si SnapshotInfo) Time() time.Time {
	return time.UnixMilli(si.SavedAt).UTC()
}

type snapshotRow struct {
	SnapshotInfo
	Payload []byte `db:"payload"`
}

// SaveState writes a full snapshot and archives reports and logs.
func (db *DB) SaveState(s *empire.State, now time.Time) error {
	payload, checksum, err := Encode(s)
	if err != nil {
		return err
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO snapshots (saved_at, codec, checksum, size, payload) VALUES (?, ?, ?, ?, ?)",
		now.UnixMilli(), Codec, checksum, len(payload), payload,
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.Exec(
		"DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)",
		KeepSnapshots,
	); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}

	for _, r := range s.Reports {
		body, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal report %s: %w", r.ID, err)
		}
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO combat_reports (id, time, target, defender, winner, body) VALUES (?, ?, ?, ?, ?, ?)",
			r.ID, r.Time.UnixMilli(), r.Target.Key(), r.DefenderName, string(r.Winner), string(body),
		); err != nil {
			return fmt.Errorf("archive report %s: %w", r.ID, err)
		}
	}

	for _, l := range s.Logs {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO system_logs (id, time, kind, colony, message) VALUES (?, ?, ?, ?, ?)",
			l.ID, l.Time.UnixMilli(), string(l.Kind), l.ColonyName, l.Message,
		); err != nil {
			return fmt.Errorf("archive log %s: %w", l.ID, err)
		}
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES ('last_saved', ?)",
		now.UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("empire state saved", "bytes", len(payload), "colonies", len(s.Colonies), "missions", len(s.Missions))
	return nil
}

// HasState reports whether any snapshot has been written.
func (db *DB) HasState() bool {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM snapshots"); err != nil {
		return false
	}
	return n > 0
}

// LatestState decodes the newest snapshot.
func (db *DB) LatestState() (*empire.State, error) {
	var row snapshotRow
	err := db.conn.Get(&row, "SELECT id, saved_at, codec, checksum, size, payload FROM snapshots ORDER BY id DESC LIMIT 1")
	if err != nil {
		return nil, err
	}
	if row.Codec != Codec {
		return nil, fmt.Errorf("snapshot %d: unknown codec %q", row.ID, row.Codec)
	}
	return Decode(row.Payload, row.Checksum)
}

// LoadState returns the saved empire, or a fresh default empire when nothing
// usable is stored. restored reports which of the two happened.
func (db *DB) LoadState(now time.Time, rng entropy.Source) (s *empire.State, restored bool) {
	s, err := db.LatestState()
	switch {
	case err == nil:
		return s, true
	case errors.Is(err, sql.ErrNoRows):
		slog.Info("no saved empire, starting fresh")
	default:
		slog.Warn("saved empire unreadable, starting fresh", "error", err)
	}
	return empire.NewState(now, rng), false
}

// Snapshots lists stored snapshots, newest first.
func (db *DB) Snapshots() ([]SnapshotInfo, error) {
	var out []SnapshotInfo
	err := db.conn.Select(&out, "SELECT id, saved_at, codec, checksum, size FROM snapshots ORDER BY id DESC")
	return out, err
}

// RecentReports returns archived combat reports, newest first.
func (db *DB) RecentReports(limit, offset int) ([]empire.CombatReport, error) {
	var bodies []string
	err := db.conn.Select(&bodies,
		"SELECT body FROM combat_reports ORDER BY time DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	out := make([]empire.CombatReport, 0, len(bodies))
	for _, b := range bodies {
		var r empire.CombatReport
		if err := json.Unmarshal([]byte(b), &r); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

type logRow struct {
	ID      string `db:"id"`
	Time    int64  `db:"time"`
	Kind    string `db:"kind"`
	Colony  string `db:"colony"`
	Message string `db:"message"`
}

// RecentLogs returns archived system log entries, newest first.
func (db *DB) RecentLogs(limit, offset int) ([]empire.LogEntry, error) {
	var rows []logRow
	err := db.conn.Select(&rows,
		"SELECT id, time, kind, colony, message FROM system_logs ORDER BY time DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	out := make([]empire.LogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, empire.LogEntry{
			ID:         r.ID,
			Time:       time.UnixMilli(r.Time).UTC(),
			Kind:       empire.LogKind(r.Kind),
			Message:    r.Message,
			ColonyName: r.Colony,
		})
	}
	return out, nil
}

// SaveMeta stores a key-value pair in metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}
