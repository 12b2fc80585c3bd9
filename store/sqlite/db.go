// Package sqlite provides SQLite-backed implementations of the durable store
// interfaces: WorkerStore, ItemStore, and AssignmentLog. It is the persistence
// layer for single-node deployments where running an external database is not
// worth the operational cost.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps an SQLite connection shared by the store implementations.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (creating if necessary) the database file at path, enables WAL
// mode, and applies pending schema migrations.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return newDB(conn, path)
}

// OpenMemory opens an in-memory database. Intended for tests.
func OpenMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return newDB(conn, ":memory:")
}

func newDB(conn *sql.DB, path string) (*DB, error) {
	// An in-memory database exists per connection, and file databases do not
	// benefit from write concurrency. Pin the pool to one connection.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Workers returns the worker store backed by this database.
func (db *DB) Workers() *WorkerStore {
	return &WorkerStore{db: db}
}

// Items returns the item store backed by this database.
func (db *DB) Items() *ItemStore {
	return &ItemStore{db: db}
}

// Assignments returns the assignment log backed by this database.
func (db *DB) Assignments() *AssignmentLog {
	return &AssignmentLog{db: db}
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Workers},
		{2, migrationV2Items},
		{3, migrationV3Assignments},
		{4, migrationV4Audit},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Workers = `
CREATE TABLE IF NOT EXISTS workers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	skills TEXT NOT NULL DEFAULT '[]',
	ceiling REAL NOT NULL DEFAULT 0,
	current_load REAL NOT NULL DEFAULT 0,
	availability TEXT NOT NULL DEFAULT 'offline',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_workers_availability ON workers(availability);
`

const migrationV2Items = `
CREATE TABLE IF NOT EXISTS items (
	id TEXT PRIMARY KEY,
	ref_code TEXT NOT NULL UNIQUE,
	type_code TEXT NOT NULL,
	weight REAL NOT NULL DEFAULT 0,
	urgency TEXT NOT NULL DEFAULT '',
	skill TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	assigned_to TEXT,
	locked_by TEXT,
	locked_at TEXT,
	completed_at TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_status ON items(status);
CREATE INDEX IF NOT EXISTS idx_items_assigned_to ON items(assigned_to);
`

const migrationV3Assignments = `
CREATE TABLE IF NOT EXISTS assignments (
	id TEXT PRIMARY KEY,
	item_id TEXT NOT NULL,
	worker_id TEXT NOT NULL,
	mechanism TEXT NOT NULL,
	load_after REAL NOT NULL DEFAULT 0,
	assigned_at TEXT NOT NULL,
	seq INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assignments_item_id ON assignments(item_id);
CREATE INDEX IF NOT EXISTS idx_assignments_worker_id ON assignments(worker_id);
`

const migrationV4Audit = `
CREATE TABLE IF NOT EXISTS audit_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	actor TEXT NOT NULL,
	action TEXT NOT NULL,
	resource_type TEXT NOT NULL DEFAULT '',
	resource_id TEXT NOT NULL DEFAULT '',
	context TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '{}',
	at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_log_actor ON audit_log(actor);
CREATE INDEX IF NOT EXISTS idx_audit_log_resource ON audit_log(resource_type, resource_id);
`

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return formatTime(*t)
}

func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil
	}

	return &t
}
