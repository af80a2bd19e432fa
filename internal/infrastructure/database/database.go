package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	dirPerm  = 0750
	filePerm = 0600

	// openTimeout bounds the connectivity check in Open.
	openTimeout = 5 * time.Second

	idleConnLifetime = 30 * time.Minute
)

// DB is the SQLite handle backing the signal log.
//
// The embedded sql.DB carries the query surface; this wrapper owns the
// connection string, the schema migration runner, and lifecycle.
type DB struct {
	*sql.DB
	path string
}

// Config holds the database section of config.yaml.
type Config struct {
	// Path is the SQLite file location. Parent directories are created
	// on first open.
	Path string

	// WALMode turns on write-ahead logging so history reads do not
	// block the bridge's event inserts.
	WALMode bool

	// BusyTimeout is how long a statement waits on a locked database,
	// in seconds.
	BusyTimeout int
}

// dsn builds the go-sqlite3 connection string for cfg.
//
// Foreign keys are always on. WAL mode relaxes synchronous to NORMAL,
// which is durable across application crashes (though not power loss
// mid-checkpoint) and avoids an fsync per signal insert.
func dsn(cfg Config) string {
	s := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		cfg.Path, cfg.BusyTimeout*1000)
	if cfg.WALMode {
		s += "&_journal_mode=WAL&_synchronous=NORMAL"
	}
	return s
}

// Open opens (creating if needed) the signal log database and verifies
// it responds before returning.
//
// The pool is pinned to a single connection. SQLite allows one writer,
// and the event volume of an IR installation never needs more.
func Open(cfg Config) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPerm); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(idleConnLifetime)

	db := &DB{DB: sqlDB, path: cfg.Path}

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	// Owner read/write only. The file may not exist yet on a fresh
	// open; it picks up the mode after the first write.
	_ = os.Chmod(cfg.Path, filePerm) //nolint:errcheck // First run creates the file later

	return db, nil
}

// Close releases the underlying connection. Safe on a zero DB.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck runs a trivial query to confirm the handle is usable.
func (db *DB) HealthCheck(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
