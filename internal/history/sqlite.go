package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// SQLiteRepository implements Repository using the ir_events table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite history repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteRepository: Repository instance ready for use
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts a new event row.
func (r *SQLiteRepository) Record(ctx context.Context, event Event) error {
	if event.Receiver == "" {
		return fmt.Errorf("receiver is required")
	}
	if !event.Matched {
		event.Remote = ""
		event.Keymap = ""
		event.Keycode = -1
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ir_events (receiver, protocol, device, command, remote, keymap, keycode, matched, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.Receiver,
		event.Protocol,
		event.Device,
		event.Command,
		event.Remote,
		event.Keymap,
		event.Keycode,
		boolToInt(event.Matched),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting ir event: %w", err)
	}

	return nil
}

// GetRecent returns recent events across all remotes, ordered newest first.
func (r *SQLiteRepository) GetRecent(ctx context.Context, limit int) ([]Event, error) {
	limit = clampLimit(limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, receiver, protocol, device, command, remote, keymap, keycode, matched, created_at
		 FROM ir_events
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying ir events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows, limit)
}

// GetByRemote returns recent matched events for the named remote, ordered newest first.
func (r *SQLiteRepository) GetByRemote(ctx context.Context, remote string, limit int) ([]Event, error) {
	if remote == "" {
		return nil, fmt.Errorf("remote is required")
	}
	limit = clampLimit(limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, receiver, protocol, device, command, remote, keymap, keycode, matched, created_at
		 FROM ir_events
		 WHERE remote = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		remote,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying ir events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows, limit)
}

// Prune deletes events older than the given duration.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM ir_events WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting ir events: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// scanEvents reads event rows into a slice.
func scanEvents(rows *sql.Rows, capacity int) ([]Event, error) {
	events := make([]Event, 0, capacity)
	for rows.Next() {
		var event Event
		var matched int
		var createdAt string

		if err := rows.Scan(
			&event.ID,
			&event.Receiver,
			&event.Protocol,
			&event.Device,
			&event.Command,
			&event.Remote,
			&event.Keymap,
			&event.Keycode,
			&matched,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning ir event: %w", err)
		}

		event.Matched = matched != 0

		timestamp, err := parseEventTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		event.CreatedAt = timestamp

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ir events: %w", err)
	}

	return events, nil
}

// parseEventTimestamp parses a timestamp stored in SQLite.
func parseEventTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
	}

	return timestamp, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
