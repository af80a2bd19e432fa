package history

import (
	"context"
	"time"
)

// Event represents a single processed IR signal.
//
// Unmatched signals have Matched=false, an empty Remote and Keymap, and
// Keycode of -1. Matched signals fill all fields.
type Event struct {
	// ID is the auto-incremented primary key for the event row.
	ID int64 `json:"id"`

	// Receiver identifies the bridge that decoded the signal.
	Receiver string `json:"receiver"`

	// Protocol is the decoded IR protocol identifier.
	Protocol int32 `json:"protocol"`

	// Device is the decoded device address within the protocol.
	Device int32 `json:"device"`

	// Command is the decoded command code.
	Command int32 `json:"command"`

	// Remote is the name of the remote whose keymap matched (empty if unmatched).
	Remote string `json:"remote,omitempty"`

	// Keymap is the name of the matching keymap entry (empty if unmatched).
	Keymap string `json:"keymap,omitempty"`

	// Keycode is the key the signal translated to (-1 if unmatched).
	Keycode int32 `json:"keycode"`

	// Matched reports whether the signal resolved against a keymap.
	Matched bool `json:"matched"`

	// CreatedAt is the timestamp the event was recorded (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// Repository stores and retrieves IR signal history.
//
// Implementations must be thread-safe and use UTC timestamps.
type Repository interface {
	// Record persists a processed signal.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - event: Event to persist (CreatedAt is set by the repository)
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	Record(ctx context.Context, event Event) error

	// GetRecent returns the most recent events across all remotes.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - limit: Maximum entries to return (implementation may clamp bounds)
	//
	// Returns:
	//   - []Event: Ordered newest-first (may be empty)
	//   - error: nil on success, otherwise the underlying query error
	GetRecent(ctx context.Context, limit int) ([]Event, error)

	// GetByRemote returns recent events that matched the named remote.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - remote: Remote group name
	//   - limit: Maximum entries to return (implementation may clamp bounds)
	//
	// Returns:
	//   - []Event: Ordered newest-first (may be empty)
	//   - error: nil on success, otherwise the underlying query error
	GetByRemote(ctx context.Context, remote string, limit int) ([]Event, error)

	// Prune deletes events older than the given duration.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - olderThan: Duration to retain
	//
	// Returns:
	//   - int64: Number of rows deleted
	//   - error: nil on success, otherwise the underlying database error
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}
