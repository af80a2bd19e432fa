// Package history stores translated IR signal history in SQLite.
//
// Every decoded signal the translator processes is recorded, matched or
// not. Matched signals carry the remote, keymap and keycode they resolved
// to; unmatched signals keep the raw triple only. The table provides a
// local audit trail for debugging receiver placement and keymap coverage.
//
// # Architecture
//
//	Translator → history.Repository → ir_events (SQLite)
//	                                      ↑
//	                         API handlers read recent events
//
// Retention is time-based. The service prunes old rows periodically via
// Prune; there is no per-remote cap.
//
// Usage:
//
//	repo := history.NewSQLiteRepository(db.DB)
//	err := repo.Record(ctx, history.Event{
//	    Receiver: "lirc-living",
//	    Protocol: 5, Device: 7, Command: 21,
//	    Remote:  "living-room-tv",
//	    Keymap:  "power",
//	    Keycode: 116,
//	    Matched: true,
//	})
package history
