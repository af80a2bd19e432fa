// Package database owns the SQLite file that stores IR signal history.
//
// The store is deliberately small: one handle, one writer, WAL mode so
// the API can read history while the bridge records signals. Schema
// changes ship as embedded forward-only migrations applied on startup.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// The database file is created with mode 0600. All queries in this
// module use parameterised statements.
package database
