// Package migrations compiles the signal log schema files into the
// binary, so a deployed daemon migrates itself without SQL files on
// disk. Migrations are forward-only; see the database package.
package migrations

import (
	"embed"

	"github.com/irlogic/irlogic-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	// Register embedded migrations with the database package.
	// The embed directive above captures all .sql files in this directory.
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // Files are at root of embedded FS
}
