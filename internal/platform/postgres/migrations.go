package postgres

import (
	"embed"
	"io/fs"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// DriverName is the database/sql driver registered by pgx's stdlib package.
const DriverName = "pgx"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the goose migrations for the example schema, rooted so
// that files sit at the top level.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		// ALLOW-PANIC: the embedded directory is fixed at build time
		panic(err)
	}
	return sub
}
