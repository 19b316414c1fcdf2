package testdb

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"

	"github.com/phrazzld/txspec/internal/ciutil"
	"github.com/phrazzld/txspec/internal/platform/database"
)

// This file contains error formatting utilities for enhanced diagnostics.

func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}

func envInfo() string {
	return fmt.Sprintf("CI environment: %v\nCurrent working directory: %s",
		ciutil.IsCI(), getCurrentDir())
}

// formatDBConnectionError creates a detailed error message for a database
// that stopped answering. It includes pool statistics and troubleshooting
// guidance.
func formatDBConnectionError(baseErr error, db *sql.DB) error {
	stats := db.Stats()
	return fmt.Errorf("%w\nPool: MaxOpen=%d, Open=%d, InUse=%d, Idle=%d\n%s\n"+
		"Please check:\n"+
		"1. The database service is running\n"+
		"2. Credentials and connection string are correct\n"+
		"3. The database exists and is accessible\n"+
		"4. Network connectivity and firewall settings",
		baseErr, stats.MaxOpenConnections, stats.OpenConnections, stats.InUse, stats.Idle,
		envInfo())
}

// formatEnvVarError explains which variable would configure a missing target.
func formatEnvVarError(name string) error {
	vars := []string{ciutil.TargetEnvVar(name)}
	if name == "postgres" {
		vars = append(vars, ciutil.EnvDatabaseURL)
	}
	return fmt.Errorf("no connection string for target %q\n"+
		"Set one of %v, or add targets.%s.url to the file named by %s\n%s",
		name, vars, name, ciutil.EnvConfigFile, envInfo())
}

// formatMigrationError creates a detailed error message when the example
// schema cannot be applied.
func formatMigrationError(baseErr error, dialect database.Dialect) error {
	migrationFiles := ""
	if migrations, err := dialect.Migrations(); err == nil {
		if entries, err := fs.ReadDir(migrations, "."); err == nil {
			names := make([]string, 0, len(entries))
			for _, entry := range entries {
				names = append(names, entry.Name())
			}
			migrationFiles = fmt.Sprintf("\nMigration files: %v", names)
		}
	}

	return fmt.Errorf("failed to run %s migrations: %w%s\n%s\n"+
		"Please check:\n"+
		"1. Migration files are valid for the dialect\n"+
		"2. Database connection is working\n"+
		"3. Database user has permissions to create tables and modify schema",
		dialect, baseErr, migrationFiles, envInfo())
}
