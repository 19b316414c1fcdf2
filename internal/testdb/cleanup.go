package testdb

import (
	"context"
	"database/sql"
	"testing"

	"github.com/phrazzld/txspec/internal/cleanup"
	"github.com/phrazzld/txspec/internal/platform/database"
)

// CleanupTables deletes every row from tables, in the given order, when t
// finishes. Tables that reference others must come first. With no tables the
// order is derived from the schema at cleanup time.
//
// An ordering mistake is not corrected: the foreign key violation is reported
// as a test error.
func CleanupTables(t testing.TB, db *sql.DB, dialect database.Dialect, tables ...string) {
	t.Helper()

	t.Cleanup(func() {
		ctx := context.Background()

		c := cleanup.New(db, dialect, tables...)
		if len(tables) == 0 {
			planned, err := cleanup.NewPlanned(ctx, db, dialect)
			if err != nil {
				t.Errorf("Failed to plan table cleanup: %v", err)
				return
			}
			c = planned
		}

		if err := c.Clean(ctx); err != nil {
			if dialect.IsForeignKeyViolation(err) {
				t.Errorf("Table cleanup order %v violates a foreign key; list referencing tables first: %v",
					c.Tables(), err)
				return
			}
			t.Errorf("Table cleanup failed: %v", err)
		}
	})
}
