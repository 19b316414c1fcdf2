package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/phrazzld/txspec/internal/platform/database"
	"github.com/phrazzld/txspec/internal/platform/logger"
	"github.com/phrazzld/txspec/internal/store"
)

// Cleaner deletes all rows from a fixed list of tables.
type Cleaner struct {
	db      store.DBTX
	dialect database.Dialect
	tables  []string
}

// New returns a Cleaner that deletes from tables in the given order.
func New(db store.DBTX, dialect database.Dialect, tables ...string) *Cleaner {
	return &Cleaner{db: db, dialect: dialect, tables: slices.Clone(tables)}
}

// Tables returns the delete order.
func (c *Cleaner) Tables() []string {
	return slices.Clone(c.tables)
}

// Clean runs DELETE FROM for each table in order and stops at the first
// failure. The returned error names the table and wraps the driver error, so
// Dialect.IsForeignKeyViolation still recognizes an ordering mistake.
func (c *Cleaner) Clean(ctx context.Context) error {
	log := logger.FromContext(ctx)

	for _, table := range c.tables {
		result, err := c.db.ExecContext(ctx, "DELETE FROM "+c.dialect.QuoteIdent(table))
		if err != nil {
			log.Error("cleanup delete failed",
				slog.String("table", table),
				slog.Bool("foreign_key_violation", c.dialect.IsForeignKeyViolation(err)),
				slog.String("error", err.Error()))
			return fmt.Errorf("failed to clean table %s: %w", table, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			log.Debug("cleaned table", slog.String("table", table), slog.Int64("rows", n))
		}
	}
	return nil
}

// Plan introspects the schema and returns a child-before-parent delete order
// for every user table except goose's bookkeeping table.
func Plan(ctx context.Context, db store.DBTX, dialect database.Dialect) ([]string, error) {
	tables, err := dialect.Tables(ctx, db)
	if err != nil {
		return nil, err
	}
	tables = slices.DeleteFunc(tables, func(t string) bool {
		return t == database.MigrationTable
	})

	fks, err := dialect.ForeignKeys(ctx, db)
	if err != nil {
		return nil, err
	}
	return Order(tables, fks)
}

// NewPlanned returns a Cleaner for every user table in a derived order.
func NewPlanned(ctx context.Context, db store.DBTX, dialect database.Dialect) (*Cleaner, error) {
	tables, err := Plan(ctx, db, dialect)
	if err != nil {
		return nil, err
	}
	return New(db, dialect, tables...), nil
}
