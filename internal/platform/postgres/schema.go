package postgres

import (
	"context"
	"fmt"

	"github.com/phrazzld/txspec/internal/store"
)

const tablesQuery = `
SELECT tablename
FROM pg_catalog.pg_tables
WHERE schemaname = current_schema()
ORDER BY tablename`

// Only edges within the current schema. relname is the unquoted name, the
// same form pg_tables reports, so mixed-case tables match Tables.
const foreignKeysQuery = `
SELECT DISTINCT child.relname, parent.relname
FROM pg_catalog.pg_constraint c
JOIN pg_catalog.pg_class child ON child.oid = c.conrelid
JOIN pg_catalog.pg_class parent ON parent.oid = c.confrelid
JOIN pg_catalog.pg_namespace n ON n.oid = child.relnamespace
WHERE c.contype = 'f' AND n.nspname = current_schema()
ORDER BY 1, 2`

// Tables lists the base tables of the current schema.
func Tables(ctx context.Context, db store.DBTX) ([]string, error) {
	rows, err := db.QueryContext(ctx, tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// ForeignKeys lists the referential edges between tables of the current schema.
func ForeignKeys(ctx context.Context, db store.DBTX) ([]store.ForeignKey, error) {
	rows, err := db.QueryContext(ctx, foreignKeysQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fks []store.ForeignKey
	for rows.Next() {
		var fk store.ForeignKey
		if err := rows.Scan(&fk.Table, &fk.References); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}
