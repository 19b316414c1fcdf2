package sqlite

import (
	"context"
	"fmt"

	"github.com/phrazzld/txspec/internal/store"
)

const tablesQuery = `
SELECT name
FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
ORDER BY name`

const foreignKeysQuery = `
SELECT DISTINCT m.name, p."table"
FROM sqlite_master m
JOIN pragma_foreign_key_list(m.name) p
WHERE m.type = 'table'
ORDER BY 1, 2`

// Tables lists the user tables of the main database.
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

// ForeignKeys lists the referential edges declared by every table.
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
