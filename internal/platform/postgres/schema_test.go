package postgres_test

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/txspec/internal/platform/postgres"
	"github.com/phrazzld/txspec/internal/store"
)

func TestTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM pg_catalog.pg_tables").
		WillReturnRows(sqlmock.NewRows([]string{"tablename"}).
			AddRow("albums").
			AddRow("artists").
			AddRow("schema_migrations"))

	tables, err := postgres.Tables(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"albums", "artists", "schema_migrations"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForeignKeys(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM pg_catalog.pg_constraint").
		WillReturnRows(sqlmock.NewRows([]string{"relname", "relname"}).
			AddRow("albums", "artists"))

	fks, err := postgres.ForeignKeys(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []store.ForeignKey{{Table: "albums", References: "artists"}}, fks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForeignKeys_MixedCaseNames(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM pg_catalog.pg_tables").
		WillReturnRows(sqlmock.NewRows([]string{"tablename"}).
			AddRow("PlaylistItems").
			AddRow("Playlists"))
	mock.ExpectQuery(`(?s)SELECT DISTINCT child\.relname, parent\.relname.*JOIN pg_catalog\.pg_class child`).
		WillReturnRows(sqlmock.NewRows([]string{"relname", "relname"}).
			AddRow("PlaylistItems", "Playlists"))

	ctx := context.Background()
	tables, err := postgres.Tables(ctx, db)
	require.NoError(t, err)
	fks, err := postgres.ForeignKeys(ctx, db)
	require.NoError(t, err)

	require.Len(t, fks, 1)
	assert.Contains(t, tables, fks[0].Table, "edge names must match table names")
	assert.Contains(t, tables, fks[0].References, "edge names must match table names")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForeignKeys_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM pg_catalog.pg_constraint").
		WillReturnError(errors.New("permission denied for table pg_constraint"))

	_, err = postgres.ForeignKeys(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list foreign keys")
}

func TestMigrations_Embedded(t *testing.T) {
	entries, err := fs.ReadDir(postgres.Migrations(), ".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_create_catalog.sql", entries[0].Name())
}
