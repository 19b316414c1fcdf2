package cleanup_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/txspec/internal/catalog"
	"github.com/phrazzld/txspec/internal/cleanup"
	"github.com/phrazzld/txspec/internal/config"
	"github.com/phrazzld/txspec/internal/platform/database"
	"github.com/phrazzld/txspec/internal/store"
)

func seededSQLite(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	target := config.TargetConfig{URL: "sqlite://" + filepath.Join(t.TempDir(), "cleanup.db")}
	db, dialect, err := database.Open(ctx, target, database.Options{ForeignKeys: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db, dialect, nil))

	artist := &store.Artist{Name: "Max Roach"}
	require.NoError(t, catalog.NewArtistStore(db, dialect, nil).Create(ctx, artist))
	require.NoError(t, catalog.NewAlbumStore(db, dialect, nil).
		Create(ctx, &store.Album{ArtistID: artist.ID, Title: "We Insist!"}))
	return db
}

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestClean_ChildBeforeParentSucceeds(t *testing.T) {
	db := seededSQLite(t)

	err := cleanup.New(db, database.SQLite, "albums", "artists").Clean(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count(t, db, "albums"))
	assert.Zero(t, count(t, db, "artists"))
}

func TestClean_ParentBeforeChildFails(t *testing.T) {
	db := seededSQLite(t)

	err := cleanup.New(db, database.SQLite, "artists", "albums").Clean(context.Background())
	require.Error(t, err)
	assert.True(t, database.SQLite.IsForeignKeyViolation(err))

	// Nothing was deleted: the failing DELETE was the first one.
	assert.Equal(t, 1, count(t, db, "artists"))
	assert.Equal(t, 1, count(t, db, "albums"))
}

func TestPlan_SQLite(t *testing.T) {
	db := seededSQLite(t)
	ctx := context.Background()

	order, err := cleanup.Plan(ctx, db, database.SQLite)
	require.NoError(t, err)
	assert.Equal(t, []string{"albums", "artists"}, order)

	c, err := cleanup.NewPlanned(ctx, db, database.SQLite)
	require.NoError(t, err)
	require.NoError(t, c.Clean(ctx))
	assert.Zero(t, count(t, db, "artists"))

	// Goose's bookkeeping survives cleanup.
	assert.Positive(t, count(t, db, database.MigrationTable))
}
