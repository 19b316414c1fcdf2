package catalog_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/txspec/internal/catalog"
	"github.com/phrazzld/txspec/internal/platform/database"
	"github.com/phrazzld/txspec/internal/store"
)

func TestAlbumStore_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO albums (id, artist_id, title, created_at) VALUES ($1, $2, $3, $4)`)).
		WithArgs(sqlmock.AnyArg(), "a1", "Kind of Blue", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	albums := catalog.NewAlbumStore(db, database.Postgres, nil)
	album := &store.Album{ArtistID: "a1", Title: "Kind of Blue"}
	require.NoError(t, albums.Create(context.Background(), album))
	assert.Len(t, album.ID, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlbumStore_PostgresForeignKeyViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO albums").
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "albums_artist_id_fkey"})

	albums := catalog.NewAlbumStore(db, database.Postgres, nil)
	err = albums.Create(context.Background(), &store.Album{ArtistID: "missing", Title: "Orphan"})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.Contains(t, err.Error(), "artist with ID missing not found")
	assert.True(t, database.Postgres.IsForeignKeyViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArtistStore_PostgresDeleteReferenced(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM artists WHERE id = $1`)).
		WithArgs("a1").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err = catalog.NewArtistStore(db, database.Postgres, nil).Delete(context.Background(), "a1")
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.NoError(t, mock.ExpectationsWereMet())
}
