package testdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/txspec/internal/store"
)

// schemaDB returns a migrated SQLite database.
func schemaDB(t *testing.T) *Target {
	t.Helper()
	target := OpenSQLite(t)
	SetupSchema(t, target.DB, target.Dialect)
	return target
}

func insertArtist(t require.TestingT, db store.DBTX, id, name string) {
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO artists (id, name) VALUES (?, ?)`, id, name)
	require.NoError(t, err)
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestWithTx_RollsBackAfterSuccess(t *testing.T) {
	target := schemaDB(t)

	WithTx(t, target.DB, func(t testing.TB, tx *sql.Tx) {
		insertArtist(t, tx, "a1", "Nina Simone")

		var n int
		require.NoError(t, tx.QueryRow(`SELECT COUNT(*) FROM artists`).Scan(&n))
		assert.Equal(t, 1, n, "writes are visible inside the transaction")
	})

	assert.Zero(t, countRows(t, target.DB, "artists"))
}

func TestWithTx_FailNowRollsBackAndStillFails(t *testing.T) {
	target := schemaDB(t)

	ft := &fakeT{}
	reachedEnd := false
	ft.run(func() {
		WithTx(ft, target.DB, func(t testing.TB, tx *sql.Tx) {
			insertArtist(t, tx, "a1", "Nina Simone")
			t.Fatalf("expected 2 artists, got 1")
			reachedEnd = true
		})
	})

	assert.False(t, reachedEnd)
	assert.True(t, ft.Failed(), "the body's failure must reach the framework")
	assert.Contains(t, ft.Output(), "expected 2 artists")
	assert.Zero(t, countRows(t, target.DB, "artists"))
}

func TestWithTx_NonFatalFailureRollsBack(t *testing.T) {
	target := schemaDB(t)

	ft := &fakeT{}
	ft.run(func() {
		WithTx(ft, target.DB, func(t testing.TB, tx *sql.Tx) {
			insertArtist(t, tx, "a1", "Nina Simone")
			assert.Equal(t, 2, 1)
		})
	})

	assert.True(t, ft.Failed())
	assert.Zero(t, countRows(t, target.DB, "artists"))
}

func TestWithTx_PanicRollsBackAndRepanics(t *testing.T) {
	target := schemaDB(t)

	assert.PanicsWithValue(t, "boom", func() {
		WithTx(t, target.DB, func(t testing.TB, tx *sql.Tx) {
			insertArtist(t, tx, "a1", "Nina Simone")
			panic("boom")
		})
	})

	assert.Zero(t, countRows(t, target.DB, "artists"))
}

func TestWithTx_BodyCommitIsTolerated(t *testing.T) {
	target := schemaDB(t)

	ft := &fakeT{}
	ft.run(func() {
		WithTx(ft, target.DB, func(t testing.TB, tx *sql.Tx) {
			insertArtist(t, tx, "a1", "Nina Simone")
			require.NoError(t, tx.Commit())
		})
	})

	assert.False(t, ft.Failed(), "a body that commits is warned about, not failed")
	assert.Equal(t, 1, countRows(t, target.DB, "artists"), "committed rows persist")
}

func TestWithTx_BeginFailureIsFatal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin().WillReturnError(errors.New("too many clients already"))

	ft := &fakeT{}
	called := false
	ft.run(func() {
		WithTx(ft, db, func(t testing.TB, tx *sql.Tx) { called = true })
	})

	assert.False(t, called, "the body must not run without a transaction")
	assert.True(t, ft.Failed())
	assert.False(t, ft.Skipped(), "begin failures are errors, never skips")
	assert.Contains(t, ft.Output(), "failed to begin transaction")
	assert.Contains(t, ft.Output(), "too many clients already")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackFailureIsReported(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(errors.New("connection reset by peer"))

	ft := &fakeT{}
	ft.run(func() {
		WithTx(ft, db, func(t testing.TB, tx *sql.Tx) {})
	})

	assert.True(t, ft.Failed())
	assert.Contains(t, ft.Output(), "later tests may see its writes")
	assert.Contains(t, ft.Output(), "connection reset by peer")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx(t *testing.T) {
	target := schemaDB(t)

	RunInTx(t, target.DB, func(t testing.TB, tx *sql.Tx) {
		insertArtist(t, tx, "a1", "Nina Simone")
	})
	assert.Zero(t, countRows(t, target.DB, "artists"))
}

func TestWithTxs_RollsBackEveryDatabase(t *testing.T) {
	first := schemaDB(t)
	second := schemaDB(t)

	ft := &fakeT{}
	ft.run(func() {
		WithTxs(ft, []*sql.DB{first.DB, second.DB}, func(t testing.TB, txs store.TxSet) {
			require.Len(t, txs, 2)
			insertArtist(t, txs[0], "a1", "Nina Simone")
			insertArtist(t, txs[1], "a1", "Nina Simone")
			t.FailNow()
		})
	})

	assert.True(t, ft.Failed())
	assert.Zero(t, countRows(t, first.DB, "artists"))
	assert.Zero(t, countRows(t, second.DB, "artists"))
}

func TestWithTxs_UnwindsPartialAcquisition(t *testing.T) {
	db1, mock1, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db1.Close() }()
	db2, mock2, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db2.Close() }()

	mock1.ExpectBegin()
	mock1.ExpectRollback()
	mock2.ExpectBegin().WillReturnError(errors.New("database is locked"))

	ft := &fakeT{}
	called := false
	ft.run(func() {
		WithTxs(ft, []*sql.DB{db1, db2}, func(t testing.TB, txs store.TxSet) { called = true })
	})

	assert.False(t, called)
	assert.True(t, ft.Failed())
	assert.Contains(t, ft.Output(), "database 2 of 2")
	assert.NoError(t, mock1.ExpectationsWereMet(), "database 1 must be rolled back")
	assert.NoError(t, mock2.ExpectationsWereMet())
}

func TestBeginTx_RollsBackOnCleanup(t *testing.T) {
	target := schemaDB(t)

	t.Run("writes", func(t *testing.T) {
		tx := BeginTx(t, target.DB)
		insertArtist(t, tx, "a1", "Nina Simone")
	})

	assert.Zero(t, countRows(t, target.DB, "artists"))
}
