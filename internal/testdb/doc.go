// Package testdb runs database tests inside transactions that are always
// rolled back.
//
// Every test gets a fresh transaction and every change it makes disappears
// when the test ends, whether it passed, failed, called t.Fatal or panicked.
// Tests therefore need no cleanup code and do not see each other's rows.
//
// # Transaction Isolation Pattern
//
//	func TestArtistStore(t *testing.T) {
//	    target := testdb.OpenTarget(t, "postgres") // skips when unset
//	    testdb.SetupSchema(t, target.DB, target.Dialect)
//
//	    testdb.WithTx(t, target.DB, func(t testing.TB, tx *sql.Tx) {
//	        artists := catalog.NewArtistStore(tx, target.Dialect, nil)
//	        require.NoError(t, artists.Create(ctx, &store.Artist{Name: "Nina Simone"}))
//	    })
//	}
//
// BeginTx does the same through t.Cleanup instead of a callback, and TxSuite
// installs it once into a testify suite's SetupTest/TearDownTest so every
// test method runs in its own transaction. WithTxs and TxSuite accept several
// databases and open one transaction on each.
//
// # Failure Semantics
//
//   - Failing to begin a transaction is a fatal test error; the test is never
//     skipped or retried.
//   - A failing body still fails the test; the rollback never hides it.
//   - A failed rollback is reported as a test error because later tests may
//     see the leaked rows.
//   - A body that commits the transaction itself is logged as a warning.
//
// # Non-transactional Cleanup
//
// When a test cannot share one transaction with the code under test,
// CleanupTables deletes every row from a list of tables after the test, in
// the order given. A parent listed before its child fails with the database's
// foreign key violation.
//
// # Environment Variables
//
//   - TXSPEC_<NAME>_URL: connection string of target NAME (DATABASE_URL is
//     the legacy fallback for "postgres")
//   - TXSPEC_SKIP_WARN: log a warning whenever a test is skipped for a
//     missing target
//   - TXSPEC_NO_PENDING: skip pending tests without a marker
//   - TXSPEC_FOREIGN_KEYS: enforce foreign keys on SQLite targets (default on)
//   - TXSPEC_SETUP_FILE: SQL file run once per target before its first test
//   - TXSPEC_CONFIG: optional config file with the same settings
package testdb
