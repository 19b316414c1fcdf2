package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/phrazzld/txspec/internal/ciutil"
	"github.com/phrazzld/txspec/internal/platform/logger"
	"github.com/phrazzld/txspec/internal/store"
)

// This file contains transaction management utilities for test isolation.

// pingTimeout bounds the health check made before a test transaction begins.
const pingTimeout = 5 * time.Second

// WithTx runs fn inside a transaction on db and rolls it back afterwards.
//
// The rollback runs however fn exits: normal return, t.Fatal/t.FailNow
// (runtime.Goexit) or panic. A panic is re-raised after the rollback so the
// testing framework still reports it.
func WithTx(t testing.TB, db *sql.DB, fn func(t testing.TB, tx *sql.Tx)) {
	t.Helper()

	pingDB(t, db)

	// Deliberately not bound to a timeout: database/sql rolls a transaction
	// back as soon as its context is done.
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		reportBeginFailure(t, err, db)
	}

	defer func() {
		p := recover()
		rollback(t, store.TxSet{tx})
		if p != nil {
			// ALLOW-PANIC: Propagating caught panic from test body
			panic(p)
		}
	}()

	fn(t, tx)
}

// RunInTx executes the given function within a transaction.
// This function is an alias for WithTx maintained for backward compatibility.
func RunInTx(t testing.TB, db *sql.DB, fn func(t testing.TB, tx *sql.Tx)) {
	t.Helper()
	WithTx(t, db, fn)
}

// WithTxs is WithTx across several databases: it opens one transaction per
// database, in order, runs fn and rolls every transaction back in reverse
// order. If any database fails to begin, the ones already opened are rolled
// back before the test fails.
func WithTxs(t testing.TB, dbs []*sql.DB, fn func(t testing.TB, txs store.TxSet)) {
	t.Helper()

	for _, db := range dbs {
		pingDB(t, db)
	}

	txs, err := store.BeginAll(context.Background(), beginners(dbs), nil)
	if err != nil {
		t.Fatalf("%v\nThis may indicate database connectivity issues or resource constraints", err)
	}

	defer func() {
		p := recover()
		rollback(t, txs)
		if p != nil {
			// ALLOW-PANIC: Propagating caught panic from test body
			panic(p)
		}
	}()

	fn(t, txs)
}

// BeginTx begins a transaction on db and registers its rollback with
// t.Cleanup, so it is undone when the test and its subtests finish.
func BeginTx(t testing.TB, db *sql.DB) *sql.Tx {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		reportBeginFailure(t, err, db)
	}
	t.Cleanup(func() { rollback(t, store.TxSet{tx}) })
	return tx
}

func beginners(dbs []*sql.DB) []store.Beginner {
	out := make([]store.Beginner, len(dbs))
	for i, db := range dbs {
		out[i] = db
	}
	return out
}

// pingDB fails the test early, with connection diagnostics, when db is down.
func pingDB(t testing.TB, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Database connection failed before transaction: %v", formatDBConnectionError(err, db))
	}
}

func reportBeginFailure(t testing.TB, err error, db *sql.DB) {
	t.Helper()

	if ciutil.IsCI() {
		stats := db.Stats()
		t.Logf("CI Debug: connection stats: MaxOpen=%d, Open=%d, InUse=%d, Idle=%d",
			stats.MaxOpenConnections, stats.OpenConnections, stats.InUse, stats.Idle)
	}
	t.Fatalf("%v\nThis may indicate database connectivity issues or resource constraints",
		fmt.Errorf("%w: %w", store.ErrBeginFailed, err))
}

// rollback rolls back every member of txs. A failure is a test error: the
// rows the test wrote may now be visible to later tests.
func rollback(t testing.TB, txs store.TxSet) {
	t.Helper()

	if err := txs.RollbackAll(); err != nil {
		logger.NewTestFailureLogger(slog.Default()).LogTestFailure(
			context.Background(), t.Name(), err, map[string]interface{}{"phase": "rollback"})
		t.Errorf("Failed to roll back test transaction, later tests may see its writes: %v", err)
	}
}
