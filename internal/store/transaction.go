package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/txspec/internal/platform/logger"
)

// TxFn is a function that executes within a database transaction.
// It receives the context and a transaction, and returns an error if the operation fails.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// TxSetFn is a function that executes within one transaction per database.
type TxSetFn func(ctx context.Context, txs TxSet) error

// TxSet is an ordered collection of transactions, one per database, in the
// order the databases were given to BeginAll.
type TxSet []*sql.Tx

// RunInTransaction executes the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// Otherwise, the transaction is committed.
// The function handles rollbacks in case of panic and logs appropriate information.
func RunInTransaction(ctx context.Context, db Beginner, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction",
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			txErr := tx.Rollback()
			if txErr != nil {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", txErr.Error()),
					slog.Any("panic", p))
			} else {
				log.Error("rolled back transaction after panic",
					slog.Any("panic", p))
			}
			// ALLOW-PANIC: Propagating caught panic from transaction
			panic(p)
		}
	}()

	err = fn(ctx, tx)
	if err != nil {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", rollbackErr.Error()),
				slog.String("original_error", err.Error()))
			return fmt.Errorf(
				"error rolling back transaction: %v (original error: %w)",
				rollbackErr,
				err,
			)
		}
		log.Debug("rolled back transaction due to error",
			slog.String("error", err.Error()))
		return err
	}

	err = tx.Commit()
	if err != nil {
		log.Error("failed to commit transaction",
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: failed to commit transaction: %w", ErrTransactionFailed, err)
	}

	log.Debug("transaction committed successfully")
	return nil
}

// RunRolledBack executes fn inside a transaction that is never committed.
//
// The rollback runs on every exit path: normal return, returned error, panic
// and runtime.Goexit (t.FailNow). fn's error is returned as is; if the rollback
// also fails the two are joined, so errors.Is still matches fn's error.
// A panic is re-raised with its original value after the rollback.
func RunRolledBack(ctx context.Context, db Beginner, fn TxFn) (err error) {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin rolled-back transaction",
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", ErrBeginFailed, err)
	}

	defer func() {
		p := recover()
		if rbErr := rollbackTx(log, tx); rbErr != nil {
			if p != nil {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", rbErr.Error()),
					slog.Any("panic", p))
			}
			err = errors.Join(err, rbErr)
		}
		if p != nil {
			// ALLOW-PANIC: Propagating caught panic from transaction
			panic(p)
		}
	}()

	return fn(ctx, tx)
}

// BeginAll opens one transaction on each database, in order.
//
// If opening database i fails, the transactions already opened on databases
// 0..i-1 are rolled back in reverse order before the error is returned, so a
// partial acquisition never leaks.
func BeginAll(ctx context.Context, dbs []Beginner, opts *sql.TxOptions) (TxSet, error) {
	txs := make(TxSet, 0, len(dbs))
	for i, db := range dbs {
		tx, err := db.BeginTx(ctx, opts)
		if err != nil {
			beginErr := fmt.Errorf("%w: database %d of %d: %w", ErrBeginFailed, i+1, len(dbs), err)
			if rbErr := txs.rollbackAll(logger.FromContext(ctx)); rbErr != nil {
				return nil, errors.Join(beginErr, rbErr)
			}
			return nil, beginErr
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// RollbackAll rolls back every transaction in reverse order. Every member is
// attempted even when an earlier one fails; the failures are joined.
// Transactions that already ended are skipped with a warning.
func (s TxSet) RollbackAll() error {
	return s.rollbackAll(slog.Default())
}

func (s TxSet) rollbackAll(log *slog.Logger) error {
	var errs []error
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == nil {
			continue
		}
		if err := rollbackTx(log.With(slog.Int("database", i+1)), s[i]); err != nil {
			errs = append(errs, fmt.Errorf("database %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

// RunRolledBackAll is the multi-database form of RunRolledBack: it opens one
// transaction per database, runs fn, and rolls every one of them back on every
// exit path.
func RunRolledBackAll(ctx context.Context, dbs []Beginner, fn TxSetFn) (err error) {
	log := logger.FromContext(ctx)

	txs, err := BeginAll(ctx, dbs, nil)
	if err != nil {
		log.Error("failed to begin rolled-back transactions",
			slog.Int("databases", len(dbs)),
			slog.String("error", err.Error()))
		return err
	}

	defer func() {
		p := recover()
		if rbErr := txs.rollbackAll(log); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		if p != nil {
			// ALLOW-PANIC: Propagating caught panic from transaction
			panic(p)
		}
	}()

	return fn(ctx, txs)
}

// rollbackTx rolls back tx. sql.ErrTxDone means the body already committed
// or rolled back; that is logged because its writes may have persisted.
func rollbackTx(log *slog.Logger, tx *sql.Tx) error {
	err := tx.Rollback()
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrTxDone) {
		log.Warn("transaction ended before rollback; changes may have persisted")
		return nil
	}
	log.Error("failed to roll back transaction",
		slog.String("error", err.Error()))
	return fmt.Errorf("%w: %w", ErrRollbackFailed, err)
}
