package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/phrazzld/txspec/internal/ciutil"
	"github.com/phrazzld/txspec/internal/config"
	"github.com/phrazzld/txspec/internal/redact"
)

// Connection pool defaults.
const (
	DefaultMaxOpenConns    = 10
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 5 * time.Minute

	// DefaultConnectTimeout bounds the whole ping retry loop.
	DefaultConnectTimeout = 5 * time.Second
)

// Options tune how a target is opened.
type Options struct {
	// ForeignKeys enables foreign key enforcement on SQLite targets.
	ForeignKeys bool
	Logger      *slog.Logger
}

// ResolveDialect returns the target's configured dialect, or infers it from
// the URL.
func ResolveDialect(target config.TargetConfig) (Dialect, error) {
	if target.Dialect != "" {
		return ParseDialect(target.Dialect)
	}
	return DialectFromURL(target.URL)
}

// Open opens a target, configures the pool and pings it with exponential
// backoff until ConnectTimeout elapses. The returned *sql.DB is ready to use.
func Open(ctx context.Context, target config.TargetConfig, opts Options) (*sql.DB, Dialect, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	dialect, err := ResolveDialect(target)
	if err != nil {
		return nil, "", err
	}

	dsn, err := DSN(dialect, target.URL, opts.ForeignKeys)
	if err != nil {
		return nil, "", err
	}

	log = log.With(
		slog.String("dialect", dialect.String()),
		slog.String("url", ciutil.MaskSensitiveValue(target.URL)),
	)

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database connection: %w", err)
	}

	maxOpen := target.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = DefaultMaxOpenConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(min(DefaultMaxIdleConns, maxOpen))
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	timeout := target.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}

	if err := Ping(ctx, db, timeout, log); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close error: %w", closeErr))
		}
		return nil, "", formatConnectionError(err, target.URL)
	}

	log.Debug("database connection established",
		slog.Int("max_open_conns", maxOpen))
	return db, dialect, nil
}

// Ping retries db.PingContext with exponential backoff until it succeeds,
// timeout elapses or ctx is cancelled.
func Ping(ctx context.Context, db *sql.DB, timeout time.Duration, log *slog.Logger) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = time.Second
	bo.MaxElapsedTime = timeout

	attempt := 0
	op := func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return db.PingContext(pingCtx)
	}
	notify := func(err error, next time.Duration) {
		log.Warn("database ping failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", next),
			redact.ErrorAttr(err))
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify); err != nil {
		return fmt.Errorf("database ping failed after %d attempts: %w", attempt, err)
	}
	return nil
}

// RunSetupFile executes an SQL file against db as a single script.
func RunSetupFile(ctx context.Context, db *sql.DB, path string) error {
	script, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read setup file: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("failed to execute setup file %s: %w", path, err)
	}
	return nil
}

// formatConnectionError adds troubleshooting context to a connection failure.
func formatConnectionError(baseErr error, url string) error {
	return fmt.Errorf("database connection failed: %w\n"+
		"Database URL used: %s (masked)\n"+
		"CI environment: %v\n"+
		"Please check:\n"+
		"1. The database service is running\n"+
		"2. Credentials and connection string are correct\n"+
		"3. The database exists and is accessible",
		baseErr, ciutil.MaskSensitiveValue(url), ciutil.IsCI())
}
