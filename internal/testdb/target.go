package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/phrazzld/txspec/internal/config"
	"github.com/phrazzld/txspec/internal/platform/database"
)

// Target is an open connection to a named database.
type Target struct {
	Name    string
	Dialect database.Dialect
	DB      *sql.DB
}

// setupDone records, per target name, the outcome of running its setup file.
var setupDone sync.Map // map[string]*setupResult

type setupResult struct {
	once sync.Once
	err  error
}

// OpenTarget connects to the named target, skipping t when the target is not
// configured. The setup file configured for the target runs once per process
// before the first test that opens it. The connection is closed when t ends.
func OpenTarget(t testing.TB, name string) *Target {
	t.Helper()

	cfg := mustLoadConfig(t)
	targetCfg, ok := cfg.Target(name)
	if !ok {
		skipTarget(t, cfg, name)
	}

	db, dialect, err := database.Open(context.Background(), targetCfg, database.Options{
		ForeignKeys: cfg.Test.ForeignKeys,
		Logger:      testLogger(t),
	})
	if err != nil {
		t.Fatalf("Failed to open target %q: %v", name, err)
	}
	t.Cleanup(func() { CleanupDB(t, db) })

	if path := cfg.SetupFileFor(name); path != "" {
		runSetupOnce(t, name, db, path)
	}

	return &Target{Name: name, Dialect: dialect, DB: db}
}

func runSetupOnce(t testing.TB, name string, db *sql.DB, path string) {
	t.Helper()

	v, _ := setupDone.LoadOrStore(name, &setupResult{})
	result := v.(*setupResult)
	result.once.Do(func() {
		result.err = database.RunSetupFile(context.Background(), db, path)
	})
	if result.err != nil {
		t.Fatalf("Setup file for target %q failed: %v", name, result.err)
	}
}

// OpenSQLite creates an empty file database in t.TempDir, with foreign keys
// enforced, and closes it when t ends.
func OpenSQLite(t testing.TB) *Target {
	t.Helper()

	target := config.TargetConfig{
		URL: "sqlite://" + filepath.Join(t.TempDir(), "txspec.db"),
	}
	db, dialect, err := database.Open(context.Background(), target, database.Options{
		ForeignKeys: true,
		Logger:      testLogger(t),
	})
	if err != nil {
		t.Fatalf("Failed to open SQLite database: %v", err)
	}
	t.Cleanup(func() { CleanupDB(t, db) })

	return &Target{Name: "sqlite", Dialect: dialect, DB: db}
}

// SetupSchema applies the example schema migrations to db.
func SetupSchema(t testing.TB, db *sql.DB, dialect database.Dialect) {
	t.Helper()

	if err := database.Migrate(context.Background(), db, dialect, testLogger(t)); err != nil {
		t.Fatalf("%v", formatMigrationError(err, dialect))
	}
}

// GetTestDBWithT returns a connection to the default target, skipping the
// test when it is not configured.
func GetTestDBWithT(t testing.TB) *sql.DB {
	t.Helper()
	return OpenTarget(t, DefaultTarget).DB
}

// CleanupDB properly closes a database connection, logging any errors.
func CleanupDB(t testing.TB, db *sql.DB) {
	t.Helper()
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		t.Logf("Warning: failed to close database connection: %v", err)
	}
}

// testLogger returns a logger whose output goes to t.Log, so it only shows
// for failing or verbose tests.
func testLogger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct {
	t testing.TB
}

var _ io.Writer = testWriter{}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

// String implements fmt.Stringer for readable test output.
func (tg *Target) String() string {
	return fmt.Sprintf("%s (%s)", tg.Name, tg.Dialect)
}
