package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"testing"

	"github.com/phrazzld/txspec/internal/ciutil"
	"github.com/phrazzld/txspec/internal/config"
	"github.com/phrazzld/txspec/internal/platform/database"
	"github.com/phrazzld/txspec/internal/platform/logger"
)

// This file contains environment detection utilities for determining test execution context.

// DefaultTarget is the target the legacy helpers connect to.
const DefaultTarget = "postgres"

// LoadConfig reads harness configuration from the environment and the
// optional config file. It is re-read on every call so t.Setenv takes effect.
func LoadConfig() (*config.Config, error) {
	return config.LoadWithOptions(config.Options{Logger: slog.Default()})
}

func mustLoadConfig(t testing.TB) *config.Config {
	t.Helper()
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load test configuration: %v", err)
	}
	return cfg
}

// IsIntegrationTestEnvironment returns true if the default target is
// configured, indicating that integration tests can be run.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// ShouldSkipDatabaseTest returns true if the default target is not
// configured. This provides a consistent way for tests to check for database
// availability.
func ShouldSkipDatabaseTest() bool {
	return !IsIntegrationTestEnvironment()
}

// GetTestDatabaseURL returns the connection string of the default target, or
// "" when it is not configured.
func GetTestDatabaseURL() string {
	cfg, err := LoadConfig()
	if err != nil {
		return ""
	}
	target, ok := cfg.Target(DefaultTarget)
	if !ok {
		if ciutil.IsCI() {
			slog.Error("no database URL found in CI environment",
				slog.String("checked_variables", ciutil.TargetEnvVar(DefaultTarget)+", "+ciutil.EnvDatabaseURL),
				slog.String("impact", "database tests will be skipped"))
		}
		return ""
	}
	return target.URL
}

// GetTestDB opens the default target without a testing.T, for code such as
// TestMain. Returns an error if the target is not configured.
func GetTestDB() (*sql.DB, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	target, ok := cfg.Target(DefaultTarget)
	if !ok {
		return nil, formatEnvVarError(DefaultTarget)
	}
	db, _, err := database.Open(context.Background(), target, database.Options{
		ForeignKeys: cfg.Test.ForeignKeys,
	})
	return db, err
}

// skipTarget skips t because a target is not configured, logging a warning
// first when skip warnings are enabled.
func skipTarget(t testing.TB, cfg *config.Config, name string) {
	t.Helper()

	reason := fmt.Sprintf("%s not set - skipping database test", ciutil.TargetEnvVar(name))
	if cfg.Test.SkipWarn {
		logger.NewTestFailureLogger(slog.Default()).
			LogTestSkip(context.Background(), t.Name(), formatEnvVarError(name).Error())
	}
	t.Skip(reason)
}

// Pending marks t as not yet implemented and skips it. With no_pending set
// the skip carries no marker.
func Pending(t testing.TB, reason string) {
	t.Helper()

	cfg := mustLoadConfig(t)
	if cfg.Test.NoPending {
		t.SkipNow()
	}
	t.Skipf("pending: %s", reason)
}
