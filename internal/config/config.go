package config

import (
	"sort"
	"time"
)

// Config holds all harness configuration.
type Config struct {
	Targets map[string]TargetConfig `mapstructure:"targets" validate:"dive"`
	Test    TestConfig              `mapstructure:"test"`
	Log     LogConfig               `mapstructure:"log" validate:"required"`
}

// TargetConfig describes one database a suite can run against.
type TargetConfig struct {
	URL string `mapstructure:"url" validate:"required"`
	// Dialect is inferred from URL when empty.
	Dialect string `mapstructure:"dialect" validate:"omitempty,oneof=postgres sqlite"`
	// SetupFile overrides Test.SetupFile for this target.
	SetupFile      string        `mapstructure:"setup_file" validate:"omitempty,file"`
	MaxOpenConns   int           `mapstructure:"max_open_conns" validate:"gte=0"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"gte=0"`
}

// TestConfig contains the flag-style switches read by the test helpers.
type TestConfig struct {
	// SkipWarn logs a warning whenever a test or suite is skipped because
	// its target is not configured.
	SkipWarn bool `mapstructure:"skip_warn"`
	// NoPending skips pending tests silently instead of with a marker.
	NoPending bool `mapstructure:"no_pending"`
	// ForeignKeys enables foreign key enforcement on SQLite targets.
	ForeignKeys bool `mapstructure:"foreign_keys"`
	// SetupFile is an SQL file executed once per target before adapter suites.
	SetupFile string `mapstructure:"setup_file" validate:"omitempty,file"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
	// File additionally receives JSON logs when set.
	File string `mapstructure:"file"`
}

// TargetNames returns the configured target names in sorted order.
func (c *Config) TargetNames() []string {
	names := make([]string, 0, len(c.Targets))
	for name := range c.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Target returns the named target and whether it is configured.
func (c *Config) Target(name string) (TargetConfig, bool) {
	t, ok := c.Targets[name]
	return t, ok
}

// SetupFileFor returns the setup file for the named target, falling back to
// the global one.
func (c *Config) SetupFileFor(name string) string {
	if t, ok := c.Targets[name]; ok && t.SetupFile != "" {
		return t.SetupFile
	}
	return c.Test.SetupFile
}
