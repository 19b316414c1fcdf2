package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"

	"github.com/phrazzld/txspec/internal/ciutil"
	"github.com/phrazzld/txspec/internal/config"
)

// ParseLevel maps a configured level name to a slog.Level (case-insensitive).
// Unknown names map to info and report ok=false.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Setup builds the harness logger from cfg, writing console output to stderr,
// and installs it as the slog default. The returned close function releases
// the log file, if any.
func Setup(cfg config.LogConfig) (*slog.Logger, func() error, error) {
	return SetupWriter(cfg, os.Stderr)
}

// SetupWriter is Setup with an explicit console writer.
func SetupWriter(cfg config.LogConfig, out io.Writer) (*slog.Logger, func() error, error) {
	level, ok := ParseLevel(cfg.Level)
	if !ok {
		tmpLogger := slog.New(slog.NewTextHandler(out, nil))
		tmpLogger.Warn("invalid log level configured, using default level",
			"configured_level", cfg.Level,
			"default_level", "info")
	}

	opts := &slog.HandlerOptions{Level: level}

	var console slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		console = tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	case "json", "":
		if ciutil.IsCI() {
			console = NewCIHandler(out, opts)
		} else {
			console = slog.NewJSONHandler(out, opts)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}

	closeFn := func() error { return nil }
	handler := console
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		handler = slogmulti.Fanout(console, slog.NewJSONHandler(f, opts))
		closeFn = f.Close
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, closeFn, nil
}
