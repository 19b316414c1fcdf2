// Package logger provides structured logging functionality for the harness.
//
// It builds log/slog loggers from LogConfig: JSON for machines (with CI
// metadata when running in CI), tint-colored text for humans, and an optional
// JSON file fanned out alongside either. Loggers travel through contexts with
// WithLogger and FromContext.
package logger
