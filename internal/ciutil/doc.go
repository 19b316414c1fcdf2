// Package ciutil provides utilities for CI and environment-specific functionality.
//
// It centralizes the environment variable names read by the harness, CI
// detection, fallback chains for legacy variable names, discovery of named
// database targets (TXSPEC_<NAME>_URL), masking of connection strings for
// logs, and project root detection for commands that shell out to go test.
package ciutil
