package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/phrazzld/txspec/internal/ciutil"
	"github.com/phrazzld/txspec/internal/redact"
)

// CIHandler is a JSON slog.Handler for CI runs. Every record carries the CI
// provider's run metadata and the suite name a `txspec run` child was started
// for, so interleaved output from several suites can be told apart. String
// attributes are passed through redact.String.
type CIHandler struct {
	handler   slog.Handler
	metadata  []slog.Attr
	addSource bool
}

// NewCIHandler creates a CIHandler writing JSON to out.
func NewCIHandler(out io.Writer, opts *slog.HandlerOptions) *CIHandler {
	handlerOpts := slog.HandlerOptions{}
	if opts != nil {
		handlerOpts = *opts
	}

	replace := handlerOpts.ReplaceAttr
	handlerOpts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if replace != nil {
			a = replace(groups, a)
		}
		if a.Value.Kind() == slog.KindString {
			a.Value = slog.StringValue(redact.String(a.Value.String()))
		}
		return a
	}

	// Source is added as flat attributes by Handle.
	addSource := handlerOpts.AddSource
	handlerOpts.AddSource = false

	return &CIHandler{
		handler:   slog.NewJSONHandler(out, &handlerOpts),
		metadata:  getCIMetadata(),
		addSource: addSource,
	}
}

// Enabled implements the slog.Handler interface.
func (h *CIHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs implements the slog.Handler interface.
func (h *CIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CIHandler{
		handler:   h.handler.WithAttrs(attrs),
		metadata:  h.metadata,
		addSource: h.addSource,
	}
}

// WithGroup implements the slog.Handler interface.
func (h *CIHandler) WithGroup(name string) slog.Handler {
	return &CIHandler{
		handler:   h.handler.WithGroup(name),
		metadata:  h.metadata,
		addSource: h.addSource,
	}
}

// Handle implements the slog.Handler interface.
func (h *CIHandler) Handle(ctx context.Context, record slog.Record) error {
	enhanced := record.Clone()

	if h.addSource && record.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{record.PC}).Next()
		enhanced.AddAttrs(
			slog.String("source_file", frame.File),
			slog.Int("source_line", frame.Line),
			slog.String("source_func", frame.Function),
		)
	}

	enhanced.AddAttrs(h.metadata...)
	return h.handler.Handle(ctx, enhanced)
}

// getCIMetadata collects the CI provider variables worth stamping on every
// record, plus the suite name exported by `txspec run`.
func getCIMetadata() []slog.Attr {
	vars := []struct{ key, env string }{
		{"ci_github_run_id", "GITHUB_RUN_ID"},
		{"ci_github_workflow", "GITHUB_WORKFLOW"},
		{"ci_github_sha", "GITHUB_SHA"},
		{"ci_gitlab_job_id", "CI_JOB_ID"},
		{"ci_commit_ref", "CI_COMMIT_REF_NAME"},
		{"suite", ciutil.EnvSuite},
	}

	var metadata []slog.Attr
	for _, v := range vars {
		if value := os.Getenv(v.env); value != "" {
			metadata = append(metadata, slog.String(v.key, value))
		}
	}
	if ciutil.IsCI() {
		metadata = append(metadata, slog.String("ci", "true"))
	}
	return metadata
}

// TestFailureLogger provides specialized logging for test failures.
// It adds test-specific context and formats errors appropriately for CI environments.
type TestFailureLogger struct {
	logger *slog.Logger
}

// NewTestFailureLogger creates a new test failure logger.
func NewTestFailureLogger(baseLogger *slog.Logger) *TestFailureLogger {
	return &TestFailureLogger{
		logger: baseLogger,
	}
}

// LogTestFailure logs a test failure with detailed diagnostic information.
// It structures the information in a way that's easy to parse in CI logs.
func (tfl *TestFailureLogger) LogTestFailure(
	ctx context.Context,
	testName string,
	err error,
	details map[string]interface{},
) {
	// Create attributes for the test failure
	var attrs []any
	attrs = append(attrs,
		"test_name", testName,
		"test_status", "failed",
	)

	// Add the error if provided
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}

	// Add details if provided (no need to check for nil - ranging over nil map is safe)
	for k, v := range details {
		attrs = append(attrs, k, v)
	}

	// Source location is already added by the CIHandler if configured
	// Log the test failure at ERROR level for visibility
	tfl.logger.ErrorContext(ctx, "TEST FAILURE", attrs...)
}

// LogTestSkip logs when a test is skipped.
func (tfl *TestFailureLogger) LogTestSkip(ctx context.Context, testName string, reason string) {
	tfl.logger.WarnContext(ctx, "TEST SKIPPED",
		"test_name", testName,
		"test_status", "skipped",
		"reason", reason,
	)
}
