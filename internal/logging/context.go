package logging

import (
	"context"
	"log/slog"

	"mediasort/internal/runinfo"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized key for the command invocation identifier.
	FieldRunID = "run_id"
	// FieldPass is the standardized key for the pass name (list, move, dedup, split).
	FieldPass = "pass"
	// FieldDirectory is the standardized key for the directory under work.
	FieldDirectory = "directory"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// WithContext returns logger tagged with the run ID, pass and directory
// carried by ctx. Absent values are omitted.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	lookups := []struct {
		key string
		get func(context.Context) (string, bool)
	}{
		{FieldRunID, runinfo.RunIDFromContext},
		{FieldPass, runinfo.PassFromContext},
		{FieldDirectory, runinfo.DirectoryFromContext},
	}
	for _, l := range lookups {
		if v, ok := l.get(ctx); ok {
			args = append(args, String(l.key, v))
		}
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
