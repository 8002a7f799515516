// Package logging assembles structured slog loggers and formatting helpers used
// across mediasort passes.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// tees records to the terminal and to the run log file, and exposes
// context-aware helpers so pass code can automatically tag log lines with the
// run ID, pass name, and directory under work. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
