// Package logging assembles structured slog loggers used across nstoolkit.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes small attribute helpers so the dispatcher and
// processor client tag log lines with the same keys (component, run_id,
// candidate, outcome). The package also provides a no-op logger for tests and
// wiring code that cannot fail.
package logging
