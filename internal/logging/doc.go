// Package logging assembles structured slog loggers and formatting helpers used
// across bookscore commands.
//
// It owns the configurable console/JSON handlers, writes a rotating log file
// alongside the terminal output, and exposes context-aware helpers so API and
// polling code can tag log lines with job IDs and request correlation IDs. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
