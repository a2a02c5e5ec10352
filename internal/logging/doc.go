// Package logging assembles structured slog loggers and formatting helpers used
// across osmworld.
//
// It owns the console and JSON handlers, level parsing, and output fan-out to
// the terminal plus a per-run log file. Context helpers tag log lines with the
// run ID, stage, region, and tile so a multi-day run can be traced back to the
// unit of work that produced a line.
package logging
