// Package logging assembles structured slog loggers and formatting helpers used
// across reelpress services.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code automatically tags
// log lines with request IDs, job IDs, file IDs, and stage names. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
