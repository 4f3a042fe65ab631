// Package logging assembles the structured slog loggers used across
// Shelfwatch. It owns the console and JSON handlers and a no-op logger for
// tests and wiring code that cannot fail.
package logging
