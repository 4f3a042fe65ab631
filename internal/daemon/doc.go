// Package daemon runs shelfwatchd: it enforces single-instance execution,
// serves the HTTP API, and drives the periodic library sync.
package daemon
