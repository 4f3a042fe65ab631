// Package issues evaluates synced library items and media requests against
// the configured thresholds and produces content issues: stale items,
// oversized movies, audio/language problems, and request availability.
package issues
