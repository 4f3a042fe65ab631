// Package sync pulls library items from Jellyfin and media requests from
// Jellyseerr, persists them, and re-evaluates content issues.
package sync
