// Package server exposes the Shelfwatch HTTP API: the auth endpoints that
// mint and rotate tokens, and the bearer-protected resource endpoints for
// issues, items, curation actions, thresholds, requests, sync, and status.
package server
