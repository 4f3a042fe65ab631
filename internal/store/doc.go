// Package store persists Shelfwatch state in SQLite: accounts, refresh
// sessions, synced library items and requests, content issues, whitelist
// entries, and evaluation thresholds.
package store
