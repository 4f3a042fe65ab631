// Package jellyfin is a minimal client for the Jellyfin HTTP API, covering
// the item listing the sync loop needs.
package jellyfin
