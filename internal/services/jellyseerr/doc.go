// Package jellyseerr is a minimal client for the Jellyseerr request API.
package jellyseerr
