// Package auth issues and verifies Shelfwatch credentials: bcrypt password
// hashes, short-lived JWT access tokens, and rotating refresh sessions whose
// tokens are stored only as SHA-256 hashes.
package auth
