// Package config loads, normalizes, and validates Shelfwatch's TOML
// configuration.
package config
