package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateJellyfin(); err != nil {
		return err
	}
	if err := c.validateJellyseerr(); err != nil {
		return err
	}
	if err := c.validateThresholds(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAuth() error {
	if c.Auth.JWTSecret == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/shelfwatch/config.toml"
		}
		return fmt.Errorf("auth.jwt_secret is required. Set SHELFWATCH_JWT_SECRET env var or edit %s (create with 'shelfwatch config init')", defaultPath)
	}
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("auth.jwt_secret must be at least 32 characters")
	}
	return nil
}

func (c *Config) validateJellyfin() error {
	if strings.TrimSpace(c.Jellyfin.URL) == "" {
		return errors.New("jellyfin.url must be set")
	}
	if strings.TrimSpace(c.Jellyfin.APIKey) == "" {
		return errors.New("jellyfin.api_key must be set (or JELLYFIN_API_KEY env var)")
	}
	return nil
}

func (c *Config) validateJellyseerr() error {
	if !c.Jellyseerr.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Jellyseerr.URL) == "" {
		return errors.New("jellyseerr.url must be set when jellyseerr.enabled is true")
	}
	if strings.TrimSpace(c.Jellyseerr.APIKey) == "" {
		return errors.New("jellyseerr.api_key must be set when jellyseerr.enabled is true")
	}
	return nil
}

func (c *Config) validateThresholds() error {
	if c.Thresholds.MaxMovieGiB <= 0 {
		return errors.New("thresholds.max_movie_gib must be positive")
	}
	for _, lang := range c.Thresholds.PreferredLanguages {
		if len(lang) != 3 {
			return fmt.Errorf("thresholds.preferred_languages: %q is not an ISO 639-2 code", lang)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
