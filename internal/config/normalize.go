package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAuth()
	c.normalizeJellyfin()
	c.normalizeJellyseerr()
	c.normalizeThresholds()
	c.normalizeSync()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.Bind = strings.TrimSpace(c.Paths.Bind)
	if c.Paths.Bind == "" {
		c.Paths.Bind = defaultBind
	}
	return nil
}

func (c *Config) normalizeAuth() {
	if c.Auth.JWTSecret == "" {
		if value, ok := os.LookupEnv("SHELFWATCH_JWT_SECRET"); ok {
			c.Auth.JWTSecret = value
		}
	}
	c.Auth.JWTSecret = strings.TrimSpace(c.Auth.JWTSecret)
	if c.Auth.AccessTokenMinutes <= 0 {
		c.Auth.AccessTokenMinutes = defaultAccessTokenMinutes
	}
	if c.Auth.RefreshTokenDays <= 0 {
		c.Auth.RefreshTokenDays = defaultRefreshTokenDays
	}
}

func (c *Config) normalizeJellyfin() {
	if c.Jellyfin.APIKey == "" {
		if value, ok := os.LookupEnv("JELLYFIN_API_KEY"); ok {
			c.Jellyfin.APIKey = value
		}
	}
	c.Jellyfin.URL = strings.TrimRight(strings.TrimSpace(c.Jellyfin.URL), "/")
	c.Jellyfin.APIKey = strings.TrimSpace(c.Jellyfin.APIKey)
	c.Jellyfin.UserID = strings.TrimSpace(c.Jellyfin.UserID)
}

func (c *Config) normalizeJellyseerr() {
	if c.Jellyseerr.APIKey == "" {
		if value, ok := os.LookupEnv("JELLYSEERR_API_KEY"); ok {
			c.Jellyseerr.APIKey = value
		}
	}
	c.Jellyseerr.URL = strings.TrimRight(strings.TrimSpace(c.Jellyseerr.URL), "/")
	c.Jellyseerr.APIKey = strings.TrimSpace(c.Jellyseerr.APIKey)
}

func (c *Config) normalizeThresholds() {
	if c.Thresholds.StaleDays <= 0 {
		c.Thresholds.StaleDays = defaultStaleDays
	}
	if c.Thresholds.MaxMovieGiB <= 0 {
		c.Thresholds.MaxMovieGiB = defaultMaxMovieGiB
	}
	if len(c.Thresholds.PreferredLanguages) == 0 {
		c.Thresholds.PreferredLanguages = []string{"eng"}
	}
	for i, lang := range c.Thresholds.PreferredLanguages {
		c.Thresholds.PreferredLanguages[i] = strings.ToLower(strings.TrimSpace(lang))
	}
	if c.Thresholds.RequestGraceDays <= 0 {
		c.Thresholds.RequestGraceDays = defaultRequestGraceDays
	}
	if c.Thresholds.RecentDays <= 0 {
		c.Thresholds.RecentDays = defaultRecentDays
	}
}

func (c *Config) normalizeSync() {
	if c.Sync.IntervalMinutes <= 0 {
		c.Sync.IntervalMinutes = defaultSyncInterval
	}
	if c.Sync.RequestTimeout <= 0 {
		c.Sync.RequestTimeout = defaultRequestTimeout
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
