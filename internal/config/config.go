package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	Bind    string `toml:"bind"`
}

// Auth contains configuration for the credential layer.
type Auth struct {
	// JWTSecret signs access tokens. Required for the daemon to start.
	JWTSecret string `toml:"jwt_secret"`
	// AccessTokenMinutes is the access-token lifetime handed to clients.
	AccessTokenMinutes int `toml:"access_token_minutes"`
	// RefreshTokenDays is the refresh-session lifetime.
	RefreshTokenDays int `toml:"refresh_token_days"`
	// CookieSecure marks the refresh cookie Secure (disable for plain-HTTP LAN setups).
	CookieSecure bool `toml:"cookie_secure"`
}

// Jellyfin contains configuration for the Jellyfin media server.
type Jellyfin struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
	UserID string `toml:"user_id"`
}

// Jellyseerr contains configuration for the Jellyseerr request manager.
type Jellyseerr struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	APIKey  string `toml:"api_key"`
}

// Thresholds contains the default content-issue evaluation thresholds.
// Runtime values live in the database; these seed a fresh install.
type Thresholds struct {
	StaleDays            int      `toml:"stale_days"`
	MaxMovieGiB          float64  `toml:"max_movie_gib"`
	PreferredLanguages   []string `toml:"preferred_languages"`
	RequireMultipleAudio bool     `toml:"require_multiple_audio"`
	RequestGraceDays     int      `toml:"request_grace_days"`
	RecentDays           int      `toml:"recent_days"`
}

// Sync contains configuration for the library sync loop.
type Sync struct {
	IntervalMinutes int `toml:"interval_minutes"`
	RequestTimeout  int `toml:"request_timeout"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	SyncComplete   bool   `toml:"sync_complete"`
	NewIssues      bool   `toml:"new_issues"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Shelfwatch.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Auth: token signing and lifetimes
//   - Jellyfin: media server connection
//   - Jellyseerr: request manager connection
//   - Thresholds: issue evaluation seeds
//   - Sync: library sync cadence
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Auth          Auth          `toml:"auth"`
	Jellyfin      Jellyfin      `toml:"jellyfin"`
	Jellyseerr    Jellyseerr    `toml:"jellyseerr"`
	Thresholds    Thresholds    `toml:"thresholds"`
	Sync          Sync          `toml:"sync"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shelfwatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shelfwatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the SQLite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "shelfwatch.db")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "shelfwatch.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
