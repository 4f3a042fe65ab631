package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shelfwatch/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
[auth]
jwt_secret = "0123456789abcdef0123456789abcdef"

[jellyfin]
url = "http://localhost:8096/"
api_key = "jf-key"
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatalf("expected config at %s to exist", resolved)
	}
	if cfg.Paths.Bind != "127.0.0.1:7787" {
		t.Fatalf("unexpected default bind: %q", cfg.Paths.Bind)
	}
	if cfg.Auth.AccessTokenMinutes != 15 {
		t.Fatalf("unexpected access token lifetime: %d", cfg.Auth.AccessTokenMinutes)
	}
	if cfg.Thresholds.StaleDays != 365 {
		t.Fatalf("unexpected stale_days default: %d", cfg.Thresholds.StaleDays)
	}
	if got := cfg.Jellyfin.URL; got != "http://localhost:8096" {
		t.Fatalf("expected trailing slash trimmed, got %q", got)
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	path := writeConfig(t, `
[auth]
jwt_secret = "too-short"

[jellyfin]
url = "http://localhost:8096"
api_key = "jf-key"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "jwt_secret") {
		t.Fatalf("expected jwt_secret error, got %v", err)
	}
}

func TestLoadRequiresJellyfin(t *testing.T) {
	path := writeConfig(t, `
[auth]
jwt_secret = "0123456789abcdef0123456789abcdef"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "jellyfin.url") {
		t.Fatalf("expected jellyfin.url error, got %v", err)
	}
}

func TestLoadJWTSecretFromEnv(t *testing.T) {
	t.Setenv("SHELFWATCH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	path := writeConfig(t, `
[jellyfin]
url = "http://localhost:8096"
api_key = "jf-key"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		t.Fatal("expected jwt secret from environment")
	}
}

func TestValidateRejectsBadLanguageCode(t *testing.T) {
	path := writeConfig(t, validConfig+`
[thresholds]
preferred_languages = ["en"]
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "preferred_languages") {
		t.Fatalf("expected language code error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[jellyfin]") {
		t.Fatal("sample config missing jellyfin section")
	}
}
