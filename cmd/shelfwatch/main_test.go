package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"shelfwatch/internal/auth"
	"shelfwatch/internal/config"
	"shelfwatch/internal/server"
	"shelfwatch/internal/store"
)

type cliTestEnv struct {
	store  *store.Store
	server *httptest.Server
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	st, err := store.Open(filepath.Join(base, "shelfwatch.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Default()
	cfg.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"
	authSvc := auth.NewService(st, cfg.Auth)
	if _, err := authSvc.Register(context.Background(), "admin@example.com", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := st.SeedThresholds(context.Background(), store.Thresholds{
		StaleDays: 365, MaxMovieGiB: 25, PreferredLanguages: []string{"eng"},
		RequestGraceDays: 14, RecentDays: 7,
	}); err != nil {
		t.Fatalf("seed thresholds: %v", err)
	}

	srv := httptest.NewServer(server.New(&cfg, st, authSvc, nil, nil, "test").Handler())
	t.Cleanup(srv.Close)

	t.Setenv("SHELFWATCH_SERVER", srv.URL)
	t.Setenv("SHELFWATCH_SESSION_FILE", filepath.Join(base, "session.json"))

	return &cliTestEnv{store: st, server: srv}
}

// runCLI executes one command the way a separate process invocation would:
// a fresh root command and a fresh client recovering state from the
// session file.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestLoginWhoamiLogout(t *testing.T) {
	setupCLITestEnv(t)

	out, err := runCLI(t, "login", "--email", "admin@example.com", "--password", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	requireContains(t, out, "Logged in as admin@example.com")

	out, err = runCLI(t, "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	requireContains(t, out, "admin@example.com")

	if _, err := runCLI(t, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := runCLI(t, "whoami"); err == nil {
		t.Fatal("expected whoami to fail after logout")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	setupCLITestEnv(t)

	if _, err := runCLI(t, "login", "--email", "admin@example.com", "--password", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}
}

func TestIssuesListsSeededIssue(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if err := env.store.UpsertItem(ctx, &store.Item{ID: "jf-1", Title: "Dust Gatherer", MediaType: store.MediaTypeMovie}); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	if err := env.store.ReplaceIssues(ctx, []*store.Issue{{
		Key: "stale:jf-1", Type: store.IssueStale, Severity: "warning", ItemID: "jf-1",
		Title: "Dust Gatherer", Detail: "added 400 days ago (threshold 365)",
	}}); err != nil {
		t.Fatalf("seed issue: %v", err)
	}

	if _, err := runCLI(t, "login", "--email", "admin@example.com", "--password", "hunter22"); err != nil {
		t.Fatalf("login: %v", err)
	}

	out, err := runCLI(t, "issues")
	if err != nil {
		t.Fatalf("issues: %v", err)
	}
	requireContains(t, out, "Dust Gatherer")
	requireContains(t, out, "warning")
}

func TestThresholdsSetRequiresFlag(t *testing.T) {
	setupCLITestEnv(t)

	if _, err := runCLI(t, "login", "--email", "admin@example.com", "--password", "hunter22"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := runCLI(t, "thresholds", "set"); err == nil {
		t.Fatal("expected error without threshold flags")
	}

	if _, err := runCLI(t, "thresholds", "set", "--stale-days", "180"); err != nil {
		t.Fatalf("thresholds set: %v", err)
	}
	out, err := runCLI(t, "thresholds", "show", "--json")
	if err != nil {
		t.Fatalf("thresholds show: %v", err)
	}
	requireContains(t, out, "\"staleDays\": 180")
}

func TestWhitelistRoundTrip(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if err := env.store.UpsertItem(ctx, &store.Item{ID: "jf-9", Title: "Keeper", MediaType: store.MediaTypeMovie}); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	if _, err := runCLI(t, "login", "--email", "admin@example.com", "--password", "hunter22"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := runCLI(t, "whitelist", "add", "jf-9", "--reason", "family favorite"); err != nil {
		t.Fatalf("whitelist add: %v", err)
	}
	out, err := runCLI(t, "whitelist", "list")
	if err != nil {
		t.Fatalf("whitelist list: %v", err)
	}
	requireContains(t, out, "jf-9")
	requireContains(t, out, "family favorite")

	if _, err := runCLI(t, "whitelist", "remove", "jf-9"); err != nil {
		t.Fatalf("whitelist remove: %v", err)
	}
	out, err = runCLI(t, "whitelist", "list")
	if err != nil {
		t.Fatalf("whitelist list: %v", err)
	}
	requireContains(t, out, "Whitelist is empty")
}

func TestConfigInit(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}
