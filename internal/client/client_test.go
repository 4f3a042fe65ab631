package client_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shelfwatch/internal/auth"
	"shelfwatch/internal/client"
	"shelfwatch/internal/config"
	"shelfwatch/internal/server"
	"shelfwatch/internal/store"
)

func newDaemon(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "shelfwatch.db"))
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
	return srv, st
}

func TestLoginAndAuthenticatedCalls(t *testing.T) {
	srv, st := newDaemon(t)
	ctx := context.Background()

	if err := st.UpsertItem(ctx, &store.Item{ID: "jf-1", Title: "Example", MediaType: store.MediaTypeMovie}); err != nil {
		t.Fatalf("seed item: %v", err)
	}

	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	user, err := c.Login(ctx, "admin@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user == nil || user.Email != "admin@example.com" {
		t.Fatalf("user: %+v", user)
	}

	items, err := c.Items(ctx)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 || items[0].ID != "jf-1" {
		t.Fatalf("items: %+v", items)
	}

	status, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Version != "test" {
		t.Fatalf("status: %+v", status)
	}
}

func TestRejectedTokenIsRefreshedAndRetried(t *testing.T) {
	srv, _ := newDaemon(t)
	ctx := context.Background()

	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.Login(ctx, "admin@example.com", "hunter22"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// Simulate an expired access token: the daemon rejects it with 401,
	// the session refreshes via the cookie, and the call is retried once.
	c.Session().SetToken("expired-token", time.Hour)
	if _, err := c.Issues(ctx, "", ""); err != nil {
		t.Fatalf("issues after stale token: %v", err)
	}
	if got := c.Session().Token(); got == "expired-token" || got == "" {
		t.Fatalf("token not refreshed: %q", got)
	}
}

func TestSessionSurvivesProcessRestart(t *testing.T) {
	srv, _ := newDaemon(t)
	ctx := context.Background()
	cookiePath := filepath.Join(t.TempDir(), "session.json")

	first, err := client.New(srv.URL, client.WithCookiePath(cookiePath))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := first.Login(ctx, "admin@example.com", "hunter22"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := os.Stat(cookiePath); err != nil {
		t.Fatalf("cookie file not written: %v", err)
	}

	// A fresh client (new process) holds no access token; only the cookie
	// file can recover the session.
	second, err := client.New(srv.URL, client.WithCookiePath(cookiePath))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	user, ok := second.CheckAuth(ctx)
	if !ok || user == nil || user.Email != "admin@example.com" {
		t.Fatalf("check auth: ok=%v user=%+v", ok, user)
	}
	if _, err := second.Thresholds(ctx); err != nil {
		t.Fatalf("thresholds after recovery: %v", err)
	}
}

func TestLogoutEndsPersistedSession(t *testing.T) {
	srv, _ := newDaemon(t)
	ctx := context.Background()
	cookiePath := filepath.Join(t.TempDir(), "session.json")

	c, err := client.New(srv.URL, client.WithCookiePath(cookiePath))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.Login(ctx, "admin@example.com", "hunter22"); err != nil {
		t.Fatalf("login: %v", err)
	}
	c.Logout(ctx)

	if c.Session().Token() != "" {
		t.Fatal("token survives logout")
	}
	if _, err := os.Stat(cookiePath); !os.IsNotExist(err) {
		t.Fatalf("cookie file survives logout: %v", err)
	}

	fresh, err := client.New(srv.URL, client.WithCookiePath(cookiePath))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, ok := fresh.CheckAuth(ctx); ok {
		t.Fatal("session recovered after logout")
	}
}

func TestUnauthenticatedCallsFail(t *testing.T) {
	srv, _ := newDaemon(t)
	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.Items(context.Background()); err == nil {
		t.Fatal("expected unauthenticated error")
	}
}
