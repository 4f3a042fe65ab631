package daemon_test

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"shelfwatch/internal/auth"
	"shelfwatch/internal/config"
	"shelfwatch/internal/daemon"
	"shelfwatch/internal/server"
	"shelfwatch/internal/store"
)

func newDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = dir
	cfg.Paths.LogDir = dir
	cfg.Paths.Bind = "127.0.0.1:0"
	cfg.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"

	st, err := store.Open(filepath.Join(dir, "shelfwatch.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	authSvc := auth.NewService(st, cfg.Auth)
	handler := server.New(&cfg, st, authSvc, nil, nil, "test").Handler()

	d, err := daemon.New(&cfg, st, authSvc, nil, handler, nil)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestStartServesAPI(t *testing.T) {
	d := newDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	resp, err := http.Get("http://" + d.Addr() + "/api/status")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	// Serving and enforcing auth: anonymous status calls get 401.
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestStartTwiceFails(t *testing.T) {
	d := newDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected second start to fail")
	}
}

func TestStopReleasesLock(t *testing.T) {
	d := newDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	d.Stop()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
	d.Stop()
}
