package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"shelfwatch/internal/auth"
	"shelfwatch/internal/config"
	"shelfwatch/internal/daemon"
	"shelfwatch/internal/logging"
	"shelfwatch/internal/notifications"
	"shelfwatch/internal/server"
	"shelfwatch/internal/services/jellyfin"
	"shelfwatch/internal/services/jellyseerr"
	syncpkg "shelfwatch/internal/sync"
	"shelfwatch/internal/store"
)

// buildDaemon assembles the daemon from configuration: store, auth,
// media-server clients, sync runner, and the HTTP API.
func buildDaemon(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.SeedThresholds(ctx, store.Thresholds{
		StaleDays:            cfg.Thresholds.StaleDays,
		MaxMovieGiB:          cfg.Thresholds.MaxMovieGiB,
		PreferredLanguages:   cfg.Thresholds.PreferredLanguages,
		RequireMultipleAudio: cfg.Thresholds.RequireMultipleAudio,
		RequestGraceDays:     cfg.Thresholds.RequestGraceDays,
		RecentDays:           cfg.Thresholds.RecentDays,
	}); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("seed thresholds: %w", err)
	}

	authSvc := auth.NewService(st, cfg.Auth)

	httpClient := &http.Client{Timeout: time.Duration(cfg.Sync.RequestTimeout) * time.Second}
	library := jellyfin.NewClient(cfg.Jellyfin, httpClient)
	if err := library.Ping(ctx); err != nil {
		logger.Warn("jellyfin unreachable at startup", logging.Error(err))
	}

	var requests syncpkg.RequestSource
	if cfg.Jellyseerr.Enabled {
		requests = jellyseerr.NewClient(cfg.Jellyseerr, httpClient)
	}

	notifier := notifications.NewService(cfg.Notifications)
	runner := syncpkg.NewRunner(st, library, requests, notifier, logger)
	handler := server.New(cfg, st, authSvc, runner, logger, version).Handler()

	return daemon.New(cfg, st, authSvc, runner, handler, logger)
}

// createUser registers an account directly against the store, for
// bootstrapping the first login. The password comes from the
// SHELFWATCH_PASSWORD environment variable or an interactive prompt.
func createUser(ctx context.Context, cfg *config.Config, email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email %q", email)
	}

	password := os.Getenv("SHELFWATCH_PASSWORD")
	if password == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("set SHELFWATCH_PASSWORD or run interactively")
		}
		fmt.Fprintf(os.Stdout, "Password for %s: ", email)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stdout)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimSpace(string(raw))
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	authSvc := auth.NewService(st, cfg.Auth)
	user, err := authSvc.Register(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Created user %s (id %d)\n", user.Email, user.ID)
	return nil
}
