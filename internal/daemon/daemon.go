package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"shelfwatch/internal/auth"
	"shelfwatch/internal/config"
	"shelfwatch/internal/logging"
	"shelfwatch/internal/store"
	syncpkg "shelfwatch/internal/sync"
)

// Daemon coordinates the API server and the sync loop and enforces
// single-instance execution via a lock file.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	auth    *auth.Service
	runner  *syncpkg.Runner
	handler http.Handler

	lockPath string
	lock     *flock.Flock

	listener net.Listener
	server   *http.Server

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, authSvc *auth.Service, runner *syncpkg.Runner, handler http.Handler, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || authSvc == nil || handler == nil {
		return nil, errors.New("daemon requires config, store, auth service, and handler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    st,
		auth:     authSvc,
		runner:   runner,
		handler:  handler,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, binds the API listener, and launches
// the background loops. It returns once the daemon is serving.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another shelfwatchd instance is already running")
	}

	listener, err := net.Listen("tcp", d.cfg.Paths.Bind)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	d.listener = listener
	d.server = &http.Server{
		Handler:           d.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	srv := d.server
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("api server error", logging.Error(err))
		}
	}()
	go d.syncLoop(runCtx)
	go d.pruneLoop(runCtx)

	d.running.Store(true)
	d.logger.Info("shelfwatchd started",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop shuts the API server down and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = d.server.Shutdown(shutdownCtx)
		cancel()
		d.server = nil
	}
	if d.listener != nil {
		_ = d.listener.Close()
		d.listener = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("shelfwatchd stopped")
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the bound API address, empty before Start.
func (d *Daemon) Addr() string {
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

// syncLoop runs an initial sync and then one per configured interval.
func (d *Daemon) syncLoop(ctx context.Context) {
	if d.runner == nil {
		return
	}
	interval := time.Duration(d.cfg.Sync.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	if _, err := d.runner.Run(ctx); err != nil && ctx.Err() == nil {
		d.logger.Warn("initial sync failed", logging.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.runner.Run(ctx); err != nil && ctx.Err() == nil {
				d.logger.Warn("periodic sync failed", logging.Error(err))
			}
		}
	}
}

// pruneLoop removes expired refresh sessions once a day.
func (d *Daemon) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := d.auth.PruneExpired(ctx)
			if err != nil {
				d.logger.Warn("prune refresh sessions", logging.Error(err))
				continue
			}
			if removed > 0 {
				d.logger.Debug("pruned refresh sessions", logging.Int64("removed", removed))
			}
		}
	}
}
