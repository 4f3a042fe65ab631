package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"shelfwatch/internal/auth"
	"shelfwatch/internal/config"
	"shelfwatch/internal/logging"
	"shelfwatch/internal/store"
	"shelfwatch/internal/sync"
)

// Syncer triggers a library sync. Satisfied by *sync.Runner.
type Syncer interface {
	Run(ctx context.Context) (sync.Summary, error)
}

// Server wires the HTTP API together. Construct with New and mount the
// result of Handler on an http.Server.
type Server struct {
	store        *store.Store
	auth         *auth.Service
	syncer       Syncer
	logger       *slog.Logger
	version      string
	cookieSecure bool
	startedAt    time.Time
}

// New builds the API server.
func New(cfg *config.Config, st *store.Store, authSvc *auth.Service, syncer Syncer, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		store:        st,
		auth:         authSvc,
		syncer:       syncer,
		logger:       logging.WithComponent(logger, "api-server"),
		version:      version,
		cookieSecure: cfg != nil && cfg.Auth.CookieSecure,
		startedAt:    time.Now(),
	}
}

// Handler returns the routing table. The unauthenticated surface is exactly
// login and refresh; logout works with or without a live session; everything
// else requires a bearer token.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/auth/me", s.requireAuth(s.handleMe))

	mux.HandleFunc("GET /api/issues", s.requireAuth(s.handleIssues))
	mux.HandleFunc("GET /api/items", s.requireAuth(s.handleItems))
	mux.HandleFunc("GET /api/whitelist", s.requireAuth(s.handleWhitelistList))
	mux.HandleFunc("POST /api/whitelist", s.requireAuth(s.handleWhitelistAdd))
	mux.HandleFunc("DELETE /api/whitelist/{id}", s.requireAuth(s.handleWhitelistRemove))
	mux.HandleFunc("PUT /api/items/{id}/nickname", s.requireAuth(s.handleNicknameSet))
	mux.HandleFunc("DELETE /api/items/{id}/nickname", s.requireAuth(s.handleNicknameClear))
	mux.HandleFunc("PUT /api/items/{id}/exempt", s.requireAuth(s.handleExempt))
	mux.HandleFunc("GET /api/thresholds", s.requireAuth(s.handleThresholdsGet))
	mux.HandleFunc("PUT /api/thresholds", s.requireAuth(s.handleThresholdsPut))
	mux.HandleFunc("GET /api/requests", s.requireAuth(s.handleRequests))
	mux.HandleFunc("POST /api/sync", s.requireAuth(s.handleSync))
	mux.HandleFunc("GET /api/status", s.requireAuth(s.handleStatus))

	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}
