package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"shelfwatch/internal/api"
	"shelfwatch/internal/auth"
	"shelfwatch/internal/logging"
	"shelfwatch/internal/store"
)

// refreshCookie is the httpOnly cookie carrying the refresh token. It is
// scoped to the auth endpoints so it never travels with resource calls.
const refreshCookie = "shelfwatch_refresh"

const refreshCookiePath = "/api/auth"

type contextKey string

const userKey contextKey = "shelfwatch.user"

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body api.LoginRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.auth.Login(r.Context(), body.Email, body.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		s.logger.Error("login failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	refresh, _, err := s.auth.IssueRefresh(r.Context(), user, r.UserAgent())
	if err != nil {
		s.logger.Error("issue refresh session", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	s.setRefreshCookie(w, refresh)
	s.respondTokens(w, user, true)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookie)
	if err != nil || cookie.Value == "" {
		s.writeError(w, http.StatusUnauthorized, "no refresh token")
		return
	}

	next, session, err := s.auth.RotateRefresh(r.Context(), cookie.Value)
	if errors.Is(err, auth.ErrRefreshRejected) {
		s.clearRefreshCookie(w)
		s.writeError(w, http.StatusUnauthorized, "refresh token rejected")
		return
	}
	if err != nil {
		s.logger.Error("rotate refresh session", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	user, err := s.auth.UserForSession(r.Context(), session)
	if err != nil {
		s.clearRefreshCookie(w)
		s.writeError(w, http.StatusUnauthorized, "refresh token rejected")
		return
	}

	s.setRefreshCookie(w, next)
	s.respondTokens(w, user, false)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookie); err == nil && cookie.Value != "" {
		if err := s.auth.Revoke(r.Context(), cookie.Value); err != nil {
			s.logger.Warn("revoke refresh session", logging.Error(err))
		}
	}
	s.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	if user == nil {
		s.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	s.writeJSON(w, http.StatusOK, api.User{ID: user.ID, Email: user.Email})
}

// requireAuth validates the bearer token and loads the account into the
// request context. Invalid or expired tokens always yield 401 so client
// retry logic can engage.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		claims, err := s.auth.VerifyAccess(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		id, err := claims.UserID()
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, err := s.store.UserByID(r.Context(), id)
		if err != nil || user == nil {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

func userFrom(ctx context.Context) *store.User {
	user, _ := ctx.Value(userKey).(*store.User)
	return user
}

func (s *Server) respondTokens(w http.ResponseWriter, user *store.User, includeUser bool) {
	access, err := s.auth.MintAccess(user)
	if err != nil {
		s.logger.Error("mint access token", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	payload := api.TokenResponse{
		AccessToken: access,
		ExpiresIn:   int(s.auth.AccessTTL().Seconds()),
	}
	if includeUser {
		payload.User = &api.User{ID: user.ID, Email: user.Email}
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(s.auth.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
