package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shelfwatch/internal/config"
	"shelfwatch/internal/store"
)

// ErrRefreshRejected is returned when a presented refresh token does not map
// to a live session: unknown, revoked, or expired.
var ErrRefreshRejected = errors.New("refresh token rejected")

// Service authenticates accounts and manages token lifecycles against the
// store. All methods are safe for concurrent use.
type Service struct {
	store      *store.Store
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService builds a Service from the auth configuration.
func NewService(st *store.Store, cfg config.Auth) *Service {
	return &Service{
		store:      st,
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  time.Duration(cfg.AccessTokenMinutes) * time.Minute,
		refreshTTL: time.Duration(cfg.RefreshTokenDays) * 24 * time.Hour,
		now:        time.Now,
	}
}

// AccessTTL returns the configured access-token lifetime.
func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

// RefreshTTL returns the configured refresh-session lifetime.
func (s *Service) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// Login verifies an email/password pair. Unknown accounts and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*store.User, error) {
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up account: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, password string) (*store.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.store.CreateUser(ctx, email, hash)
}

// MintAccess signs a fresh access token for the user.
func (s *Service) MintAccess(user *store.User) (string, error) {
	return MintAccessToken(s.secret, user.ID, user.Email, s.accessTTL, s.now().UTC())
}

// VerifyAccess validates an access token and returns its claims.
func (s *Service) VerifyAccess(raw string) (*Claims, error) {
	return VerifyAccessToken(s.secret, raw)
}

// IssueRefresh starts a new refresh-token lineage for the user and returns
// the plaintext token. Only its hash is persisted.
func (s *Service) IssueRefresh(ctx context.Context, user *store.User, userAgent string) (string, *store.RefreshSession, error) {
	token, err := newRefreshToken()
	if err != nil {
		return "", nil, err
	}
	now := s.now().UTC()
	session := &store.RefreshSession{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: hashToken(token),
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.store.InsertRefreshSession(ctx, session); err != nil {
		return "", nil, err
	}
	return token, session, nil
}

// RotateRefresh exchanges a presented refresh token for a new one, extending
// the session lifetime. The previous hash stays valid until the next
// rotation so a concurrent refresh with the old token still succeeds.
func (s *Service) RotateRefresh(ctx context.Context, token string) (string, *store.RefreshSession, error) {
	session, err := s.lookupLive(ctx, token)
	if err != nil {
		return "", nil, err
	}
	next, err := newRefreshToken()
	if err != nil {
		return "", nil, err
	}
	expiresAt := s.now().UTC().Add(s.refreshTTL)
	if err := s.store.RotateRefreshSession(ctx, session.ID, hashToken(next), expiresAt); err != nil {
		return "", nil, ErrRefreshRejected
	}
	session.PrevTokenHash = session.TokenHash
	session.TokenHash = hashToken(next)
	session.ExpiresAt = expiresAt
	return next, session, nil
}

// Revoke marks the session behind a refresh token as revoked. Unknown
// tokens are ignored; logout must succeed regardless.
func (s *Service) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	session, err := s.store.RefreshSessionByTokenHash(ctx, hashToken(token))
	if err != nil || session == nil {
		return err
	}
	return s.store.RevokeRefreshSession(ctx, session.ID)
}

// UserForSession resolves the account owning a refresh session.
func (s *Service) UserForSession(ctx context.Context, session *store.RefreshSession) (*store.User, error) {
	user, err := s.store.UserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrRefreshRejected
	}
	return user, nil
}

// PruneExpired deletes sessions past their expiry.
func (s *Service) PruneExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx, s.now().UTC())
}

func (s *Service) lookupLive(ctx context.Context, token string) (*store.RefreshSession, error) {
	if token == "" {
		return nil, ErrRefreshRejected
	}
	session, err := s.store.RefreshSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		return nil, fmt.Errorf("look up refresh session: %w", err)
	}
	if session == nil || session.Revoked || session.Expired(s.now().UTC()) {
		return nil, ErrRefreshRejected
	}
	return session, nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
