// Package session owns the client side of the access-token lifecycle: an
// in-memory bearer token, a proactive refresh timer, and an authenticated
// request primitive with a single bounded retry on 401. The refresh token
// is an httpOnly cookie carried by the HTTP client's jar; this package
// never reads it.
package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"shelfwatch/internal/api"
	"shelfwatch/internal/logging"
)

const (
	// refreshMargin is how long before expiry the proactive refresh fires.
	refreshMargin = 60 * time.Second

	defaultRequestTimeout = 30 * time.Second
	refreshTimeout        = 15 * time.Second
)

// Manager holds exactly one session. All mutation of the token state goes
// through SetToken, RefreshAccessToken, Logout, and CheckAuth; methods are
// safe for concurrent use.
type Manager struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	margin  time.Duration
	now     func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	timer     *time.Timer
	inflight  *refreshCall
}

// refreshCall coalesces concurrent refreshes onto one request.
type refreshCall struct {
	done chan struct{}
	ok   bool
}

// Option customizes a Manager.
type Option func(*Manager)

// WithHTTPClient replaces the default client. The caller is responsible
// for providing a cookie jar if refresh cookies should persist.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		if client != nil {
			m.client = client
		}
	}
}

// WithLogger attaches a logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logging.WithComponent(logger, "session")
		}
	}
}

// WithRefreshMargin overrides the proactive-refresh safety margin.
func WithRefreshMargin(margin time.Duration) Option {
	return func(m *Manager) {
		if margin >= 0 {
			m.margin = margin
		}
	}
}

// NewManager builds a session manager for the daemon at baseURL.
func NewManager(baseURL string, opts ...Option) *Manager {
	jar, _ := cookiejar.New(nil)
	m := &Manager{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Jar: jar, Timeout: defaultRequestTimeout},
		logger:  logging.NewNop(),
		margin:  refreshMargin,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Token returns the held access token, empty when unauthenticated.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Expiry returns the absolute expiry of the held token, zero when no token
// is held. Token and expiry are always set and cleared together.
func (m *Manager) Expiry() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt
}

// SetToken replaces the held token. A non-empty token computes an absolute
// expiry from ttl and re-arms the proactive refresh timer at expiry minus
// the safety margin, clamped to fire no earlier than now. An empty token
// clears the expiry and cancels any pending timer. Only one timer is ever
// outstanding.
func (m *Manager) SetToken(token string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if token == "" {
		m.token = ""
		m.expiresAt = time.Time{}
		return
	}

	m.token = token
	m.expiresAt = m.now().Add(ttl)
	delay := ttl - m.margin
	if delay < 0 {
		delay = 0
	}
	m.timer = time.AfterFunc(delay, m.proactiveRefresh)
}

func (m *Manager) proactiveRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	if !m.RefreshAccessToken(ctx) {
		// The token will lapse; the next 401 triggers the reactive path.
		m.logger.Debug("proactive refresh failed")
	}
}

// RefreshAccessToken exchanges the refresh cookie for a new access token.
// It reports true and installs the token on success; on any failure
// (transport error, non-2xx, malformed body) it reports false and leaves
// the held token untouched. Concurrent callers share one in-flight request.
func (m *Manager) RefreshAccessToken(ctx context.Context) bool {
	m.mu.Lock()
	if call := m.inflight; call != nil {
		m.mu.Unlock()
		select {
		case <-call.done:
			return call.ok
		case <-ctx.Done():
			return false
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	m.mu.Unlock()

	call.ok = m.doRefresh(ctx)

	m.mu.Lock()
	m.inflight = nil
	m.mu.Unlock()
	close(call.done)
	return call.ok
}

func (m *Manager) doRefresh(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/auth/refresh", nil)
	if err != nil {
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Debug("refresh request failed", logging.Error(err))
		return false
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.logger.Debug("refresh rejected", logging.Int("status", resp.StatusCode))
		return false
	}
	var body api.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.AccessToken == "" {
		return false
	}
	m.SetToken(body.AccessToken, time.Duration(body.ExpiresIn)*time.Second)
	return true
}

// Logout best-effort revokes the refresh session server-side and always
// clears local state, even when the network call fails.
func (m *Manager) Logout(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/auth/logout", nil)
	if err == nil {
		if resp, err := m.client.Do(req); err == nil {
			drain(resp)
		} else {
			m.logger.Debug("logout request failed", logging.Error(err))
		}
	}
	m.SetToken("", 0)
}

// CheckAuth establishes whether a usable session exists from the refresh
// cookie alone, as after a fresh process start. On success it returns the
// authenticated user; on any failure it clears local state and reports
// false. It never returns an error.
func (m *Manager) CheckAuth(ctx context.Context) (*api.User, bool) {
	if !m.RefreshAccessToken(ctx) {
		m.SetToken("", 0)
		return nil, false
	}
	token := m.Token()
	if token == "" {
		return nil, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/api/auth/me", nil)
	if err != nil {
		m.SetToken("", 0)
		return nil, false
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := m.client.Do(req)
	if err != nil {
		m.SetToken("", 0)
		return nil, false
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.SetToken("", 0)
		return nil, false
	}
	var user api.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		m.SetToken("", 0)
		return nil, false
	}
	return &user, true
}

// Do sends an authenticated request. A held token is attached as a bearer
// header. A 401 response triggers exactly one refresh and one retry, and
// only when a token was held when the request went out; anonymous 401s and
// second 401s come back as-is. Non-401 statuses are never retried.
func (m *Manager) Do(req *http.Request) (*http.Response, error) {
	token := m.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || token == "" {
		return resp, nil
	}

	// Replaying a consumed body needs GetBody; without it the original
	// response is the best we can do.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}
	if !m.RefreshAccessToken(req.Context()) {
		return resp, nil
	}
	next := m.Token()
	if next == "" {
		return resp, nil
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return resp, nil
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+next)
	drain(resp)
	return m.client.Do(retry)
}

// BaseURL returns the daemon address this manager talks to.
func (m *Manager) BaseURL() string {
	return m.baseURL
}

// Client exposes the underlying HTTP client, jar included, for callers
// that need unauthenticated access to the same cookie state.
func (m *Manager) Client() *http.Client {
	return m.client
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
