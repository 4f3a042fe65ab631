// Package client is the typed API client the CLI uses to talk to a running
// shelfwatchd. All authenticated calls flow through the session manager so
// token refresh and the bounded 401 retry apply uniformly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"shelfwatch/internal/api"
	"shelfwatch/internal/logging"
	"shelfwatch/internal/session"
)

// ErrUnauthenticated is returned when the daemon rejects the caller's
// credentials and the session could not be recovered.
var ErrUnauthenticated = errors.New("not authenticated; run `shelfwatch login`")

// Client wraps the daemon HTTP API.
type Client struct {
	baseURL string
	session *session.Manager
	jar     *persistentJar
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*options)

type options struct {
	cookiePath string
	httpClient *http.Client
	logger     *slog.Logger
}

// WithCookiePath persists the refresh cookie to the given file so sessions
// survive between CLI runs.
func WithCookiePath(path string) Option {
	return func(o *options) { o.cookiePath = path }
}

// WithHTTPClient replaces the default transport.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New builds a client for the daemon at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	origin, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse daemon url: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{baseURL: baseURL, logger: logging.NewNop()}
	if o.logger != nil {
		c.logger = o.logger
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if httpClient.Jar == nil {
		if o.cookiePath != "" {
			jar, err := newPersistentJar(o.cookiePath, origin)
			if err != nil {
				return nil, fmt.Errorf("cookie jar: %w", err)
			}
			c.jar = jar
			httpClient.Jar = jar
		} else {
			jar, err := cookiejar.New(nil)
			if err != nil {
				return nil, fmt.Errorf("cookie jar: %w", err)
			}
			httpClient.Jar = jar
		}
	}

	sessionOpts := []session.Option{session.WithHTTPClient(httpClient)}
	if o.logger != nil {
		sessionOpts = append(sessionOpts, session.WithLogger(o.logger))
	}
	c.session = session.NewManager(baseURL, sessionOpts...)
	return c, nil
}

// Session exposes the underlying session manager.
func (c *Client) Session() *session.Manager {
	return c.session
}

// Login authenticates with the daemon and installs the returned access
// token. The refresh cookie lands in the transport's jar.
func (c *Client) Login(ctx context.Context, email, password string) (*api.User, error) {
	payload, err := json.Marshal(api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.session.Client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, errors.New("invalid email or password")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp)
	}
	var token api.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("login response missing access token")
	}
	c.session.SetToken(token.AccessToken, time.Duration(token.ExpiresIn)*time.Second)
	return token.User, nil
}

// Logout revokes the session server-side (best effort), clears the held
// token, and discards any persisted cookies.
func (c *Client) Logout(ctx context.Context) {
	c.session.Logout(ctx)
	if c.jar != nil {
		c.jar.Clear()
	}
}

// CheckAuth recovers a session from the persisted refresh cookie.
func (c *Client) CheckAuth(ctx context.Context) (*api.User, bool) {
	return c.session.CheckAuth(ctx)
}

// Issues lists current content issues, optionally filtered.
func (c *Client) Issues(ctx context.Context, issueType, severity string) ([]api.Issue, error) {
	query := url.Values{}
	if issueType != "" {
		query.Set("type", issueType)
	}
	if severity != "" {
		query.Set("severity", severity)
	}
	path := "/api/issues"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var out api.IssueListResponse
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Issues, nil
}

// Items lists synced library items.
func (c *Client) Items(ctx context.Context) ([]api.Item, error) {
	var out api.ItemListResponse
	if err := c.get(ctx, "/api/items", &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Whitelist lists curation exclusions.
func (c *Client) Whitelist(ctx context.Context) ([]api.WhitelistEntry, error) {
	var out api.WhitelistResponse
	if err := c.get(ctx, "/api/whitelist", &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// AddWhitelist excludes an item from issue evaluation.
func (c *Client) AddWhitelist(ctx context.Context, itemID, reason string) error {
	return c.send(ctx, http.MethodPost, "/api/whitelist", api.WhitelistRequest{ItemID: itemID, Reason: reason}, nil)
}

// RemoveWhitelist deletes a whitelist entry.
func (c *Client) RemoveWhitelist(ctx context.Context, itemID string) error {
	return c.send(ctx, http.MethodDelete, "/api/whitelist/"+url.PathEscape(itemID), nil, nil)
}

// SetNickname assigns a display nickname to an item.
func (c *Client) SetNickname(ctx context.Context, itemID, nickname string) error {
	return c.send(ctx, http.MethodPut, "/api/items/"+url.PathEscape(itemID)+"/nickname", api.NicknameRequest{Nickname: nickname}, nil)
}

// ClearNickname removes an item's nickname.
func (c *Client) ClearNickname(ctx context.Context, itemID string) error {
	return c.send(ctx, http.MethodDelete, "/api/items/"+url.PathEscape(itemID)+"/nickname", nil, nil)
}

// SetExempt toggles an item's exempt flag.
func (c *Client) SetExempt(ctx context.Context, itemID string, exempt bool) error {
	return c.send(ctx, http.MethodPut, "/api/items/"+url.PathEscape(itemID)+"/exempt", api.ExemptRequest{Exempt: exempt}, nil)
}

// Thresholds fetches the evaluation thresholds.
func (c *Client) Thresholds(ctx context.Context) (*api.Thresholds, error) {
	var out api.Thresholds
	if err := c.get(ctx, "/api/thresholds", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateThresholds replaces the evaluation thresholds.
func (c *Client) UpdateThresholds(ctx context.Context, t api.Thresholds) error {
	return c.send(ctx, http.MethodPut, "/api/thresholds", t, nil)
}

// Requests lists the Jellyseerr request snapshot.
func (c *Client) Requests(ctx context.Context) ([]api.MediaRequest, error) {
	var out api.RequestListResponse
	if err := c.get(ctx, "/api/requests", &out); err != nil {
		return nil, err
	}
	return out.Requests, nil
}

// Sync triggers an immediate library sync and reports its outcome.
func (c *Client) Sync(ctx context.Context) (*api.SyncResponse, error) {
	var out api.SyncResponse
	if err := c.send(ctx, http.MethodPost, "/api/sync", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status reports daemon runtime information.
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var out api.StatusResponse
	if err := c.get(ctx, "/api/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.session.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var payload api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("daemon returned %d", resp.StatusCode)
}
