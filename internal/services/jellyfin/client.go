package jellyfin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shelfwatch/internal/config"
)

// HTTPDoer describes the HTTP client used by the Jellyfin service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Item is the subset of a Jellyfin library item the sync loop consumes.
type Item struct {
	ID             string
	Name           string
	Type           string // "Movie" or "Series"
	SizeBytes      int64
	AddedAt        *time.Time
	LastPlayedAt   *time.Time
	PlayCount      int
	AudioLanguages []string
	AudioCount     int
}

// Client talks to one Jellyfin server with an API key.
type Client struct {
	baseURL string
	apiKey  string
	userID  string
	client  HTTPDoer
}

// NewClient builds a Jellyfin client from configuration.
func NewClient(cfg config.Jellyfin, client HTTPDoer) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		userID:  strings.TrimSpace(cfg.UserID),
		client:  client,
	}
}

// Ping verifies connectivity and credentials against /System/Info.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, "/System/Info")
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("jellyfin system info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("jellyfin system info returned %d", resp.StatusCode)
	}
	return nil
}

// Items fetches all movies and series with the user data and media streams
// needed for issue evaluation.
func (c *Client) Items(ctx context.Context) ([]Item, error) {
	query := url.Values{
		"IncludeItemTypes": {"Movie,Series"},
		"Recursive":        {"true"},
		"Fields":           {"DateCreated,MediaSources,MediaStreams"},
	}
	path := "/Items"
	if c.userID != "" {
		path = "/Users/" + url.PathEscape(c.userID) + "/Items"
	}
	req, err := c.newRequest(ctx, path+"?"+query.Encode())
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jellyfin items: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("jellyfin items returned %d", resp.StatusCode)
	}

	var payload itemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode jellyfin items: %w", err)
	}

	items := make([]Item, 0, len(payload.Items))
	for _, raw := range payload.Items {
		items = append(items, raw.toItem())
	}
	return items, nil
}

func (c *Client) newRequest(ctx context.Context, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build jellyfin request: %w", err)
	}
	req.Header.Set("X-Emby-Token", c.apiKey)
	return req, nil
}

type itemsResponse struct {
	Items []wireItem `json:"Items"`
}

type wireItem struct {
	ID           string    `json:"Id"`
	Name         string    `json:"Name"`
	Type         string    `json:"Type"`
	DateCreated  string    `json:"DateCreated"`
	UserData     *userData `json:"UserData"`
	MediaSources []struct {
		Size int64 `json:"Size"`
	} `json:"MediaSources"`
	MediaStreams []struct {
		Type     string `json:"Type"`
		Language string `json:"Language"`
	} `json:"MediaStreams"`
}

type userData struct {
	PlayCount      int    `json:"PlayCount"`
	LastPlayedDate string `json:"LastPlayedDate"`
}

func (w wireItem) toItem() Item {
	item := Item{
		ID:      w.ID,
		Name:    w.Name,
		Type:    w.Type,
		AddedAt: parseJellyfinTime(w.DateCreated),
	}
	for _, source := range w.MediaSources {
		item.SizeBytes += source.Size
	}
	seen := make(map[string]struct{})
	for _, stream := range w.MediaStreams {
		if !strings.EqualFold(stream.Type, "Audio") {
			continue
		}
		item.AudioCount++
		lang := strings.ToLower(strings.TrimSpace(stream.Language))
		if lang == "" {
			continue
		}
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		item.AudioLanguages = append(item.AudioLanguages, lang)
	}
	if w.UserData != nil {
		item.PlayCount = w.UserData.PlayCount
		item.LastPlayedAt = parseJellyfinTime(w.UserData.LastPlayedDate)
	}
	return item
}

func parseJellyfinTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.9999999"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}
