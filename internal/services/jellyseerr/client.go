package jellyseerr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shelfwatch/internal/config"
)

// HTTPDoer describes the HTTP client used by the Jellyseerr service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request is the subset of a Jellyseerr media request the sync loop needs.
type Request struct {
	ID          int64
	Title       string
	MediaType   string // "movie" or "tv"
	Status      string // pending, approved, declined, available
	RequestedBy string
	RequestedAt *time.Time
	AvailableAt *time.Time
}

// Jellyseerr wire status codes.
const (
	requestPending  = 1
	requestApproved = 2
	requestDeclined = 3

	mediaAvailable = 5
)

const pageSize = 50

// Client talks to one Jellyseerr server with an API key.
type Client struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewClient builds a Jellyseerr client from configuration.
func NewClient(cfg config.Jellyseerr, client HTTPDoer) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		client:  client,
	}
}

// Requests fetches every media request, following pagination.
func (c *Client) Requests(ctx context.Context) ([]Request, error) {
	var all []Request
	skip := 0
	for {
		page, total, err := c.page(ctx, skip)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		skip += len(page)
		if len(page) == 0 || skip >= total {
			return all, nil
		}
	}
}

func (c *Client) page(ctx context.Context, skip int) ([]Request, int, error) {
	url := fmt.Sprintf("%s/api/v1/request?take=%d&skip=%d", c.baseURL, pageSize, skip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build jellyseerr request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("jellyseerr requests: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, 0, fmt.Errorf("jellyseerr requests returned %d", resp.StatusCode)
	}

	var payload pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, 0, fmt.Errorf("decode jellyseerr requests: %w", err)
	}

	requests := make([]Request, 0, len(payload.Results))
	for _, raw := range payload.Results {
		requests = append(requests, raw.toRequest())
	}
	return requests, payload.PageInfo.Results, nil
}

type pageResponse struct {
	PageInfo struct {
		Results int `json:"results"`
	} `json:"pageInfo"`
	Results []wireRequest `json:"results"`
}

type wireRequest struct {
	ID          int64  `json:"id"`
	Status      int    `json:"status"`
	CreatedAt   string `json:"createdAt"`
	RequestedBy struct {
		DisplayName string `json:"displayName"`
	} `json:"requestedBy"`
	Media struct {
		MediaType    string `json:"mediaType"`
		Status       int    `json:"status"`
		TmdbID       int64  `json:"tmdbId"`
		Title        string `json:"title"`
		MediaAddedAt string `json:"mediaAddedAt"`
	} `json:"media"`
}

func (w wireRequest) toRequest() Request {
	r := Request{
		ID:          w.ID,
		Title:       w.Media.Title,
		MediaType:   w.Media.MediaType,
		RequestedBy: w.RequestedBy.DisplayName,
		RequestedAt: parseTime(w.CreatedAt),
	}
	if r.Title == "" && w.Media.TmdbID != 0 {
		r.Title = "tmdb:" + strconv.FormatInt(w.Media.TmdbID, 10)
	}
	switch {
	case w.Media.Status == mediaAvailable:
		r.Status = "available"
		r.AvailableAt = parseTime(w.Media.MediaAddedAt)
	case w.Status == requestDeclined:
		r.Status = "declined"
	case w.Status == requestApproved:
		r.Status = "approved"
	default:
		r.Status = "pending"
	}
	return r
}

func parseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}
