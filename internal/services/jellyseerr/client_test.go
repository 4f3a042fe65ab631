package jellyseerr_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"shelfwatch/internal/config"
	"shelfwatch/internal/services/jellyseerr"
)

func TestRequestsPaginatesAndMapsStatus(t *testing.T) {
	pages := map[string]string{
		"0": `{
		  "pageInfo": {"results": 51},
		  "results": [
		    {"id": 1, "status": 2, "createdAt": "2024-05-01T00:00:00Z",
		     "requestedBy": {"displayName": "alice"},
		     "media": {"mediaType": "movie", "status": 5, "tmdbId": 603,
		               "mediaAddedAt": "2024-05-10T00:00:00Z"}},
		    {"id": 2, "status": 2, "createdAt": "2024-05-02T00:00:00Z",
		     "requestedBy": {"displayName": "bob"},
		     "media": {"mediaType": "tv", "status": 3, "title": "Example Show"}}
		  ]
		}`,
		"2": `{
		  "pageInfo": {"results": 51},
		  "results": [
		    {"id": 3, "status": 3, "createdAt": "2024-05-03T00:00:00Z",
		     "requestedBy": {"displayName": "carol"},
		     "media": {"mediaType": "movie", "status": 2, "title": "Declined Movie"}},
		    {"id": 4, "status": 1,
		     "media": {"mediaType": "movie", "status": 2, "title": "Pending Movie"}}
		  ]
		}`,
		"4": `{"pageInfo": {"results": 51}, "results": []}`,
	}

	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		body, ok := pages[r.URL.Query().Get("skip")]
		if !ok {
			t.Errorf("unexpected skip %q", r.URL.Query().Get("skip"))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	client := jellyseerr.NewClient(config.Jellyseerr{URL: srv.URL, APIKey: "seer-key"}, srv.Client())
	requests, err := client.Requests(context.Background())
	if err != nil {
		t.Fatalf("requests: %v", err)
	}
	if gotKey != "seer-key" {
		t.Fatalf("api key header: %q", gotKey)
	}
	if len(requests) != 4 {
		t.Fatalf("requests: %d", len(requests))
	}

	byID := make(map[int64]jellyseerr.Request)
	for _, r := range requests {
		byID[r.ID] = r
	}
	if r := byID[1]; r.Status != "available" || r.AvailableAt == nil || r.Title != "tmdb:603" {
		t.Fatalf("request 1: %+v", r)
	}
	if r := byID[2]; r.Status != "approved" || r.Title != "Example Show" {
		t.Fatalf("request 2: %+v", r)
	}
	if r := byID[3]; r.Status != "declined" {
		t.Fatalf("request 3: %+v", r)
	}
	if r := byID[4]; r.Status != "pending" || r.RequestedAt != nil {
		t.Fatalf("request 4: %+v", r)
	}
}
