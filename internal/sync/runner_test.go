package sync_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"shelfwatch/internal/services/jellyfin"
	"shelfwatch/internal/services/jellyseerr"
	"shelfwatch/internal/store"
	libsync "shelfwatch/internal/sync"
)

type fakeLibrary struct {
	items []jellyfin.Item
	err   error
}

func (f *fakeLibrary) Items(context.Context) ([]jellyfin.Item, error) {
	return f.items, f.err
}

type fakeRequests struct {
	requests []jellyseerr.Request
}

func (f *fakeRequests) Requests(context.Context) ([]jellyseerr.Request, error) {
	return f.requests, nil
}

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "shelfwatch.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	err = st.SeedThresholds(context.Background(), store.Thresholds{
		StaleDays:          365,
		MaxMovieGiB:        25,
		PreferredLanguages: []string{"eng"},
		RequestGraceDays:   14,
		RecentDays:         7,
	})
	if err != nil {
		t.Fatalf("seed thresholds: %v", err)
	}
	return st
}

func TestRunSyncsAndEvaluates(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	added := time.Now().Add(-400 * 24 * time.Hour).UTC()
	library := &fakeLibrary{items: []jellyfin.Item{
		{ID: "old", Name: "Old Movie", Type: "Movie", AddedAt: &added,
			AudioLanguages: []string{"eng"}, AudioCount: 1},
		{ID: "big", Name: "Big Movie", Type: "Movie", SizeBytes: 30 << 30,
			AudioLanguages: []string{"eng"}, AudioCount: 1},
	}}
	requestedAt := time.Now().Add(-30 * 24 * time.Hour).UTC()
	requests := &fakeRequests{requests: []jellyseerr.Request{
		{ID: 9, Title: "Waiting", MediaType: "movie", Status: "approved", RequestedAt: &requestedAt},
	}}

	runner := libsync.NewRunner(st, library, requests, nil, nil)
	summary, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Items != 2 || summary.Requests != 1 {
		t.Fatalf("summary: %+v", summary)
	}
	if summary.Issues != 3 {
		t.Fatalf("expected stale+oversized+request issues, got %d", summary.Issues)
	}

	state, err := st.GetSyncState(ctx)
	if err != nil {
		t.Fatalf("sync state: %v", err)
	}
	if state.LastSyncAt == nil || state.LastError != "" {
		t.Fatalf("state: %+v", state)
	}
}

func TestRunPrunesRemovedItems(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	library := &fakeLibrary{items: []jellyfin.Item{
		{ID: "a", Name: "A", Type: "Movie"},
		{ID: "b", Name: "B", Type: "Movie"},
	}}
	runner := libsync.NewRunner(st, library, nil, nil, nil)
	if _, err := runner.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}

	library.items = library.items[:1]
	if _, err := runner.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}

	count, err := st.CountItems(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("pruned count: %d", count)
	}
}

func TestRunResolvedIssuesDisappear(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	library := &fakeLibrary{items: []jellyfin.Item{
		{ID: "big", Name: "Big Movie", Type: "Movie", SizeBytes: 30 << 30},
	}}
	runner := libsync.NewRunner(st, library, nil, nil, nil)
	if _, err := runner.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// The movie was shrunk (re-encoded); its issue must clear.
	library.items[0].SizeBytes = 10 << 30
	summary, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Issues != 0 {
		t.Fatalf("issues after resolution: %d", summary.Issues)
	}

	open, err := st.ListIssues(ctx, "", "")
	if err != nil {
		t.Fatalf("list issues: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("stored issues not cleared: %v", open)
	}
}

func TestRunRecordsFailure(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	runner := libsync.NewRunner(st, &fakeLibrary{err: errors.New("jellyfin down")}, nil, nil, nil)
	if _, err := runner.Run(ctx); err == nil {
		t.Fatal("expected run to fail")
	}

	state, err := st.GetSyncState(ctx)
	if err != nil {
		t.Fatalf("sync state: %v", err)
	}
	if state.LastError == "" {
		t.Fatalf("failure not recorded: %+v", state)
	}
}
