package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"shelfwatch/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "shelfwatch.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUserRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "Admin@Example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.Email != "admin@example.com" {
		t.Fatalf("expected lowercased email, got %q", created.Email)
	}

	fetched, err := s.UserByEmail(ctx, "ADMIN@example.com")
	if err != nil {
		t.Fatalf("user by email: %v", err)
	}
	if fetched == nil || fetched.ID != created.ID {
		t.Fatalf("unexpected user: %+v", fetched)
	}

	missing, err := s.UserByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("user by email: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown email, got %+v", missing)
	}
}

func TestRefreshSessionRotation(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "a@b.c", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	session := &store.RefreshSession{
		ID:        "session-1",
		UserID:    user.ID,
		TokenHash: "hash-1",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
	if err := s.InsertRefreshSession(ctx, session); err != nil {
		t.Fatalf("insert session: %v", err)
	}

	if err := s.RotateRefreshSession(ctx, "session-1", "hash-2", time.Now().Add(2*time.Hour).UTC()); err != nil {
		t.Fatalf("rotate session: %v", err)
	}

	// Both the new hash and the previous (grace) hash resolve to the session.
	for _, hash := range []string{"hash-2", "hash-1"} {
		found, err := s.RefreshSessionByTokenHash(ctx, hash)
		if err != nil {
			t.Fatalf("lookup %s: %v", hash, err)
		}
		if found == nil || found.ID != "session-1" {
			t.Fatalf("lookup %s: got %+v", hash, found)
		}
	}

	if err := s.RevokeRefreshSession(ctx, "session-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := s.RefreshSessionByTokenHash(ctx, "hash-2")
	if err != nil {
		t.Fatalf("lookup revoked: %v", err)
	}
	if revoked == nil || !revoked.Revoked {
		t.Fatalf("expected revoked session, got %+v", revoked)
	}

	if err := s.RotateRefreshSession(ctx, "session-1", "hash-3", time.Now().Add(time.Hour)); err == nil {
		t.Fatal("expected rotation of revoked session to fail")
	}
}

func TestItemUpsertPreservesCuration(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	added := time.Now().Add(-48 * time.Hour).UTC()
	item := &store.Item{
		ID:             "jf-1",
		Title:          "Example Movie",
		MediaType:      store.MediaTypeMovie,
		SizeBytes:      4 << 30,
		AddedAt:        &added,
		AudioLanguages: []string{"eng", "fra"},
		AudioCount:     2,
	}
	if err := s.UpsertItem(ctx, item); err != nil {
		t.Fatalf("upsert item: %v", err)
	}
	if ok, err := s.SetNickname(ctx, "jf-1", "The Big One"); err != nil || !ok {
		t.Fatalf("set nickname: ok=%v err=%v", ok, err)
	}
	if ok, err := s.SetExempt(ctx, "jf-1", true); err != nil || !ok {
		t.Fatalf("set exempt: ok=%v err=%v", ok, err)
	}

	// A later sync run must not clobber curation fields.
	item.SizeBytes = 5 << 30
	if err := s.UpsertItem(ctx, item); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	fetched, err := s.ItemByID(ctx, "jf-1")
	if err != nil {
		t.Fatalf("item by id: %v", err)
	}
	if fetched.SizeBytes != 5<<30 {
		t.Fatalf("size not updated: %d", fetched.SizeBytes)
	}
	if fetched.Nickname != "The Big One" || !fetched.Exempt {
		t.Fatalf("curation fields lost: %+v", fetched)
	}
	if fetched.DisplayTitle() != "The Big One" {
		t.Fatalf("display title: %q", fetched.DisplayTitle())
	}
	if len(fetched.AudioLanguages) != 2 || fetched.AudioLanguages[0] != "eng" {
		t.Fatalf("audio languages: %v", fetched.AudioLanguages)
	}
}

func TestReplaceIssuesResolvesMissingKeys(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first := []*store.Issue{
		{Key: "stale:jf-1", Type: store.IssueStale, Severity: "warning", ItemID: "jf-1", Title: "Old Movie"},
		{Key: "oversized:jf-2", Type: store.IssueOversized, Severity: "info", ItemID: "jf-2", Title: "Huge Movie"},
	}
	if err := s.ReplaceIssues(ctx, first); err != nil {
		t.Fatalf("replace issues: %v", err)
	}

	second := []*store.Issue{
		{Key: "stale:jf-1", Type: store.IssueStale, Severity: "critical", ItemID: "jf-1", Title: "Old Movie"},
	}
	if err := s.ReplaceIssues(ctx, second); err != nil {
		t.Fatalf("replace issues: %v", err)
	}

	issues, err := s.ListIssues(ctx, "", "")
	if err != nil {
		t.Fatalf("list issues: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	if issues[0].Severity != "critical" {
		t.Fatalf("severity not updated: %q", issues[0].Severity)
	}

	stats, err := s.IssueStats(ctx)
	if err != nil {
		t.Fatalf("issue stats: %v", err)
	}
	if stats[store.IssueStale] != 1 || stats[store.IssueOversized] != 0 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestListIssuesFilters(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	issues := []*store.Issue{
		{Key: "stale:a", Type: store.IssueStale, Severity: "warning", Title: "A"},
		{Key: "audio:b", Type: store.IssueAudio, Severity: "critical", Title: "B"},
	}
	if err := s.ReplaceIssues(ctx, issues); err != nil {
		t.Fatalf("replace issues: %v", err)
	}

	byType, err := s.ListIssues(ctx, store.IssueAudio, "")
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}
	if len(byType) != 1 || byType[0].Title != "B" {
		t.Fatalf("type filter: %+v", byType)
	}

	bySeverity, err := s.ListIssues(ctx, "", "warning")
	if err != nil {
		t.Fatalf("list by severity: %v", err)
	}
	if len(bySeverity) != 1 || bySeverity[0].Title != "A" {
		t.Fatalf("severity filter: %+v", bySeverity)
	}
}

func TestThresholdsSeedAndUpdate(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	defaults := store.Thresholds{
		StaleDays:          365,
		MaxMovieGiB:        25,
		PreferredLanguages: []string{"eng"},
		RequestGraceDays:   14,
		RecentDays:         7,
	}
	if err := s.SeedThresholds(ctx, defaults); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Seeding twice must not overwrite.
	defaults.StaleDays = 1
	if err := s.SeedThresholds(ctx, defaults); err != nil {
		t.Fatalf("re-seed: %v", err)
	}

	current, err := s.GetThresholds(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.StaleDays != 365 {
		t.Fatalf("seed overwrote existing row: %d", current.StaleDays)
	}

	current.StaleDays = 180
	current.RequireMultipleAudio = true
	if err := s.UpdateThresholds(ctx, *current); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, err := s.GetThresholds(ctx)
	if err != nil {
		t.Fatalf("get updated: %v", err)
	}
	if updated.StaleDays != 180 || !updated.RequireMultipleAudio {
		t.Fatalf("update not persisted: %+v", updated)
	}
}

func TestWhitelistRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.AddWhitelist(ctx, "jf-1", "keep forever"); err != nil {
		t.Fatalf("add: %v", err)
	}
	ids, err := s.WhitelistedIDs(ctx)
	if err != nil {
		t.Fatalf("ids: %v", err)
	}
	if _, ok := ids["jf-1"]; !ok {
		t.Fatalf("missing id: %v", ids)
	}

	removed, err := s.RemoveWhitelist(ctx, "jf-1")
	if err != nil || !removed {
		t.Fatalf("remove: removed=%v err=%v", removed, err)
	}
	removed, err = s.RemoveWhitelist(ctx, "jf-1")
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if removed {
		t.Fatal("expected second remove to report false")
	}
}

func TestSyncState(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	state, err := s.GetSyncState(ctx)
	if err != nil {
		t.Fatalf("empty state: %v", err)
	}
	if state.LastSyncAt != nil {
		t.Fatalf("expected empty state, got %+v", state)
	}

	now := time.Now().UTC()
	if err := s.SetSyncState(ctx, now, nil); err != nil {
		t.Fatalf("set state: %v", err)
	}
	state, err = s.GetSyncState(ctx)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.LastSyncAt == nil || !state.LastSyncAt.Equal(now.Truncate(time.Nanosecond)) {
		t.Fatalf("unexpected state: %+v", state)
	}
}
