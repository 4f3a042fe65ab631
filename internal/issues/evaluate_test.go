package issues_test

import (
	"strings"
	"testing"
	"time"

	"shelfwatch/internal/issues"
	"shelfwatch/internal/store"
)

var testThresholds = store.Thresholds{
	StaleDays:          365,
	MaxMovieGiB:        25,
	PreferredLanguages: []string{"eng"},
	RequestGraceDays:   14,
	RecentDays:         7,
}

func daysAgo(now time.Time, days int) *time.Time {
	t := now.Add(-time.Duration(days) * 24 * time.Hour)
	return &t
}

func evaluate(t *testing.T, in issues.Input) map[string]*store.Issue {
	t.Helper()
	out := issues.Evaluate(in)
	byKey := make(map[string]*store.Issue, len(out))
	for _, issue := range out {
		if _, dup := byKey[issue.Key]; dup {
			t.Fatalf("duplicate issue key %q", issue.Key)
		}
		byKey[issue.Key] = issue
	}
	return byKey
}

func TestStaleEvaluation(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name     string
		item     store.Item
		wantKey  string
		severity string
	}{
		{
			name: "unplayed past threshold",
			item: store.Item{ID: "a", Title: "A", MediaType: store.MediaTypeMovie,
				AddedAt: daysAgo(now, 400)},
			wantKey:  "stale:a",
			severity: issues.SeverityWarning,
		},
		{
			name: "last play resets the clock",
			item: store.Item{ID: "b", Title: "B", MediaType: store.MediaTypeMovie,
				AddedAt: daysAgo(now, 400), LastPlayedAt: daysAgo(now, 30)},
		},
		{
			name: "very old escalates",
			item: store.Item{ID: "c", Title: "C", MediaType: store.MediaTypeMovie,
				AddedAt: daysAgo(now, 800)},
			wantKey:  "stale:c",
			severity: issues.SeverityCritical,
		},
		{
			name: "no dates no issue",
			item: store.Item{ID: "d", Title: "D", MediaType: store.MediaTypeMovie},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := tt.item
			got := evaluate(t, issues.Input{Items: []*store.Item{&item}, Thresholds: testThresholds, Now: now})
			if tt.wantKey == "" {
				if len(got) != 0 {
					t.Fatalf("expected no issues, got %v", got)
				}
				return
			}
			issue, ok := got[tt.wantKey]
			if !ok {
				t.Fatalf("missing issue %q in %v", tt.wantKey, got)
			}
			if issue.Severity != tt.severity {
				t.Fatalf("severity: %q", issue.Severity)
			}
		})
	}
}

func TestOversizedOnlyAppliesToMovies(t *testing.T) {
	now := time.Now().UTC()
	movie := &store.Item{ID: "m", Title: "M", MediaType: store.MediaTypeMovie, SizeBytes: 30 << 30}
	series := &store.Item{ID: "s", Title: "S", MediaType: store.MediaTypeSeries, SizeBytes: 300 << 30}

	got := evaluate(t, issues.Input{Items: []*store.Item{movie, series}, Thresholds: testThresholds, Now: now})
	if _, ok := got["oversized:m"]; !ok {
		t.Fatalf("movie not flagged: %v", got)
	}
	if _, ok := got["oversized:s"]; ok {
		t.Fatal("series flagged as oversized")
	}

	huge := &store.Item{ID: "h", Title: "H", MediaType: store.MediaTypeMovie, SizeBytes: 60 << 30}
	got = evaluate(t, issues.Input{Items: []*store.Item{huge}, Thresholds: testThresholds, Now: now})
	if got["oversized:h"].Severity != issues.SeverityCritical {
		t.Fatalf("severity: %+v", got["oversized:h"])
	}
}

func TestAudioEvaluation(t *testing.T) {
	now := time.Now().UTC()

	wrongLang := &store.Item{ID: "w", Title: "W", MediaType: store.MediaTypeMovie,
		AudioLanguages: []string{"fra", "deu"}, AudioCount: 2}
	got := evaluate(t, issues.Input{Items: []*store.Item{wrongLang}, Thresholds: testThresholds, Now: now})
	issue, ok := got["audio:w"]
	if !ok {
		t.Fatalf("missing audio issue: %v", got)
	}
	// Language codes render as readable names.
	if !strings.Contains(issue.Detail, "English") || !strings.Contains(issue.Detail, "French") {
		t.Fatalf("detail: %q", issue.Detail)
	}

	single := &store.Item{ID: "s", Title: "S", MediaType: store.MediaTypeMovie,
		AudioLanguages: []string{"eng"}, AudioCount: 1}
	strict := testThresholds
	strict.RequireMultipleAudio = true
	got = evaluate(t, issues.Input{Items: []*store.Item{single}, Thresholds: strict, Now: now})
	if issue := got["audio:s"]; issue == nil || issue.Severity != issues.SeverityInfo {
		t.Fatalf("single-track issue: %+v", issue)
	}

	// Without the strict flag a single preferred-language track is fine.
	got = evaluate(t, issues.Input{Items: []*store.Item{single}, Thresholds: testThresholds, Now: now})
	if len(got) != 0 {
		t.Fatalf("unexpected issues: %v", got)
	}

	// No audio streams reported at all (series rollups): nothing to judge.
	silent := &store.Item{ID: "x", Title: "X", MediaType: store.MediaTypeSeries}
	got = evaluate(t, issues.Input{Items: []*store.Item{silent}, Thresholds: strict, Now: now})
	if len(got) != 0 {
		t.Fatalf("unexpected issues: %v", got)
	}
}

func TestWhitelistAndExemptSuppressIssues(t *testing.T) {
	now := time.Now().UTC()
	flagged := &store.Item{ID: "a", Title: "A", MediaType: store.MediaTypeMovie,
		SizeBytes: 60 << 30, AddedAt: daysAgo(now, 900)}
	exempt := *flagged
	exempt.ID = "b"
	exempt.Exempt = true

	got := evaluate(t, issues.Input{
		Items:       []*store.Item{flagged, &exempt},
		Whitelisted: map[string]struct{}{"a": {}},
		Thresholds:  testThresholds,
		Now:         now,
	})
	if len(got) != 0 {
		t.Fatalf("suppressed items produced issues: %v", got)
	}
}

func TestRequestEvaluation(t *testing.T) {
	now := time.Now().UTC()
	requests := []*store.MediaRequest{
		{ID: 1, Title: "Waiting", Status: store.RequestApproved, RequestedAt: daysAgo(now, 30)},
		{ID: 2, Title: "Fresh", Status: store.RequestApproved, RequestedAt: daysAgo(now, 3)},
		{ID: 3, Title: "New Arrival", Status: store.RequestAvailable, AvailableAt: daysAgo(now, 2)},
		{ID: 4, Title: "Old Arrival", Status: store.RequestAvailable, AvailableAt: daysAgo(now, 60)},
		{ID: 5, Title: "Declined", Status: store.RequestDeclined},
	}

	got := evaluate(t, issues.Input{Requests: requests, Thresholds: testThresholds, Now: now})
	if len(got) != 2 {
		t.Fatalf("issues: %v", got)
	}
	if issue := got["request_unavailable:request-1"]; issue == nil || issue.Severity != issues.SeverityWarning {
		t.Fatalf("unavailable issue: %+v", issue)
	}
	if issue := got["request_available:request-3"]; issue == nil || issue.Severity != issues.SeverityInfo {
		t.Fatalf("available issue: %+v", issue)
	}
}
