package issues

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"shelfwatch/internal/store"
)

// Issue severities, lowest to highest.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

const gib = float64(1 << 30)

// Input carries everything one evaluation pass needs. Whitelisted items and
// items marked exempt produce no issues.
type Input struct {
	Items       []*store.Item
	Requests    []*store.MediaRequest
	Whitelisted map[string]struct{}
	Thresholds  store.Thresholds
	Now         time.Time
}

// Evaluate computes the full current issue set. Keys are stable per
// type+subject so the store can update rather than duplicate on re-runs.
func Evaluate(in Input) []*store.Issue {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var out []*store.Issue
	for _, item := range in.Items {
		if item.Exempt {
			continue
		}
		if _, ok := in.Whitelisted[item.ID]; ok {
			continue
		}
		if issue := staleIssue(item, in.Thresholds, now); issue != nil {
			out = append(out, issue)
		}
		if issue := oversizedIssue(item, in.Thresholds); issue != nil {
			out = append(out, issue)
		}
		if issue := audioIssue(item, in.Thresholds); issue != nil {
			out = append(out, issue)
		}
	}
	for _, request := range in.Requests {
		if issue := requestIssue(request, in.Thresholds, now); issue != nil {
			out = append(out, issue)
		}
	}
	return out
}

func staleIssue(item *store.Item, t store.Thresholds, now time.Time) *store.Issue {
	if t.StaleDays <= 0 {
		return nil
	}
	// Last playback wins over the added date when both exist.
	reference := item.LastPlayedAt
	if reference == nil {
		reference = item.AddedAt
	}
	if reference == nil {
		return nil
	}
	age := now.Sub(*reference)
	limit := time.Duration(t.StaleDays) * 24 * time.Hour
	if age <= limit {
		return nil
	}
	severity := SeverityWarning
	if age > 2*limit {
		severity = SeverityCritical
	}
	verb := "added"
	if item.LastPlayedAt != nil {
		verb = "last played"
	}
	return &store.Issue{
		Key:      "stale:" + item.ID,
		Type:     store.IssueStale,
		Severity: severity,
		ItemID:   item.ID,
		Title:    item.DisplayTitle(),
		Detail:   fmt.Sprintf("%s %d days ago (threshold %d)", verb, int(age.Hours()/24), t.StaleDays),
	}
}

func oversizedIssue(item *store.Item, t store.Thresholds) *store.Issue {
	if item.MediaType != store.MediaTypeMovie || t.MaxMovieGiB <= 0 {
		return nil
	}
	size := float64(item.SizeBytes) / gib
	if size <= t.MaxMovieGiB {
		return nil
	}
	severity := SeverityWarning
	if size > 1.5*t.MaxMovieGiB {
		severity = SeverityCritical
	}
	return &store.Issue{
		Key:      "oversized:" + item.ID,
		Type:     store.IssueOversized,
		Severity: severity,
		ItemID:   item.ID,
		Title:    item.DisplayTitle(),
		Detail:   fmt.Sprintf("%.1f GiB exceeds the %.1f GiB movie limit", size, t.MaxMovieGiB),
	}
}

func audioIssue(item *store.Item, t store.Thresholds) *store.Issue {
	if item.AudioCount == 0 {
		return nil
	}
	if len(t.PreferredLanguages) > 0 && !hasPreferredAudio(item.AudioLanguages, t.PreferredLanguages) {
		return &store.Issue{
			Key:      "audio:" + item.ID,
			Type:     store.IssueAudio,
			Severity: SeverityWarning,
			ItemID:   item.ID,
			Title:    item.DisplayTitle(),
			Detail:   fmt.Sprintf("no %s audio track (has %s)", languageList(t.PreferredLanguages), languageList(item.AudioLanguages)),
		}
	}
	if t.RequireMultipleAudio && item.AudioCount < 2 {
		return &store.Issue{
			Key:      "audio:" + item.ID,
			Type:     store.IssueAudio,
			Severity: SeverityInfo,
			ItemID:   item.ID,
			Title:    item.DisplayTitle(),
			Detail:   "only a single audio track",
		}
	}
	return nil
}

func requestIssue(request *store.MediaRequest, t store.Thresholds, now time.Time) *store.Issue {
	subject := fmt.Sprintf("request-%d", request.ID)
	switch request.Status {
	case store.RequestApproved:
		if t.RequestGraceDays <= 0 || request.RequestedAt == nil {
			return nil
		}
		waiting := now.Sub(*request.RequestedAt)
		grace := time.Duration(t.RequestGraceDays) * 24 * time.Hour
		if waiting <= grace {
			return nil
		}
		return &store.Issue{
			Key:      string(store.IssueRequestUnavailable) + ":" + subject,
			Type:     store.IssueRequestUnavailable,
			Severity: SeverityWarning,
			Title:    request.Title,
			Detail:   fmt.Sprintf("approved %d days ago and still not available (grace %d)", int(waiting.Hours()/24), t.RequestGraceDays),
		}
	case store.RequestAvailable:
		if t.RecentDays <= 0 || request.AvailableAt == nil {
			return nil
		}
		since := now.Sub(*request.AvailableAt)
		if since > time.Duration(t.RecentDays)*24*time.Hour {
			return nil
		}
		return &store.Issue{
			Key:      string(store.IssueRequestAvailable) + ":" + subject,
			Type:     store.IssueRequestAvailable,
			Severity: SeverityInfo,
			Title:    request.Title,
			Detail:   fmt.Sprintf("became available %d days ago", int(since.Hours()/24)),
		}
	default:
		return nil
	}
}

func hasPreferredAudio(have, preferred []string) bool {
	for _, p := range preferred {
		for _, h := range have {
			if strings.EqualFold(h, p) {
				return true
			}
		}
	}
	return false
}

// languageList renders ISO 639-2 codes as readable names: "English or French".
func languageList(codes []string) string {
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, languageName(code))
	}
	switch len(names) {
	case 0:
		return "preferred"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
	}
}

func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
