package store

import (
	"strings"
	"time"
)

// User is a dashboard account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// RefreshSession is one refresh-token lineage for a user. The token itself
// is never stored; only SHA-256 hashes of the current and previous values.
type RefreshSession struct {
	ID            string
	UserID        int64
	TokenHash     string
	PrevTokenHash string
	UserAgent     string
	CreatedAt     time.Time
	RotatedAt     *time.Time
	ExpiresAt     time.Time
	Revoked       bool
}

// Expired reports whether the session lifetime has elapsed.
func (s RefreshSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// MediaType distinguishes library item kinds.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// Item is a synced library item with the user data needed for curation.
type Item struct {
	ID             string
	Title          string
	MediaType      MediaType
	SizeBytes      int64
	AddedAt        *time.Time
	LastPlayedAt   *time.Time
	PlayCount      int
	AudioLanguages []string
	AudioCount     int
	Nickname       string
	Exempt         bool
	UpdatedAt      time.Time
}

// DisplayTitle prefers the curation nickname over the library title.
func (i Item) DisplayTitle() string {
	if strings.TrimSpace(i.Nickname) != "" {
		return i.Nickname
	}
	return i.Title
}

// WhitelistEntry excludes an item from issue evaluation.
type WhitelistEntry struct {
	ItemID    string
	Reason    string
	CreatedAt time.Time
}

// IssueType classifies content issues.
type IssueType string

const (
	IssueStale              IssueType = "stale"
	IssueOversized          IssueType = "oversized"
	IssueAudio              IssueType = "audio"
	IssueRequestUnavailable IssueType = "request_unavailable"
	IssueRequestAvailable   IssueType = "request_available"
)

var knownIssueTypes = map[IssueType]struct{}{
	IssueStale:              {},
	IssueOversized:          {},
	IssueAudio:              {},
	IssueRequestUnavailable: {},
	IssueRequestAvailable:   {},
}

// ParseIssueType converts a string into a known IssueType.
func ParseIssueType(value string) (IssueType, bool) {
	normalized := IssueType(strings.ToLower(strings.TrimSpace(value)))
	_, ok := knownIssueTypes[normalized]
	return normalized, ok
}

// Issue is a persisted content issue. Key is stable across re-evaluation
// (type plus subject) so syncs update rather than duplicate.
type Issue struct {
	ID        int64
	Key       string
	Type      IssueType
	Severity  string
	ItemID    string
	Title     string
	Detail    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RequestStatus mirrors Jellyseerr request states Shelfwatch cares about.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestAvailable RequestStatus = "available"
	RequestDeclined  RequestStatus = "declined"
)

// MediaRequest is a synced Jellyseerr request.
type MediaRequest struct {
	ID          int64
	Title       string
	MediaType   MediaType
	Status      RequestStatus
	RequestedBy string
	RequestedAt *time.Time
	AvailableAt *time.Time
	UpdatedAt   time.Time
}

// Thresholds holds the runtime issue-evaluation thresholds (single row).
type Thresholds struct {
	StaleDays            int
	MaxMovieGiB          float64
	PreferredLanguages   []string
	RequireMultipleAudio bool
	RequestGraceDays     int
	RecentDays           int
	UpdatedAt            time.Time
}

// SyncState records the outcome of the most recent library sync.
type SyncState struct {
	LastSyncAt *time.Time
	LastError  string
}
