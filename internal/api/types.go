// Package api defines the JSON payloads shared by the Shelfwatch daemon
// and its clients.
package api

// LoginRequest carries user credentials to /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	User        *User  `json:"user,omitempty"`
}

// User identifies the authenticated account.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Issue describes one content issue in a transport-friendly format.
type Issue struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	ItemID    string `json:"itemId,omitempty"`
	Title     string `json:"title"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// IssueListResponse wraps a collection of issues.
type IssueListResponse struct {
	Issues []Issue `json:"issues"`
}

// Item describes a synced library item.
type Item struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	MediaType      string   `json:"mediaType"`
	SizeBytes      int64    `json:"sizeBytes"`
	AddedAt        string   `json:"addedAt,omitempty"`
	LastPlayedAt   string   `json:"lastPlayedAt,omitempty"`
	PlayCount      int      `json:"playCount"`
	AudioLanguages []string `json:"audioLanguages,omitempty"`
	Nickname       string   `json:"nickname,omitempty"`
	Exempt         bool     `json:"exempt"`
	Whitelisted    bool     `json:"whitelisted"`
}

// ItemListResponse wraps a collection of library items.
type ItemListResponse struct {
	Items []Item `json:"items"`
}

// WhitelistEntry records one curation exclusion.
type WhitelistEntry struct {
	ItemID    string `json:"itemId"`
	Title     string `json:"title,omitempty"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// WhitelistRequest adds an item to the whitelist.
type WhitelistRequest struct {
	ItemID string `json:"itemId"`
	Reason string `json:"reason,omitempty"`
}

// WhitelistResponse wraps the whitelist collection.
type WhitelistResponse struct {
	Entries []WhitelistEntry `json:"entries"`
}

// NicknameRequest sets a display nickname on an item.
type NicknameRequest struct {
	Nickname string `json:"nickname"`
}

// ExemptRequest toggles an item's exempt flag.
type ExemptRequest struct {
	Exempt bool `json:"exempt"`
}

// Thresholds carries the issue-evaluation thresholds.
type Thresholds struct {
	StaleDays            int      `json:"staleDays"`
	MaxMovieGiB          float64  `json:"maxMovieGib"`
	PreferredLanguages   []string `json:"preferredLanguages"`
	RequireMultipleAudio bool     `json:"requireMultipleAudio"`
	RequestGraceDays     int      `json:"requestGraceDays"`
	RecentDays           int      `json:"recentDays"`
}

// MediaRequest describes a Jellyseerr request snapshot.
type MediaRequest struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	MediaType   string `json:"mediaType"`
	Status      string `json:"status"`
	RequestedBy string `json:"requestedBy,omitempty"`
	RequestedAt string `json:"requestedAt,omitempty"`
	AvailableAt string `json:"availableAt,omitempty"`
}

// RequestListResponse wraps Jellyseerr request snapshots.
type RequestListResponse struct {
	Requests []MediaRequest `json:"requests"`
}

// SyncResponse reports a sync run.
type SyncResponse struct {
	Items    int `json:"items"`
	Requests int `json:"requests"`
	Issues   int `json:"issues"`
}

// StatusResponse aggregates daemon runtime information.
type StatusResponse struct {
	Version    string         `json:"version"`
	PID        int            `json:"pid"`
	UptimeSecs int64          `json:"uptimeSecs"`
	LastSyncAt string         `json:"lastSyncAt,omitempty"`
	LastError  string         `json:"lastError,omitempty"`
	IssueStats map[string]int `json:"issueStats"`
	ItemCount  int            `json:"itemCount"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
