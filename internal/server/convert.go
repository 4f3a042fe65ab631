package server

import (
	"time"

	"shelfwatch/internal/api"
	"shelfwatch/internal/store"
)

func toAPIIssue(issue *store.Issue) api.Issue {
	return api.Issue{
		ID:        issue.ID,
		Type:      string(issue.Type),
		Severity:  issue.Severity,
		ItemID:    issue.ItemID,
		Title:     issue.Title,
		Detail:    issue.Detail,
		CreatedAt: formatTime(&issue.CreatedAt),
		UpdatedAt: formatTime(&issue.UpdatedAt),
	}
}

func toAPIItem(item *store.Item, whitelisted bool) api.Item {
	return api.Item{
		ID:             item.ID,
		Title:          item.Title,
		MediaType:      string(item.MediaType),
		SizeBytes:      item.SizeBytes,
		AddedAt:        formatTime(item.AddedAt),
		LastPlayedAt:   formatTime(item.LastPlayedAt),
		PlayCount:      item.PlayCount,
		AudioLanguages: item.AudioLanguages,
		Nickname:       item.Nickname,
		Exempt:         item.Exempt,
		Whitelisted:    whitelisted,
	}
}

func toAPIThresholds(t *store.Thresholds) api.Thresholds {
	return api.Thresholds{
		StaleDays:            t.StaleDays,
		MaxMovieGiB:          t.MaxMovieGiB,
		PreferredLanguages:   t.PreferredLanguages,
		RequireMultipleAudio: t.RequireMultipleAudio,
		RequestGraceDays:     t.RequestGraceDays,
		RecentDays:           t.RecentDays,
	}
}

func toAPIRequest(request *store.MediaRequest) api.MediaRequest {
	return api.MediaRequest{
		ID:          request.ID,
		Title:       request.Title,
		MediaType:   string(request.MediaType),
		Status:      string(request.Status),
		RequestedBy: request.RequestedBy,
		RequestedAt: formatTime(request.RequestedAt),
		AvailableAt: formatTime(request.AvailableAt),
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
