package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"shelfwatch/internal/config"
	"shelfwatch/internal/issues"
	"shelfwatch/internal/logging"
	"shelfwatch/internal/notifications"
	"shelfwatch/internal/services/jellyfin"
	"shelfwatch/internal/services/jellyseerr"
	"shelfwatch/internal/store"
)

// LibrarySource lists library items. Satisfied by *jellyfin.Client.
type LibrarySource interface {
	Items(ctx context.Context) ([]jellyfin.Item, error)
}

// RequestSource lists media requests. Satisfied by *jellyseerr.Client.
type RequestSource interface {
	Requests(ctx context.Context) ([]jellyseerr.Request, error)
}

// Summary reports one sync run.
type Summary struct {
	Items    int
	Requests int
	Issues   int
}

// Runner performs sync runs. Runs are serialized: a triggered sync that
// overlaps the periodic one waits rather than racing it.
type Runner struct {
	store    *store.Store
	library  LibrarySource
	requests RequestSource // nil when Jellyseerr is not configured
	notifier notifications.Service
	logger   *slog.Logger

	mu sync.Mutex
}

// NewRunner wires a sync runner.
func NewRunner(st *store.Store, library LibrarySource, requests RequestSource, notifier notifications.Service, logger *slog.Logger) *Runner {
	if notifier == nil {
		notifier = notifications.NewService(config.Notifications{})
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		store:    st,
		library:  library,
		requests: requests,
		notifier: notifier,
		logger:   logging.WithComponent(logger, "sync"),
	}
}

// Run executes one full sync pass and records its outcome in the store.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := time.Now()
	summary, err := r.run(ctx)
	if setErr := r.store.SetSyncState(ctx, time.Now().UTC(), err); setErr != nil {
		r.logger.Warn("record sync state", logging.Error(setErr))
	}
	if err != nil {
		r.logger.Error("sync failed", logging.Error(err))
		if notifyErr := r.notifier.NotifyError(ctx, err, "library sync"); notifyErr != nil {
			r.logger.Warn("error notification", logging.Error(notifyErr))
		}
		return summary, err
	}

	r.logger.Info("sync complete",
		logging.Int("items", summary.Items),
		logging.Int("requests", summary.Requests),
		logging.Int("issues", summary.Issues),
		logging.Duration("elapsed", time.Since(started)),
	)
	if notifyErr := r.notifier.NotifySyncCompleted(ctx, summary.Items, summary.Requests, summary.Issues, time.Since(started)); notifyErr != nil {
		r.logger.Warn("sync notification", logging.Error(notifyErr))
	}
	return summary, nil
}

func (r *Runner) run(ctx context.Context) (Summary, error) {
	var summary Summary

	libraryItems, err := r.library.Items(ctx)
	if err != nil {
		return summary, fmt.Errorf("fetch library: %w", err)
	}
	keep := make([]string, 0, len(libraryItems))
	for _, raw := range libraryItems {
		item := convertItem(raw)
		if item.ID == "" {
			continue
		}
		if err := r.store.UpsertItem(ctx, item); err != nil {
			return summary, fmt.Errorf("store item %s: %w", item.ID, err)
		}
		keep = append(keep, item.ID)
	}
	if _, err := r.store.PruneItems(ctx, keep); err != nil {
		return summary, fmt.Errorf("prune items: %w", err)
	}
	summary.Items = len(keep)

	if r.requests != nil {
		mediaRequests, err := r.requests.Requests(ctx)
		if err != nil {
			return summary, fmt.Errorf("fetch requests: %w", err)
		}
		for _, raw := range mediaRequests {
			request := convertRequest(raw)
			if err := r.store.UpsertRequest(ctx, request); err != nil {
				return summary, fmt.Errorf("store request %d: %w", request.ID, err)
			}
		}
		summary.Requests = len(mediaRequests)
	}

	issueCount, newTitles, err := r.evaluate(ctx)
	if err != nil {
		return summary, err
	}
	summary.Issues = issueCount

	if len(newTitles) > 0 {
		if notifyErr := r.notifier.NotifyNewIssues(ctx, newTitles); notifyErr != nil {
			r.logger.Warn("issue notification", logging.Error(notifyErr))
		}
	}
	return summary, nil
}

func (r *Runner) evaluate(ctx context.Context) (int, []string, error) {
	thresholds, err := r.store.GetThresholds(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("load thresholds: %w", err)
	}
	whitelisted, err := r.store.WhitelistedIDs(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("load whitelist: %w", err)
	}
	items, err := r.store.ListItems(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("load items: %w", err)
	}
	requests, err := r.store.ListRequests(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("load requests: %w", err)
	}
	previous, err := r.store.ListIssues(ctx, "", "")
	if err != nil {
		return 0, nil, fmt.Errorf("load previous issues: %w", err)
	}

	current := issues.Evaluate(issues.Input{
		Items:       items,
		Requests:    requests,
		Whitelisted: whitelisted,
		Thresholds:  *thresholds,
	})
	if err := r.store.ReplaceIssues(ctx, current); err != nil {
		return 0, nil, fmt.Errorf("replace issues: %w", err)
	}

	known := make(map[string]struct{}, len(previous))
	for _, issue := range previous {
		known[issue.Key] = struct{}{}
	}
	var newTitles []string
	for _, issue := range current {
		if _, ok := known[issue.Key]; ok {
			continue
		}
		newTitles = append(newTitles, fmt.Sprintf("%s: %s", issue.Type, issue.Title))
	}
	return len(current), newTitles, nil
}

func convertItem(raw jellyfin.Item) *store.Item {
	mediaType := store.MediaTypeMovie
	if strings.EqualFold(raw.Type, "Series") {
		mediaType = store.MediaTypeSeries
	}
	return &store.Item{
		ID:             raw.ID,
		Title:          raw.Name,
		MediaType:      mediaType,
		SizeBytes:      raw.SizeBytes,
		AddedAt:        raw.AddedAt,
		LastPlayedAt:   raw.LastPlayedAt,
		PlayCount:      raw.PlayCount,
		AudioLanguages: raw.AudioLanguages,
		AudioCount:     raw.AudioCount,
	}
}

func convertRequest(raw jellyseerr.Request) *store.MediaRequest {
	mediaType := store.MediaTypeMovie
	if strings.EqualFold(raw.MediaType, "tv") {
		mediaType = store.MediaTypeSeries
	}
	return &store.MediaRequest{
		ID:          raw.ID,
		Title:       raw.Title,
		MediaType:   mediaType,
		Status:      store.RequestStatus(raw.Status),
		RequestedBy: raw.RequestedBy,
		RequestedAt: raw.RequestedAt,
		AvailableAt: raw.AvailableAt,
	}
}
