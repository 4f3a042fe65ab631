package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shelfwatch/internal/config"
)

const userAgent = "Shelfwatch/0.1.0"

// Service defines the notification surface exposed to the sync loop.
type Service interface {
	NotifySyncCompleted(ctx context.Context, items, requests, issues int, duration time.Duration) error
	NotifyNewIssues(ctx context.Context, titles []string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		cfg:      cfg,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	cfg      config.Notifications
}

func (n *ntfyService) NotifySyncCompleted(ctx context.Context, items, requests, issues int, duration time.Duration) error {
	if !n.cfg.SyncComplete {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration <= 0 {
		duration = time.Second
	}
	data := payload{
		title:   "Shelfwatch - Sync Complete",
		message: fmt.Sprintf("Synced %d items and %d requests in %s; %d open issues", items, requests, duration, issues),
		tags:    []string{"shelfwatch", "sync", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyNewIssues(ctx context.Context, titles []string) error {
	if !n.cfg.NewIssues || len(titles) == 0 {
		return nil
	}
	const sampleLimit = 5
	sample := titles
	suffix := ""
	if len(sample) > sampleLimit {
		suffix = fmt.Sprintf("\n…and %d more", len(sample)-sampleLimit)
		sample = sample[:sampleLimit]
	}
	data := payload{
		title:    "Shelfwatch - New Issues",
		message:  fmt.Sprintf("%d new content issues:\n%s%s", len(titles), strings.Join(sample, "\n"), suffix),
		tags:     []string{"shelfwatch", "issues"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.cfg.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Shelfwatch - Error",
		message:  builder.String(),
		tags:     []string{"shelfwatch", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Shelfwatch - Test",
		message:  "Notification system test",
		tags:     []string{"shelfwatch", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySyncCompleted(context.Context, int, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyNewIssues(context.Context, []string) error    { return nil }
func (noopService) NotifyError(context.Context, error, string) error   { return nil }
func (noopService) TestNotification(context.Context) error            { return nil }
