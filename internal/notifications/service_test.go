package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shelfwatch/internal/config"
	"shelfwatch/internal/notifications"
)

type captured struct {
	title    string
	priority string
	tags     string
	body     string
}

func newNtfyServer(t *testing.T) (*httptest.Server, *[]captured) {
	t.Helper()
	var got []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			priority: r.Header.Get("Priority"),
			tags:     r.Header.Get("Tags"),
			body:     string(body),
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestNoopWithoutTopic(t *testing.T) {
	svc := notifications.NewService(config.Notifications{SyncComplete: true, Errors: true})
	if err := svc.NotifySyncCompleted(context.Background(), 1, 2, 3, time.Second); err != nil {
		t.Fatalf("noop sync: %v", err)
	}
	if err := svc.NotifyError(context.Background(), errors.New("boom"), "sync"); err != nil {
		t.Fatalf("noop error: %v", err)
	}
}

func TestSyncCompletedNotification(t *testing.T) {
	srv, got := newNtfyServer(t)
	svc := notifications.NewService(config.Notifications{NtfyTopic: srv.URL, SyncComplete: true})

	if err := svc.NotifySyncCompleted(context.Background(), 120, 8, 5, 3*time.Second); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(*got) != 1 {
		t.Fatalf("requests: %d", len(*got))
	}
	sent := (*got)[0]
	if sent.title != "Shelfwatch - Sync Complete" {
		t.Fatalf("title: %q", sent.title)
	}
	if !strings.Contains(sent.body, "120 items") || !strings.Contains(sent.body, "5 open issues") {
		t.Fatalf("body: %q", sent.body)
	}
}

func TestDisabledEventsAreSkipped(t *testing.T) {
	srv, got := newNtfyServer(t)
	svc := notifications.NewService(config.Notifications{NtfyTopic: srv.URL})

	if err := svc.NotifySyncCompleted(context.Background(), 1, 1, 1, time.Second); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := svc.NotifyNewIssues(context.Background(), []string{"A"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(*got) != 0 {
		t.Fatalf("disabled events still sent: %d", len(*got))
	}
}

func TestNewIssuesTruncatesSample(t *testing.T) {
	srv, got := newNtfyServer(t)
	svc := notifications.NewService(config.Notifications{NtfyTopic: srv.URL, NewIssues: true})

	titles := []string{"A", "B", "C", "D", "E", "F", "G"}
	if err := svc.NotifyNewIssues(context.Background(), titles); err != nil {
		t.Fatalf("notify: %v", err)
	}
	sent := (*got)[0]
	if sent.priority != "high" {
		t.Fatalf("priority: %q", sent.priority)
	}
	if !strings.Contains(sent.body, "7 new content issues") || !strings.Contains(sent.body, "and 2 more") {
		t.Fatalf("body: %q", sent.body)
	}
	if strings.Contains(sent.body, "F") {
		t.Fatalf("sample not truncated: %q", sent.body)
	}
}

func TestErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := notifications.NewService(config.Notifications{NtfyTopic: srv.URL, Errors: true})
	err := svc.NotifyError(context.Background(), errors.New("boom"), "sync")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected ntfy status error, got %v", err)
	}
}
