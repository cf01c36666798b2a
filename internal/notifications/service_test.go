package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"treeline/internal/notifications"
	"treeline/internal/testsupport"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, *[]captured) {
	t.Helper()
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestNotifyRunCompletedSendsNtfyRequest(t *testing.T) {
	server, requests := newCaptureServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL+"/treeline"))
	svc := notifications.NewService(cfg)

	err := svc.NotifyRunCompleted(context.Background(), "abalone", "job-1", "/tmp/chart.png")
	if err != nil {
		t.Fatalf("NotifyRunCompleted failed: %v", err)
	}

	if len(*requests) != 1 {
		t.Fatalf("expected one request, got %d", len(*requests))
	}
	got := (*requests)[0]
	if got.title != "Treeline - Run Complete" {
		t.Fatalf("unexpected title %q", got.title)
	}
	if got.priority != "high" {
		t.Fatalf("unexpected priority %q", got.priority)
	}
	if !strings.Contains(got.body, "abalone") || !strings.Contains(got.body, "job-1") {
		t.Fatalf("unexpected body %q", got.body)
	}
	if !strings.Contains(got.body, "/tmp/chart.png") {
		t.Fatalf("expected chart path in body %q", got.body)
	}
}

func TestDisabledEventsAreSkipped(t *testing.T) {
	server, requests := newCaptureServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL+"/treeline"))
	cfg.Notifications.RunStarted = false
	svc := notifications.NewService(cfg)

	if err := svc.NotifyRunStarted(context.Background(), "abalone"); err != nil {
		t.Fatalf("NotifyRunStarted failed: %v", err)
	}
	if len(*requests) != 0 {
		t.Fatalf("expected no requests for disabled event, got %d", len(*requests))
	}
}

func TestNotifyErrorIncludesContext(t *testing.T) {
	server, requests := newCaptureServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL+"/treeline"))
	svc := notifications.NewService(cfg)

	err := svc.NotifyError(context.Background(), errors.New("upload timed out"), "run 3")
	if err != nil {
		t.Fatalf("NotifyError failed: %v", err)
	}
	got := (*requests)[0]
	if !strings.Contains(got.body, "run 3") || !strings.Contains(got.body, "upload timed out") {
		t.Fatalf("unexpected error body %q", got.body)
	}
}

func TestNtfyFailureSurfacesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic(server.URL+"/treeline"))
	svc := notifications.NewService(cfg)

	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestEmptyTopicIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := notifications.NewService(cfg)

	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("expected noop service, got %v", err)
	}
}
