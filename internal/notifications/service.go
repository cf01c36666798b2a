package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"treeline/internal/config"
)

const userAgent = "treeline/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyRunStarted(ctx context.Context, datasetName string) error
	NotifyJobSubmitted(ctx context.Context, jobName string) error
	NotifyRunCompleted(ctx context.Context, datasetName, jobName, chartFile string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled:  cfg.Notifications,
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
	enabled  config.Notifications
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, datasetName string) error {
	if !n.enabled.RunStarted {
		return nil
	}
	datasetName = strings.TrimSpace(datasetName)
	data := payload{
		title:   "Treeline - Run Started",
		message: fmt.Sprintf("Started training run for dataset: %s", datasetName),
		tags:    []string{"treeline", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobSubmitted(ctx context.Context, jobName string) error {
	if !n.enabled.JobSubmitted {
		return nil
	}
	jobName = strings.TrimSpace(jobName)
	data := payload{
		title:   "Treeline - Job Submitted",
		message: fmt.Sprintf("Training job submitted: %s", jobName),
		tags:    []string{"treeline", "job", "submitted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, datasetName, jobName, chartFile string) error {
	if !n.enabled.RunCompleted {
		return nil
	}
	datasetName = strings.TrimSpace(datasetName)
	jobName = strings.TrimSpace(jobName)
	message := fmt.Sprintf("Training complete: %s (%s)", datasetName, jobName)
	if chartFile = strings.TrimSpace(chartFile); chartFile != "" {
		message = fmt.Sprintf("%s\nChart: %s", message, chartFile)
	}
	data := payload{
		title:    "Treeline - Run Complete",
		message:  message,
		tags:     []string{"treeline", "run", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.enabled.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" in ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Treeline - Error",
		message:  builder.String(),
		tags:     []string{"treeline", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Treeline - Test",
		message:  "Notification system test",
		tags:     []string{"treeline", "test"},
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

func (noopService) NotifyRunStarted(context.Context, string) error                { return nil }
func (noopService) NotifyJobSubmitted(context.Context, string) error              { return nil }
func (noopService) NotifyRunCompleted(context.Context, string, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error              { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
