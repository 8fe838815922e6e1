package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storycast/internal/config"
)

const userAgent = "Storycast/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyReviewReady(ctx context.Context, jobID int64, topic string) error
	NotifyJobCompleted(ctx context.Context, jobID int64, kind, topic string) error
	NotifyJobFailed(ctx context.Context, jobID int64, topic, errorMessage string) error
	NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	endpoint := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if endpoint == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: timeout},
		reviews:     cfg.Notifications.Review,
		completions: cfg.Notifications.Completion,
		errors:      cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	reviews     bool
	completions bool
	errors      bool
}

func (n *ntfyService) NotifyReviewReady(ctx context.Context, jobID int64, topic string) error {
	if !n.reviews {
		return nil
	}
	data := payload{
		title:    "Storycast - Review Ready",
		message:  fmt.Sprintf("Job #%d draft ready for review: %s", jobID, strings.TrimSpace(topic)),
		tags:     []string{"storycast", "review", "ready"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, jobID int64, kind, topic string) error {
	if !n.completions {
		return nil
	}
	data := payload{
		title:   "Storycast - Complete",
		message: fmt.Sprintf("Job #%d (%s) finished: %s", jobID, strings.TrimSpace(kind), strings.TrimSpace(topic)),
		tags:    []string{"storycast", "job", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, jobID int64, topic, errorMessage string) error {
	if !n.errors {
		return nil
	}
	message := fmt.Sprintf("Job #%d failed: %s", jobID, strings.TrimSpace(topic))
	if detail := strings.TrimSpace(errorMessage); detail != "" {
		message = fmt.Sprintf("%s\n%s", message, detail)
	}
	data := payload{
		title:    "Storycast - Error",
		message:  message,
		tags:     []string{"storycast", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueCompleted(ctx context.Context, processed, failed int, duration time.Duration) error {
	if !n.completions {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var title, message string
	if failed == 0 {
		title = "Storycast - Queue Complete"
		message = fmt.Sprintf("Queue drained: %d jobs processed in %s", processed, duration)
	} else {
		title = "Storycast - Queue Complete (with errors)"
		message = fmt.Sprintf("Queue drained: %d succeeded, %d failed in %s", processed, failed, duration)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"storycast", "queue", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Storycast - Test",
		message:  "Notification system test",
		tags:     []string{"storycast", "test"},
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

func (noopService) NotifyReviewReady(context.Context, int64, string) error              { return nil }
func (noopService) NotifyJobCompleted(context.Context, int64, string, string) error     { return nil }
func (noopService) NotifyJobFailed(context.Context, int64, string, string) error        { return nil }
func (noopService) NotifyQueueCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
