package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelpress/internal/config"
)

const userAgent = "reelpress/0.1.0"

// Event names a notification type.
type Event string

const (
	EventDeadLetter          Event = "dead_letter"
	EventEnrichmentFailed    Event = "enrichment_failed"
	EventTranscriptionFailed Event = "transcription_failed"
	EventEnrichmentCompleted Event = "enrichment_completed"
	EventTest                Event = "test"
)

// Payload carries event fields keyed by name.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
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
		enabled: map[Event]bool{
			EventDeadLetter:          cfg.Notifications.DeadLetter,
			EventEnrichmentFailed:    cfg.Notifications.EnrichmentFailures,
			EventTranscriptionFailed: cfg.Notifications.TranscriptionFailures,
			EventEnrichmentCompleted: true,
			EventTest:                true,
		},
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
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, fields Payload) error {
	if !n.enabled[event] {
		return nil
	}
	data, ok := format(event, fields)
	if !ok {
		return nil
	}
	return n.send(ctx, data)
}

func format(event Event, fields Payload) (payload, bool) {
	switch event {
	case EventDeadLetter:
		message := fmt.Sprintf("☠️ Dead-lettered: %s (%s)", fields.text("fileName"), fields.text("fileId"))
		if reason := fields.text("error"); reason != "" {
			message += "\nLast error: " + reason
		}
		return payload{
			title:    "reelpress - Dead Letter",
			message:  message,
			tags:     []string{"reelpress", "queue", "dead_letter"},
			priority: "high",
		}, true
	case EventEnrichmentFailed:
		return payload{
			title:    "reelpress - Enrichment Failed",
			message:  fmt.Sprintf("❌ Enrichment failed for %s: %s", fields.text("jobId"), fields.text("error")),
			tags:     []string{"reelpress", "enrichment", "error"},
			priority: "high",
		}, true
	case EventTranscriptionFailed:
		return payload{
			title:    "reelpress - Transcription Failed",
			message:  fmt.Sprintf("❌ Transcription failed for %s: %s", fields.text("jobId"), fields.text("error")),
			tags:     []string{"reelpress", "transcription", "error"},
			priority: "high",
		}, true
	case EventEnrichmentCompleted:
		return payload{
			title:   "reelpress - Published",
			message: fmt.Sprintf("✅ Assets published: %s", fields.text("jobId")),
			tags:    []string{"reelpress", "enrichment", "completed"},
		}, true
	case EventTest:
		return payload{
			title:    "reelpress - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"reelpress", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func (p Payload) text(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
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

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
