package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelpress/internal/config"
	"reelpress/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventDeadLetter, notifications.Payload{"fileName": "demo.mp4"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "dead letter",
			event: notifications.EventDeadLetter,
			payload: notifications.Payload{
				"fileName": "talk.mp4",
				"fileId":   "file-789",
				"error":    "engine unavailable",
			},
			expectTitle:    "reelpress - Dead Letter",
			expectMessage:  "☠️ Dead-lettered: talk.mp4 (file-789)\nLast error: engine unavailable",
			expectTags:     "reelpress,queue,dead_letter",
			expectPriority: "high",
		},
		{
			name:  "enrichment failed",
			event: notifications.EventEnrichmentFailed,
			payload: notifications.Payload{
				"jobId": "talk_abc123",
				"error": "docgen timed out",
			},
			expectTitle:    "reelpress - Enrichment Failed",
			expectMessage:  "❌ Enrichment failed for talk_abc123: docgen timed out",
			expectTags:     "reelpress,enrichment,error",
			expectPriority: "high",
		},
		{
			name:  "transcription failed",
			event: notifications.EventTranscriptionFailed,
			payload: notifications.Payload{
				"jobId": "talk_abc123",
				"error": "whisperx exited 1",
			},
			expectTitle:    "reelpress - Transcription Failed",
			expectMessage:  "❌ Transcription failed for talk_abc123: whisperx exited 1",
			expectTags:     "reelpress,transcription,error",
			expectPriority: "high",
		},
		{
			name:          "enrichment completed",
			event:         notifications.EventEnrichmentCompleted,
			payload:       notifications.Payload{"jobId": "talk_abc123"},
			expectTitle:   "reelpress - Published",
			expectMessage: "✅ Assets published: talk_abc123",
			expectTags:    "reelpress,enrichment,completed",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "reelpress - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "reelpress,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceIgnoresSuppressedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for suppressed event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.DeadLetter = false
	cfg.Notifications.EnrichmentFailures = false

	svc := notifications.NewService(&cfg)
	suppressed := []notifications.Event{
		notifications.EventDeadLetter,
		notifications.EventEnrichmentFailed,
		notifications.Event("unknown"),
	}

	for _, event := range suppressed {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"value": "ignored"}); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic closed", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
