package docgen

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"reelpress/internal/config"
	"reelpress/internal/generation"
	"reelpress/internal/services/box"
	"reelpress/internal/services/httpretry"
)

type fakeClient struct {
	statuses []string
	polls    int
	request  box.DocGenRequest
}

func (f *fakeClient) CreateDocGenBatch(_ context.Context, req box.DocGenRequest) (string, error) {
	f.request = req
	return "batch-1", nil
}

func (f *fakeClient) GetDocGenBatchJobs(ctx context.Context, _ string) ([]box.DocGenJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	status := f.statuses[len(f.statuses)-1]
	if f.polls < len(f.statuses) {
		status = f.statuses[f.polls]
	}
	f.polls++
	job := box.DocGenJob{ID: "job-1", Status: status}
	if status == box.DocGenStatusCompleted {
		// OutputFile has an unexported type; decode it the way the API returns it.
		_ = json.Unmarshal([]byte(`{"id":"job-1","status":"completed","output_file":{"id":"doc-9","type":"file"}}`), &job)
	}
	return []box.DocGenJob{job}, nil
}

func newTestRunner(client Client, sleeps *[]time.Duration) *Runner {
	r := NewRunner(client, config.DocGen{TemplateID: "tmpl-1"}, nil)
	r.Backoff.Sleeper = func(d time.Duration) { *sleeps = append(*sleeps, d) }
	return r
}

func TestGenerateBacksOffUntilCompleted(t *testing.T) {
	client := &fakeClient{statuses: []string{
		box.DocGenStatusSubmitted,
		box.DocGenStatusInProgress, box.DocGenStatusInProgress, box.DocGenStatusInProgress,
		box.DocGenStatusInProgress, box.DocGenStatusInProgress,
		box.DocGenStatusCompleted,
	}}
	var sleeps []time.Duration
	r := newTestRunner(client, &sleeps)

	id, err := r.Generate(context.Background(), "folder-1", "demo_abc123", Payload{Topic: "Go"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if id != "doc-9" {
		t.Fatalf("expected doc-9, got %q", id)
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	if len(sleeps) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), sleeps)
	}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Fatalf("sleep %d: expected %s, got %s", i, want[i], sleeps[i])
		}
	}
	if client.request.TemplateID != "tmpl-1" || client.request.DestinationFolderID != "folder-1" ||
		client.request.FileName != "demo_abc123" || client.request.OutputType != "docx" {
		t.Fatalf("unexpected request %+v", client.request)
	}
}

func TestGenerateFailedJob(t *testing.T) {
	var sleeps []time.Duration
	r := newTestRunner(&fakeClient{statuses: []string{box.DocGenStatusFailed}}, &sleeps)
	_, err := r.Generate(context.Background(), "folder-1", "demo", Payload{})
	if !errors.Is(err, ErrJobFailed) || !errors.Is(err, ErrFatal) {
		t.Fatalf("expected ErrJobFailed wrapping ErrFatal, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatal("failed job must not report a timeout")
	}
}

func TestGenerateTimesOut(t *testing.T) {
	r := NewRunner(&fakeClient{statuses: []string{box.DocGenStatusInProgress}}, config.DocGen{TemplateID: "tmpl-1"}, nil)
	r.Timeout = 50 * time.Millisecond
	r.Backoff = httpretry.Policy{BaseDelay: 5 * time.Millisecond, MaxDelay: 10 * time.Millisecond}

	_, err := r.Generate(context.Background(), "folder-1", "demo", Payload{})
	if !errors.Is(err, ErrTimeout) || !errors.Is(err, ErrFatal) {
		t.Fatalf("expected ErrTimeout wrapping ErrFatal, got %v", err)
	}
}

func TestGenerateCallerCancellationIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(&fakeClient{statuses: []string{box.DocGenStatusInProgress}}, config.DocGen{TemplateID: "tmpl-1"}, nil)
	_, err := r.Generate(ctx, "folder-1", "demo", Payload{})
	if err == nil || errors.Is(err, ErrTimeout) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}

type rejectingClient struct{ fakeClient }

func (rejectingClient) CreateDocGenBatch(context.Context, box.DocGenRequest) (string, error) {
	return "", errors.New("template not found")
}

func TestGenerateSubmissionErrorIsFatal(t *testing.T) {
	var sleeps []time.Duration
	r := newTestRunner(&rejectingClient{}, &sleeps)
	_, err := r.Generate(context.Background(), "folder-1", "demo", Payload{})
	if !errors.Is(err, ErrFatal) || errors.Is(err, ErrTimeout) {
		t.Fatalf("expected a fatal non-timeout error, got %v", err)
	}
}

func TestGenerateRequiresTemplate(t *testing.T) {
	r := NewRunner(&fakeClient{}, config.DocGen{}, nil)
	if _, err := r.Generate(context.Background(), "f", "n", Payload{}); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestNewPayloadShape(t *testing.T) {
	content := generation.Content{
		Metadata:           generation.MetadataFrom(map[string]any{"topic": "Go", "title": "Talk"}),
		Blog:               "blog",
		Tweet:              "tweet",
		LinkedIn:           "linkedin",
		YouTubeDescription: "desc",
	}
	payload := NewPayload(content, Links{Video: "https://v", Captions: "https://s"})
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	yt, ok := decoded["youtube"].(map[string]any)
	if !ok {
		t.Fatalf("missing youtube object in %s", data)
	}
	if yt["shared_link"] != "https://v" || yt["srt"] != "https://s" || yt["title"] != "Talk" || yt["description"] != "desc" || yt["thumbnail"] != "" {
		t.Fatalf("unexpected youtube block %v", yt)
	}
	if decoded["x"] != "tweet" || decoded["author"] != "unknown" || decoded["topic"] != "Go" {
		t.Fatalf("unexpected payload %s", data)
	}
}
