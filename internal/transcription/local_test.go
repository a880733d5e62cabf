package transcription

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"reelpress/internal/objectstore"
	"reelpress/internal/services/whisperx"
	"reelpress/internal/testsupport"
	"reelpress/internal/transcript"
)

type stubTranscriber struct {
	failTranscribe bool
	sawSource      string
}

func (s *stubTranscriber) ExtractAudio(_ context.Context, source, dest string) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return err
	}
	s.sawSource = string(data)
	return os.WriteFile(dest, []byte("wav"), 0o644)
}

func (s *stubTranscriber) Transcribe(context.Context, string, string, string) (whisperx.Result, error) {
	if s.failTranscribe {
		return whisperx.Result{}, errors.New("whisperx exploded")
	}
	start, end := 0.5, 0.9
	return whisperx.Result{Segments: []whisperx.Segment{{
		Text:  "Hello world.",
		Start: 0.5,
		End:   1.8,
		Words: []whisperx.Word{
			{Word: "Hello", Start: &start, End: &end, Score: 0.9},
			{Word: "world.", Score: 0.8},
		},
	}}}, nil
}

func TestLocalEngineWritesTranscriptBeforeCaptions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	objects := testsupport.NewLocalObjectStore(t, cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := objectstore.PutBytes(ctx, objects, cfg.Storage.RecordingsBucket, "demo.mp4", []byte("video"), "video/mp4"); err != nil {
		t.Fatalf("PutBytes failed: %v", err)
	}
	events, err := objects.Watch(ctx, cfg.Storage.TranscriptsBucket, KeyPrefix)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	stub := &stubTranscriber{}
	engine, err := NewLocalEngine(LocalEngineOptions{Objects: objects, Transcriber: stub, WorkDir: t.TempDir(), Concurrency: 1})
	if err != nil {
		t.Fatalf("NewLocalEngine failed: %v", err)
	}
	defer engine.Close()

	handle, err := engine.Submit(ctx, Request{
		JobName:      "demo_abc123",
		MediaURI:     objectstore.S3URI(cfg.Storage.RecordingsBucket, "demo.mp4"),
		Language:     "en-US",
		OutputBucket: cfg.Storage.TranscriptsBucket,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if handle.Status != StatusQueued {
		t.Fatalf("expected queued status, got %s", handle.Status)
	}

	var keys []string
	for len(keys) < 2 {
		select {
		case ev := <-events:
			keys = append(keys, ev.Key)
		case <-ctx.Done():
			t.Fatalf("timed out waiting for artifacts, got %v", keys)
		}
	}
	if keys[0] != TranscriptKey("demo_abc123") || keys[1] != CaptionKey("demo_abc123") {
		t.Fatalf("unexpected artifact order %v", keys)
	}

	engine.Wait()
	status, err := engine.Status(ctx, "demo_abc123")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status != StatusCompleted {
		t.Fatalf("expected completed, got %s", status)
	}
	if stub.sawSource != "video" {
		t.Fatalf("engine did not download media, saw %q", stub.sawSource)
	}

	data, err := objectstore.ReadAll(ctx, objects, cfg.Storage.TranscriptsBucket, TranscriptKey("demo_abc123"))
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	doc, err := transcript.Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := transcript.WithSeconds(doc.Results.Items); got != "00:00 Hello world." {
		t.Fatalf("unexpected transcript %q", got)
	}
	srt, err := objectstore.ReadAll(ctx, objects, cfg.Storage.TranscriptsBucket, CaptionKey("demo_abc123"))
	if err != nil {
		t.Fatalf("ReadAll srt failed: %v", err)
	}
	if !strings.Contains(string(srt), "00:00:00,500 --> 00:00:01,800") {
		t.Fatalf("unexpected srt %q", srt)
	}
}

func TestLocalEngineMarksFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	objects := testsupport.NewLocalObjectStore(t, cfg)
	ctx := context.Background()
	if err := objectstore.PutBytes(ctx, objects, cfg.Storage.RecordingsBucket, "demo.mp4", []byte("video"), "video/mp4"); err != nil {
		t.Fatalf("PutBytes failed: %v", err)
	}
	engine, err := NewLocalEngine(LocalEngineOptions{Objects: objects, Transcriber: &stubTranscriber{failTranscribe: true}, WorkDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewLocalEngine failed: %v", err)
	}
	defer engine.Close()

	if _, err := engine.Submit(ctx, Request{
		JobName:      "demo_def456",
		MediaURI:     objectstore.S3URI(cfg.Storage.RecordingsBucket, "demo.mp4"),
		OutputBucket: cfg.Storage.TranscriptsBucket,
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	engine.Wait()
	text, err := engine.StatusText(ctx, "demo_def456")
	if err != nil {
		t.Fatalf("StatusText failed: %v", err)
	}
	if text != string(StatusFailed) {
		t.Fatalf("expected FAILED, got %s", text)
	}
	if _, err := objectstore.ReadAll(ctx, objects, cfg.Storage.TranscriptsBucket, CaptionKey("demo_def456")); !objectstore.IsNotFound(err) {
		t.Fatalf("expected no caption artifact, got %v", err)
	}
}

func TestLocalEngineRejectsBadRequests(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	engine, err := NewLocalEngine(LocalEngineOptions{Objects: testsupport.NewLocalObjectStore(t, cfg), Transcriber: &stubTranscriber{}})
	if err != nil {
		t.Fatalf("NewLocalEngine failed: %v", err)
	}
	defer engine.Close()
	ctx := context.Background()

	if _, err := engine.Submit(ctx, Request{JobName: "x", MediaURI: "http://nope", OutputBucket: "b"}); err == nil {
		t.Fatal("expected invalid uri error")
	}
	if _, err := engine.Status(ctx, "missing"); err == nil {
		t.Fatal("expected not found for unknown job")
	}
}

func TestConvertSegmentsMarksMissingTiming(t *testing.T) {
	start := 1.0
	segs := convertSegments([]whisperx.Segment{{Text: "a b", Words: []whisperx.Word{{Word: "a", Start: &start}, {Word: "b"}}}})
	if segs[0].Words[0].Start != 1.0 || segs[0].Words[1].Start != -1 {
		t.Fatalf("unexpected conversion %+v", segs[0].Words)
	}
}

func TestLocalEngineReportsFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	objects := testsupport.NewLocalObjectStore(t, cfg)
	ctx := context.Background()
	if err := objectstore.PutBytes(ctx, objects, cfg.Storage.RecordingsBucket, "demo.mp4", []byte("video"), "video/mp4"); err != nil {
		t.Fatalf("PutBytes failed: %v", err)
	}
	var failed []string
	engine, err := NewLocalEngine(LocalEngineOptions{
		Objects:     objects,
		Transcriber: &stubTranscriber{failTranscribe: true},
		WorkDir:     t.TempDir(),
		OnFailure: func(_ context.Context, jobName string, err error) {
			failed = append(failed, jobName+": "+err.Error())
		},
	})
	if err != nil {
		t.Fatalf("NewLocalEngine failed: %v", err)
	}
	defer engine.Close()

	if _, err := engine.Submit(ctx, Request{
		JobName:      "demo_fail01",
		MediaURI:     objectstore.S3URI(cfg.Storage.RecordingsBucket, "demo.mp4"),
		OutputBucket: cfg.Storage.TranscriptsBucket,
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	engine.Wait()
	if len(failed) != 1 || !strings.Contains(failed[0], "demo_fail01: ") || !strings.Contains(failed[0], "whisperx exploded") {
		t.Fatalf("unexpected failure reports %v", failed)
	}
}

func TestLocalEngineForgetsOldFinishedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	objects := testsupport.NewLocalObjectStore(t, cfg)
	ctx := context.Background()
	if err := objectstore.PutBytes(ctx, objects, cfg.Storage.RecordingsBucket, "demo.mp4", []byte("video"), "video/mp4"); err != nil {
		t.Fatalf("PutBytes failed: %v", err)
	}
	engine, err := NewLocalEngine(LocalEngineOptions{
		Objects:        objects,
		Transcriber:    &stubTranscriber{},
		WorkDir:        t.TempDir(),
		RetainFinished: 2,
	})
	if err != nil {
		t.Fatalf("NewLocalEngine failed: %v", err)
	}
	defer engine.Close()

	for _, name := range []string{"job_a", "job_b", "job_c"} {
		if _, err := engine.Submit(ctx, Request{
			JobName:      name,
			MediaURI:     objectstore.S3URI(cfg.Storage.RecordingsBucket, "demo.mp4"),
			OutputBucket: cfg.Storage.TranscriptsBucket,
		}); err != nil {
			t.Fatalf("Submit %s failed: %v", name, err)
		}
		engine.Wait()
	}

	if _, err := engine.Status(ctx, "job_a"); err == nil {
		t.Fatal("expected the oldest finished job to be forgotten")
	}
	for _, name := range []string{"job_b", "job_c"} {
		if status, err := engine.Status(ctx, name); err != nil || status != StatusCompleted {
			t.Fatalf("expected %s completed, got %s (%v)", name, status, err)
		}
	}
	engine.mu.Lock()
	size := len(engine.status)
	engine.mu.Unlock()
	if size != 2 {
		t.Fatalf("expected 2 retained statuses, got %d", size)
	}
}
