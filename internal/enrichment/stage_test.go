package enrichment_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"reelpress/internal/config"
	"reelpress/internal/docgen"
	"reelpress/internal/enrichment"
	"reelpress/internal/generation"
	"reelpress/internal/job"
	"reelpress/internal/jobstore"
	"reelpress/internal/notifications"
	"reelpress/internal/objectstore"
	"reelpress/internal/services"
	"reelpress/internal/services/box"
	"reelpress/internal/testsupport"
	"reelpress/internal/thumbnail"
	"reelpress/internal/transcript"
	"reelpress/internal/transcription"
)

type upload struct {
	folderID string
	name     string
	content  string
}

type fakeContent struct {
	mu           sync.Mutex
	userID       string
	sharedLinks  []string
	uploads      []upload
	folders      []string
	docgenStatus string
	docgenData   any
}

func (f *fakeContent) CreateSharedLink(_ context.Context, fileID, access string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sharedLinks = append(f.sharedLinks, fileID+":"+access)
	return "https://share/" + fileID, nil
}

func (f *fakeContent) UploadFile(_ context.Context, folderID, name string, content []byte) (box.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, upload{folderID: folderID, name: name, content: string(content)})
	return box.File{ID: "uploaded-" + name, Name: name}, nil
}

func (f *fakeContent) EnsureFolder(_ context.Context, parentID, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.folders = append(f.folders, parentID+"/"+name)
	return "thumbs-folder", nil
}

func (f *fakeContent) AskAI(context.Context, box.AskRequest) (string, error) {
	return "generated", nil
}

func (f *fakeContent) ExtractStructured(context.Context, string, string, string) (map[string]any, error) {
	return map[string]any{"topic": "Go"}, nil
}

func (f *fakeContent) CreateDocGenBatch(_ context.Context, req box.DocGenRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docgenData = req.Data
	return "batch-1", nil
}

func (f *fakeContent) GetDocGenBatchJobs(context.Context, string) ([]box.DocGenJob, error) {
	return []box.DocGenJob{{ID: "job-1", Status: f.docgenStatus}}, nil
}

type countingRecords struct {
	inner    *jobstore.Store
	gets     int
	missing  int
	deleted  int
	deleteMu sync.Mutex
}

func (c *countingRecords) Get(ctx context.Context, jobID string) (*job.Record, error) {
	c.gets++
	if c.missing > 0 {
		c.missing--
		return nil, jobstore.ErrNotFound
	}
	return c.inner.Get(ctx, jobID)
}

func (c *countingRecords) Delete(ctx context.Context, jobID string) error {
	c.deleteMu.Lock()
	c.deleted++
	c.deleteMu.Unlock()
	return c.inner.Delete(ctx, jobID)
}

type recordingNotifier struct {
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.events = append(r.events, event)
	return nil
}

type fakeSampler struct{ calls int }

func (f *fakeSampler) Sample(context.Context, string) ([]byte, error) {
	f.calls++
	if f.calls == 2 {
		return nil, nil
	}
	return []byte("frame"), nil
}

type fakeExtractor struct{ calls int }

func (f *fakeExtractor) Extract(_ context.Context, _ []byte, target thumbnail.Size, preserve bool) ([]byte, error) {
	f.calls++
	if !preserve || target != thumbnail.DefaultSize {
		return nil, errors.New("unexpected extractor settings")
	}
	if f.calls == 3 {
		return nil, errors.New("segmentation unavailable")
	}
	return []byte("png"), nil
}

const jobID = "demo_abc123"

type fixture struct {
	cfg      *config.Config
	stage    *enrichment.Stage
	content  *fakeContent
	records  *countingRecords
	objects  *objectstore.Local
	notifier *recordingNotifier
	sampler  *fakeSampler
	clock    time.Time
	sleeps   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Thumbnail.FrameCount = 4
	cfg.DocGen.TemplateID = "template-1"
	fx := &fixture{
		cfg:      cfg,
		content:  &fakeContent{docgenStatus: box.DocGenStatusCompleted},
		records:  &countingRecords{inner: jobstore.New(testsupport.MustOpenDatabase(t, cfg))},
		objects:  testsupport.NewLocalObjectStore(t, cfg),
		notifier: &recordingNotifier{},
		sampler:  &fakeSampler{},
		clock:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	stage, err := enrichment.New(enrichment.Deps{
		Config:    cfg,
		Objects:   fx.objects,
		Records:   fx.records,
		Notifier:  fx.notifier,
		Sampler:   fx.sampler,
		Extractor: &fakeExtractor{},
		NewClient: func(userID string) enrichment.ContentClient {
			fx.content.userID = userID
			return fx.content
		},
		Sleep: func(_ context.Context, d time.Duration) error {
			fx.sleeps++
			fx.clock = fx.clock.Add(d)
			return nil
		},
		Now: func() time.Time { return fx.clock },
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	fx.stage = stage
	return fx
}

func (fx *fixture) seed(t *testing.T) *job.Record {
	t.Helper()
	ctx := context.Background()
	item := job.WorkItem{
		RequestID: "req-123", SkillID: "skill-456", FileID: "file-789", FileName: "demo.mp4",
		FileSize: 4096, FileReadToken: "read-token", FileWriteToken: "write-token",
		UserID: "user-42", FolderID: "folder-1",
	}
	rec, err := job.NewRecord(item, jobID, "s3://recordings/demo.mp4", time.Now())
	if err != nil {
		t.Fatalf("NewRecord failed: %v", err)
	}
	if err := fx.records.inner.Put(ctx, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	start, end := 0.2, 0.6
	segs := []transcript.Segment{{Text: "Hello world.", Start: 0.2, End: 1.5, Words: []transcript.Word{
		{Text: "Hello", Start: start, End: end},
		{Text: "world.", Start: 1.1, End: 1.5},
	}}}
	data, err := transcript.FromSegments(jobID, segs).Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	transcripts := fx.cfg.Storage.TranscriptsBucket
	mustPut(t, fx.objects, transcripts, transcription.TranscriptKey(jobID), data)
	mustPut(t, fx.objects, transcripts, transcription.CaptionKey(jobID), []byte(transcript.SRT(segs)))
	mustPut(t, fx.objects, fx.cfg.Storage.RecordingsBucket, "demo.mp4", []byte("video"))
	return rec
}

func mustPut(t *testing.T, store objectstore.Store, bucket, key string, data []byte) {
	t.Helper()
	if err := objectstore.PutBytes(context.Background(), store, bucket, key, data, ""); err != nil {
		t.Fatalf("PutBytes %s/%s failed: %v", bucket, key, err)
	}
}

func (fx *fixture) notification() enrichment.Notification {
	return enrichment.Notification{Bucket: fx.cfg.Storage.TranscriptsBucket, Key: transcription.CaptionKey(jobID)}
}

func TestHandleIgnoresTranscriptArtifact(t *testing.T) {
	fx := newFixture(t)
	status, err := fx.stage.Handle(context.Background(), enrichment.Notification{
		Bucket: fx.cfg.Storage.TranscriptsBucket,
		Key:    "transcriptions/job123.json",
	})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if status != enrichment.StatusIgnored {
		t.Fatalf("expected ignored, got %s", status)
	}
	if fx.records.gets != 0 {
		t.Fatalf("expected no record access, got %d lookups", fx.records.gets)
	}
}

func TestHandleMissingRecordAfterGrace(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.Enrichment.RecordGraceSeconds = 6
	status, err := fx.stage.Handle(context.Background(), fx.notification())
	if err != nil {
		t.Fatalf("expected nil error for missing record, got %v", err)
	}
	if status != enrichment.StatusNotFound {
		t.Fatalf("expected not_found, got %s", status)
	}
	if fx.sleeps != 3 || fx.records.gets != 4 {
		t.Fatalf("expected 3 sleeps and 4 lookups, got %d and %d", fx.sleeps, fx.records.gets)
	}
}

func TestHandleWaitsForLateRecord(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.Enrichment.RecordGraceSeconds = 30
	fx.seed(t)
	fx.records.missing = 2

	status, err := fx.stage.Handle(context.Background(), fx.notification())
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if status != enrichment.StatusCompleted {
		t.Fatalf("expected completed, got %s", status)
	}
	if fx.sleeps != 2 {
		t.Fatalf("expected 2 grace sleeps, got %d", fx.sleeps)
	}
}

func TestHandlePublishesAndCleansUp(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t)
	ctx := context.Background()

	status, err := fx.stage.Handle(ctx, fx.notification())
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if status != enrichment.StatusCompleted {
		t.Fatalf("expected completed, got %s", status)
	}
	if fx.content.userID != "user-42" {
		t.Fatalf("client should act as the uploader, got %q", fx.content.userID)
	}
	wantLinks := []string{"file-789:company", "uploaded-" + jobID + ".srt:company"}
	if strings.Join(fx.content.sharedLinks, ",") != strings.Join(wantLinks, ",") {
		t.Fatalf("unexpected shared links %v", fx.content.sharedLinks)
	}

	srt := fx.content.uploads[0]
	if srt.folderID != "folder-1" || srt.name != jobID+".srt" || !strings.Contains(srt.content, "Hello world.") {
		t.Fatalf("unexpected caption upload %+v", srt)
	}
	var thumbs []string
	for _, u := range fx.content.uploads[1:] {
		if u.folderID != "thumbs-folder" {
			t.Fatalf("thumbnail uploaded to %q", u.folderID)
		}
		thumbs = append(thumbs, u.name)
	}
	wantThumbs := []string{jobID + "_thumbnail_0.png", jobID + "_thumbnail_2.png"}
	if strings.Join(thumbs, ",") != strings.Join(wantThumbs, ",") {
		t.Fatalf("unexpected thumbnails %v", thumbs)
	}
	if len(fx.content.folders) != 1 || fx.content.folders[0] != "folder-1/thumbnails" {
		t.Fatalf("unexpected folders %v", fx.content.folders)
	}

	payload, ok := fx.content.docgenData.(docgen.Payload)
	if !ok {
		t.Fatalf("unexpected docgen data %T", fx.content.docgenData)
	}
	if payload.Topic != "Go" || payload.Author != generation.Unknown || payload.Blog != "generated" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.YouTube.SharedLink != "https://share/file-789" || payload.YouTube.SRT != "https://share/uploaded-"+jobID+".srt" {
		t.Fatalf("unexpected links %+v", payload.YouTube)
	}

	if _, err := fx.records.inner.Get(ctx, jobID); !errors.Is(err, jobstore.ErrNotFound) {
		t.Fatalf("expected record deleted, got %v", err)
	}
	for _, target := range []struct{ bucket, key string }{
		{fx.cfg.Storage.TranscriptsBucket, transcription.TranscriptKey(jobID)},
		{fx.cfg.Storage.TranscriptsBucket, transcription.CaptionKey(jobID)},
		{fx.cfg.Storage.RecordingsBucket, "demo.mp4"},
	} {
		if _, err := objectstore.ReadAll(ctx, fx.objects, target.bucket, target.key); !objectstore.IsNotFound(err) {
			t.Fatalf("expected %s/%s deleted, got %v", target.bucket, target.key, err)
		}
	}
	if len(fx.notifier.events) != 1 || fx.notifier.events[0] != notifications.EventEnrichmentCompleted {
		t.Fatalf("unexpected notifications %v", fx.notifier.events)
	}
}

func TestHandleDocgenFailureKeepsRecord(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t)
	fx.content.docgenStatus = box.DocGenStatusFailed
	ctx := context.Background()

	status, err := fx.stage.Handle(ctx, fx.notification())
	if status != enrichment.StatusFailed {
		t.Fatalf("expected failed, got %s", status)
	}
	if !errors.Is(err, enrichment.ErrFatal) || !errors.Is(err, docgen.ErrJobFailed) {
		t.Fatalf("expected fatal docgen failure, got %v", err)
	}
	if _, err := fx.records.inner.Get(ctx, jobID); err != nil {
		t.Fatalf("record should be kept: %v", err)
	}
	if fx.records.deleted != 0 {
		t.Fatalf("cleanup should not run, got %d deletes", fx.records.deleted)
	}
	if len(fx.notifier.events) != 1 || fx.notifier.events[0] != notifications.EventEnrichmentFailed {
		t.Fatalf("unexpected notifications %v", fx.notifier.events)
	}
}

func TestHandleMissingTranscriptIsTransient(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t)
	ctx := context.Background()
	if err := fx.objects.Delete(ctx, fx.cfg.Storage.TranscriptsBucket, transcription.TranscriptKey(jobID)); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	status, err := fx.stage.Handle(ctx, fx.notification())
	if status != enrichment.StatusFailed {
		t.Fatalf("expected failed status, got %s", status)
	}
	if errors.Is(err, enrichment.ErrFatal) || !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected a transient, non-fatal failure, got %v", err)
	}
	if fx.records.deleted != 0 {
		t.Fatalf("record must be kept for redelivery, got %d deletes", fx.records.deleted)
	}
}

func TestCleanupTwiceSucceeds(t *testing.T) {
	fx := newFixture(t)
	rec := fx.seed(t)
	ctx := context.Background()

	first := fx.stage.Cleanup(ctx, rec)
	if !first.OK() || first.Err() != nil {
		t.Fatalf("first cleanup failed: %v", first.Err())
	}
	if len(first.Deleted) != 4 {
		t.Fatalf("expected 4 deleted targets, got %v", first.Deleted)
	}
	second := fx.stage.Cleanup(ctx, rec)
	if !second.OK() {
		t.Fatalf("second cleanup failed: %v", second.Err())
	}
}
