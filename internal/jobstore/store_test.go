package jobstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelpress/internal/job"
	"reelpress/internal/jobstore"
	"reelpress/internal/services"
	"reelpress/internal/testsupport"
)

func sampleRecord(t *testing.T, jobID string, created time.Time) *job.Record {
	t.Helper()
	rec, err := job.NewRecord(job.WorkItem{
		RequestID:      "req",
		SkillID:        "skill",
		FileID:         "file-" + jobID,
		FileName:       jobID + ".mp4",
		FileSize:       1234,
		FileReadToken:  "read",
		FileWriteToken: "write",
		UserID:         "user",
		FolderID:       "folder",
	}, jobID, "s3://recordings/"+jobID+".mp4", created)
	if err != nil {
		t.Fatalf("NewRecord failed: %v", err)
	}
	return rec
}

func TestPutGetDelete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := jobstore.New(testsupport.MustOpenDatabase(t, cfg))
	ctx := context.Background()

	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	rec := sampleRecord(t, "demo_abc123", created)
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "demo_abc123")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.FileSize != 1234 || got.UserID != "user" || got.JobURI != rec.JobURI || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected record %+v", got)
	}

	if err := store.Delete(ctx, "demo_abc123"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "demo_abc123"); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
	if _, err := store.Get(ctx, "demo_abc123"); !errors.Is(err, jobstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(ctx, "demo_abc123"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected services.ErrNotFound marker, got %v", err)
	}
}

func TestPutRejectsInvalidRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := jobstore.New(testsupport.MustOpenDatabase(t, cfg))
	rec := sampleRecord(t, "x_000000", time.Now())
	rec.JobURI = ""
	if err := store.Put(context.Background(), rec); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIdempotencyKeyLookup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := jobstore.New(testsupport.MustOpenDatabase(t, cfg))
	ctx := context.Background()

	rec := sampleRecord(t, "keyed_aaaaaa", time.Now())
	rec.IdempotencyKey = "deadbeef"
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	found, err := store.FindByIdempotencyKey(ctx, "deadbeef")
	if err != nil {
		t.Fatalf("FindByIdempotencyKey failed: %v", err)
	}
	if found.JobID != "keyed_aaaaaa" {
		t.Fatalf("unexpected record %+v", found)
	}
	if _, err := store.FindByIdempotencyKey(ctx, ""); !errors.Is(err, jobstore.ErrNotFound) {
		t.Fatalf("empty key should not match, got %v", err)
	}

	dup := sampleRecord(t, "keyed_bbbbbb", time.Now())
	dup.IdempotencyKey = "deadbeef"
	if err := store.Put(ctx, dup); err == nil {
		t.Fatal("expected uniqueness violation for shared idempotency key")
	}
}

func TestListNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := jobstore.New(testsupport.MustOpenDatabase(t, cfg))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old_111111", "new_222222"} {
		if err := store.Put(ctx, sampleRecord(t, id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 || records[0].JobID != "new_222222" {
		t.Fatalf("unexpected order %+v", records)
	}
}
