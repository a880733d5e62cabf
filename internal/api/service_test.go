package api_test

import (
	"context"
	"testing"
	"time"

	"reelpress/internal/api"
	"reelpress/internal/job"
	"reelpress/internal/jobstore"
	"reelpress/internal/queue"
	"reelpress/internal/testsupport"
)

type engineStub struct{}

func (engineStub) StatusText(context.Context, string) (string, error) { return "COMPLETED", nil }

func TestServiceJobsHideTokens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDatabase(t, cfg)
	jobs := jobstore.New(db)
	ctx := context.Background()

	rec, err := job.NewRecord(job.WorkItem{
		RequestID: "r", SkillID: "s", FileID: "f", FileName: "demo.mp4", FileSize: 9,
		FileReadToken: "secret-read", FileWriteToken: "secret-write", UserID: "u", FolderID: "d",
	}, "demo_abcdef", "s3://recordings/demo.mp4", time.Now())
	if err != nil {
		t.Fatalf("NewRecord failed: %v", err)
	}
	if err := jobs.Put(ctx, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	svc := api.NewService(queue.New(db, queue.Options{}), jobs, engineStub{})
	list, err := svc.Jobs(ctx)
	if err != nil {
		t.Fatalf("Jobs failed: %v", err)
	}
	if len(list) != 1 || list[0].JobID != "demo_abcdef" || list[0].FileSize != 9 {
		t.Fatalf("unexpected jobs %+v", list)
	}
	one, err := svc.Job(ctx, "demo_abcdef")
	if err != nil {
		t.Fatalf("Job failed: %v", err)
	}
	if one.EngineStatus != "COMPLETED" {
		t.Fatalf("expected engine status, got %+v", one)
	}
	if err := svc.DeleteJob(ctx, "demo_abcdef"); err != nil {
		t.Fatalf("DeleteJob failed: %v", err)
	}
	if _, err := svc.Job(ctx, "demo_abcdef"); err == nil {
		t.Fatal("expected not found after delete")
	}
}

func TestServiceDeadLetterFlow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenDatabase(t, cfg)
	q := queue.New(db, queue.Options{MaxReceives: 1})
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, job.WorkItem{
		RequestID: "r", SkillID: "s", FileID: "f", FileName: "demo.mp4",
		FileReadToken: "rt", FileWriteToken: "wt", UserID: "u", FolderID: "d",
	}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	deliveries, err := q.Dequeue(ctx, 1)
	if err != nil || len(deliveries) != 1 {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if err := q.Nack(ctx, deliveries[0].Receipt, "boom"); err != nil {
		t.Fatalf("Nack failed: %v", err)
	}

	svc := api.NewService(q, jobstore.New(db), nil)
	stats, err := svc.QueueStats(ctx)
	if err != nil || stats.DeadLetters != 1 {
		t.Fatalf("unexpected stats %+v (%v)", stats, err)
	}
	dead, err := svc.DeadLetters(ctx)
	if err != nil || len(dead) != 1 || dead[0].FileName != "demo.mp4" || dead[0].LastError != "boom" {
		t.Fatalf("unexpected dead letters %+v (%v)", dead, err)
	}
	redriven, err := svc.Redrive(ctx)
	if err != nil || redriven.Redriven != 1 {
		t.Fatalf("unexpected redrive %+v (%v)", redriven, err)
	}
	purged, err := svc.PurgeDeadLetters(ctx)
	if err != nil || purged.Purged != 0 {
		t.Fatalf("unexpected purge %+v (%v)", purged, err)
	}
}
