package objectstore_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"reelpress/internal/objectstore"
	"reelpress/internal/services"
)

func newLocal(t *testing.T) *objectstore.Local {
	t.Helper()
	store, err := objectstore.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	return store
}

func TestLocalPutGetDelete(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	if err := objectstore.PutBytes(ctx, store, "transcripts", "transcriptions/demo.srt", []byte("1\n"), "text/plain"); err != nil {
		t.Fatalf("PutBytes failed: %v", err)
	}
	data, err := objectstore.ReadAll(ctx, store, "transcripts", "transcriptions/demo.srt")
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "1\n" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := store.Delete(ctx, "transcripts", "transcriptions/demo.srt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "transcripts", "transcriptions/demo.srt"); err != nil {
		t.Fatalf("Delete of missing object should succeed: %v", err)
	}
	_, err = store.Get(ctx, "transcripts", "transcriptions/demo.srt")
	if !objectstore.IsNotFound(err) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()
	if err := objectstore.PutBytes(ctx, store, "b", "../../escape", []byte("x"), ""); err != nil {
		t.Fatalf("PutBytes failed: %v", err)
	}
	data, err := objectstore.ReadAll(ctx, store, "b", "escape")
	if err != nil || string(data) != "x" {
		t.Fatalf("expected key to be confined to bucket: %v %q", err, data)
	}
	if err := objectstore.PutBytes(ctx, store, "../b", "k", []byte("x"), ""); err == nil {
		t.Fatal("expected invalid bucket error")
	}
}

func TestLocalWatchFiltersByBucketAndPrefix(t *testing.T) {
	store := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := store.Watch(ctx, "transcripts", "transcriptions/")
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	_ = objectstore.PutBytes(ctx, store, "recordings", "transcriptions/x.srt", []byte("a"), "")
	_ = objectstore.PutBytes(ctx, store, "transcripts", "other/x.srt", []byte("a"), "")
	_ = objectstore.PutBytes(ctx, store, "transcripts", "transcriptions/demo.json", []byte("{}"), "")
	_ = objectstore.PutBytes(ctx, store, "transcripts", "transcriptions/demo.srt", []byte("1"), "")

	var got []string
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-events:
			got = append(got, ev.Key)
		case <-timeout:
			t.Fatalf("timed out waiting for events, got %v", got)
		}
	}
	if got[0] != "transcriptions/demo.json" || got[1] != "transcriptions/demo.srt" {
		t.Fatalf("unexpected event order %v", got)
	}

	cancel()
	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected channel to close after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch channel did not close")
	}
}

func TestDeleteRoutedHonoursVideosPrefix(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()
	_ = objectstore.PutBytes(ctx, store, "recordings", "demo.mp4", []byte("v"), "")
	_ = objectstore.PutBytes(ctx, store, "transcripts", "transcriptions/demo.srt", []byte("s"), "")

	if err := objectstore.DeleteRouted(ctx, store, "recordings", "transcripts", "videos/demo.mp4"); err != nil {
		t.Fatalf("DeleteRouted failed: %v", err)
	}
	if err := objectstore.DeleteRouted(ctx, store, "recordings", "transcripts", "transcriptions/demo.srt"); err != nil {
		t.Fatalf("DeleteRouted failed: %v", err)
	}
	if _, err := store.Get(ctx, "recordings", "demo.mp4"); !objectstore.IsNotFound(err) {
		t.Fatalf("expected recording deleted, got %v", err)
	}
	if _, err := store.Get(ctx, "transcripts", "transcriptions/demo.srt"); !objectstore.IsNotFound(err) {
		t.Fatalf("expected transcript deleted, got %v", err)
	}
}

func TestParseS3URI(t *testing.T) {
	bucket, key, err := objectstore.ParseS3URI(objectstore.S3URI("recordings", "a b.mp4"))
	if err != nil || bucket != "recordings" || key != "a b.mp4" {
		t.Fatalf("unexpected parse: %q %q %v", bucket, key, err)
	}
	for _, bad := range []string{"http://x/y", "s3://bucket", "s3:///key"} {
		if _, _, err := objectstore.ParseS3URI(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestLocalWatchQueuesWhileReaderStalled(t *testing.T) {
	store := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := store.Watch(ctx, "transcripts", "transcriptions/")
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	const jobs = 50
	for i := 0; i < jobs; i++ {
		for _, ext := range []string{".json", ".srt"} {
			key := fmt.Sprintf("transcriptions/job-%02d%s", i, ext)
			if err := objectstore.PutBytes(ctx, store, "transcripts", key, []byte("x"), "text/plain"); err != nil {
				t.Fatalf("PutBytes failed: %v", err)
			}
		}
	}

	captions := 0
	for i := 0; i < jobs*2; i++ {
		select {
		case ev := <-events:
			if strings.HasSuffix(ev.Key, ".srt") {
				captions++
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("received %d of %d events before timing out", i, jobs*2)
		}
	}
	if captions != jobs {
		t.Fatalf("expected %d caption events, got %d", jobs, captions)
	}
}

func TestExists(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()
	if err := objectstore.PutBytes(ctx, store, "transcripts", "a.srt", []byte("1"), "text/plain"); err != nil {
		t.Fatalf("PutBytes failed: %v", err)
	}
	ok, err := objectstore.Exists(ctx, store, "transcripts", "a.srt")
	if err != nil || !ok {
		t.Fatalf("expected a.srt to exist: %v %v", ok, err)
	}
	ok, err = objectstore.Exists(ctx, store, "transcripts", "b.srt")
	if err != nil || ok {
		t.Fatalf("expected b.srt to be absent: %v %v", ok, err)
	}
}
