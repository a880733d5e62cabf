package testsupport

import (
	"context"
	"testing"

	"reelpress/internal/config"
	"reelpress/internal/database"
	"reelpress/internal/objectstore"
)

// MustOpenDatabase opens the sqlite database for cfg and registers cleanup.
func MustOpenDatabase(t testing.TB, cfg *config.Config) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// NewLocalObjectStore creates a filesystem object store rooted at the
// config's local storage root, with both buckets present.
func NewLocalObjectStore(t testing.TB, cfg *config.Config) *objectstore.Local {
	t.Helper()
	store, err := objectstore.NewLocal(cfg.Storage.LocalRoot)
	if err != nil {
		t.Fatalf("open local object store: %v", err)
	}
	ctx := context.Background()
	for _, bucket := range []string{cfg.Storage.RecordingsBucket, cfg.Storage.TranscriptsBucket} {
		if err := store.EnsureBucket(ctx, bucket); err != nil {
			t.Fatalf("ensure bucket %s: %v", bucket, err)
		}
	}
	return store
}
