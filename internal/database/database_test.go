package database_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"reelpress/internal/database"
)

func TestOpenAppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reelpress.db")
	ctx := context.Background()

	db, err := database.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	versions, err := db.SchemaVersions(ctx)
	if err != nil {
		t.Fatalf("SchemaVersions failed: %v", err)
	}
	if len(versions) == 0 || versions[0] != "001_initial" {
		t.Fatalf("unexpected versions %v", versions)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := database.Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	again, err := reopened.SchemaVersions(ctx)
	if err != nil {
		t.Fatalf("SchemaVersions failed: %v", err)
	}
	if len(again) != len(versions) {
		t.Fatalf("migrations reapplied: %v", again)
	}
	if reopened.Path() != path {
		t.Fatalf("unexpected path %q", reopened.Path())
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := database.Open(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, filepath.Join(t.TempDir(), "tx.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	sentinel := errors.New("stop")
	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO dead_letters (id, body, receive_count, created_at, dead_lettered_at) VALUES (1, '{}', 3, 'x', 'y')`); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(1) FROM dead_letters").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}

func TestRetryOnBusyStopsOnOtherErrors(t *testing.T) {
	calls := 0
	err := database.RetryOnBusy(context.Background(), func() error {
		calls++
		return errors.New("constraint failed")
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected single attempt, got calls=%d err=%v", calls, err)
	}

	calls = 0
	err = database.RetryOnBusy(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success after retries, got calls=%d err=%v", calls, err)
	}
}
