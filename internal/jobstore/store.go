package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"reelpress/internal/database"
	"reelpress/internal/job"
	"reelpress/internal/services"
)

// ErrNotFound is returned when no record exists for a job id.
var ErrNotFound = fmt.Errorf("job record: %w", services.ErrNotFound)

// Store reads and writes job records.
type Store struct {
	db *database.DB
}

// New returns a Store on an opened database.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

const recordColumns = `job_id, job_uri, request_id, skill_id, file_id, file_name, file_size,
    file_read_token, file_write_token, user_id, folder_id, COALESCE(idempotency_key, ''), created_at`

// Put inserts or replaces the record for rec.JobID.
func (s *Store) Put(ctx context.Context, rec *job.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_records (
            job_id, job_uri, request_id, skill_id, file_id, file_name, file_size,
            file_read_token, file_write_token, user_id, folder_id, idempotency_key, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(job_id) DO UPDATE SET
            job_uri = excluded.job_uri,
            request_id = excluded.request_id,
            skill_id = excluded.skill_id,
            file_id = excluded.file_id,
            file_name = excluded.file_name,
            file_size = excluded.file_size,
            file_read_token = excluded.file_read_token,
            file_write_token = excluded.file_write_token,
            user_id = excluded.user_id,
            folder_id = excluded.folder_id,
            idempotency_key = excluded.idempotency_key`,
		rec.JobID, rec.JobURI, rec.RequestID, rec.SkillID, rec.FileID, rec.FileName, rec.FileSizeText(),
		rec.FileReadToken, rec.FileWriteToken, rec.UserID, rec.FolderID,
		database.NullableString(rec.IdempotencyKey), database.Timestamp(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put job record %s: %w", rec.JobID, err)
	}
	return nil
}

// Get returns the record for jobID or ErrNotFound.
func (s *Store) Get(ctx context.Context, jobID string) (*job.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM job_records WHERE job_id = ?`, strings.TrimSpace(jobID))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job record %s: %w", jobID, err)
	}
	return rec, nil
}

// FindByIdempotencyKey returns the record carrying key, or ErrNotFound.
func (s *Store) FindByIdempotencyKey(ctx context.Context, key string) (*job.Record, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM job_records WHERE idempotency_key = ?`, key)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job record by key: %w", err)
	}
	return rec, nil
}

// Delete removes the record for jobID. Deleting a missing record is not an
// error.
func (s *Store) Delete(ctx context.Context, jobID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM job_records WHERE job_id = ?`, strings.TrimSpace(jobID)); err != nil {
		return fmt.Errorf("delete job record %s: %w", jobID, err)
	}
	return nil
}

// List returns all records, newest first.
func (s *Store) List(ctx context.Context) ([]*job.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM job_records ORDER BY created_at DESC, job_id`)
	if err != nil {
		return nil, fmt.Errorf("list job records: %w", err)
	}
	defer rows.Close()
	var out []*job.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*job.Record, error) {
	var (
		rec       job.Record
		size      string
		createdAt string
	)
	if err := row.Scan(
		&rec.JobID, &rec.JobURI, &rec.RequestID, &rec.SkillID, &rec.FileID, &rec.FileName, &size,
		&rec.FileReadToken, &rec.FileWriteToken, &rec.UserID, &rec.FolderID, &rec.IdempotencyKey, &createdAt,
	); err != nil {
		return nil, err
	}
	if size != "" {
		parsed, err := strconv.ParseInt(size, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse file_size %q: %w", size, err)
		}
		rec.FileSize = parsed
	}
	rec.CreatedAt = database.ParseTimestamp(createdAt)
	return &rec, nil
}
