package api

import (
	"context"
	"errors"

	"reelpress/internal/job"
	"reelpress/internal/queue"
)

// QueueAdmin abstracts the queue operations exposed to operators.
type QueueAdmin interface {
	Stats(ctx context.Context) (queue.Stats, error)
	ListDeadLetters(ctx context.Context) ([]queue.DeadLetter, error)
	Redrive(ctx context.Context, ids ...int64) (int, error)
	PurgeDeadLetters(ctx context.Context) (int, error)
}

// JobAdmin abstracts job record access exposed to operators.
type JobAdmin interface {
	List(ctx context.Context) ([]*job.Record, error)
	Get(ctx context.Context, jobID string) (*job.Record, error)
	Delete(ctx context.Context, jobID string) error
}

// EngineStatusReader reports the transcription engine's view of a job.
type EngineStatusReader interface {
	StatusText(ctx context.Context, jobName string) (string, error)
}

// Service exposes queue and job operations returning API DTOs.
type Service struct {
	queue  QueueAdmin
	jobs   JobAdmin
	engine EngineStatusReader
}

// NewService constructs a Service. engine may be nil.
func NewService(q QueueAdmin, jobs JobAdmin, engine EngineStatusReader) *Service {
	return &Service{queue: q, jobs: jobs, engine: engine}
}

// QueueStats returns queue depth.
func (s *Service) QueueStats(ctx context.Context) (QueueStats, error) {
	stats, err := s.queue.Stats(ctx)
	if err != nil {
		return QueueStats{}, err
	}
	return FromQueueStats(stats), nil
}

// DeadLetters lists dead-lettered messages.
func (s *Service) DeadLetters(ctx context.Context) ([]DeadLetter, error) {
	items, err := s.queue.ListDeadLetters(ctx)
	if err != nil {
		return nil, err
	}
	return FromDeadLetters(items), nil
}

// Redrive requeues dead letters.
func (s *Service) Redrive(ctx context.Context, ids ...int64) (RedriveResponse, error) {
	n, err := s.queue.Redrive(ctx, ids...)
	if err != nil {
		return RedriveResponse{}, err
	}
	return RedriveResponse{Redriven: n}, nil
}

// PurgeDeadLetters removes every dead letter.
func (s *Service) PurgeDeadLetters(ctx context.Context) (PurgeResponse, error) {
	n, err := s.queue.PurgeDeadLetters(ctx)
	if err != nil {
		return PurgeResponse{}, err
	}
	return PurgeResponse{Purged: n}, nil
}

// Jobs lists pending job records.
func (s *Service) Jobs(ctx context.Context) ([]JobRecord, error) {
	records, err := s.jobs.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]JobRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec))
	}
	return out, nil
}

// Job returns one job record with the engine status when available.
func (s *Service) Job(ctx context.Context, jobID string) (JobRecord, error) {
	rec, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return JobRecord{}, err
	}
	out := FromRecord(rec)
	if s.engine != nil {
		if status, err := s.engine.StatusText(ctx, jobID); err == nil {
			out.EngineStatus = status
		}
	}
	return out, nil
}

// DeleteJob removes a job record.
func (s *Service) DeleteJob(ctx context.Context, jobID string) error {
	if jobID == "" {
		return errors.New("job id is required")
	}
	return s.jobs.Delete(ctx, jobID)
}
