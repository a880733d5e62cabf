package enrichment

import (
	"context"
	"errors"
	"fmt"

	"reelpress/internal/job"
	"reelpress/internal/logging"
	"reelpress/internal/objectstore"
	"reelpress/internal/services"
	"reelpress/internal/transcription"
)

// CleanupFailure is one deletion that did not succeed.
type CleanupFailure struct {
	Target string
	Err    error
}

// CleanupReport lists what Cleanup removed and what it could not.
type CleanupReport struct {
	JobID    string
	Deleted  []string
	Failures []CleanupFailure
}

// OK reports whether every deletion succeeded.
func (r CleanupReport) OK() bool { return len(r.Failures) == 0 }

// Err joins the failures, or returns nil.
func (r CleanupReport) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Target, f.Err))
	}
	return errors.Join(errs...)
}

// Cleanup removes the job record, both transcript artifacts, and the source
// recording. Missing targets count as deleted, so running it twice is safe.
// Failures are collected, never returned early.
func (s *Stage) Cleanup(ctx context.Context, rec *job.Record) CleanupReport {
	cfg := s.deps.Config
	report := CleanupReport{JobID: rec.JobID}
	ctx = services.WithJobID(ctx, rec.JobID)
	logger := logging.WithContext(ctx, s.logger)

	record := func() error { return s.deps.Records.Delete(ctx, rec.JobID) }
	object := func(key string) func() error {
		return func() error {
			return objectstore.DeleteRouted(ctx, s.deps.Objects, cfg.Storage.RecordingsBucket, cfg.Storage.TranscriptsBucket, key)
		}
	}
	steps := []struct {
		target string
		run    func() error
	}{
		{"record:" + rec.JobID, record},
		{transcription.TranscriptKey(rec.JobID), object(transcription.TranscriptKey(rec.JobID))},
		{transcription.CaptionKey(rec.JobID), object(transcription.CaptionKey(rec.JobID))},
		{objectstore.VideosPrefix + rec.FileName, object(objectstore.VideosPrefix + rec.FileName)},
	}
	for _, step := range steps {
		err := step.run()
		if err != nil && !objectstore.IsNotFound(err) {
			report.Failures = append(report.Failures, CleanupFailure{Target: step.target, Err: err})
			logging.ErrorWithContext(logger, "cleanup step failed", "cleanup_failed", err, "", logging.String("target", step.target))
			continue
		}
		report.Deleted = append(report.Deleted, step.target)
	}
	return report
}
