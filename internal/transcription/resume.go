package transcription

import (
	"context"
	"errors"

	"reelpress/internal/job"
	"reelpress/internal/logging"
	"reelpress/internal/objectstore"
	"reelpress/internal/services"
)

// RecordLister lists every persisted job record.
type RecordLister interface {
	List(ctx context.Context) ([]*job.Record, error)
}

// Recovery summarises a Resume pass.
type Recovery struct {
	// Resubmitted holds jobs whose transcription was lost and restarted.
	Resubmitted []string
	// Captioned holds jobs whose caption track exists but whose record was
	// never cleaned up, so enrichment has not completed.
	Captioned []string
}

// Resume reconciles job records with the transcripts bucket after a restart.
// A record without a caption track that the engine does not know about is
// resubmitted under its original job name and media URI. Records with a
// caption track are reported for enrichment.
func (s *Stage) Resume(ctx context.Context, records RecordLister) (Recovery, error) {
	var out Recovery
	recs, err := records.List(ctx)
	if err != nil {
		return out, services.Wrap(services.ErrTransient, "transcription", "resume", "list job records", err)
	}
	bucket := s.deps.Config.Storage.TranscriptsBucket

	var errs []error
	for _, rec := range recs {
		logger := s.logger.With(logging.String(logging.FieldJobID, rec.JobID))
		captioned, err := objectstore.Exists(ctx, s.deps.Objects, bucket, CaptionKey(rec.JobID))
		if err != nil {
			errs = append(errs, err)
			logger.Warn("caption lookup failed during resume", logging.Error(err))
			continue
		}
		if captioned {
			out.Captioned = append(out.Captioned, rec.JobID)
			continue
		}
		if _, err := s.deps.Engine.Status(ctx, rec.JobID); err == nil {
			continue
		}
		jobCtx := services.WithJobID(services.WithFileID(ctx, rec.FileID), rec.JobID)
		if _, err := s.deps.Engine.Submit(jobCtx, s.request(rec.JobID, rec.JobURI)); err != nil {
			errs = append(errs, err)
			logging.ErrorWithContext(logger, "resubmitting transcription failed", "transcription_resume_failed", err,
				"inspect the record with `reelpress jobs show`")
			continue
		}
		out.Resubmitted = append(out.Resubmitted, rec.JobID)
		logger.Info("transcription resubmitted",
			logging.String("media_uri", rec.JobURI),
			logging.String(logging.FieldEventType, "transcription_resumed"),
		)
	}
	return out, errors.Join(errs...)
}
