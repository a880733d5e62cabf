package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"reelpress/internal/config"
	"reelpress/internal/docgen"
	"reelpress/internal/generation"
	"reelpress/internal/job"
	"reelpress/internal/jobstore"
	"reelpress/internal/logging"
	"reelpress/internal/notifications"
	"reelpress/internal/objectstore"
	"reelpress/internal/observability"
	"reelpress/internal/services"
	"reelpress/internal/services/box"
	"reelpress/internal/thumbnail"
	"reelpress/internal/transcript"
	"reelpress/internal/transcription"
)

// ErrFatal marks a run that could not publish its document.
var ErrFatal = docgen.ErrFatal

// Status is the outcome of Handle.
type Status string

const (
	StatusIgnored   Status = "ignored"
	StatusNotFound  Status = "not_found"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// DefaultGracePoll is the interval between job record lookups.
const DefaultGracePoll = 2 * time.Second

// Notification reports a newly created artifact.
type Notification struct {
	Bucket string
	Key    string
}

// ContentClient is the content platform surface enrichment uses.
type ContentClient interface {
	CreateSharedLink(ctx context.Context, fileID, access string) (string, error)
	UploadFile(ctx context.Context, folderID, name string, content []byte) (box.File, error)
	EnsureFolder(ctx context.Context, parentID, name string) (string, error)
	generation.AIClient
	docgen.Client
}

// RecordStore reads and removes job records.
type RecordStore interface {
	Get(ctx context.Context, jobID string) (*job.Record, error)
	Delete(ctx context.Context, jobID string) error
}

// FrameSampler draws one encoded frame from a video file.
type FrameSampler interface {
	Sample(ctx context.Context, videoPath string) ([]byte, error)
}

// ThumbnailExtractor isolates the subject of a frame.
type ThumbnailExtractor interface {
	Extract(ctx context.Context, frame []byte, target thumbnail.Size, preserveLighting bool) ([]byte, error)
}

// Deps holds the collaborators a Stage needs. It is built once at startup.
type Deps struct {
	Config    *config.Config
	Objects   objectstore.Store
	Records   RecordStore
	Notifier  notifications.Service
	Sampler   FrameSampler
	Extractor ThumbnailExtractor
	Logger    *slog.Logger

	// NewClient returns a content client acting as userID. Defaults to the
	// client-credentials grant against the configured content API.
	NewClient func(userID string) ContentClient
	// NewBackend picks the generation backend. Defaults to the configured one.
	NewBackend func(client ContentClient) (generation.Backend, error)

	GracePoll time.Duration
	Sleep     func(ctx context.Context, d time.Duration) error
	Now       func() time.Time
}

// Stage runs enrichment for caption artifacts.
type Stage struct {
	deps   Deps
	logger *slog.Logger
}

// New validates deps and constructs a Stage.
func New(deps Deps) (*Stage, error) {
	if deps.Config == nil {
		return nil, services.Wrap(services.ErrConfiguration, "enrichment", "init", "config required", nil)
	}
	if deps.Objects == nil || deps.Records == nil {
		return nil, services.Wrap(services.ErrConfiguration, "enrichment", "init", "object store and record store are required", nil)
	}
	cfg := deps.Config
	if deps.NewClient == nil {
		deps.NewClient = func(userID string) ContentClient {
			return box.New(box.Config{
				APIBaseURL:     cfg.Content.APIBaseURL,
				UploadBaseURL:  cfg.Content.UploadBaseURL,
				TimeoutSeconds: cfg.Content.TimeoutSeconds,
			}, box.NewUserCredentials(cfg.Content.APIBaseURL, cfg.Content.ClientID, cfg.Content.ClientSecret, userID))
		}
	}
	if deps.NewBackend == nil {
		deps.NewBackend = func(client ContentClient) (generation.Backend, error) {
			return generation.NewBackend(cfg, client)
		}
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(cfg)
	}
	if deps.GracePoll <= 0 {
		deps.GracePoll = DefaultGracePoll
	}
	if deps.Sleep == nil {
		deps.Sleep = sleep
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Stage{deps: deps, logger: logging.NewComponentLogger(deps.Logger, "enrichment-stage")}, nil
}

// Handle enriches the job whose caption track n announces.
func (s *Stage) Handle(ctx context.Context, n Notification) (status Status, err error) {
	cfg := s.deps.Config
	if n.Bucket != "" && n.Bucket != cfg.Storage.TranscriptsBucket {
		return StatusIgnored, nil
	}
	if !transcription.IsCaptionKey(n.Key) {
		s.logger.Debug("waiting for caption track", logging.String("key", n.Key))
		return StatusIgnored, nil
	}
	jobID := transcription.JobNameFromKey(n.Key)
	ctx = services.WithStage(services.WithJobID(ctx, jobID), "enrichment")
	ctx, span := observability.StartSpan(ctx, "enrichment.handle", attribute.String("job_id", jobID))
	defer func() {
		span.SetAttributes(attribute.String("status", string(status)))
		observability.EndSpan(span, err)
	}()

	rec, err := s.lookup(ctx, jobID)
	if errors.Is(err, jobstore.ErrNotFound) {
		logging.WithContext(ctx, s.logger).Info("job record not found; skipping enrichment",
			logging.String(logging.FieldEventType, "job_record_not_found"),
			logging.String("key", n.Key),
		)
		return StatusNotFound, nil
	}
	if err != nil {
		return StatusFailed, services.Wrap(services.ErrTransient, "enrichment", "lookup record", jobID, err)
	}

	ctx = services.WithFileID(services.WithRequestID(ctx, rec.RequestID), rec.FileID)
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldSkillID, rec.SkillID))

	if err := s.publish(ctx, rec, logger); err != nil {
		hint := "retry with `reelpress enrich " + jobID + "`"
		if !errors.Is(err, ErrFatal) {
			hint = "the caption track is redelivered on the next start, or " + hint
		}
		logging.ErrorWithContext(logger, "enrichment failed; job record kept", "enrichment_failed", err, hint,
			logging.Bool("fatal", errors.Is(err, ErrFatal)))
		s.notify(ctx, logger, notifications.EventEnrichmentFailed, notifications.Payload{
			"jobId":     jobID,
			"fileId":    rec.FileID,
			"skillId":   rec.SkillID,
			"requestId": rec.RequestID,
			"error":     err.Error(),
		})
		return StatusFailed, err
	}

	report := s.Cleanup(ctx, rec)
	if !report.OK() {
		logging.WarnWithContext(logger, "cleanup incomplete", "cleanup_incomplete",
			logging.Int("failures", len(report.Failures)),
			logging.Error(report.Err()),
		)
	}
	s.notify(ctx, logger, notifications.EventEnrichmentCompleted, notifications.Payload{"jobId": jobID})
	logger.Info("enrichment completed", logging.String(logging.FieldEventType, "enrichment_completed"))
	return StatusCompleted, nil
}

// lookup polls for the job record until the grace window closes.
func (s *Stage) lookup(ctx context.Context, jobID string) (*job.Record, error) {
	deadline := s.deps.Now().Add(s.deps.Config.RecordGrace())
	for {
		rec, err := s.deps.Records.Get(ctx, jobID)
		if err == nil || !errors.Is(err, jobstore.ErrNotFound) {
			return rec, err
		}
		if !s.deps.Now().Before(deadline) {
			return nil, err
		}
		if sleepErr := s.deps.Sleep(ctx, s.deps.GracePoll); sleepErr != nil {
			return nil, sleepErr
		}
	}
}

// publish runs the link, generation, document, and thumbnail steps.
func (s *Stage) publish(ctx context.Context, rec *job.Record, logger *slog.Logger) error {
	cfg := s.deps.Config
	bucket := cfg.Storage.TranscriptsBucket
	client := s.deps.NewClient(rec.UserID)

	raw, err := objectstore.ReadAll(ctx, s.deps.Objects, bucket, transcription.TranscriptKey(rec.JobID))
	if err != nil {
		return services.Wrap(services.ErrTransient, "enrichment", "read transcript", rec.JobID, err)
	}
	doc, err := transcript.Parse(raw)
	if err != nil {
		return services.Wrap(services.ErrValidation, "enrichment", "parse transcript", rec.JobID, err)
	}

	access := cfg.Content.SharedLinkAccess
	videoLink, err := client.CreateSharedLink(ctx, rec.FileID, access)
	if err != nil {
		return fmt.Errorf("share source video: %w", err)
	}
	captions, err := objectstore.ReadAll(ctx, s.deps.Objects, bucket, transcription.CaptionKey(rec.JobID))
	if err != nil {
		return services.Wrap(services.ErrTransient, "enrichment", "read captions", rec.JobID, err)
	}
	uploaded, err := client.UploadFile(ctx, rec.FolderID, rec.JobID+".srt", captions)
	if err != nil {
		return fmt.Errorf("upload captions: %w", err)
	}
	captionsLink, err := client.CreateSharedLink(ctx, uploaded.ID, access)
	if err != nil {
		return fmt.Errorf("share captions: %w", err)
	}
	logger.Info("shared links created",
		logging.String("video_link", videoLink),
		logging.String("captions_file_id", uploaded.ID),
	)

	backend, err := s.deps.NewBackend(client)
	if err != nil {
		return err
	}
	content := generation.Enrich(ctx, backend, generation.Input{
		Transcript:  doc.Plain(),
		WithSeconds: transcript.WithSeconds(doc.Results.Items),
	}, logger)

	runner := docgen.NewRunner(client, cfg.DocGen, logger)
	payload := docgen.NewPayload(content, docgen.Links{Video: videoLink, Captions: captionsLink})
	docID, err := runner.Generate(ctx, rec.FolderID, rec.JobID, payload)
	if err != nil {
		return err
	}
	logger.Info("document generated", logging.String("document_file_id", docID))

	uploadedThumbs := s.thumbnails(ctx, client, rec, logger)
	logger.Info("thumbnails uploaded", logging.Int("count", uploadedThumbs))
	return nil
}

func (s *Stage) notify(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if err := s.deps.Notifier.Publish(ctx, event, payload); err != nil {
		logger.Warn("notification failed",
			logging.String("notification", string(event)),
			logging.Error(err),
			logging.String(logging.FieldEventType, "notification_failed"),
		)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
