package transcription

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"mime"
	"path/filepath"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"reelpress/internal/config"
	"reelpress/internal/job"
	"reelpress/internal/jobstore"
	"reelpress/internal/language"
	"reelpress/internal/logging"
	"reelpress/internal/objectstore"
	"reelpress/internal/observability"
	"reelpress/internal/services"
	"reelpress/internal/services/box"
)

// Downloader fetches a source file from the content platform.
type Downloader interface {
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// RecordStore persists job records.
type RecordStore interface {
	Put(ctx context.Context, rec *job.Record) error
	FindByIdempotencyKey(ctx context.Context, key string) (*job.Record, error)
}

// Deps holds the collaborators a Stage needs. It is built once at startup.
type Deps struct {
	Config  *config.Config
	Objects objectstore.Store
	Records RecordStore
	Engine  Engine
	Logger  *slog.Logger

	// NewDownloader returns a content client authorised by the work item's
	// read token. Defaults to the content API client.
	NewDownloader func(token string) Downloader
	Now           func() time.Time
}

// Stage handles one work item per call.
type Stage struct {
	deps   Deps
	logger *slog.Logger
}

// New validates deps and constructs a Stage.
func New(deps Deps) (*Stage, error) {
	if deps.Config == nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcription", "init", "config required", nil)
	}
	if deps.Objects == nil || deps.Records == nil || deps.Engine == nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcription", "init", "object store, record store, and engine are required", nil)
	}
	if deps.NewDownloader == nil {
		cfg := deps.Config
		deps.NewDownloader = func(token string) Downloader {
			return box.New(box.Config{
				APIBaseURL:     cfg.Content.APIBaseURL,
				UploadBaseURL:  cfg.Content.UploadBaseURL,
				TimeoutSeconds: cfg.Content.TimeoutSeconds,
			}, box.StaticToken(token))
		}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Stage{deps: deps, logger: logging.NewComponentLogger(deps.Logger, "transcription-stage")}, nil
}

// Handle copies the source into the recordings bucket, submits it for
// transcription, and persists the job record. Errors carry services markers
// so the consumer can decide between retry and drop.
func (s *Stage) Handle(ctx context.Context, item job.WorkItem) (rec *job.Record, err error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	ctx = services.WithStage(services.WithFileID(services.WithRequestID(ctx, item.RequestID), item.FileID), "transcription")
	ctx, span := observability.StartSpan(ctx, "transcription.handle",
		attribute.String("file_id", item.FileID),
		attribute.String("request_id", item.RequestID),
	)
	defer func() { observability.EndSpan(span, err) }()
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldSkillID, item.SkillID))

	cfg := s.deps.Config
	var key string
	if cfg.Transcription.DedupeSubmissions {
		key = IdempotencyKey(item)
		existing, findErr := s.deps.Records.FindByIdempotencyKey(ctx, key)
		switch {
		case findErr == nil:
			logger.Info("submission already recorded; skipping",
				logging.String(logging.FieldJobID, existing.JobID),
				logging.String(logging.FieldEventType, "transcription_deduplicated"),
			)
			return existing, nil
		case !errors.Is(findErr, jobstore.ErrNotFound):
			return nil, services.Wrap(services.ErrTransient, "transcription", "dedupe lookup", "query job records", findErr)
		}
	}

	content, err := s.deps.NewDownloader(item.FileReadToken).DownloadFile(ctx, item.FileID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcription", "download source", "fetch "+item.FileID, err)
	}
	logger.Info("source downloaded", logging.Int("bytes", len(content)))

	bucket := cfg.Storage.RecordingsBucket
	if err := objectstore.PutBytes(ctx, s.deps.Objects, bucket, item.FileName, content, contentType(item.FileName)); err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcription", "store source", bucket+"/"+item.FileName, err)
	}

	jobName := job.UniqueName(item.FileName)
	mediaURI := objectstore.S3URI(bucket, item.FileName)
	ctx = services.WithJobID(ctx, jobName)
	logger = logger.With(logging.String(logging.FieldJobID, jobName))

	handle, err := s.deps.Engine.Submit(ctx, s.request(jobName, mediaURI))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcription", "submit", "engine rejected "+jobName, err)
	}

	rec, err = job.NewRecord(item, jobName, mediaURI, s.deps.Now())
	if err != nil {
		return nil, err
	}
	rec.IdempotencyKey = key
	if err := s.deps.Records.Put(ctx, rec); err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcription", "persist record", jobName, err)
	}

	logger.Info("transcription submitted",
		logging.String("media_uri", mediaURI),
		logging.String("engine_status", string(handle.Status)),
		logging.String(logging.FieldEventType, "transcription_submitted"),
	)
	return rec, nil
}

func (s *Stage) request(jobName, mediaURI string) Request {
	cfg := s.deps.Config
	lang := language.Normalize(cfg.Transcription.Language)
	if lang == "" {
		lang = language.Default
	}
	return Request{
		JobName:      jobName,
		MediaURI:     mediaURI,
		Language:     lang,
		OutputBucket: cfg.Storage.TranscriptsBucket,
	}
}

// IdempotencyKey derives the dedupe key for item.
func IdempotencyKey(item job.WorkItem) string {
	sum := sha256.Sum256([]byte(item.FileID + ":" + strconv.FormatInt(item.FileSize, 10)))
	return hex.EncodeToString(sum[:])
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
