package main

import (
	"context"
	"fmt"
	"log/slog"

	"reelpress/internal/api"
	"reelpress/internal/config"
	"reelpress/internal/database"
	"reelpress/internal/enrichment"
	"reelpress/internal/jobstore"
	"reelpress/internal/logging"
	"reelpress/internal/media/frames"
	"reelpress/internal/notifications"
	"reelpress/internal/objectstore"
	"reelpress/internal/queue"
	"reelpress/internal/services/segmentation"
	"reelpress/internal/services/whisperx"
	"reelpress/internal/thumbnail"
	"reelpress/internal/transcription"
)

// pipeline holds every long-lived collaborator of a serving process.
type pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *database.DB
	queue    *queue.Store
	jobs     *jobstore.Store
	objects  objectstore.Store
	notifier notifications.Service
	engine   *transcription.LocalEngine

	transcriber *transcription.Stage
	enricher    *enrichment.Stage
}

func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline, error) {
	p := &pipeline{cfg: cfg, logger: logger, notifier: notifications.NewService(cfg)}

	db, err := database.Open(ctx, cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	p.db = db
	p.jobs = jobstore.New(db)
	p.queue = queue.New(db, queue.Options{
		VisibilityTimeout: cfg.VisibilityTimeout(),
		MaxReceives:       cfg.Queue.MaxReceives,
		OnDeadLetter:      p.alertDeadLetter,
		Logger:            logger,
	})

	objects, err := objectstore.Open(ctx, cfg, logger)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("open object store: %w", err)
	}
	p.objects = objects

	p.engine, err = transcription.NewLocalEngine(transcription.LocalEngineOptions{
		Objects: objects,
		Transcriber: whisperx.NewService(whisperx.Config{
			Model:        cfg.Transcription.WhisperXModel,
			CUDAEnabled:  cfg.Transcription.WhisperXCUDAEnabled,
			FFmpegBinary: cfg.FFmpegBinary(),
		}),
		WorkDir:     cfg.Paths.WorkDir,
		Concurrency: cfg.Transcription.Concurrency,
		Logger:      logger,
		OnFailure:   p.alertTranscriptionFailed,
	})
	if err != nil {
		p.Close()
		return nil, err
	}

	p.transcriber, err = transcription.New(transcription.Deps{
		Config:  cfg,
		Objects: objects,
		Records: p.jobs,
		Engine:  p.engine,
		Logger:  logger,
	})
	if err != nil {
		p.Close()
		return nil, err
	}

	deps := enrichment.Deps{
		Config:   cfg,
		Objects:  objects,
		Records:  p.jobs,
		Notifier: p.notifier,
		Logger:   logger,
	}
	if sampler, extractor := thumbnailTools(cfg, logger); extractor != nil {
		deps.Sampler = sampler
		deps.Extractor = extractor
	}
	p.enricher, err = enrichment.New(deps)
	if err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// thumbnailTools returns the frame sampler and subject extractor, or nils
// when no segmentation server is configured.
func thumbnailTools(cfg *config.Config, logger *slog.Logger) (*frames.Sampler, *thumbnail.Extractor) {
	if cfg.Thumbnail.SegmentationURL == "" {
		return nil, nil
	}
	sampler := &frames.Sampler{
		FFprobeBinary: cfg.FFprobeBinary(),
		FFmpegBinary:  cfg.FFmpegBinary(),
		WindowSeconds: cfg.Thumbnail.SampleWindowSeconds,
		Logger:        logger,
	}
	seg := segmentation.NewClient(segmentation.Config{
		BaseURL: cfg.Thumbnail.SegmentationURL,
		Model:   cfg.Thumbnail.SegmentationModel,
	})
	return sampler, thumbnail.New(seg, logger)
}

func (p *pipeline) admin() *api.Service {
	return api.NewService(p.queue, p.jobs, p.engine)
}

func (p *pipeline) alertDeadLetter(ctx context.Context, dl queue.DeadLetter) {
	payload := notifications.Payload{
		"messageId": dl.ID,
		"error":     dl.LastError,
	}
	if item, err := dl.Item(); err == nil {
		payload["fileName"] = item.FileName
		payload["fileId"] = item.FileID
	}
	if err := p.notifier.Publish(ctx, notifications.EventDeadLetter, payload); err != nil {
		p.logger.Warn("dead-letter notification failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "notification_failed"),
		)
	}
}

func (p *pipeline) alertTranscriptionFailed(ctx context.Context, jobName string, err error) {
	payload := notifications.Payload{"jobId": jobName, "error": err.Error()}
	if pubErr := p.notifier.Publish(ctx, notifications.EventTranscriptionFailed, payload); pubErr != nil {
		p.logger.Warn("transcription failure notification failed",
			logging.Error(pubErr),
			logging.String(logging.FieldEventType, "notification_failed"),
		)
	}
}

// Close releases the engine and database. Interrupted transcriptions keep
// their job records and are resubmitted by the next serve.
func (p *pipeline) Close() {
	if p.engine != nil {
		p.engine.Close()
	}
	if p.db != nil {
		if err := p.db.Close(); err != nil && p.logger != nil {
			p.logger.Warn("failed to close database", logging.Error(err))
		}
	}
}
