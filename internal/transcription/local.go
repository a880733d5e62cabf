package transcription

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"reelpress/internal/logging"
	"reelpress/internal/objectstore"
	"reelpress/internal/services"
	"reelpress/internal/services/whisperx"
	"reelpress/internal/transcript"
)

// Transcriber is the speech-to-text tool LocalEngine drives.
type Transcriber interface {
	ExtractAudio(ctx context.Context, source, dest string) error
	Transcribe(ctx context.Context, source, outputDir, language string) (whisperx.Result, error)
}

// LocalEngineOptions configures a LocalEngine.
type LocalEngineOptions struct {
	Objects     objectstore.Store
	Transcriber Transcriber
	WorkDir     string
	Concurrency int
	Logger      *slog.Logger

	// OnFailure is called for each job that ends FAILED. Jobs interrupted by
	// Close are not reported; Resume resubmits them on the next start.
	OnFailure func(ctx context.Context, jobName string, err error)
	// RetainFinished bounds how many finished job statuses are remembered.
	RetainFinished int
}

const defaultRetainFinished = 256

// LocalEngine transcribes jobs in-process. Submit returns immediately; a
// bounded pool of goroutines does the work.
type LocalEngine struct {
	objects     objectstore.Store
	transcriber Transcriber
	workDir     string
	logger      *slog.Logger
	onFailure   func(ctx context.Context, jobName string, err error)
	retain      int

	ctx    context.Context
	cancel context.CancelFunc
	sem    chan struct{}
	wg     sync.WaitGroup

	mu       sync.Mutex
	status   map[string]JobStatus
	finished []string
}

// NewLocalEngine constructs an engine. Close releases it.
func NewLocalEngine(opts LocalEngineOptions) (*LocalEngine, error) {
	if opts.Objects == nil || opts.Transcriber == nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcription", "engine init", "object store and transcriber are required", nil)
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.RetainFinished <= 0 {
		opts.RetainFinished = defaultRetainFinished
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalEngine{
		objects:     opts.Objects,
		transcriber: opts.Transcriber,
		workDir:     opts.WorkDir,
		logger:      logging.NewComponentLogger(opts.Logger, "transcription-engine"),
		onFailure:   opts.OnFailure,
		retain:      opts.RetainFinished,
		ctx:         ctx,
		cancel:      cancel,
		sem:         make(chan struct{}, opts.Concurrency),
		status:      map[string]JobStatus{},
	}, nil
}

// Submit registers the job as queued and schedules it.
func (e *LocalEngine) Submit(ctx context.Context, req Request) (Handle, error) {
	if req.JobName == "" || req.MediaURI == "" || req.OutputBucket == "" {
		return Handle{}, services.Wrap(services.ErrValidation, "transcription", "engine submit", "job name, media uri, and output bucket are required", nil)
	}
	if _, _, err := objectstore.ParseS3URI(req.MediaURI); err != nil {
		return Handle{}, services.Wrap(services.ErrValidation, "transcription", "engine submit", "invalid media uri", err)
	}
	if err := e.ctx.Err(); err != nil {
		return Handle{}, services.Wrap(services.ErrTransient, "transcription", "engine submit", "engine closed", err)
	}

	e.mu.Lock()
	if _, exists := e.status[req.JobName]; exists {
		e.mu.Unlock()
		return Handle{}, services.Wrap(services.ErrValidation, "transcription", "engine submit", "duplicate job name "+req.JobName, nil)
	}
	e.status[req.JobName] = StatusQueued
	e.mu.Unlock()

	logger := logging.WithContext(ctx, e.logger)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(req, logger)
	}()
	return Handle{JobName: req.JobName, Status: StatusQueued}, nil
}

// Status returns the last known status of jobName.
func (e *LocalEngine) Status(_ context.Context, jobName string) (JobStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	status, ok := e.status[jobName]
	if !ok {
		return "", services.Wrap(services.ErrNotFound, "transcription", "engine status", jobName, nil)
	}
	return status, nil
}

// StatusText renders Status for operator surfaces.
func (e *LocalEngine) StatusText(ctx context.Context, jobName string) (string, error) {
	status, err := e.Status(ctx, jobName)
	return string(status), err
}

// Close cancels queued and running jobs and waits for workers to exit.
// Their records stay in the job store without a caption track.
func (e *LocalEngine) Close() {
	e.cancel()
	e.wg.Wait()
}

// Wait blocks until every submitted job has finished.
func (e *LocalEngine) Wait() {
	e.wg.Wait()
}

func (e *LocalEngine) setStatus(jobName string, status JobStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status[jobName] = status
	if status != StatusCompleted && status != StatusFailed {
		return
	}
	e.finished = append(e.finished, jobName)
	for len(e.finished) > e.retain {
		delete(e.status, e.finished[0])
		e.finished[0] = ""
		e.finished = e.finished[1:]
	}
}

func (e *LocalEngine) run(req Request, logger *slog.Logger) {
	logger = logger.With(logging.String(logging.FieldJobID, req.JobName))
	select {
	case e.sem <- struct{}{}:
	case <-e.ctx.Done():
		e.setStatus(req.JobName, StatusFailed)
		logger.Warn("engine closed before job started; it resumes on the next start",
			logging.String(logging.FieldEventType, "transcription_interrupted"))
		return
	}
	defer func() { <-e.sem }()

	e.setStatus(req.JobName, StatusInProgress)
	if err := e.transcribe(e.ctx, req, logger); err != nil {
		e.setStatus(req.JobName, StatusFailed)
		if e.ctx.Err() != nil {
			logger.Warn("transcription interrupted by shutdown; it resumes on the next start",
				logging.String(logging.FieldEventType, "transcription_interrupted"),
				logging.Error(err),
			)
			return
		}
		logging.ErrorWithContext(logger, "transcription job failed", "transcription_failed", err,
			"check ffmpeg and whisperx availability with `reelpress check`; the job is resubmitted on the next start")
		if e.onFailure != nil {
			e.onFailure(context.WithoutCancel(e.ctx), req.JobName, err)
		}
		return
	}
	e.setStatus(req.JobName, StatusCompleted)
	logger.Info("transcription job completed", logging.String(logging.FieldEventType, "transcription_completed"))
}

func (e *LocalEngine) transcribe(ctx context.Context, req Request, logger *slog.Logger) error {
	bucket, key, err := objectstore.ParseS3URI(req.MediaURI)
	if err != nil {
		return services.Wrap(services.ErrValidation, "transcription", "engine", "invalid media uri", err)
	}
	dir, err := os.MkdirTemp(e.workDir, req.JobName+"-")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	source := filepath.Join(dir, "source"+filepath.Ext(key))
	if err := e.download(ctx, bucket, key, source); err != nil {
		return err
	}

	audio := filepath.Join(dir, req.JobName+".wav")
	if err := e.transcriber.ExtractAudio(ctx, source, audio); err != nil {
		return err
	}
	result, err := e.transcriber.Transcribe(ctx, audio, filepath.Join(dir, "out"), req.Language)
	if err != nil {
		return err
	}
	logger.Debug("whisperx finished", logging.Int("segments", len(result.Segments)))

	segments := convertSegments(result.Segments)
	doc := transcript.FromSegments(req.JobName, segments)
	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	// The caption track triggers enrichment, so the transcript must land first.
	if err := objectstore.PutBytes(ctx, e.objects, req.OutputBucket, TranscriptKey(req.JobName), data, "application/json"); err != nil {
		return services.Wrap(services.ErrTransient, "transcription", "engine", "write transcript", err)
	}
	srt := transcript.SRT(segments)
	if err := objectstore.PutBytes(ctx, e.objects, req.OutputBucket, CaptionKey(req.JobName), []byte(srt), "application/x-subrip"); err != nil {
		return services.Wrap(services.ErrTransient, "transcription", "engine", "write captions", err)
	}
	return nil
}

func (e *LocalEngine) download(ctx context.Context, bucket, key, dest string) error {
	rc, err := e.objects.Get(ctx, bucket, key)
	if err != nil {
		return services.Wrap(services.ErrTransient, "transcription", "engine", "fetch media", err)
	}
	defer rc.Close()
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return fmt.Errorf("copy media: %w", err)
	}
	return f.Close()
}

func convertSegments(in []whisperx.Segment) []transcript.Segment {
	out := make([]transcript.Segment, 0, len(in))
	for _, seg := range in {
		words := make([]transcript.Word, 0, len(seg.Words))
		for _, w := range seg.Words {
			word := transcript.Word{Text: w.Word, Start: -1, End: -1, Score: w.Score}
			if w.Start != nil {
				word.Start = *w.Start
			}
			if w.End != nil {
				word.End = *w.End
			}
			words = append(words, word)
		}
		out = append(out, transcript.Segment{Text: seg.Text, Start: seg.Start, End: seg.End, Words: words})
	}
	return out
}
