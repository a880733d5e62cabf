package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"reelpress/internal/config"
	"reelpress/internal/enrichment"
	"reelpress/internal/logging"
	"reelpress/internal/objectstore"
	"reelpress/internal/transcription"
)

// Enricher handles one artifact notification.
type Enricher interface {
	Handle(ctx context.Context, n enrichment.Notification) (enrichment.Status, error)
}

// Listener watches the transcripts bucket and runs enrichment for each new
// artifact, at most Enrichment.Concurrency at a time.
type Listener struct {
	objects  objectstore.Store
	enricher Enricher
	bucket   string
	timeout  time.Duration
	logger   *slog.Logger
	slots    chan struct{}

	mu      sync.Mutex
	running bool
	runCtx  context.Context
	cancel  context.CancelFunc
	loop    sync.WaitGroup
	runs    sync.WaitGroup
}

// NewListener builds a listener for the configured transcripts bucket.
func NewListener(cfg *config.Config, objects objectstore.Store, enricher Enricher, logger *slog.Logger) *Listener {
	concurrency := cfg.Enrichment.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Listener{
		objects:  objects,
		enricher: enricher,
		bucket:   cfg.Storage.TranscriptsBucket,
		timeout:  cfg.EnrichmentTimeout(),
		logger:   logging.NewComponentLogger(logger, "artifact-listener"),
		slots:    make(chan struct{}, concurrency),
	}
}

// Start subscribes to artifact notifications. The subscription is active
// when Start returns.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return errors.New("artifact listener already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	events, err := l.objects.Watch(runCtx, l.bucket, transcription.KeyPrefix)
	if err != nil {
		cancel()
		return err
	}
	l.runCtx = runCtx
	l.cancel = cancel
	l.running = true
	l.loop.Add(1)
	go l.run(runCtx, events)
	l.logger.Info("watching for transcript artifacts",
		logging.String("bucket", l.bucket),
		logging.String("prefix", transcription.KeyPrefix),
	)
	return nil
}

// Stop ends the subscription and waits for in-flight enrichment runs.
func (l *Listener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	cancel := l.cancel
	l.running = false
	l.runCtx = nil
	l.cancel = nil
	l.mu.Unlock()

	cancel()
	l.loop.Wait()
	l.runs.Wait()
}

// Wait blocks until every dispatched run has finished.
func (l *Listener) Wait() {
	l.runs.Wait()
}

func (l *Listener) run(ctx context.Context, events <-chan objectstore.Event) {
	defer l.loop.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !l.launch(ctx, ev) {
				return
			}
		}
	}
}

// Redeliver dispatches key as if the bucket had just reported it. It blocks
// while every slot is busy.
func (l *Listener) Redeliver(key string) error {
	l.mu.Lock()
	ctx, running := l.runCtx, l.running
	l.mu.Unlock()
	if !running {
		return errors.New("artifact listener is not running")
	}
	if !l.launch(ctx, objectstore.Event{Bucket: l.bucket, Key: key}) {
		return ctx.Err()
	}
	return nil
}

// launch waits for a free slot and runs ev in its own goroutine. It reports
// false when ctx ended first.
func (l *Listener) launch(ctx context.Context, ev objectstore.Event) bool {
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return false
	}
	l.runs.Add(1)
	go func() {
		defer func() {
			<-l.slots
			l.runs.Done()
		}()
		l.dispatch(ctx, ev)
	}()
	return true
}

func (l *Listener) dispatch(parent context.Context, ev objectstore.Event) {
	ctx := context.WithoutCancel(parent)
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	status, err := l.enricher.Handle(ctx, enrichment.Notification{Bucket: ev.Bucket, Key: ev.Key})
	logger := l.logger.With(logging.String("key", ev.Key), logging.String("status", string(status)))
	if err != nil {
		logger.Debug("enrichment run ended with error", logging.Error(err))
		return
	}
	if status != enrichment.StatusIgnored {
		logger.Debug("enrichment run finished")
	}
}
