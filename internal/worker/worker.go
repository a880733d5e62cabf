package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"reelpress/internal/logging"
	"reelpress/internal/transcription"
)

// ErrAlreadyRunning is returned when another process holds the worker lock.
var ErrAlreadyRunning = errors.New("another reelpress worker is already running")

// Resumer reconciles job records left behind by a previous process.
type Resumer interface {
	Resume(ctx context.Context, records transcription.RecordLister) (transcription.Recovery, error)
}

// Worker runs the consumer and listener under a single-instance lock.
type Worker struct {
	lockPath string
	lock     *flock.Flock
	consumer *Consumer
	listener *Listener
	logger   *slog.Logger

	resumer Resumer
	records transcription.RecordLister
}

// New constructs a worker. listener may be nil to run the consumer alone.
func New(lockPath string, consumer *Consumer, listener *Listener, logger *slog.Logger) *Worker {
	return &Worker{
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		consumer: consumer,
		listener: listener,
		logger:   logging.NewComponentLogger(logger, "worker"),
	}
}

// WithResume makes Run reconcile records through r once the lock is held:
// lost transcriptions are resubmitted and captioned records are redelivered
// to the listener.
func (w *Worker) WithResume(r Resumer, records transcription.RecordLister) *Worker {
	w.resumer = r
	w.records = records
	return w
}

// Run acquires the lock, starts both loops, and blocks until ctx is
// cancelled. In-flight runs are drained before the lock is released.
func (w *Worker) Run(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(w.lockPath), 0o755); err != nil {
		return fmt.Errorf("ensure lock dir: %w", err)
	}
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.lock.Unlock(); err != nil {
			w.logger.Warn("failed to release worker lock", logging.Error(err))
		}
	}()

	if w.listener != nil {
		if err := w.listener.Start(ctx); err != nil {
			return fmt.Errorf("start artifact listener: %w", err)
		}
		defer w.listener.Stop()
	}
	if w.resumer != nil {
		w.resume(ctx)
	}
	if err := w.consumer.Start(ctx); err != nil {
		return fmt.Errorf("start queue consumer: %w", err)
	}
	w.logger.Info("worker started", logging.String("lock", w.lockPath))

	<-ctx.Done()
	w.logger.Info("worker stopping; draining in-flight runs")
	w.consumer.Stop()
	return nil
}

func (w *Worker) resume(ctx context.Context) {
	recovery, err := w.resumer.Resume(ctx, w.records)
	if err != nil {
		logging.WarnWithContext(w.logger, "resume pass incomplete", "resume_incomplete", logging.Error(err))
	}
	if w.listener != nil {
		for _, jobID := range recovery.Captioned {
			if err := w.listener.Redeliver(transcription.CaptionKey(jobID)); err != nil {
				w.logger.Warn("caption redelivery stopped", logging.String(logging.FieldJobID, jobID), logging.Error(err))
				break
			}
		}
	}
	if len(recovery.Resubmitted) > 0 || len(recovery.Captioned) > 0 {
		w.logger.Info("resumed work from previous run",
			logging.Int("resubmitted", len(recovery.Resubmitted)),
			logging.Int("captioned", len(recovery.Captioned)),
			logging.String(logging.FieldEventType, "worker_resumed"),
		)
	}
}
