package docgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reelpress/internal/config"
	"reelpress/internal/logging"
	"reelpress/internal/services"
	"reelpress/internal/services/box"
	"reelpress/internal/services/httpretry"
)

// ErrFatal marks failures that end an enrichment run.
var ErrFatal = errors.New("fatal enrichment failure")

var (
	// ErrJobFailed reports a batch the platform marked failed.
	ErrJobFailed = fmt.Errorf("%w: document generation failed", ErrFatal)
	// ErrTimeout reports a batch that did not finish before the deadline.
	ErrTimeout = fmt.Errorf("%w: document generation timed out", ErrFatal)
)

const (
	DefaultTimeout      = 600 * time.Second
	DefaultPollInterval = 1 * time.Second
	DefaultMaxInterval  = 10 * time.Second
	outputTypeDOCX      = "docx"
)

// Client is the document generation surface of the content platform.
type Client interface {
	CreateDocGenBatch(ctx context.Context, req box.DocGenRequest) (string, error)
	GetDocGenBatchJobs(ctx context.Context, batchID string) ([]box.DocGenJob, error)
}

// Runner submits a batch and polls it with capped exponential backoff.
type Runner struct {
	Client     Client
	TemplateID string
	Timeout    time.Duration
	Backoff    httpretry.Policy
	Logger     *slog.Logger
}

// NewRunner builds a Runner from the docgen settings.
func NewRunner(client Client, cfg config.DocGen, logger *slog.Logger) *Runner {
	r := &Runner{
		Client:     client,
		TemplateID: cfg.TemplateID,
		Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		Backoff: httpretry.Policy{
			BaseDelay: time.Duration(cfg.PollIntervalSeconds) * time.Second,
			MaxDelay:  time.Duration(cfg.MaxPollIntervalSeconds) * time.Second,
		},
		Logger: logging.NewComponentLogger(logger, "docgen"),
	}
	if r.Timeout <= 0 {
		r.Timeout = DefaultTimeout
	}
	if r.Backoff.BaseDelay <= 0 {
		r.Backoff.BaseDelay = DefaultPollInterval
	}
	if r.Backoff.MaxDelay <= 0 {
		r.Backoff.MaxDelay = DefaultMaxInterval
	}
	return r
}

// Generate renders payload into folderID as fileName and returns the
// generated file id.
func (r *Runner) Generate(ctx context.Context, folderID, fileName string, payload Payload) (string, error) {
	if r.TemplateID == "" {
		return "", services.Wrap(services.ErrConfiguration, "docgen", "generate", "template id not configured", nil)
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	deadline, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	batchID, err := r.Client.CreateDocGenBatch(deadline, box.DocGenRequest{
		TemplateID:          r.TemplateID,
		DestinationFolderID: folderID,
		OutputType:          outputTypeDOCX,
		FileName:            fileName,
		Data:                payload,
	})
	if err != nil {
		return "", r.deadlineErr(ctx, deadline, fmt.Errorf("docgen create: %w", err))
	}
	logger.Debug("docgen batch created", logging.String("batch_id", batchID))

	for attempt := 1; ; attempt++ {
		jobs, err := r.Client.GetDocGenBatchJobs(deadline, batchID)
		if err != nil {
			return "", r.deadlineErr(ctx, deadline, fmt.Errorf("docgen poll: %w", err))
		}
		if len(jobs) > 0 {
			job := jobs[0]
			logger.Debug("docgen job status", logging.String("batch_id", batchID), logging.String("status", job.Status))
			switch job.Status {
			case box.DocGenStatusCompleted:
				logger.Info("docgen job completed",
					logging.String("batch_id", batchID),
					logging.String("output_file_id", job.OutputFileID()),
				)
				return job.OutputFileID(), nil
			case box.DocGenStatusFailed:
				return "", fmt.Errorf("%w: batch %s", ErrJobFailed, batchID)
			}
		}
		if err := r.Backoff.Sleep(deadline, r.Backoff.Backoff(attempt)); err != nil {
			return "", r.deadlineErr(ctx, deadline, err)
		}
	}
}

// deadlineErr reports ErrTimeout when the run deadline expired while the
// caller's context is still live, and marks other submission or poll
// failures fatal. Caller cancellation is returned as is.
func (r *Runner) deadlineErr(parent, deadline context.Context, err error) error {
	if parent.Err() != nil {
		return err
	}
	if errors.Is(deadline.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, r.Timeout)
	}
	return fmt.Errorf("%w: %w", ErrFatal, err)
}
