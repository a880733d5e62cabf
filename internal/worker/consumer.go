package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"reelpress/internal/config"
	"reelpress/internal/job"
	"reelpress/internal/logging"
	"reelpress/internal/queue"
	"reelpress/internal/services"
)

// Queue is the lease queue surface the consumer drives.
type Queue interface {
	Dequeue(ctx context.Context, max int) ([]queue.Delivery, error)
	Ack(ctx context.Context, receipt string) error
	Nack(ctx context.Context, receipt, reason string) error
}

// Transcriber handles one admitted work item.
type Transcriber interface {
	Handle(ctx context.Context, item job.WorkItem) (*job.Record, error)
}

// Consumer polls the queue and runs each delivery in its own goroutine.
type Consumer struct {
	queue        Queue
	handler      Transcriber
	logger       *slog.Logger
	pollInterval time.Duration
	batchSize    int
	runTimeout   time.Duration
	slots        chan struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	loop    sync.WaitGroup
	runs    sync.WaitGroup
}

// NewConsumer builds a consumer from the queue section of cfg.
func NewConsumer(cfg *config.Config, q Queue, handler Transcriber, logger *slog.Logger) *Consumer {
	concurrency := cfg.Queue.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	batch := cfg.Queue.BatchSize
	if batch <= 0 {
		batch = 1
	}
	poll := cfg.PollInterval()
	if poll <= 0 {
		poll = time.Second
	}
	return &Consumer{
		queue:        q,
		handler:      handler,
		logger:       logging.NewComponentLogger(logger, "queue-consumer"),
		pollInterval: poll,
		batchSize:    batch,
		runTimeout:   cfg.VisibilityTimeout(),
		slots:        make(chan struct{}, concurrency),
	}
}

// Start begins polling in the background.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return errors.New("queue consumer already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true
	c.loop.Add(1)
	go c.run(runCtx)
	return nil
}

// Stop halts polling and waits for in-flight deliveries.
func (c *Consumer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.running = false
	c.cancel = nil
	c.mu.Unlock()

	cancel()
	c.loop.Wait()
	c.runs.Wait()
}

func (c *Consumer) run(ctx context.Context) {
	defer c.loop.Done()
	for {
		if _, err := c.Poll(ctx); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to dequeue work items",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.pollInterval):
		}
	}
}

// Poll leases as many deliveries as there are free slots, up to the batch
// size, and dispatches each one. It returns the number dispatched.
func (c *Consumer) Poll(ctx context.Context) (int, error) {
	free := cap(c.slots) - len(c.slots)
	if free <= 0 {
		return 0, nil
	}
	deliveries, err := c.queue.Dequeue(ctx, min(free, c.batchSize))
	if err != nil {
		return 0, err
	}
	for _, d := range deliveries {
		c.slots <- struct{}{}
		c.runs.Add(1)
		go func() {
			defer func() {
				<-c.slots
				c.runs.Done()
			}()
			c.process(ctx, d)
		}()
	}
	return len(deliveries), nil
}

// Wait blocks until every dispatched delivery has settled.
func (c *Consumer) Wait() {
	c.runs.Wait()
}

func (c *Consumer) process(parent context.Context, d queue.Delivery) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.runTimeout)
	defer cancel()
	ctx = services.WithFileID(services.WithRequestID(ctx, d.Item.RequestID), d.Item.FileID)
	logger := logging.WithContext(ctx, c.logger).With(
		logging.Int64("message_id", d.ID),
		logging.Int("receive_count", d.ReceiveCount),
	)

	rec, err := c.handler.Handle(ctx, d.Item)
	if err == nil {
		logger.Info("transcription submitted",
			logging.String(logging.FieldJobID, rec.JobID),
			logging.String(logging.FieldEventType, "transcription_submitted"),
		)
		c.settle(logger, d, c.queue.Ack(ctx, d.Receipt))
		return
	}

	switch services.FailureDisposition(err) {
	case services.DispositionDrop:
		logging.ErrorWithContext(logger, "dropping undeliverable work item", "queue_message_dropped", err,
			"the payload or configuration is invalid; redelivery cannot succeed",
			logging.String(logging.FieldErrorKind, services.ErrorKind(err)),
		)
		c.settle(logger, d, c.queue.Ack(ctx, d.Receipt))
	default:
		logging.WarnWithContext(logger, "transcription failed; releasing for redelivery", "queue_message_retry",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.ErrorKind(err)),
		)
		c.settle(logger, d, c.queue.Nack(ctx, d.Receipt, err.Error()))
	}
}

func (c *Consumer) settle(logger *slog.Logger, d queue.Delivery, err error) {
	switch {
	case err == nil:
	case errors.Is(err, queue.ErrInvalidReceipt):
		logging.WarnWithContext(logger, "lease expired before the delivery settled", "queue_lease_expired",
			logging.String("receipt", d.Receipt),
		)
	default:
		logging.ErrorWithContext(logger, "failed to settle delivery", "queue_settle_failed", err,
			"the lease will expire and the message will be redelivered")
	}
}
