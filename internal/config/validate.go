package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateDocGen(); err != nil {
		return err
	}
	if err := c.validateThumbnail(); err != nil {
		return err
	}
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	if err := c.validateTracing(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateQueue() error {
	if c.Queue.VisibilityTimeoutSeconds <= 0 {
		return errors.New("queue.visibility_timeout_seconds must be positive")
	}
	if c.Queue.MaxReceives <= 0 {
		return errors.New("queue.max_receives must be positive")
	}
	if c.Queue.PollIntervalSeconds <= 0 {
		return errors.New("queue.poll_interval_seconds must be positive")
	}
	if c.Queue.BatchSize <= 0 {
		return errors.New("queue.batch_size must be positive")
	}
	if c.Queue.Concurrency <= 0 {
		return errors.New("queue.concurrency must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageBackendLocal:
		if c.Storage.LocalRoot == "" {
			return errors.New("storage.local_root must be set for the local backend")
		}
	case StorageBackendMinio:
		if c.Storage.Endpoint == "" {
			return errors.New("storage.endpoint must be set for the minio backend")
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return errors.New("storage.access_key and storage.secret_key are required for the minio backend (or STORAGE_ACCESS_KEY / STORAGE_SECRET_KEY)")
		}
	default:
		return fmt.Errorf("storage.backend: unsupported value %q", c.Storage.Backend)
	}
	if c.Storage.RecordingsBucket == c.Storage.TranscriptsBucket {
		return errors.New("storage.recordings_bucket and storage.transcripts_bucket must differ")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	switch c.Generation.Backend {
	case GenerationBackendBox, GenerationBackendLLM:
		return nil
	default:
		return fmt.Errorf("generation.backend: unsupported value %q", c.Generation.Backend)
	}
}

func (c *Config) validateDocGen() error {
	if c.DocGen.TimeoutSeconds <= 0 {
		return errors.New("docgen.timeout_seconds must be positive")
	}
	if c.DocGen.PollIntervalSeconds <= 0 {
		return errors.New("docgen.poll_interval_seconds must be positive")
	}
	if c.DocGen.MaxPollIntervalSeconds < c.DocGen.PollIntervalSeconds {
		return errors.New("docgen.max_poll_interval_seconds must be >= docgen.poll_interval_seconds")
	}
	return nil
}

func (c *Config) validateThumbnail() error {
	if c.Thumbnail.Width <= 0 || c.Thumbnail.Height <= 0 {
		return errors.New("thumbnail.width and thumbnail.height must be positive")
	}
	if c.Thumbnail.FrameCount < 0 {
		return errors.New("thumbnail.frame_count must be >= 0")
	}
	if c.Thumbnail.SampleWindowSeconds <= 0 {
		return errors.New("thumbnail.sample_window_seconds must be positive")
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	if c.Enrichment.RecordGraceSeconds < 0 {
		return errors.New("enrichment.record_grace_seconds must be >= 0")
	}
	if c.Enrichment.Concurrency <= 0 {
		return errors.New("enrichment.concurrency must be positive")
	}
	if c.Enrichment.TimeoutSeconds <= 0 {
		return errors.New("enrichment.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTracing() error {
	switch c.Tracing.Exporter {
	case TracingExporterNone, TracingExporterStdout:
	case TracingExporterOTLPHTTP:
		if c.Tracing.Endpoint == "" {
			return errors.New("tracing.endpoint must be set for the otlphttp exporter")
		}
	default:
		return fmt.Errorf("tracing.exporter: unsupported value %q", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return errors.New("tracing.sample_ratio must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
