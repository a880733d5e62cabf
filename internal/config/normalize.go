package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeWebhook()
	c.normalizeStorage()
	c.normalizeContent()
	c.normalizeGeneration()
	c.normalizeLLM()
	c.normalizeThumbnail()
	c.normalizeTracing()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Storage.LocalRoot) == "" {
		c.Storage.LocalRoot = defaultLocalStorageRoot
	}
	if c.Storage.LocalRoot, err = expandPath(c.Storage.LocalRoot); err != nil {
		return fmt.Errorf("storage.local_root: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("REELPRESS_API_TOKEN"); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeWebhook() {
	c.Webhook.PrimaryKey = envFallback(c.Webhook.PrimaryKey, "BOX_PRIMARY_KEY")
	c.Webhook.SecondaryKey = envFallback(c.Webhook.SecondaryKey, "BOX_SECONDARY_KEY")
}

func (c *Config) normalizeStorage() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageBackendLocal
	}
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	c.Storage.AccessKey = envFallback(c.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	c.Storage.SecretKey = envFallback(c.Storage.SecretKey, "STORAGE_SECRET_KEY")
	c.Storage.RecordingsBucket = strings.TrimSpace(c.Storage.RecordingsBucket)
	if c.Storage.RecordingsBucket == "" {
		c.Storage.RecordingsBucket = defaultRecordingsBucket
	}
	c.Storage.TranscriptsBucket = strings.TrimSpace(c.Storage.TranscriptsBucket)
	if c.Storage.TranscriptsBucket == "" {
		c.Storage.TranscriptsBucket = defaultTranscriptsBucket
	}
}

func (c *Config) normalizeContent() {
	c.Content.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Content.APIBaseURL), "/")
	if c.Content.APIBaseURL == "" {
		c.Content.APIBaseURL = defaultContentAPIBaseURL
	}
	c.Content.UploadBaseURL = strings.TrimRight(strings.TrimSpace(c.Content.UploadBaseURL), "/")
	if c.Content.UploadBaseURL == "" {
		c.Content.UploadBaseURL = defaultContentUploadBaseURL
	}
	c.Content.ClientID = envFallback(c.Content.ClientID, "BOX_CLIENT_ID")
	c.Content.ClientSecret = envFallback(c.Content.ClientSecret, "BOX_CLIENT_SECRET")
	c.Content.SharedLinkAccess = strings.ToLower(strings.TrimSpace(c.Content.SharedLinkAccess))
	if c.Content.SharedLinkAccess == "" {
		c.Content.SharedLinkAccess = defaultSharedLinkAccess
	}
	c.Content.ThumbnailsFolderName = strings.TrimSpace(c.Content.ThumbnailsFolderName)
	if c.Content.ThumbnailsFolderName == "" {
		c.Content.ThumbnailsFolderName = defaultThumbnailsFolderName
	}
}

func (c *Config) normalizeGeneration() {
	c.Generation.Backend = strings.ToLower(strings.TrimSpace(c.Generation.Backend))
	if c.Generation.Backend == "" {
		c.Generation.Backend = GenerationBackendBox
	}
	c.Generation.AIFileID = strings.TrimSpace(c.Generation.AIFileID)
	c.Generation.MetadataTemplateKey = strings.TrimSpace(c.Generation.MetadataTemplateKey)
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = envFallback(c.LLM.APIKey, "OPENROUTER_API_KEY")
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		c.LLM.Model = defaultLLMModel
	}
}

func (c *Config) normalizeThumbnail() {
	c.Thumbnail.SegmentationURL = strings.TrimRight(strings.TrimSpace(c.Thumbnail.SegmentationURL), "/")
	c.Thumbnail.SegmentationModel = strings.TrimSpace(c.Thumbnail.SegmentationModel)
	if c.Thumbnail.SegmentationModel == "" {
		c.Thumbnail.SegmentationModel = defaultSegmentationModel
	}
}

func (c *Config) normalizeTracing() {
	c.Tracing.Exporter = strings.ToLower(strings.TrimSpace(c.Tracing.Exporter))
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = TracingExporterNone
	}
	c.Tracing.Endpoint = strings.TrimSpace(c.Tracing.Endpoint)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if value, ok := os.LookupEnv("LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func envFallback(value, key string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	if env, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(env)
	}
	return ""
}
