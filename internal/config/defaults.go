package config

const (
	defaultConfigPath               = "~/.config/reelpress/config.toml"
	defaultDataDir                  = "~/.local/share/reelpress"
	defaultLogDir                   = "~/.local/share/reelpress/logs"
	defaultWorkDir                  = "~/.cache/reelpress/work"
	defaultLocalStorageRoot         = "~/.local/share/reelpress/objects"
	defaultBind                     = "127.0.0.1:7487"
	defaultReadTimeoutSeconds       = 30
	defaultVisibilityTimeoutSeconds = 900
	defaultMaxReceives              = 3
	defaultPollIntervalSeconds      = 5
	defaultBatchSize                = 10
	defaultQueueConcurrency         = 4
	defaultRecordingsBucket         = "recordings"
	defaultTranscriptsBucket        = "transcripts"
	defaultContentAPIBaseURL        = "https://api.box.com"
	defaultContentUploadBaseURL     = "https://upload.box.com/api"
	defaultSharedLinkAccess         = "company"
	defaultThumbnailsFolderName     = "thumbnails"
	defaultContentTimeoutSeconds    = 120
	defaultLLMBaseURL               = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel                 = "google/gemini-3-flash-preview"
	defaultLLMReferer               = "https://github.com/reelpress/reelpress"
	defaultLLMTitle                 = "reelpress"
	defaultLLMTimeoutSeconds        = 120
	defaultDocGenTimeoutSeconds     = 600
	defaultDocGenPollSeconds        = 1
	defaultDocGenMaxPollSeconds     = 10
	defaultTranscriptionLanguage    = "en-US"
	defaultWhisperXModel            = "large-v3"
	defaultTranscriptionConcurrency = 1
	defaultSegmentationURL          = "http://127.0.0.1:7000"
	defaultSegmentationModel        = "u2net"
	defaultThumbnailWidth           = 1920
	defaultThumbnailHeight          = 1080
	defaultThumbnailFrameCount      = 10
	defaultSampleWindowSeconds      = 10
	defaultRecordGraceSeconds       = 30
	defaultEnrichmentConcurrency    = 2
	defaultEnrichmentTimeoutSeconds = 1800
	defaultNotifyRequestTimeout     = 10
	defaultTracingSampleRatio       = 1.0
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

// Storage backends.
const (
	StorageBackendLocal = "local"
	StorageBackendMinio = "minio"
)

// Generation backends.
const (
	GenerationBackendBox = "box"
	GenerationBackendLLM = "llm"
)

// Tracing exporters.
const (
	TracingExporterNone     = "none"
	TracingExporterStdout   = "stdout"
	TracingExporterOTLPHTTP = "otlphttp"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			WorkDir: defaultWorkDir,
		},
		Server: Server{
			Bind:               defaultBind,
			ReadTimeoutSeconds: defaultReadTimeoutSeconds,
		},
		Queue: Queue{
			VisibilityTimeoutSeconds: defaultVisibilityTimeoutSeconds,
			MaxReceives:              defaultMaxReceives,
			PollIntervalSeconds:      defaultPollIntervalSeconds,
			BatchSize:                defaultBatchSize,
			Concurrency:              defaultQueueConcurrency,
		},
		Storage: Storage{
			Backend:           StorageBackendLocal,
			RecordingsBucket:  defaultRecordingsBucket,
			TranscriptsBucket: defaultTranscriptsBucket,
			LocalRoot:         defaultLocalStorageRoot,
		},
		Content: Content{
			APIBaseURL:           defaultContentAPIBaseURL,
			UploadBaseURL:        defaultContentUploadBaseURL,
			SharedLinkAccess:     defaultSharedLinkAccess,
			ThumbnailsFolderName: defaultThumbnailsFolderName,
			TimeoutSeconds:       defaultContentTimeoutSeconds,
		},
		Generation: Generation{
			Backend: GenerationBackendBox,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		DocGen: DocGen{
			TimeoutSeconds:         defaultDocGenTimeoutSeconds,
			PollIntervalSeconds:    defaultDocGenPollSeconds,
			MaxPollIntervalSeconds: defaultDocGenMaxPollSeconds,
		},
		Transcription: Transcription{
			Language:      defaultTranscriptionLanguage,
			WhisperXModel: defaultWhisperXModel,
			Concurrency:   defaultTranscriptionConcurrency,
		},
		Thumbnail: Thumbnail{
			SegmentationURL:     defaultSegmentationURL,
			SegmentationModel:   defaultSegmentationModel,
			Width:               defaultThumbnailWidth,
			Height:              defaultThumbnailHeight,
			FrameCount:          defaultThumbnailFrameCount,
			SampleWindowSeconds: defaultSampleWindowSeconds,
			PreserveLighting:    true,
		},
		Enrichment: Enrichment{
			RecordGraceSeconds: defaultRecordGraceSeconds,
			Concurrency:        defaultEnrichmentConcurrency,
			TimeoutSeconds:     defaultEnrichmentTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout:        defaultNotifyRequestTimeout,
			DeadLetter:            true,
			EnrichmentFailures:    true,
			TranscriptionFailures: true,
		},
		Tracing: Tracing{
			Exporter:    TracingExporterNone,
			SampleRatio: defaultTracingSampleRatio,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
