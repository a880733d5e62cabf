package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	WorkDir string `toml:"work_dir"`
}

// Server contains the HTTP listener settings for the webhook and admin API.
type Server struct {
	Bind               string `toml:"bind"`
	APIToken           string `toml:"api_token"`
	ReadTimeoutSeconds int    `toml:"read_timeout_seconds"`
}

// Webhook contains the signing keys shared with the content platform.
type Webhook struct {
	PrimaryKey   string `toml:"primary_key"`
	SecondaryKey string `toml:"secondary_key"`
}

// Queue contains lease and consumer settings for the transcription queue.
type Queue struct {
	VisibilityTimeoutSeconds int `toml:"visibility_timeout_seconds"`
	MaxReceives              int `toml:"max_receives"`
	PollIntervalSeconds      int `toml:"poll_interval_seconds"`
	BatchSize                int `toml:"batch_size"`
	Concurrency              int `toml:"concurrency"`
}

// Storage contains object store settings.
type Storage struct {
	Backend           string `toml:"backend"`
	Endpoint          string `toml:"endpoint"`
	AccessKey         string `toml:"access_key"`
	SecretKey         string `toml:"secret_key"`
	UseSSL            bool   `toml:"use_ssl"`
	RecordingsBucket  string `toml:"recordings_bucket"`
	TranscriptsBucket string `toml:"transcripts_bucket"`
	LocalRoot         string `toml:"local_root"`
}

// Content contains the content-management API connection settings.
type Content struct {
	APIBaseURL           string `toml:"api_base_url"`
	UploadBaseURL        string `toml:"upload_base_url"`
	ClientID             string `toml:"client_id"`
	ClientSecret         string `toml:"client_secret"`
	SharedLinkAccess     string `toml:"shared_link_access"`
	ThumbnailsFolderName string `toml:"thumbnails_folder_name"`
	TimeoutSeconds       int    `toml:"timeout_seconds"`
}

// Generation selects and configures the content generation backend.
type Generation struct {
	Backend             string `toml:"backend"`
	AIFileID            string `toml:"ai_file_id"`
	MetadataTemplateKey string `toml:"metadata_template_key"`
	BlogAgentID         string `toml:"blog_agent_id"`
	TweetAgentID        string `toml:"tweet_agent_id"`
	LinkedInAgentID     string `toml:"linkedin_agent_id"`
	YouTubeAgentID      string `toml:"youtube_agent_id"`
}

// LLM contains OpenRouter-compatible connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// DocGen contains document generation settings.
type DocGen struct {
	TemplateID             string `toml:"template_id"`
	TimeoutSeconds         int    `toml:"timeout_seconds"`
	PollIntervalSeconds    int    `toml:"poll_interval_seconds"`
	MaxPollIntervalSeconds int    `toml:"max_poll_interval_seconds"`
}

// Transcription contains speech-to-text engine settings.
type Transcription struct {
	Language            string `toml:"language"`
	WhisperXModel       string `toml:"whisperx_model"`
	WhisperXCUDAEnabled bool   `toml:"whisperx_cuda_enabled"`
	Concurrency         int    `toml:"concurrency"`
	DedupeSubmissions   bool   `toml:"dedupe_submissions"`
}

// Thumbnail contains thumbnail extraction settings.
type Thumbnail struct {
	SegmentationURL     string `toml:"segmentation_url"`
	SegmentationModel   string `toml:"segmentation_model"`
	Width               int    `toml:"width"`
	Height              int    `toml:"height"`
	FrameCount          int    `toml:"frame_count"`
	SampleWindowSeconds int    `toml:"sample_window_seconds"`
	PreserveLighting    bool   `toml:"preserve_lighting"`
}

// Enrichment contains artifact listener settings.
type Enrichment struct {
	RecordGraceSeconds int `toml:"record_grace_seconds"`
	Concurrency        int `toml:"concurrency"`
	TimeoutSeconds     int `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeout        int    `toml:"request_timeout"`
	DeadLetter            bool   `toml:"dead_letter"`
	EnrichmentFailures    bool   `toml:"enrichment_failures"`
	TranscriptionFailures bool   `toml:"transcription_failures"`
}

// Tracing contains OpenTelemetry exporter settings.
type Tracing struct {
	Exporter    string  `toml:"exporter"`
	Endpoint    string  `toml:"endpoint"`
	SampleRatio float64 `toml:"sample_ratio"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelpress.
//
// Configuration sections by subsystem:
//   - Paths: database, log, and scratch directories
//   - Server / Webhook: HTTP listener and signing keys
//   - Queue: lease, retry budget, and consumer pacing
//   - Storage: recordings and transcripts buckets
//   - Content / Generation / LLM / DocGen: content platform collaborators
//   - Transcription / Thumbnail / Enrichment: stage tuning
//   - Notifications / Tracing / Logging: operator surfaces
type Config struct {
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	Webhook       Webhook       `toml:"webhook"`
	Queue         Queue         `toml:"queue"`
	Storage       Storage       `toml:"storage"`
	Content       Content       `toml:"content"`
	Generation    Generation    `toml:"generation"`
	LLM           LLM           `toml:"llm"`
	DocGen        DocGen        `toml:"docgen"`
	Transcription Transcription `toml:"transcription"`
	Thumbnail     Thumbnail     `toml:"thumbnail"`
	Enrichment    Enrichment    `toml:"enrichment"`
	Notifications Notifications `toml:"notifications"`
	Tracing       Tracing       `toml:"tracing"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(resolvedPath); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv loads .env files next to the config file and in the working
// directory. Variables already present in the environment win.
func loadDotEnv(configPath string) error {
	candidates := []string{}
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ".env"))
	}
	seen := map[string]struct{}{}
	for _, candidate := range candidates {
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(candidate); err != nil {
			return fmt.Errorf("load %s: %w", candidate, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelpress.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.WorkDir}
	if c.Storage.Backend == StorageBackendLocal {
		dirs = append(dirs, c.Storage.LocalRoot)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the sqlite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "reelpress.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "reelpress.lock")
}

// FFprobeBinary returns the ffprobe executable name.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// VisibilityTimeout returns the queue lease duration.
func (c *Config) VisibilityTimeout() time.Duration {
	return time.Duration(c.Queue.VisibilityTimeoutSeconds) * time.Second
}

// PollInterval returns the queue polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Queue.PollIntervalSeconds) * time.Second
}

// RecordGrace returns how long enrichment waits for a job record to appear.
func (c *Config) RecordGrace() time.Duration {
	return time.Duration(c.Enrichment.RecordGraceSeconds) * time.Second
}

// EnrichmentTimeout bounds a single enrichment run.
func (c *Config) EnrichmentTimeout() time.Duration {
	return time.Duration(c.Enrichment.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the resolved LLM connection settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the shared LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
