package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"reelpress/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOX_PRIMARY_KEY", "BOX_SECONDARY_KEY", "BOX_CLIENT_ID", "BOX_CLIENT_SECRET",
		"STORAGE_ACCESS_KEY", "STORAGE_SECRET_KEY", "OPENROUTER_API_KEY", "LOG_LEVEL",
		"REELPRESS_API_TOKEN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "reelpress")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "reelpress.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Server.Bind != "127.0.0.1:7487" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if cfg.Queue.VisibilityTimeoutSeconds != 900 || cfg.Queue.MaxReceives != 3 {
		t.Fatalf("unexpected queue defaults: %+v", cfg.Queue)
	}
	if cfg.DocGen.TimeoutSeconds != 600 || cfg.DocGen.MaxPollIntervalSeconds != 10 {
		t.Fatalf("unexpected docgen defaults: %+v", cfg.DocGen)
	}
	if cfg.Thumbnail.Width != 1920 || cfg.Thumbnail.Height != 1080 || !cfg.Thumbnail.PreserveLighting {
		t.Fatalf("unexpected thumbnail defaults: %+v", cfg.Thumbnail)
	}
	if cfg.Transcription.DedupeSubmissions {
		t.Fatal("expected submission dedupe disabled by default")
	}
	if cfg.Content.SharedLinkAccess != "company" {
		t.Fatalf("unexpected shared link access: %q", cfg.Content.SharedLinkAccess)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.WorkDir, cfg.Storage.LocalRoot} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "reelpress.toml")

	type payload struct {
		Queue struct {
			MaxReceives int `toml:"max_receives"`
		} `toml:"queue"`
		Storage struct {
			RecordingsBucket string `toml:"recordings_bucket"`
		} `toml:"storage"`
		Generation struct {
			Backend string `toml:"backend"`
		} `toml:"generation"`
	}
	custom := payload{}
	custom.Queue.MaxReceives = 5
	custom.Storage.RecordingsBucket = "videos"
	custom.Generation.Backend = "LLM"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Queue.MaxReceives != 5 {
		t.Fatalf("expected max receives 5, got %d", cfg.Queue.MaxReceives)
	}
	if cfg.Storage.RecordingsBucket != "videos" {
		t.Fatalf("unexpected recordings bucket %q", cfg.Storage.RecordingsBucket)
	}
	if cfg.Generation.Backend != config.GenerationBackendLLM {
		t.Fatalf("expected normalized llm backend, got %q", cfg.Generation.Backend)
	}
}

func TestEnvFallbacksFillMissingSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BOX_PRIMARY_KEY", "primary")
	t.Setenv("BOX_SECONDARY_KEY", "secondary")
	t.Setenv("BOX_CLIENT_ID", "client")
	t.Setenv("BOX_CLIENT_SECRET", "secret")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Webhook.PrimaryKey != "primary" || cfg.Webhook.SecondaryKey != "secondary" {
		t.Fatalf("unexpected webhook keys: %+v", cfg.Webhook)
	}
	if cfg.Content.ClientID != "client" || cfg.Content.ClientSecret != "secret" {
		t.Fatalf("unexpected content credentials: %+v", cfg.Content)
	}
	if cfg.LLM.APIKey != "or-key" {
		t.Fatalf("unexpected llm key %q", cfg.LLM.APIKey)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected LOG_LEVEL to apply, got %q", cfg.Logging.Level)
	}
}

func TestConfigFileValueWinsOverEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOX_PRIMARY_KEY", "from-env")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[webhook]\nprimary_key = \"from-file\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Webhook.PrimaryKey != "from-file" {
		t.Fatalf("expected file value, got %q", cfg.Webhook.PrimaryKey)
	}
}

func TestDotEnvNextToConfigIsLoaded(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nformat = \"json\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BOX_PRIMARY_KEY=dotenv-key\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("BOX_PRIMARY_KEY") })

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Webhook.PrimaryKey != "dotenv-key" {
		t.Fatalf("expected key from .env, got %q", cfg.Webhook.PrimaryKey)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format %q", cfg.Logging.Format)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"queue.max_receives": func(c *config.Config) { c.Queue.MaxReceives = 0 },
		"storage.backend":    func(c *config.Config) { c.Storage.Backend = "ftp" },
		"storage.endpoint": func(c *config.Config) {
			c.Storage.Backend = config.StorageBackendMinio
		},
		"must differ":                             func(c *config.Config) { c.Storage.TranscriptsBucket = c.Storage.RecordingsBucket },
		"generation.backend":                      func(c *config.Config) { c.Generation.Backend = "gpt" },
		"docgen.max_poll_interval_seconds":        func(c *config.Config) { c.DocGen.MaxPollIntervalSeconds = 0 },
		"thumbnail.width":                         func(c *config.Config) { c.Thumbnail.Width = 0 },
		"tracing.endpoint":                        func(c *config.Config) { c.Tracing.Exporter = config.TracingExporterOTLPHTTP },
		"logging.format":                          func(c *config.Config) { c.Logging.Format = "xml" },
		"enrichment.concurrency must be positive": func(c *config.Config) { c.Enrichment.Concurrency = 0 },
	}
	for want, mutate := range cases {
		cfg := config.Default()
		mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("expected validation error containing %q", want)
		}
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error containing %q, got %v", want, err)
		}
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Thumbnail.FrameCount != 10 {
		t.Fatalf("unexpected frame count %d", cfg.Thumbnail.FrameCount)
	}
}
