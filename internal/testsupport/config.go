package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reelpress/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Storage.Backend = config.StorageBackendLocal
	cfgVal.Storage.LocalRoot = filepath.Join(base, "objects")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Webhook.PrimaryKey = "primary-test-key"
	cfgVal.Webhook.SecondaryKey = "secondary-test-key"
	cfgVal.Enrichment.RecordGraceSeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWebhookKeys overrides the signing keys on the test config.
func WithWebhookKeys(primary, secondary string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Webhook.PrimaryKey = primary
		b.cfg.Webhook.SecondaryKey = secondary
	}
}

// WithContentBaseURL points the content API and upload endpoints at url.
func WithContentBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Content.APIBaseURL = url
		b.cfg.Content.UploadBaseURL = url
		b.cfg.Content.ClientID = "client-id"
		b.cfg.Content.ClientSecret = "client-secret"
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default reelpress external
// binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "uvx"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
