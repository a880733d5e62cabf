package objectstore

import (
	"context"
	"fmt"
	"log/slog"

	"reelpress/internal/config"
)

// BucketEnsurer is implemented by backends that can create buckets.
type BucketEnsurer interface {
	EnsureBucket(ctx context.Context, bucket string) error
}

// Open builds the configured backend and ensures both buckets exist.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	var store Store
	switch cfg.Storage.Backend {
	case config.StorageBackendMinio:
		m, err := NewMinio(MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
		}, logger)
		if err != nil {
			return nil, err
		}
		store = m
	case config.StorageBackendLocal, "":
		l, err := NewLocal(cfg.Storage.LocalRoot)
		if err != nil {
			return nil, err
		}
		store = l
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
	if ensurer, ok := store.(BucketEnsurer); ok {
		for _, bucket := range []string{cfg.Storage.RecordingsBucket, cfg.Storage.TranscriptsBucket} {
			if err := ensurer.EnsureBucket(ctx, bucket); err != nil {
				return nil, err
			}
		}
	}
	return store, nil
}
