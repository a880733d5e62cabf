package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"reelpress/internal/logging"
)

// MinioConfig holds S3 connection settings.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Minio is an S3-compatible Store.
type Minio struct {
	client *minio.Client
	logger *slog.Logger
}

// NewMinio connects to an S3-compatible endpoint.
func NewMinio(cfg MinioConfig, logger *slog.Logger) (*Minio, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Minio{client: client, logger: logging.NewComponentLogger(logger, "objectstore")}, nil
}

// EnsureBucket creates bucket if it does not exist.
func (m *Minio) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// Put uploads the object.
func (m *Minio) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := m.client.PutObject(ctx, bucket, key, r, size, opts); err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Get streams the object body.
func (m *Minio) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, m.mapError(bucket, key, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, m.mapError(bucket, key, err)
	}
	return obj, nil
}

// Delete removes the object. S3 deletes of missing keys succeed.
func (m *Minio) Delete(ctx context.Context, bucket, key string) error {
	err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Watch listens for s3:ObjectCreated notifications under prefix.
func (m *Minio) Watch(ctx context.Context, bucket, prefix string) (<-chan Event, error) {
	notifications := m.client.ListenBucketNotification(ctx, bucket, prefix, "", []string{"s3:ObjectCreated:*"})
	out := make(chan Event)
	go func() {
		defer close(out)
		for info := range notifications {
			if info.Err != nil {
				logging.WarnWithContext(m.logger, "bucket notification error", "objectstore_watch_error",
					logging.String("bucket", bucket),
					logging.Error(info.Err),
				)
				continue
			}
			for _, record := range info.Records {
				key, err := url.QueryUnescape(record.S3.Object.Key)
				if err != nil {
					key = record.S3.Object.Key
				}
				ev := Event{Bucket: record.S3.Bucket.Name, Key: key}
				if ev.Bucket == "" {
					ev.Bucket = bucket
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *Minio) mapError(bucket, key string, err error) error {
	if isMinioNotFound(err) {
		return fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
	}
	return fmt.Errorf("get object %s/%s: %w", bucket, key, err)
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
