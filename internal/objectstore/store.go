package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"reelpress/internal/services"
)

// ErrNotFound is returned by Get when the object does not exist.
var ErrNotFound = fmt.Errorf("object: %w", services.ErrNotFound)

// Event reports a newly created object.
type Event struct {
	Bucket string
	Key    string
}

// Store is the object storage surface the stages depend on.
type Store interface {
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket, key string) error
	// Watch streams creation events for keys under prefix until ctx ends.
	Watch(ctx context.Context, bucket, prefix string) (<-chan Event, error)
}

// PutBytes stores data under bucket/key.
func PutBytes(ctx context.Context, store Store, bucket, key string, data []byte, contentType string) error {
	return store.Put(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), contentType)
}

// ReadAll fetches the full object body.
func ReadAll(ctx context.Context, store Store, bucket, key string) ([]byte, error) {
	rc, err := store.Get(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// Exists reports whether bucket/key is present.
func Exists(ctx context.Context, store Store, bucket, key string) (bool, error) {
	rc, err := store.Get(ctx, bucket, key)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	rc.Close()
	return true, nil
}

// IsNotFound reports whether err means the object is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// VideosPrefix routes a key to the recordings bucket in DeleteRouted.
const VideosPrefix = "videos/"

// DeleteRouted deletes key from the transcripts bucket, except keys under
// VideosPrefix which are deleted from the recordings bucket with the prefix
// stripped.
func DeleteRouted(ctx context.Context, store Store, recordingsBucket, transcriptsBucket, key string) error {
	if rest, ok := strings.CutPrefix(key, VideosPrefix); ok {
		return store.Delete(ctx, recordingsBucket, rest)
	}
	return store.Delete(ctx, transcriptsBucket, key)
}

// S3URI renders the canonical locator for an object.
func S3URI(bucket, key string) string {
	return "s3://" + bucket + "/" + key
}

// ParseS3URI splits an s3:// locator into bucket and key.
func ParseS3URI(uri string) (string, string, error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri missing bucket or key: %q", uri)
	}
	return bucket, key, nil
}
