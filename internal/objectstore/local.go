package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Local stores objects as files under Root/<bucket>/<key>.
type Local struct {
	root string

	mu       sync.Mutex
	watchers map[*localWatcher]struct{}
}

// localWatcher queues matching events without bound so a slow reader never
// loses a creation event.
type localWatcher struct {
	bucket string
	prefix string

	mu      sync.Mutex
	pending []Event
	wake    chan struct{}
}

func (w *localWatcher) push(ev Event) {
	w.mu.Lock()
	w.pending = append(w.pending, ev)
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *localWatcher) take() (Event, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return Event{}, false
	}
	ev := w.pending[0]
	w.pending[0] = Event{}
	w.pending = w.pending[1:]
	return ev, true
}

// NewLocal creates a filesystem-backed store rooted at root.
func NewLocal(root string) (*Local, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("local object store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create object store root: %w", err)
	}
	return &Local{root: root, watchers: map[*localWatcher]struct{}{}}, nil
}

// Root returns the base directory.
func (l *Local) Root() string { return l.root }

// EnsureBucket creates the bucket directory.
func (l *Local) EnsureBucket(_ context.Context, bucket string) error {
	dir, err := l.bucketDir(bucket)
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// Put writes the object through a temp file and publishes a creation event.
func (l *Local) Put(ctx context.Context, bucket, key string, r io.Reader, _ int64, _ string) error {
	path, err := l.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write object %s/%s: %w", bucket, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close object %s/%s: %w", bucket, key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit object %s/%s: %w", bucket, key, err)
	}
	l.publish(ctx, Event{Bucket: bucket, Key: key})
	return nil
}

// Get opens the object for reading.
func (l *Local) Get(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	path, err := l.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open object %s/%s: %w", bucket, key, err)
	}
	return f, nil
}

// Delete removes the object. Missing objects are ignored.
func (l *Local) Delete(_ context.Context, bucket, key string) error {
	path, err := l.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Watch subscribes to Put events for bucket keys under prefix. Events
// published while the reader is busy are queued, not dropped.
func (l *Local) Watch(ctx context.Context, bucket, prefix string) (<-chan Event, error) {
	w := &localWatcher{bucket: bucket, prefix: prefix, wake: make(chan struct{}, 1)}
	l.mu.Lock()
	l.watchers[w] = struct{}{}
	l.mu.Unlock()

	out := make(chan Event)
	go func() {
		defer close(out)
		defer func() {
			l.mu.Lock()
			delete(l.watchers, w)
			l.mu.Unlock()
		}()
		for {
			ev, ok := w.take()
			if !ok {
				select {
				case <-ctx.Done():
					return
				case <-w.wake:
				}
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (l *Local) publish(_ context.Context, ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for w := range l.watchers {
		if w.bucket != ev.Bucket || !strings.HasPrefix(ev.Key, w.prefix) {
			continue
		}
		w.push(ev)
	}
}

func (l *Local) bucketDir(bucket string) (string, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("invalid bucket name %q", bucket)
	}
	return filepath.Join(l.root, bucket), nil
}

func (l *Local) objectPath(bucket, key string) (string, error) {
	dir, err := l.bucketDir(bucket)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(key) == "" {
		return "", errors.New("object key is required")
	}
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	return filepath.Join(dir, clean), nil
}
