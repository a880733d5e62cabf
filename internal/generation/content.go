package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"reelpress/internal/logging"
	"reelpress/internal/services"
)

// Unknown is the placeholder for metadata the backend did not produce.
const Unknown = "unknown"

// Metadata describes the recording.
type Metadata struct {
	Topic        string
	Author       string
	Provider     string
	Model        string
	Technologies string
	Title        string
	Tags         string
}

// Content is everything generated for one recording.
type Content struct {
	Metadata           Metadata
	Blog               string
	Tweet              string
	LinkedIn           string
	YouTubeDescription string
}

// Backend answers generation calls.
type Backend interface {
	// Ask runs a text call with content attached.
	Ask(ctx context.Context, call Call, content string) (string, error)
	// Extract returns metadata fields for content.
	Extract(ctx context.Context, content string) (map[string]any, error)
}

// Input carries the two transcript renditions. The YouTube description is
// asked against the per-second rendition; every other call uses the plain
// transcript.
type Input struct {
	Transcript  string
	WithSeconds string
}

// Enrich runs the five generation calls concurrently. A failed call is
// logged and leaves its field at the default; Enrich itself never fails.
func Enrich(ctx context.Context, backend Backend, in Input, logger *slog.Logger) Content {
	if logger == nil {
		logger = logging.NewNop()
	}
	var (
		wg       sync.WaitGroup
		metadata map[string]any
		texts    = map[Call]string{}
		mu       sync.Mutex
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		fields, err := backend.Extract(ctx, in.Transcript)
		if err != nil {
			logFailure(logger, CallMetadata, err)
			return
		}
		metadata = fields
	}()

	for _, call := range []Call{CallBlog, CallTweet, CallLinkedIn, CallYouTube} {
		content := in.Transcript
		if call == CallYouTube {
			content = in.WithSeconds
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := backend.Ask(ctx, call, content)
			if err != nil {
				logFailure(logger, call, err)
				return
			}
			mu.Lock()
			texts[call] = text
			mu.Unlock()
		}()
	}
	wg.Wait()

	return Content{
		Metadata:           MetadataFrom(metadata),
		Blog:               cleanText(texts[CallBlog]),
		Tweet:              cleanText(texts[CallTweet]),
		LinkedIn:           cleanText(texts[CallLinkedIn]),
		YouTubeDescription: cleanText(texts[CallYouTube]),
	}
}

func logFailure(logger *slog.Logger, call Call, err error) {
	logging.ErrorWithContext(logger, "generation call failed", "generation_failed", err,
		"content is published with defaults for this field",
		logging.String("call", string(call)),
	)
}

// MetadataFrom maps extracted fields onto Metadata, substituting Unknown
// for missing or empty values.
func MetadataFrom(fields map[string]any) Metadata {
	return Metadata{
		Topic:        field(fields, "topic"),
		Author:       field(fields, "author"),
		Provider:     field(fields, "provider"),
		Model:        field(fields, "model"),
		Technologies: field(fields, "technologies"),
		Title:        field(fields, "title"),
		Tags:         field(fields, "tags"),
	}
}

func field(fields map[string]any, key string) string {
	value := strings.TrimSpace(stringify(fields[key]))
	if value == "" {
		return Unknown
	}
	return value
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(stringify(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

// cleanText swaps double quotes for single quotes so the text can sit inside
// template JSON strings untouched.
func cleanText(s string) string {
	return strings.ReplaceAll(s, `"`, `'`)
}

func wrapCall(call Call, err error) error {
	return services.Wrap(services.ErrExternalTool, "generation", string(call), "backend call failed", err)
}
