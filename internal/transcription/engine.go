package transcription

import (
	"context"
	"strings"
)

// JobStatus is the engine's view of a submitted job.
type JobStatus string

const (
	StatusQueued     JobStatus = "QUEUED"
	StatusInProgress JobStatus = "IN_PROGRESS"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// KeyPrefix is the transcripts bucket prefix every artifact is written under.
const KeyPrefix = "transcriptions/"

const (
	transcriptExt = ".json"
	captionExt    = ".srt"
)

// Request describes one transcription submission.
type Request struct {
	JobName  string
	MediaURI string
	Language string
	// OutputBucket receives KeyPrefix+JobName+".json" then ".srt".
	OutputBucket string
}

// Handle identifies an accepted submission.
type Handle struct {
	JobName string
	Status  JobStatus
}

// Engine runs speech-to-text jobs asynchronously.
type Engine interface {
	Submit(ctx context.Context, req Request) (Handle, error)
	Status(ctx context.Context, jobName string) (JobStatus, error)
}

// TranscriptKey returns the structured transcript location for jobName.
func TranscriptKey(jobName string) string {
	return KeyPrefix + jobName + transcriptExt
}

// CaptionKey returns the caption track location for jobName.
func CaptionKey(jobName string) string {
	return KeyPrefix + jobName + captionExt
}

// IsCaptionKey reports whether key is a caption track written by an engine.
func IsCaptionKey(key string) bool {
	return strings.HasPrefix(key, KeyPrefix) && strings.HasSuffix(key, captionExt)
}

// JobNameFromKey strips the artifact prefix and extension from key.
func JobNameFromKey(key string) string {
	name := strings.TrimPrefix(key, KeyPrefix)
	for _, ext := range []string{captionExt, transcriptExt} {
		if trimmed, ok := strings.CutSuffix(name, ext); ok {
			return trimmed
		}
	}
	return name
}
