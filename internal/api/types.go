package api

import "time"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueStats summarizes queue depth.
type QueueStats struct {
	Ready       int `json:"ready"`
	InFlight    int `json:"inFlight"`
	DeadLetters int `json:"deadLetters"`
}

// DeadLetter describes a message that exhausted its receive budget.
type DeadLetter struct {
	ID             int64  `json:"id"`
	RequestID      string `json:"requestId,omitempty"`
	FileID         string `json:"fileId,omitempty"`
	FileName       string `json:"fileName,omitempty"`
	ReceiveCount   int    `json:"receiveCount"`
	LastError      string `json:"lastError,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	DeadLetteredAt string `json:"deadLetteredAt,omitempty"`
}

// JobRecord describes a pending job record.
type JobRecord struct {
	JobID        string `json:"jobId"`
	JobURI       string `json:"jobUri"`
	RequestID    string `json:"requestId"`
	SkillID      string `json:"skillId"`
	FileID       string `json:"fileId"`
	FileName     string `json:"fileName"`
	FileSize     int64  `json:"fileSize"`
	UserID       string `json:"userId"`
	FolderID     string `json:"folderId"`
	CreatedAt    string `json:"createdAt,omitempty"`
	EngineStatus string `json:"engineStatus,omitempty"`
}

// RedriveResponse reports how many dead letters were requeued.
type RedriveResponse struct {
	Redriven int `json:"redriven"`
}

// PurgeResponse reports how many dead letters were removed.
type PurgeResponse struct {
	Purged int `json:"purged"`
}

// JobListResponse wraps job record listings.
type JobListResponse struct {
	Jobs []JobRecord `json:"jobs"`
}

// DeadLetterListResponse wraps dead-letter listings.
type DeadLetterListResponse struct {
	DeadLetters []DeadLetter `json:"deadLetters"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
