package job

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"reelpress/internal/services"
)

// WorkItem is the admitted unit of work for one source file.
type WorkItem struct {
	RequestID      string `json:"request_id"`
	SkillID        string `json:"skill_id"`
	FileID         string `json:"file_id"`
	FileName       string `json:"file_name"`
	FileSize       int64  `json:"file_size"`
	FileReadToken  string `json:"file_read_token"`
	FileWriteToken string `json:"file_write_token"`
	UserID         string `json:"user_id"`
	FolderID       string `json:"folder_id"`
}

// Validate reports missing identifiers. A zero file size is allowed.
func (w WorkItem) Validate() error {
	missing := make([]string, 0, 4)
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("request_id", w.RequestID)
	check("skill_id", w.SkillID)
	check("file_id", w.FileID)
	check("file_name", w.FileName)
	check("file_read_token", w.FileReadToken)
	check("file_write_token", w.FileWriteToken)
	check("user_id", w.UserID)
	check("folder_id", w.FolderID)
	if len(missing) > 0 {
		return services.Wrap(services.ErrValidation, "job", "validate work item", "missing "+strings.Join(missing, ", "), nil)
	}
	if w.FileSize < 0 {
		return services.Wrap(services.ErrValidation, "job", "validate work item", fmt.Sprintf("negative file_size %d", w.FileSize), nil)
	}
	return nil
}

// Encode serializes the item for the queue body.
func (w WorkItem) Encode() ([]byte, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// DecodeWorkItem parses and validates a queue body.
func DecodeWorkItem(data []byte) (WorkItem, error) {
	var item WorkItem
	if err := json.Unmarshal(data, &item); err != nil {
		return WorkItem{}, services.Wrap(services.ErrValidation, "job", "decode work item", "invalid JSON", err)
	}
	if err := item.Validate(); err != nil {
		return WorkItem{}, err
	}
	return item, nil
}

// Record persists the link between a transcription job and its source file.
type Record struct {
	WorkItem
	JobID          string
	JobURI         string
	IdempotencyKey string
	CreatedAt      time.Time
}

// NewRecord builds a validated record for item.
func NewRecord(item WorkItem, jobID, jobURI string, now time.Time) (*Record, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	rec := &Record{
		WorkItem:  item,
		JobID:     strings.TrimSpace(jobID),
		JobURI:    strings.TrimSpace(jobURI),
		CreatedAt: now.UTC(),
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Validate reports a record that cannot be stored.
func (r *Record) Validate() error {
	if r == nil {
		return services.Wrap(services.ErrValidation, "job", "validate record", "record is nil", nil)
	}
	if err := r.WorkItem.Validate(); err != nil {
		return err
	}
	if r.JobID == "" {
		return services.Wrap(services.ErrValidation, "job", "validate record", "missing job_id", nil)
	}
	if r.JobURI == "" {
		return services.Wrap(services.ErrValidation, "job", "validate record", "missing job_uri", nil)
	}
	return nil
}

// FileSizeText renders the file size the way the record table stores it.
func (r *Record) FileSizeText() string {
	return strconv.FormatInt(r.FileSize, 10)
}
