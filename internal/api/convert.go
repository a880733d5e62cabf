package api

import (
	"reelpress/internal/job"
	"reelpress/internal/queue"
)

// FromDeadLetter converts a queue dead letter. Undecodable bodies keep only
// the queue metadata.
func FromDeadLetter(dl queue.DeadLetter) DeadLetter {
	out := DeadLetter{
		ID:             dl.ID,
		ReceiveCount:   dl.ReceiveCount,
		LastError:      dl.LastError,
		CreatedAt:      formatTime(dl.CreatedAt),
		DeadLetteredAt: formatTime(dl.DeadLetteredAt),
	}
	if item, err := dl.Item(); err == nil {
		out.RequestID = item.RequestID
		out.FileID = item.FileID
		out.FileName = item.FileName
	}
	return out
}

// FromDeadLetters converts a slice of dead letters.
func FromDeadLetters(items []queue.DeadLetter) []DeadLetter {
	out := make([]DeadLetter, 0, len(items))
	for _, dl := range items {
		out = append(out, FromDeadLetter(dl))
	}
	return out
}

// FromRecord converts a job record, omitting access tokens.
func FromRecord(rec *job.Record) JobRecord {
	if rec == nil {
		return JobRecord{}
	}
	return JobRecord{
		JobID:     rec.JobID,
		JobURI:    rec.JobURI,
		RequestID: rec.RequestID,
		SkillID:   rec.SkillID,
		FileID:    rec.FileID,
		FileName:  rec.FileName,
		FileSize:  rec.FileSize,
		UserID:    rec.UserID,
		FolderID:  rec.FolderID,
		CreatedAt: formatTime(rec.CreatedAt),
	}
}

// FromQueueStats converts queue stats.
func FromQueueStats(s queue.Stats) QueueStats {
	return QueueStats{Ready: s.Ready, InFlight: s.InFlight, DeadLetters: s.DeadLetters}
}
