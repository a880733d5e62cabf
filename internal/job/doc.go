// Package job defines the work item carried on the transcription queue and
// the job record that links a submitted transcription back to its source
// file. Both types validate on construction and on decode.
package job
