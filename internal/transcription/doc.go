// Package transcription moves an admitted recording into the object store,
// submits it to the speech-to-text engine, and records the job so the
// enrichment stage can find the source file when the caption track lands.
//
// The package also hosts LocalEngine, an in-process engine that runs
// whisperx on a bounded worker pool and writes the structured transcript
// before the caption track.
package transcription
