// Package worker runs the background halves of the pipeline: the queue
// consumer that hands admitted work items to the transcription stage, and
// the artifact listener that triggers enrichment when a caption track lands
// in the transcripts bucket.
//
// Both loops stop polling when their context is cancelled but let in-flight
// runs finish on a detached context bounded by the stage's own timeout.
// Worker ties them together under a gofrs/flock lock so only one process
// consumes a given sqlite database.
//
// Once the lock is held, Worker can run a resume pass: transcriptions lost
// with a previous process are resubmitted, and job records whose caption
// track already exists are redelivered to the listener.
package worker
