// Package jobstore persists job records in the sqlite job_records table.
//
// A record exists from the moment a transcription is submitted until
// enrichment cleans it up. TranscriptionStage is the only writer and
// EnrichmentStage the only reader and deleter for a given job id.
package jobstore
