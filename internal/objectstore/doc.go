// Package objectstore abstracts the recordings and transcripts buckets.
//
// Two backends implement Store: Minio talks to any S3-compatible server and
// turns bucket notifications into artifact events, and Local keeps objects
// under a directory tree and publishes events in-process when an object is
// written. Deletes tolerate missing objects on both backends.
package objectstore
