// Package database opens the reelpress sqlite database and applies its
// embedded schema migrations.
//
// The queue and job record stores share a single *DB. Write helpers retry on
// SQLITE_BUSY with a short capped backoff so concurrent workers in the same
// process do not surface lock contention as failures.
package database
