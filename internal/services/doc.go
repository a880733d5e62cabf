// Package services defines shared utilities consumed by the pipeline stages
// and the external integrations under services/.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, job IDs, file IDs, and stage
//     names so logs and spans carry the originating webhook identity.
//   - Structured error markers plus the Wrap helper, and Disposition which
//     tells the queue consumer whether a failed delivery should be redelivered
//     or dropped.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
