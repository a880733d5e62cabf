// Package main hosts the reelpress CLI entrypoint and command graph.
//
// "reelpress serve" runs the webhook server, the queue worker, and the
// artifact listener in one process. The remaining commands operate on the
// same sqlite database and object store directly: queue inspection and
// redrive, job record maintenance, manual enrichment retries, local
// thumbnail extraction, preflight checks, and configuration scaffolding.
//
// Keep this package lean: wiring lives in pipeline.go and every command
// delegates to the internal packages.
package main
