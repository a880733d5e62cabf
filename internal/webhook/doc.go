// Package webhook serves the inbound skill webhook and the operator API.
//
// POST /skill runs the admission gate and enqueues accepted work items for
// transcription. Responses are plain text. The /api routes expose queue and
// job record maintenance behind an optional bearer token.
package webhook
