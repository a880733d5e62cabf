// Package box is a small client for the content platform's REST API.
//
// It covers what the pipeline needs: file download and upload (with new
// versions on name conflicts), shared links, folder creation, the AI ask
// and structured-extract endpoints, and document-generation batches.
//
// Requests authenticate through a TokenSource: StaticToken for the
// per-invocation tokens delivered with a webhook, ClientCredentials for the
// client-credentials grant acting as a specific user. Transient failures
// are retried with internal/services/httpretry.
package box
