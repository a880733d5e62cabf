// Package httpretry holds the retry policy shared by the HTTP service
// clients.
//
// Requests are retried on HTTP 408/429/5xx responses and network timeouts
// with exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// A Retry-After header overrides the computed delay, capped at the maximum.
// Context cancellation aborts retries immediately.
package httpretry
