// Package llm provides an OpenRouter chat client.
//
// The generation backend uses it as an alternative to the content
// platform's AI endpoints: free-text completions for the social and blog
// copy, and JSON-only completions for metadata extraction.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts, receive text.
// Client.CompleteJSON: send system/user prompts, receive a JSON payload.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: tolerant decoding of model JSON (code fences, prose).
//
// Retries follow internal/services/httpretry; empty completions are retried
// as well.
package llm
