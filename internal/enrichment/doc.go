// Package enrichment reacts to finished caption tracks. For each one it
// publishes shared links, generates the written content and the summary
// document, extracts thumbnails, and then removes the job's working state.
//
// Enrichment runs once per caption artifact. A run that fails before the
// document is generated keeps its job record so an operator can retry it with
// `reelpress enrich <job_id>`.
package enrichment
