// Package api defines wire-format types and the read/maintenance service
// shared by the HTTP admin endpoints and the CLI.
//
// DTOs use camelCase JSON tags. Access tokens carried on job records are
// never exposed. Timestamps use RFC3339 with milliseconds.
package api
