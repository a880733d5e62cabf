// Package preflight provides readiness checks for the external services,
// binaries, and filesystem paths reelpress depends on.
//
// These checks run in two contexts:
//   - "reelpress serve" calls RunAll at startup and logs every failure.
//   - "reelpress check" prints each Result, coloured when stdout is a TTY.
//
// Each service check is gated by its config: unconfigured features are
// reported as skipped rather than failed.
package preflight
