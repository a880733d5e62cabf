// Package transcript models the structured transcript written by the
// transcription engine and renders the derived text forms: plain text,
// the second-labelled reading transcript, and SRT captions.
package transcript
