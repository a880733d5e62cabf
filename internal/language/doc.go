// Package language normalizes the language tags used for transcription.
//
// Configuration carries BCP-47 tags such as "en-US"; the speech engine wants
// a bare ISO 639-1 code.
package language
