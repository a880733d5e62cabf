// Package whisperx wraps the WhisperX command-line transcriber.
//
// It extracts a mono 16 kHz track with ffmpeg, runs whisperx through uvx,
// and loads the segment JSON it writes.
package whisperx
