// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe; the Result helpers pick the first video stream and
// derive its frame rate and frame count, falling back to the average rate
// and to duration*fps when the container omits them.
package ffprobe
