// Package frames samples single still frames from a video with ffmpeg.
//
// Sampling favours the opening of a recording: the frame index is drawn
// uniformly from the first window of seconds (or the whole video when it is
// shorter). Sampling failures are logged and yield no frame.
package frames
