package deps

// MediaRequirements lists the binaries the transcription engine and the
// frame sampler shell out to.
func MediaRequirements(ffmpeg, ffprobe string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpeg,
			Description: "Required for audio extraction and frame sampling",
		},
		{
			Name:        "FFprobe",
			Command:     ffprobe,
			Description: "Required to read frame rate and frame count",
		},
		{
			Name:        "uvx",
			Command:     "uvx",
			Description: "Required for WhisperX transcription",
		},
	}
}
