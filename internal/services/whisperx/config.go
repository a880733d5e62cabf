package whisperx

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Model is the WhisperX model to use (e.g., "large-v3").
	Model string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// UVXBinary overrides the uvx executable.
	UVXBinary string
	// FFmpegBinary overrides the ffmpeg executable.
	FFmpegBinary string
}

// WhisperX configuration constants.
const (
	DefaultModel      = "large-v3"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	ChunkSize         = "15"
	BeamSize          = "5"
	SegmentResolution = "sentence"
	OutputFormat      = "json"
	VADMethod         = "silero"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "float32"
)

// Command names for external tools.
const (
	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"
)
