package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	langpkg "reelpress/internal/language"
	"reelpress/internal/services"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	commandRunner CommandRunner
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.FFmpegBinary == "" {
		cfg.FFmpegBinary = FFmpegCommand
	}
	if cfg.UVXBinary == "" {
		cfg.UVXBinary = UVXCommand
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// ExtractAudio writes the first audio stream of source to dest as mono
// 16kHz PCM.
func (s *Service) ExtractAudio(ctx context.Context, source, dest string) error {
	if err := s.run(ctx, s.cfg.FFmpegBinary, buildExtractArgs(source, dest)...); err != nil {
		return services.Wrap(services.ErrExternalTool, "transcription", "ffmpeg extract", "audio extraction failed", err)
	}
	return nil
}

// Result describes a finished transcription.
type Result struct {
	JSONPath string
	Segments []Segment
}

// Transcribe runs whisperx on an extracted audio file and loads its
// segments. outputDir receives whisperx's files.
func (s *Service) Transcribe(ctx context.Context, source, outputDir, language string) (Result, error) {
	var result Result
	if source == "" {
		return result, services.Wrap(services.ErrValidation, "transcription", "whisperx", "source path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	if err := s.run(ctx, s.cfg.UVXBinary, s.buildArgs(source, outputDir, language)...); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "transcription", "whisperx", "transcription failed", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	result.JSONPath = filepath.Join(outputDir, baseName+".json")
	segments, err := LoadSegments(result.JSONPath)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "transcription", "whisperx", "load whisperx output", err)
	}
	result.Segments = segments
	return result, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir, language string) []string {
	args := make([]string, 0, 32)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.cfg.Model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--beam_size", BeamSize,
		"--vad_method", VADMethod,
	)

	if lang := langpkg.ToISO2(language); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// Word represents a single word with timing from WhisperX output. Words
// whisperx could not align have no start or end.
type Word struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
	Score float64  `json:"score"`
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

type payload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return p.Segments, nil
}
