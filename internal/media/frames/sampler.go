package frames

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os/exec"
	"strings"

	"reelpress/internal/logging"
	"reelpress/internal/media/ffprobe"
)

// DefaultWindowSeconds bounds the sampled region.
const DefaultWindowSeconds = 10

// ProbeFunc inspects a media file.
type ProbeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// ExtractFunc runs ffmpeg and returns stdout.
type ExtractFunc func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Sampler draws random frames.
type Sampler struct {
	FFprobeBinary string
	FFmpegBinary  string
	WindowSeconds int
	Logger        *slog.Logger

	// Probe, Extract, and IntN default to ffprobe, ffmpeg, and math/rand.
	Probe   ProbeFunc
	Extract ExtractFunc
	IntN    func(n int) int
}

// MaxFrame returns min(int(fps*window), total).
func MaxFrame(fps float64, total, windowSeconds int) int {
	if windowSeconds <= 0 {
		windowSeconds = DefaultWindowSeconds
	}
	limit := int(fps * float64(windowSeconds))
	if total < limit {
		return total
	}
	return limit
}

// Sample returns one PNG-encoded frame from videoPath. It returns (nil, nil)
// when the video has no frames or decoding fails; only context errors are
// returned.
func (s *Sampler) Sample(ctx context.Context, videoPath string) ([]byte, error) {
	logger := s.logger()
	probe := s.Probe
	if probe == nil {
		probe = ffprobe.Inspect
	}
	result, err := probe(ctx, s.FFprobeBinary, videoPath)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.WarnWithContext(logger, "frame probe failed", "frame_probe_failed",
			logging.String("path", videoPath), logging.Error(err))
		return nil, nil
	}

	maxFrame := MaxFrame(result.FrameRate(), result.FrameCount(), s.WindowSeconds)
	if maxFrame <= 0 {
		logger.Info("video has no sampleable frames", logging.String("path", videoPath))
		return nil, nil
	}
	index := s.intN(maxFrame)

	extract := s.Extract
	if extract == nil {
		extract = runFFmpeg
	}
	data, err := extract(ctx, s.ffmpegBinary(), buildArgs(videoPath, index)...)
	if err != nil || len(data) == 0 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil {
			err = errors.New("empty frame output")
		}
		logging.WarnWithContext(logger, "frame extract failed", "frame_extract_failed",
			logging.String("path", videoPath), logging.Int("frame", index), logging.Error(err))
		return nil, nil
	}
	logger.Debug("frame sampled", logging.Int("frame", index), logging.Int("max_frame", maxFrame))
	return data, nil
}

func buildArgs(videoPath string, index int) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-vf", fmt.Sprintf(`select=eq(n\,%d)`, index),
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

func runFFmpeg(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func (s *Sampler) intN(n int) int {
	if s.IntN != nil {
		return s.IntN(n)
	}
	return rand.IntN(n)
}

func (s *Sampler) ffmpegBinary() string {
	if strings.TrimSpace(s.FFmpegBinary) == "" {
		return "ffmpeg"
	}
	return s.FFmpegBinary
}

func (s *Sampler) logger() *slog.Logger {
	if s.Logger == nil {
		return logging.NewNop()
	}
	return s.Logger
}
