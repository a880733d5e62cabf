package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Duration     string `json:"duration"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NBFrames     string `json:"nb_frames"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var stderr string
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr = strings.TrimSpace(string(exitErr.Stderr))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, stderr)
	}
	return Parse(output)
}

// Parse decodes ffprobe JSON.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// VideoStream returns the first video stream.
func (r Result) VideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	d := parseFloat(r.Format.Duration)
	if math.IsNaN(d) || d < 0 {
		return 0
	}
	return d
}

// FrameRate returns the video frame rate, preferring r_frame_rate.
func (r Result) FrameRate() float64 {
	stream, ok := r.VideoStream()
	if !ok {
		return 0
	}
	if fps := parseRate(stream.RFrameRate); fps > 0 {
		return fps
	}
	return parseRate(stream.AvgFrameRate)
}

// FrameCount returns nb_frames, or duration*fps when nb_frames is absent.
func (r Result) FrameCount() int {
	stream, ok := r.VideoStream()
	if !ok {
		return 0
	}
	if n, err := strconv.Atoi(strings.TrimSpace(stream.NBFrames)); err == nil && n > 0 {
		return n
	}
	duration := parseFloat(stream.Duration)
	if math.IsNaN(duration) || duration <= 0 {
		duration = r.DurationSeconds()
	}
	return int(duration * r.FrameRate())
}

// parseRate parses "num/den" or a decimal rate.
func parseRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if num, den, ok := strings.Cut(value, "/"); ok {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN != nil || errD != nil || d == 0 {
			return 0
		}
		return n / d
	}
	v := parseFloat(value)
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
