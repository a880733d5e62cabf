package enrichment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"reelpress/internal/job"
	"reelpress/internal/logging"
	"reelpress/internal/thumbnail"
)

// thumbnails samples frames from the source recording and uploads each
// extracted subject into a thumbnails folder next to the recording. Every
// failure is logged and skipped; the count of uploads is returned.
func (s *Stage) thumbnails(ctx context.Context, client ContentClient, rec *job.Record, logger *slog.Logger) int {
	if s.deps.Sampler == nil || s.deps.Extractor == nil {
		logger.Debug("thumbnail extraction not configured")
		return 0
	}
	cfg := s.deps.Config
	folderID, err := client.EnsureFolder(ctx, rec.FolderID, cfg.Content.ThumbnailsFolderName)
	if err != nil {
		logging.ErrorWithContext(logger, "thumbnail folder unavailable", "thumbnail_folder_failed", err, "")
		return 0
	}

	videoPath, cleanup, err := s.downloadRecording(ctx, rec)
	if err != nil {
		logging.ErrorWithContext(logger, "recording download failed", "thumbnail_source_failed", err, "")
		return 0
	}
	defer cleanup()

	target := thumbnail.Size{Width: cfg.Thumbnail.Width, Height: cfg.Thumbnail.Height}
	if target.Width <= 0 || target.Height <= 0 {
		target = thumbnail.DefaultSize
	}
	uploaded := 0
	for i := 0; i < cfg.Thumbnail.FrameCount; i++ {
		if ctx.Err() != nil {
			break
		}
		frame, err := s.deps.Sampler.Sample(ctx, videoPath)
		if err != nil || frame == nil {
			if err != nil {
				logging.ErrorWithContext(logger, "frame sampling failed", "thumbnail_frame_failed", err, "", logging.Int("index", i))
			}
			continue
		}
		thumb, err := s.deps.Extractor.Extract(ctx, frame, target, cfg.Thumbnail.PreserveLighting)
		if err != nil {
			logging.ErrorWithContext(logger, "thumbnail extraction failed", "thumbnail_extract_failed", err, "", logging.Int("index", i))
			continue
		}
		if thumb == nil {
			continue
		}
		name := fmt.Sprintf("%s_thumbnail_%d.png", rec.JobID, i)
		if _, err := client.UploadFile(ctx, folderID, name, thumb); err != nil {
			logging.ErrorWithContext(logger, "thumbnail upload failed", "thumbnail_upload_failed", err, "", logging.String("file", name))
			continue
		}
		uploaded++
	}
	return uploaded
}

func (s *Stage) downloadRecording(ctx context.Context, rec *job.Record) (string, func(), error) {
	cfg := s.deps.Config
	rc, err := s.deps.Objects.Get(ctx, cfg.Storage.RecordingsBucket, rec.FileName)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()

	dir := cfg.Paths.WorkDir
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", nil, fmt.Errorf("ensure work dir: %w", err)
		}
	}
	f, err := os.CreateTemp(dir, rec.JobID+"-*"+filepath.Ext(rec.FileName))
	if err != nil {
		return "", nil, fmt.Errorf("create temp video: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp video: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp video: %w", err)
	}
	return f.Name(), cleanup, nil
}
