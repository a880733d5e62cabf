package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reelpress/internal/thumbnail"
)

func newThumbnailCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	var count int

	cmd := &cobra.Command{
		Use:   "thumbnail <video>",
		Short: "Extract subject thumbnails from a local video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			sampler, extractor := thumbnailTools(cfg, logger)
			if extractor == nil {
				return errors.New("thumbnail.segmentation_url is not configured")
			}

			video := args[0]
			if _, err := os.Stat(video); err != nil {
				return fmt.Errorf("video: %w", err)
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			if count <= 0 {
				count = cfg.Thumbnail.FrameCount
			}

			base := strings.TrimSuffix(filepath.Base(video), filepath.Ext(video))
			target := thumbnail.Size{Width: cfg.Thumbnail.Width, Height: cfg.Thumbnail.Height}
			out := cmd.OutOrStdout()
			written := 0
			for i := range count {
				frame, err := sampler.Sample(cmd.Context(), video)
				if err != nil {
					return err
				}
				if frame == nil {
					fmt.Fprintf(out, "frame %d: no frame decoded\n", i)
					continue
				}
				png, err := extractor.Extract(cmd.Context(), frame, target, cfg.Thumbnail.PreserveLighting)
				if err != nil {
					fmt.Fprintf(out, "frame %d: %v\n", i, err)
					continue
				}
				if png == nil {
					continue
				}
				path := filepath.Join(outDir, fmt.Sprintf("%s_thumbnail_%d.png", base, i))
				if err := os.WriteFile(path, png, 0o644); err != nil {
					return fmt.Errorf("write thumbnail: %w", err)
				}
				fmt.Fprintln(out, path)
				written++
			}
			fmt.Fprintf(out, "Wrote %d of %d thumbnail(s)\n", written, count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory for the extracted PNG files")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Frames to sample (defaults to thumbnail.frame_count)")
	return cmd
}
