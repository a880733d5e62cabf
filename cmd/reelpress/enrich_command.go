package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"reelpress/internal/enrichment"
	"reelpress/internal/transcription"
)

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "enrich <job_id>",
		Short: "Re-run enrichment for a retained job record",
		Long: "Runs the enrichment stage against transcriptions/<job_id>.srt as if the caption\n" +
			"track had just been written. Use it after an enrichment failure kept the job record.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg := *loaded
			cfg.Enrichment.RecordGraceSeconds = 0
			logger, err := ctx.logger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			p, err := buildPipeline(cmd.Context(), &cfg, logger)
			if err != nil {
				return err
			}
			defer p.Close()

			runCtx := cmd.Context()
			if timeout := cfg.EnrichmentTimeout(); timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, timeout)
				defer cancel()
			}
			status, err := p.enricher.Handle(runCtx, enrichment.Notification{
				Bucket: cfg.Storage.TranscriptsBucket,
				Key:    transcription.CaptionKey(args[0]),
			})
			if err != nil {
				return fmt.Errorf("enrich %s: %w", args[0], err)
			}
			switch status {
			case enrichment.StatusNotFound:
				return fmt.Errorf("job %s not found", args[0])
			case enrichment.StatusCompleted:
				fmt.Fprintf(cmd.OutOrStdout(), "Enrichment completed for %s\n", args[0])
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "Enrichment finished with status %s\n", status)
			}
			return nil
		},
	}
}
