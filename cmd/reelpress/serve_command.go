package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reelpress/internal/logging"
	"reelpress/internal/observability"
	"reelpress/internal/preflight"
	"reelpress/internal/webhook"
	"reelpress/internal/worker"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server, queue worker, and artifact listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := observability.InitTracing(runCtx, cfg.Tracing, "reelpress")
			if err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracing(flushCtx); err != nil {
					logger.Warn("tracing shutdown failed", logging.Error(err))
				}
			}()

			if !skipPreflight {
				for _, r := range preflight.Failed(preflight.RunAll(runCtx, cfg)) {
					logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
						logging.String("check", r.Name),
						logging.String("detail", r.Detail),
					)
				}
			}

			p, err := buildPipeline(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer p.Close()

			opts := webhook.NewOptions(cfg)
			opts.Queue = p.queue
			opts.Admin = p.admin()
			opts.Logger = logger
			server, err := webhook.New(opts)
			if err != nil {
				return err
			}

			w := worker.New(
				cfg.LockPath(),
				worker.NewConsumer(cfg, p.queue, p.transcriber, logger),
				worker.NewListener(cfg, p.objects, p.enricher, logger),
				logger,
			).WithResume(p.transcriber, p.jobs)
			workerErr := make(chan error, 1)
			go func() { workerErr <- w.Run(runCtx) }()

			if err := server.Start(runCtx); err != nil {
				stop()
				<-workerErr
				return err
			}
			err = <-workerErr
			server.Stop()
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("reelpress stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Do not run preflight checks at startup")
	return cmd
}
