package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelpress/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run preflight checks for binaries, directories, and services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, r := range results {
				fmt.Fprintln(out, renderCheckLine(r, colorize))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}
}
