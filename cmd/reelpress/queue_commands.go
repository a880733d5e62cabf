package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the work queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueDeadLettersCommand(ctx))
	queueCmd.AddCommand(newQueueRedriveCommand(ctx))
	queueCmd.AddCommand(newQueuePurgeDeadCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue depth",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(cmd.Context(), func(s *stores) error {
				stats, err := s.admin.QueueStats(cmd.Context())
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Ready", strconv.Itoa(stats.Ready)},
					{"In flight", strconv.Itoa(stats.InFlight)},
					{"Dead letters", strconv.Itoa(stats.DeadLetters)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{left("State"), right("Count")}, rows, ""))
				return nil
			})
		},
	}
}

func newQueueDeadLettersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dead-letters",
		Short: "List messages that exhausted their receive budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(cmd.Context(), func(s *stores) error {
				items, err := s.admin.DeadLetters(cmd.Context())
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No dead letters")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, dl := range items {
					rows = append(rows, []string{
						strconv.FormatInt(dl.ID, 10),
						dl.FileName,
						dl.FileID,
						strconv.Itoa(dl.ReceiveCount),
						strings.TrimSpace(dl.LastError),
						dl.DeadLetteredAt,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]column{right("ID"), left("File"), left("File ID"), right("Receives"), wrapped("Last error", 60), left("Dead-lettered")},
					rows,
					fmt.Sprintf("%d dead letter(s); redrive with `reelpress queue redrive [id...]`", len(items)),
				))
				return nil
			})
		},
	}
}

func newQueueRedriveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "redrive [id...]",
		Short: "Move dead letters back to the queue (all when no ids are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return ctx.withStores(cmd.Context(), func(s *stores) error {
				resp, err := s.admin.Redrive(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Redrove %d message(s)\n", resp.Redriven)
				return nil
			})
		},
	}
}

func newQueuePurgeDeadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-dead",
		Short: "Delete every dead letter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(cmd.Context(), func(s *stores) error {
				resp, err := s.admin.PurgeDeadLetters(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d dead letter(s)\n", resp.Purged)
				return nil
			})
		},
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid message id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
