package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelpress/internal/jobstore"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect pending job records",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsDeleteCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List job records awaiting enrichment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(cmd.Context(), func(s *stores) error {
				jobs, err := s.admin.Jobs(cmd.Context())
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No pending jobs")
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, j := range jobs {
					rows = append(rows, []string{j.JobID, j.FileName, j.FileID, j.UserID, j.CreatedAt})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]column{left("Job"), wrapped("File", 40), left("File ID"), left("User"), left("Created")},
					rows,
					fmt.Sprintf("%d job(s) awaiting enrichment", len(jobs)),
				))
				return nil
			})
		},
	}
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job_id>",
		Short: "Show one job record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(cmd.Context(), func(s *stores) error {
				j, err := s.admin.Job(cmd.Context(), args[0])
				if errors.Is(err, jobstore.ErrNotFound) {
					return fmt.Errorf("job %s not found", args[0])
				}
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Job", j.JobID},
					{"Media URI", j.JobURI},
					{"Request", j.RequestID},
					{"Skill", j.SkillID},
					{"File", j.FileName},
					{"File ID", j.FileID},
					{"File size", strconv.FormatInt(j.FileSize, 10)},
					{"User", j.UserID},
					{"Folder", j.FolderID},
					{"Created", j.CreatedAt},
				}
				if j.EngineStatus != "" {
					rows = append(rows, []string{"Engine status", j.EngineStatus})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{left("Field"), wrapped("Value", 72)}, rows, ""))
				return nil
			})
		},
	}
}

func newJobsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <job_id>",
		Short: "Delete a job record without touching its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(cmd.Context(), func(s *stores) error {
				if err := s.admin.DeleteJob(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s\n", args[0])
				return nil
			})
		},
	}
}
