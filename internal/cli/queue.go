package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newQueueCmd(a *app) *cobra.Command {
	var incomplete bool

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List and edit the job queue",
		Long: `List the persisted job queue in execution order.

Subcommands:
  remove <id>      Remove a job
  skip <id>        Toggle a pending job between pending and skipped
  clear            Remove every job
  clear-completed  Remove completed jobs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.jobService(context.Background())
			if err != nil {
				return err
			}

			jobs := s.Jobs()
			if incomplete {
				jobs = s.Incomplete()
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
				return nil
			}

			printf(cmd.OutOrStdout(), "Jobs (%d):\n\n", len(jobs))
			for _, j := range jobs {
				printf(cmd.OutOrStdout(), "%s %s  %s\n", statusStyle(j.Status).Render(string(j.Status)), j.ID, j.Params.Prompt)
				if a.verbose && j.Elapsed != nil {
					printf(cmd.OutOrStdout(), "  %s\n", hintStyle.Render(fmt.Sprintf("%s %s", j.Elapsed.Round(time.Millisecond), j.ImageName)))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&incomplete, "incomplete", false, "hide completed jobs")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Remove a job",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.jobService(context.Background())
				if err != nil {
					return err
				}
				s.Remove(args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "skip <id>",
			Short: "Toggle a job between pending and skipped",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.jobService(context.Background())
				if err != nil {
					return err
				}
				s.ToggleSkip(args[0])
				if job, err := s.Get(args[0]); err == nil {
					printf(cmd.OutOrStdout(), "%s %s\n", statusStyle(job.Status).Render(string(job.Status)), job.ID)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every job",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.jobService(context.Background())
				if err != nil {
					return err
				}
				s.Clear()
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear-completed",
			Short: "Remove completed jobs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.jobService(context.Background())
				if err != nil {
					return err
				}
				s.ClearCompleted()
				return nil
			},
		},
	)
	return cmd
}
