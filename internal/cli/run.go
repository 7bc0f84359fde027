package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"prompt-matrix/internal/service"
	"prompt-matrix/internal/txt2img"

	"github.com/spf13/cobra"
)

// newGenerator is replaced in tests
var newGenerator = func(a *app) service.Generator {
	return txt2img.NewExecGenerator(a.cfg.PythonPath, a.cfg.StableDiffusionDir, a.cfg.StableDiffusionOutputs)
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run every pending job in order",
		Long: `Run drains the persisted queue in this process: each pending job is marked
running, handed to scripts/txt2img.py in $SD_DIR and marked completed or failed.
Skipped and failed jobs are passed over. Interrupting returns the running job
to pending.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			jobs, err := a.jobService(ctx)
			if err != nil {
				return err
			}
			history, err := a.historyService(ctx)
			if err != nil {
				return err
			}

			worker := service.NewWorkerService(jobs.Queue(), jobs.Controller(), newGenerator(a), history, a.metrics, a.logger)
			if err := worker.Drain(ctx); err != nil {
				return fmt.Errorf("run: %w", err)
			}

			snap := a.metrics.GetSnapshot()
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("%d completed", snap.CompletedJobs)))
			if snap.FailedJobs > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), errorStyle.Render(fmt.Sprintf("%d failed", snap.FailedJobs)))
			}
			return nil
		},
	}
}
