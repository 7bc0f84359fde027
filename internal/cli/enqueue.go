package cli

import (
	"context"
	"fmt"

	"prompt-matrix/internal/models"

	"github.com/spf13/cobra"
)

func newEnqueueCmd(a *app) *cobra.Command {
	var (
		specs  []string
		params models.Parameters
		req    models.EnqueueMatrixRequest
	)

	cmd := &cobra.Command{
		Use:   "enqueue <prompt>",
		Short: "Queue one job per expanded prompt",
		Long: `Enqueue expands the prompt with the given variables and appends one pending job
per result to the persisted queue. Every $variable in the prompt must be bound.

Examples:
  promptctl enqueue 'a $animal' --var animal=cat,dog --steps 30
  promptctl enqueue 'a $animal' --var animal=cat,dog --random-seed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			s, err := a.jobService(ctx)
			if err != nil {
				return err
			}
			if err := bind(s, args[0], specs); err != nil {
				return err
			}

			req.Params = &params
			jobs, err := s.EnqueueMatrix(req)
			if err != nil {
				return fmt.Errorf("enqueue: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Queued %d jobs", len(jobs))))
			if a.verbose {
				for _, j := range jobs {
					printf(cmd.OutOrStdout(), "  %s  %s\n", j.ID, j.Params.Prompt)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&specs, "var", nil, "variable binding name=value1,value2 (repeatable)")
	paramFlags(cmd.Flags(), &params)
	cmd.Flags().BoolVar(&req.Force, "force", false, "queue even above the expansion limit")
	cmd.Flags().BoolVar(&req.RandomSeed, "random-seed", false, "give every job a random seed")
	return cmd
}
