package cli

import (
	"context"
	"fmt"
	"strings"

	"prompt-matrix/internal/service"

	"github.com/spf13/cobra"
)

func newRunsCmd(a *app) *cobra.Command {
	var (
		filter string
		order  string
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List finished runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.historyService(context.Background())
			if err != nil {
				return err
			}

			runs := s.List(filter, order)
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs found.")
				return nil
			}

			printf(cmd.OutOrStdout(), "Runs (%d):\n\n", len(runs))
			for _, r := range runs {
				stars := strings.Repeat("*", int(r.Rating))
				printf(cmd.OutOrStdout(), "- %s  %s %s\n", r.EndedAt.Format("2006-01-02 15:04"), r.Params.Prompt, successStyle.Render(stars))
				if a.verbose {
					printf(cmd.OutOrStdout(), "  %s\n", hintStyle.Render(fmt.Sprintf("%s seed=%d %s", r.ID, r.Params.Seed, r.ImageName)))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only runs whose prompt contains this text")
	cmd.Flags().StringVar(&order, "order", service.OrderAsc, "asc lists the newest first, desc the oldest first")
	return cmd
}
