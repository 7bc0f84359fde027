package cli

import (
	"fmt"
	"strings"

	"prompt-matrix/internal/models"
	"prompt-matrix/internal/prompt"
	"prompt-matrix/internal/txt2img"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// paramFlags registers the txt2img parameter flags on fs
func paramFlags(fs *pflag.FlagSet, p *models.Parameters) {
	fs.IntVar(&p.Steps, "steps", txt2img.DefaultSteps, "sampling steps")
	fs.Float64Var(&p.Scale, "scale", txt2img.DefaultScale, "guidance scale")
	fs.IntVar(&p.Iter, "iter", txt2img.DefaultIter, "sampling iterations")
	fs.IntVar(&p.Samples, "samples", txt2img.DefaultSamples, "samples per iteration")
	fs.IntVar(&p.Height, "height", txt2img.DefaultHeight, "image height")
	fs.IntVar(&p.Width, "width", txt2img.DefaultWidth, "image width")
	fs.Int64Var(&p.Seed, "seed", txt2img.DefaultSeed, "sampling seed")
}

func newExpandCmd(a *app) *cobra.Command {
	var specs []string

	cmd := &cobra.Command{
		Use:   "expand <prompt>",
		Short: "Print every prompt the matrix expands to",
		Long: `Expand replaces each $variable in the prompt with every bound value and prints
one prompt per line. Variables are combined in the order they are given.

Examples:
  promptctl expand 'a $animal in $place' --var animal=cat,dog --var place=space,sea`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := parseVars(specs)
			if err != nil {
				return err
			}

			names := prompt.TokenNames(args[0])
			if missing := prompt.Missing(names, vars); len(missing) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), hintStyle.Render("unbound: "+strings.Join(missing, ", ")))
			}

			prompts := prompt.Build(args[0], vars)
			for _, p := range prompts {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			if a.verbose {
				fmt.Fprintln(cmd.ErrOrStderr(), hintStyle.Render(fmt.Sprintf("%d prompts", len(prompts))))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&specs, "var", nil, "variable binding name=value1,value2 (repeatable)")
	return cmd
}

func newCommandCmd(a *app) *cobra.Command {
	var (
		params models.Parameters
		html   bool
	)

	cmd := &cobra.Command{
		Use:   "command <prompt>",
		Short: "Print the txt2img command line for a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Prompt = args[0]
			fmt.Fprintln(cmd.OutOrStdout(), txt2img.Command(a.cfg.PythonPath, params, html))
			return nil
		},
	}

	paramFlags(cmd.Flags(), &params)
	cmd.Flags().BoolVar(&html, "html", false, "wrap every value in <b></b>")
	return cmd
}
