// Package cli provides the promptctl command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"prompt-matrix/internal/config"
	"prompt-matrix/internal/logging"
	"prompt-matrix/internal/metrics"
	"prompt-matrix/internal/prompt"
	"prompt-matrix/internal/repository"
	"prompt-matrix/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// app carries what the subcommands share. The store is opened lazily so
// commands that never touch the queue work without a database.
type app struct {
	cfg     config.Config
	dbPath  string
	verbose bool

	repo    *repository.SQLiteRepository
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "promptctl",
		Short: "Expand prompt matrices and queue txt2img runs",
		Long: `promptctl expands a prompt containing $variables into every combination of
the bound values, queues the results as txt2img jobs and runs them one at a time.

Do not point promptctl at a database the API server is using.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Load()
			if a.dbPath == "" {
				a.dbPath = a.cfg.DBPath
			}

			env := a.cfg.AppEnv
			if !a.verbose {
				env = "production"
			}
			a.logger = logging.NewLoggerTo(cmd.ErrOrStderr(), env)
			if !a.verbose {
				a.logger = a.logger.Level(zerolog.WarnLevel)
			}
			a.metrics = metrics.NewMetrics()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.repo != nil {
				if err := a.repo.Close(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close database: %v\n", err)
				}
				a.repo = nil
			}
		},
	}

	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "path to SQLite database (default $DB_PATH)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newExpandCmd(a),
		newCommandCmd(a),
		newEnqueueCmd(a),
		newQueueCmd(a),
		newRunCmd(a),
		newRunsCmd(a),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) store() (*repository.SQLiteRepository, error) {
	if a.repo != nil {
		return a.repo, nil
	}
	repo, err := repository.NewSQLiteRepository(a.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.repo = repo
	return repo, nil
}

func (a *app) jobService(ctx context.Context) (*service.JobService, error) {
	repo, err := a.store()
	if err != nil {
		return nil, err
	}
	guard := service.NewExpansionGuard(a.cfg.ExpansionWarnAt, a.cfg.ExpansionMax)
	return service.NewJobService(ctx, repo, guard, a.metrics, a.logger)
}

func (a *app) historyService(ctx context.Context) (*service.HistoryService, error) {
	repo, err := a.store()
	if err != nil {
		return nil, err
	}
	return service.NewHistoryService(ctx, repo, a.logger)
}

// parseVars turns repeated name=a,b,c flags into bindings
func parseVars(specs []string) ([]prompt.Variable, error) {
	vars := make([]prompt.Variable, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --var %q, expected name=value1,value2", spec)
		}

		var values []string
		for _, v := range strings.Split(list, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		vars = append(vars, prompt.Variable{Name: strings.TrimSpace(name), Values: values})
	}
	return vars, nil
}

// bind loads the prompt and --var bindings into s
func bind(s *service.JobService, text string, specs []string) error {
	vars, err := parseVars(specs)
	if err != nil {
		return err
	}
	s.SetPrompt(text)
	for _, v := range vars {
		if err := s.UpsertVariable(v.Name, v.Values); err != nil {
			return err
		}
	}
	return nil
}

func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
