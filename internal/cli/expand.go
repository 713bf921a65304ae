package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/store"
)

// ExpandOptions holds flags for the expand command.
type ExpandOptions struct {
	*RootOptions
	Output   string // output file path
	Database string // run cache; empty disables caching
	Unit     string
}

// ExpandResult holds the transformed units.
type ExpandResult struct {
	Units  []*UnitReport `json:"units"`
	Cached int           `json:"cached"`
	File   string        `json:"file,omitempty"`
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpandOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "expand <units-dir>",
		Short: "Print the transformed units",
		Long: `Analyze the CUE units of a directory and print the transformed result:
always-inline calls spliced, every local renamed to a unique flat name,
__shadow and __undeclare removed.

With --db, every analysis is recorded in a SQLite database and a unit
whose content hash was already analyzed by this version of extcheck is
served from the database.

Exit codes:
  0 - Every unit was transformed
  1 - Validation failed or a unit has fatal diagnostics (nothing is written)
  2 - Command error (invalid paths, database errors, etc.)

Examples:
  extcheck expand ./units
  extcheck expand ./units -o out.txt
  extcheck expand ./units --db ./extcheck.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run database")
	cmd.Flags().StringVar(&opts.Unit, "unit", "", "expand only the named unit")

	return cmd
}

func runExpand(opts *ExpandOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	units, err := loadValidUnits(dir, opts.Unit, formatter)
	if err != nil {
		return err
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
	}

	logger := opts.logger(cmd.ErrOrStderr())
	result := ExpandResult{Units: make([]*UnitReport, 0, len(units)), File: opts.Output}
	failed := 0
	for _, u := range units {
		report, err := expandUnit(cmd.Context(), st, u, opts.Workers, logger)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "expand failed", err)
		}
		if report.Cached {
			result.Cached++
			formatter.VerboseLog("Unit %s served from run %s", report.Unit, report.RunID)
		}
		if !report.OK() {
			failed++
		}
		result.Units = append(result.Units, report)
	}

	if failed > 0 {
		if opts.Format == "json" {
			code, msg := firstError(result.Units)
			_ = formatter.Error(code, msg, result)
		} else {
			w := cmd.ErrOrStderr()
			for _, report := range result.Units {
				writeDiagnostics(w, report.Diagnostics)
			}
			fmt.Fprintf(w, "✗ %d unit(s) failed\n", failed)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d unit(s) failed", failed))
	}

	outputs := make([]string, len(result.Units))
	for i, report := range result.Units {
		outputs[i] = report.Output
	}
	text := strings.Join(outputs, "\n")

	// Write to file if --output specified
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(text), 0644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	// Warnings go to stderr so the transformed units can be piped
	for _, report := range result.Units {
		writeDiagnostics(cmd.ErrOrStderr(), report.Diagnostics)
	}
	if opts.Output != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d unit(s) to %s\n", len(result.Units), opts.Output)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}

// expandUnit analyzes u, serving and recording runs through st when it
// is not nil.
func expandUnit(ctx context.Context, st *store.Store, u *ast.Unit, workers int, logger *slog.Logger) (*UnitReport, error) {
	if st == nil {
		report, _, err := analyzeUnit(ctx, u, workers, logger)
		return report, err
	}

	hash, err := ast.UnitHash(u)
	if err != nil {
		return nil, err
	}
	run, err := st.LatestByHash(ctx, hash, ast.ToolVersion)
	switch {
	case err == nil:
		logger.Debug("cache hit", "unit", u.Name, "run", run.ID)
		return reportFromRun(run), nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	report, res, err := analyzeUnit(ctx, u, workers, logger)
	if err != nil {
		return nil, err
	}
	run, err = store.NewRun(u, res)
	if err != nil {
		return nil, err
	}
	if err := st.WriteRun(ctx, run); err != nil {
		return nil, err
	}
	report.RunID = run.ID
	return report, nil
}
