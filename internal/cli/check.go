package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Unit string
}

// CheckResult holds the diagnostics of every checked unit.
type CheckResult struct {
	Units    []*UnitReport `json:"units"`
	Errors   int           `json:"errors"`
	Warnings int           `json:"warnings"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <units-dir>",
		Short: "Report diagnostics for every unit",
		Long: `Analyze the CUE units of a directory and report their diagnostics.

Every unit is checked for redefinitions, unknown names, misuse of
__shadow and __undeclare, and always-inline cycles and uses.

Exit codes:
  0 - No fatal diagnostics (warnings are allowed)
  1 - Validation failed or a unit has fatal diagnostics
  2 - Command error (invalid paths, etc.)

Examples:
  extcheck check ./units
  extcheck check ./units --unit shadow
  extcheck check ./units --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Unit, "unit", "", "check only the named unit")

	return cmd
}

func runCheck(opts *CheckOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	units, err := loadValidUnits(dir, opts.Unit, formatter)
	if err != nil {
		return err
	}

	logger := opts.logger(cmd.ErrOrStderr())
	result := CheckResult{Units: make([]*UnitReport, 0, len(units))}
	failed := 0
	for _, u := range units {
		report, _, err := analyzeUnit(cmd.Context(), u, opts.Workers, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "analysis failed", err)
		}
		errs, warns := countSeverity(report.Diagnostics)
		result.Errors += errs
		result.Warnings += warns
		if !report.OK() {
			failed++
		}
		result.Units = append(result.Units, report)
	}

	if opts.Format == "json" {
		if failed > 0 {
			code, msg := firstError(result.Units)
			_ = formatter.Error(code, msg, result)
			return NewExitError(ExitFailure, fmt.Sprintf("%d unit(s) failed", failed))
		}
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	for _, report := range result.Units {
		writeDiagnostics(w, report.Diagnostics)
		errs, warns := countSeverity(report.Diagnostics)
		if report.OK() {
			fmt.Fprintf(w, "✓ %s (%d warning(s))\n", report.Unit, warns)
		} else {
			fmt.Fprintf(w, "✗ %s (%d error(s), %d warning(s))\n", report.Unit, errs, warns)
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d unit(s) failed", failed))
	}
	return nil
}

// firstError returns the code and text of the first fatal diagnostic of
// the reports.
func firstError(reports []*UnitReport) (string, string) {
	for _, r := range reports {
		for _, d := range r.Diagnostics {
			if d.IsError() {
				return d.Code, d.Error()
			}
		}
	}
	return ErrCodeGeneric, "analysis failed"
}
