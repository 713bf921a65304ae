package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Units  []string                   `json:"units,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <units-dir>",
		Short: "Validate units without analyzing them",
		Long: `Validate the structure of CUE units without semantic analysis.

Checks the unit encoding, identifiers, types, operators and assignment
targets. Name binding and the language extensions are checked by
"extcheck check".`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	units, validationErrors, err := validateDir(dir, formatter)
	if err != nil {
		return err
	}
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Units: names})
	}
	fmt.Fprintf(formatter.Writer, "✓ All units valid (%d)\n", len(units))
	return nil
}

// validateDir loads every unit of dir, collecting compile errors, and
// validates the units that compiled. A non-nil error is a command error
// that has already been reported.
func validateDir(dir string, formatter *OutputFormatter) ([]*ast.Unit, []compiler.ValidationError, error) {
	loadResult, loadErrors := LoadUnits(dir, LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return nil, nil, outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return nil, nil, outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, dir)

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			line := 0
			if loadErr.Pos.IsValid() {
				line = loadErr.Pos.Line()
			}
			validationErrors = append(validationErrors, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    line,
			})
		}
	}

	for _, u := range loadResult.Units {
		formatter.VerboseLog("Validating unit: %s", u.Name)
		for _, ve := range compiler.Validate(u) {
			ve.Field = "unit." + u.Name + "." + ve.Field
			validationErrors = append(validationErrors, ve)
		}
	}

	return loadResult.Units, validationErrors, nil
}

// loadValidUnits loads and validates dir, reporting any problem, and
// returns the selected units: all of them, or only the one named unit.
func loadValidUnits(dir, unit string, formatter *OutputFormatter) ([]*ast.Unit, error) {
	units, validationErrors, err := validateDir(dir, formatter)
	if err != nil {
		return nil, err
	}
	if len(validationErrors) > 0 {
		return nil, outputValidationErrors(formatter, validationErrors)
	}
	if unit == "" {
		return units, nil
	}
	for _, u := range units {
		if u.Name == unit {
			return []*ast.Unit{u}, nil
		}
	}
	return nil, outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("unit %s not found in %s", unit, dir), nil)
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Validation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
