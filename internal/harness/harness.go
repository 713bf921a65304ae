package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/extcheck/internal/analyzer"
	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/compiler"
	"github.com/roach88/extcheck/internal/diag"
	"github.com/roach88/extcheck/internal/store"
)

// Options configures Run.
type Options struct {
	// Store records the run when non-nil.
	Store *store.Store

	// Logger receives analyzer stage logs. Nil discards them.
	Logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Compile the scenario source and select the unit
// 2. Validate the unit structure
// 3. Analyze the unit
// 4. Record the run if a store is configured
// 5. Check the expected status and evaluate assertions
//
// A returned error means the scenario could not be executed. Failing
// expectations are reported through Result.Pass and Result.Errors.
func Run(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	u, err := LoadUnit(scenario)
	if err != nil {
		return nil, err
	}

	if errs := compiler.Validate(u); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid unit %s: %s", u.Name, strings.Join(msgs, "; "))
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	}
	workers := scenario.Workers
	if workers == 0 {
		workers = 1
	}

	res, err := analyzer.Analyze(ctx, u, analyzer.Options{Workers: workers, Logger: logger})
	if err != nil {
		if _, ok := diag.AsList(err); !ok {
			return nil, fmt.Errorf("analyze %s: %w", u.Name, err)
		}
	}

	result := NewResult()
	result.Status = StatusFailed
	if res.OK() {
		result.Status = StatusOK
		result.Output = ast.Sprint(res.Unit)
	}
	result.Diagnostics = append(result.Diagnostics, res.Diagnostics...)
	result.Order = append(result.Order, res.Order...)
	result.Splices = res.Splices
	result.Globals = res.Globals
	for name, infos := range res.Bindings {
		result.Bindings[name] = infos
	}

	if opts.Store != nil {
		run, err := store.NewRun(u, res)
		if err != nil {
			return nil, err
		}
		if err := opts.Store.WriteRun(ctx, run); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
		result.RunID = run.ID
	}

	if result.Status != scenario.Expect {
		result.AddError(statusError(scenario.Expect, result))
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

func statusError(expect string, r *Result) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "expected status %s, got %s", expect, r.Status)
	for _, d := range r.Diagnostics {
		if d.IsError() {
			fmt.Fprintf(&buf, "\n  %s", d.Error())
		}
	}
	return buf.String()
}

// LoadUnit compiles the scenario's CUE source and returns the unit under
// test. Source text is compiled under the file name "<scenario>.cue" so
// positions are stable across machines; a File keeps its base name.
func LoadUnit(scenario *Scenario) (*ast.Unit, error) {
	src, filename := scenario.Source, scenario.Name+".cue"
	if scenario.File != "" {
		data, err := os.ReadFile(scenario.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read unit file: %w", err)
		}
		src, filename = string(data), filepath.Base(scenario.File)
	}

	v := cuecontext.New().CompileString(src, cue.Filename(filename))
	units, err := compiler.CompileUnits(v)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", filename, err)
	}

	if scenario.Unit == "" {
		if len(units) != 1 {
			return nil, fmt.Errorf("%s declares %d units; set unit to choose one", filename, len(units))
		}
		return units[0], nil
	}
	for _, u := range units {
		if u.Name == scenario.Unit {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%s: unit %s not found", filename, scenario.Unit)
}
