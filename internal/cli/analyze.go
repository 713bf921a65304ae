package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/extcheck/internal/analyzer"
	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/callgraph"
	"github.com/roach88/extcheck/internal/diag"
	"github.com/roach88/extcheck/internal/store"
)

// Unit statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// UnitReport is the analysis outcome of one unit.
type UnitReport struct {
	Unit        string             `json:"unit"`
	Status      string             `json:"status"`
	Diagnostics []*diag.Diagnostic `json:"diagnostics"`
	Output      string             `json:"output,omitempty"`
	Order       []string           `json:"order"`
	Edges       []callgraph.Edge   `json:"edges,omitempty"`
	Splices     int                `json:"splices"`
	RunID       string             `json:"run_id,omitempty"`
	Cached      bool               `json:"cached,omitempty"`
}

// OK reports whether the unit produced a transformed output.
func (r *UnitReport) OK() bool {
	return r.Status == StatusOK
}

// analyzeUnit runs the analyzer on u. Fatal diagnostics are part of the
// report; only cancellation and internal failures are returned as errors.
func analyzeUnit(ctx context.Context, u *ast.Unit, workers int, logger *slog.Logger) (*UnitReport, *analyzer.Result, error) {
	res, err := analyzer.Analyze(ctx, u, analyzer.Options{Workers: workers, Logger: logger})
	if err != nil {
		if _, ok := diag.AsList(err); !ok {
			return nil, nil, fmt.Errorf("analyze %s: %w", u.Name, err)
		}
	}

	report := &UnitReport{
		Unit:        u.Name,
		Status:      StatusFailed,
		Diagnostics: res.Diagnostics,
		Order:       res.Order,
		Edges:       res.Edges,
		Splices:     res.Splices,
	}
	if report.Diagnostics == nil {
		report.Diagnostics = []*diag.Diagnostic{}
	}
	if res.OK() {
		report.Status = StatusOK
		report.Output = ast.Sprint(res.Unit)
	}
	return report, res, nil
}

// reportFromRun rebuilds a report from a recorded run.
func reportFromRun(run *store.Run) *UnitReport {
	report := &UnitReport{
		Unit:        run.UnitName,
		Status:      run.Status,
		Diagnostics: run.Diagnostics,
		Output:      run.Output,
		Order:       run.Order,
		Splices:     run.Splices,
		RunID:       run.ID,
		Cached:      true,
	}
	if report.Diagnostics == nil {
		report.Diagnostics = []*diag.Diagnostic{}
	}
	return report
}
