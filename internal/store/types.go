package store

import (
	"fmt"

	"github.com/roach88/extcheck/internal/analyzer"
	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/diag"
)

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run is one recorded analysis of a unit.
type Run struct {
	ID          string             `json:"id"`
	Seq         int64              `json:"seq"`
	UnitName    string             `json:"unit_name"`
	UnitHash    string             `json:"unit_hash"`
	ToolVersion string             `json:"tool_version"`
	Status      string             `json:"status"`
	Output      string             `json:"output,omitempty"`
	OutputHash  string             `json:"output_hash,omitempty"`
	Splices     int                `json:"splices"`
	Order       []string           `json:"order"`
	Diagnostics []*diag.Diagnostic `json:"diagnostics,omitempty"`
}

// OK reports whether the run produced a transformed unit.
func (r *Run) OK() bool {
	return r.Status == StatusOK
}

// NewRun builds the record of analyzing u. ID and Seq are assigned by
// WriteRun.
func NewRun(u *ast.Unit, res *analyzer.Result) (*Run, error) {
	hash, err := ast.UnitHash(u)
	if err != nil {
		return nil, fmt.Errorf("new run: %w", err)
	}
	run := &Run{
		UnitName:    u.Name,
		UnitHash:    hash,
		ToolVersion: ast.ToolVersion,
		Status:      StatusFailed,
		Splices:     res.Splices,
		Order:       res.Order,
		Diagnostics: res.Diagnostics,
	}
	if res.OK() {
		run.Status = StatusOK
		run.Output = ast.Sprint(res.Unit)
		if run.OutputHash, err = ast.OutputHash(res.Unit); err != nil {
			return nil, fmt.Errorf("new run: %w", err)
		}
	}
	return run, nil
}
