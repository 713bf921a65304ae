package harness

import (
	"github.com/roach88/extcheck/internal/diag"
	"github.com/roach88/extcheck/internal/resolve"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the status matches and all assertions hold.
	Pass bool `json:"pass"`

	// Status is "ok" when the analysis produced a transformed unit and
	// "failed" otherwise.
	Status string `json:"status"`

	// Output is the printed transformed unit. Empty when Status is "failed".
	Output string `json:"output,omitempty"`

	// Diagnostics holds every diagnostic in report order.
	Diagnostics []*diag.Diagnostic `json:"diagnostics"`

	// Order is the always-inline expansion order.
	Order []string `json:"order"`

	// Splices is the number of expanded call sites.
	Splices int `json:"splices"`

	// Globals and Bindings describe the resolved names.
	Globals  []resolve.Info            `json:"globals,omitempty"`
	Bindings map[string][]resolve.Info `json:"bindings,omitempty"`

	// RunID is the store record of this run, if one was written.
	RunID string `json:"run_id,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Diagnostics: []*diag.Diagnostic{},
		Order:       []string{},
		Bindings:    make(map[string][]resolve.Info),
		Errors:      []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
