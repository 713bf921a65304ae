package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/diag"
	"github.com/roach88/extcheck/internal/resolve"
)

func intPtr(n int) *int { return &n }

func int64Ptr(n int64) *int64 { return &n }

func sampleResult() *Result {
	r := NewResult()
	r.Status = StatusOK
	r.Output = "// unit u\n\nint main() {\n  int x_2 = 2;\n}\n"
	r.Diagnostics = []*diag.Diagnostic{
		diag.New(diag.DeprecatedNestedShadow, ast.Pos{File: "u.cue", Line: 6, Col: 3}, "declaration of %q hides a local variable", "x"),
		diag.New(diag.DeprecatedSelfReference, ast.Pos{File: "u.cue", Line: 9, Col: 5}, "initializer of %q reads itself", "y"),
	}
	r.Order = []string{"inc", "twice"}
	r.Splices = 3
	r.Globals = []resolve.Info{{Name: "g", Flat: "g", State: "active", Value: int64Ptr(7)}}
	r.Bindings["main"] = []resolve.Info{
		{Name: "x", Flat: "x", State: "shadowed", Value: int64Ptr(1)},
		{Name: "x", Flat: "x_2", State: "active", Value: int64Ptr(2)},
	}
	return r
}

func TestEvaluateAssertionsPass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertDiagnostic, Kind: "DeprecatedNestedShadow"},
		{Type: AssertDiagnostic, Kind: "W302", Line: 9, Message: "reads itself"},
		{Type: AssertDiagnosticCount, Count: intPtr(2)},
		{Type: AssertDiagnosticCount, Kind: "NotFound", Count: intPtr(0)},
		{Type: AssertBinding, Func: "main", Name: "x", State: "shadowed"},
		{Type: AssertBinding, Func: "main", Name: "x", Flat: "x_2", Value: int64Ptr(2)},
		{Type: AssertBinding, Name: "g", Value: int64Ptr(7)},
		{Type: AssertOutputContains, Text: "int x_2 = 2;"},
		{Type: AssertOutputExcludes, Text: "__shadow"},
		{Type: AssertOrder, Functions: []string{"inc", "twice"}},
		{Type: AssertSplices, Count: intPtr(3)},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertionsCollectsFailures(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertDiagnostic, Kind: "NotFound"},
		{Type: AssertSplices, Count: intPtr(1)},
		{Type: AssertOrder, Functions: []string{"twice", "inc"}},
	})
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "Expected: NotFound")
	assert.Contains(t, errs[1], "Expected: 1 splices")
	assert.Contains(t, errs[2], "Actual: [inc twice]")
}

func TestAssertDiagnosticLineMismatch(t *testing.T) {
	err := assertDiagnostic(sampleResult(), Assertion{Type: AssertDiagnostic, Kind: "W301", Line: 7})
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "W301 at line 7", ae.Expected)
	assert.Len(t, ae.Diagnostics, 2)
	assert.Contains(t, err.Error(), "Diagnostics:")
	assert.Contains(t, err.Error(), "u.cue:6:3: warning[W301]")
}

func TestAssertDiagnosticCountByKind(t *testing.T) {
	err := assertDiagnosticCount(sampleResult(), Assertion{Kind: "DeprecatedSelfReference", Count: intPtr(2)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: 2 DeprecatedSelfReference diagnostics")
	assert.Contains(t, err.Error(), "Actual: 1 DeprecatedSelfReference diagnostics")
}

func TestAssertBindingFailure(t *testing.T) {
	err := assertBinding(sampleResult(), Assertion{Func: "main", Name: "x", Flat: "x_3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x flat=x_3 in function main")
	assert.Contains(t, err.Error(), "x flat=x state=shadowed value=1; x flat=x_2 state=active value=2")

	err = assertBinding(sampleResult(), Assertion{Name: "nope", State: "active"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no binding named nope")
	assert.Contains(t, err.Error(), "in unit scope")
}

func TestAssertBindingValueRequiresFold(t *testing.T) {
	r := sampleResult()
	r.Bindings["f"] = []resolve.Info{{Name: "y", Flat: "y", State: "active"}}
	err := assertBinding(r, Assertion{Func: "f", Name: "y", Value: int64Ptr(0)})
	assert.Error(t, err)
}

func TestAssertOutputWithoutOutput(t *testing.T) {
	r := sampleResult()
	r.Status = StatusFailed
	r.Output = ""

	err := assertOutput(r, Assertion{Type: AssertOutputContains, Text: "main"}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no output (analysis failed)")

	assert.NoError(t, assertOutput(r, Assertion{Type: AssertOutputExcludes, Text: "main"}, false))
}

func TestAssertOutputExcludes(t *testing.T) {
	err := assertOutput(sampleResult(), Assertion{Type: AssertOutputExcludes, Text: "x_2"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `output without "x_2"`)
	assert.Contains(t, err.Error(), "found in output")
}

func TestEvaluateAssertionsUnknownType(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{{Type: "mystery"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "mystery"`)
}
