package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/extcheck/internal/diag"
	"github.com/roach88/extcheck/internal/resolve"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type        string             // Assertion type for categorization
	Expected    string             // Human-readable expected outcome
	Actual      string             // Human-readable actual outcome
	Diagnostics []*diag.Diagnostic // All diagnostics for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Diagnostics) > 0 {
		fmt.Fprintf(&buf, "\nDiagnostics:\n")
		for i, d := range e.Diagnostics {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, d.Error())
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and
// returns the failure messages. It does not stop at the first failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertDiagnostic:
			err = assertDiagnostic(result, assertion)
		case AssertDiagnosticCount:
			err = assertDiagnosticCount(result, assertion)
		case AssertBinding:
			err = assertBinding(result, assertion)
		case AssertOutputContains:
			err = assertOutput(result, assertion, true)
		case AssertOutputExcludes:
			err = assertOutput(result, assertion, false)
		case AssertOrder:
			err = assertOrder(result, assertion)
		case AssertSplices:
			err = assertSplices(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// matchesKind reports whether d has the kind named by name or code.
func matchesKind(d *diag.Diagnostic, kind string) bool {
	k, err := diag.ParseKind(kind)
	return err == nil && d.Kind == k
}

// assertDiagnostic checks that some diagnostic matches the kind and, when
// given, the line and message substring.
func assertDiagnostic(result *Result, assertion Assertion) error {
	for _, d := range result.Diagnostics {
		if !matchesKind(d, assertion.Kind) {
			continue
		}
		if assertion.Line != 0 && d.Pos.Line != assertion.Line {
			continue
		}
		if assertion.Message != "" && !strings.Contains(d.Message, assertion.Message) {
			continue
		}
		return nil
	}

	expected := assertion.Kind
	if assertion.Line != 0 {
		expected += fmt.Sprintf(" at line %d", assertion.Line)
	}
	if assertion.Message != "" {
		expected += fmt.Sprintf(" with message containing %q", assertion.Message)
	}
	return &AssertionError{
		Type:        AssertDiagnostic,
		Expected:    expected,
		Actual:      "not reported",
		Diagnostics: result.Diagnostics,
	}
}

// assertDiagnosticCount checks the number of diagnostics, of one kind if set.
func assertDiagnosticCount(result *Result, assertion Assertion) error {
	count := 0
	for _, d := range result.Diagnostics {
		if assertion.Kind == "" || matchesKind(d, assertion.Kind) {
			count++
		}
	}

	if count != *assertion.Count {
		what := "diagnostics"
		if assertion.Kind != "" {
			what = assertion.Kind + " " + what
		}
		return &AssertionError{
			Type:        AssertDiagnosticCount,
			Expected:    fmt.Sprintf("%d %s", *assertion.Count, what),
			Actual:      fmt.Sprintf("%d %s", count, what),
			Diagnostics: result.Diagnostics,
		}
	}
	return nil
}

// assertBinding checks that some binding with the name satisfies every
// field the assertion sets.
func assertBinding(result *Result, assertion Assertion) error {
	infos := result.Globals
	scope := "unit scope"
	if assertion.Func != "" {
		infos = result.Bindings[assertion.Func]
		scope = "function " + assertion.Func
	}

	var candidates []string
	for _, info := range infos {
		if info.Name != assertion.Name {
			continue
		}
		candidates = append(candidates, describeBinding(info))
		if bindingMatches(info, assertion) {
			return nil
		}
	}

	actual := "no binding named " + assertion.Name
	if len(candidates) > 0 {
		actual = strings.Join(candidates, "; ")
	}
	return &AssertionError{
		Type:     AssertBinding,
		Expected: fmt.Sprintf("%s in %s", describeExpectedBinding(assertion), scope),
		Actual:   actual,
	}
}

func bindingMatches(info resolve.Info, a Assertion) bool {
	if a.Flat != "" && info.Flat != a.Flat {
		return false
	}
	if a.State != "" && info.State != a.State {
		return false
	}
	if a.Value != nil && (info.Value == nil || *info.Value != *a.Value) {
		return false
	}
	return true
}

func describeBinding(info resolve.Info) string {
	s := fmt.Sprintf("%s flat=%s state=%s", info.Name, info.Flat, info.State)
	if info.Value != nil {
		s += fmt.Sprintf(" value=%d", *info.Value)
	}
	return s
}

func describeExpectedBinding(a Assertion) string {
	s := a.Name
	if a.Flat != "" {
		s += " flat=" + a.Flat
	}
	if a.State != "" {
		s += " state=" + a.State
	}
	if a.Value != nil {
		s += fmt.Sprintf(" value=%d", *a.Value)
	}
	return s
}

// assertOutput checks whether the printed output contains the text.
func assertOutput(result *Result, assertion Assertion, want bool) error {
	if strings.Contains(result.Output, assertion.Text) == want {
		return nil
	}

	expected := fmt.Sprintf("output containing %q", assertion.Text)
	actual := "not found in output"
	if !want {
		expected = fmt.Sprintf("output without %q", assertion.Text)
		actual = "found in output"
	}
	if result.Output == "" {
		actual = "no output (analysis failed)"
	}
	return &AssertionError{
		Type:        assertion.Type,
		Expected:    expected,
		Actual:      actual,
		Diagnostics: result.Diagnostics,
	}
}

// assertOrder checks the exact expansion order.
func assertOrder(result *Result, assertion Assertion) error {
	if slices.Equal(result.Order, assertion.Functions) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOrder,
		Expected: fmt.Sprintf("expansion order %v", assertion.Functions),
		Actual:   fmt.Sprintf("%v", result.Order),
	}
}

// assertSplices checks the number of expanded call sites.
func assertSplices(result *Result, assertion Assertion) error {
	if result.Splices == *assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertSplices,
		Expected: fmt.Sprintf("%d splices", *assertion.Count),
		Actual:   fmt.Sprintf("%d splices", result.Splices),
	}
}
