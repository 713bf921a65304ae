package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the deterministic part of a result: status,
// diagnostics and the printed transformed unit.
//
//	// scenario shadow_basic
//	// status ok
//	// shadow.cue:5:4: warning[W301] declaration of "x" hides ...
//	//   shadow.cue:3:3: hidden declaration is here
//
//	// unit shadow
//	...
func Snapshot(scenarioName string, result *Result) []byte {
	var buf strings.Builder
	fmt.Fprintf(&buf, "// scenario %s\n", scenarioName)
	fmt.Fprintf(&buf, "// status %s\n", result.Status)
	for _, d := range result.Diagnostics {
		fmt.Fprintf(&buf, "// %s\n", d.Error())
		for _, r := range d.Related {
			fmt.Fprintf(&buf, "//   %s: %s\n", r.Pos, r.Message)
		}
	}
	if result.Output != "" {
		buf.WriteByte('\n')
		buf.WriteString(result.Output)
	}
	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can assert on it further.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, Options{})
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the given result's snapshot against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
