package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/diag"
)

func TestRunWithGolden(t *testing.T) {
	result, err := RunWithGolden(t, loadScenario(t, "shadow_basic"))
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestSnapshot(t *testing.T) {
	r := NewResult()
	r.Status = StatusFailed
	r.Diagnostics = []*diag.Diagnostic{
		diag.New(diag.CyclicAlwaysInline, ast.Pos{File: "c.cue", Line: 2, Col: 9}, "always-inline call cycle").
			WithRelated(ast.Pos{File: "c.cue", Line: 3, Col: 9}, "g calls f"),
	}

	want := "// scenario cycle\n" +
		"// status failed\n" +
		"// c.cue:2:9: error[E206] always-inline call cycle\n" +
		"//   c.cue:3:9: g calls f\n"
	assert.Equal(t, want, string(Snapshot("cycle", r)))
}

func TestSnapshotIncludesOutput(t *testing.T) {
	r := NewResult()
	r.Status = StatusOK
	r.Output = "// unit u\nint g;\n"
	assert.Equal(t, "// scenario u\n// status ok\n\n// unit u\nint g;\n", string(Snapshot("u", r)))
}
