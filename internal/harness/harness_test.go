package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extcheck/internal/store"
	tu "github.com/roach88/extcheck/internal/testutil"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRunScenarios(t *testing.T) {
	for _, name := range []string{"shadow_basic", "nested_shadow", "inline_chain", "undeclare_use", "cycle"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(context.Background(), loadScenario(t, name), Options{})
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunFailedAnalysisHasNoOutput(t *testing.T) {
	result, err := Run(context.Background(), loadScenario(t, "undeclare_use"), Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Empty(t, result.Output)
	assert.NotEmpty(t, result.Diagnostics)
}

func TestRunStatusMismatch(t *testing.T) {
	s := loadScenario(t, "undeclare_use")
	s.Expect = StatusOK
	s.Assertions = nil

	result, err := Run(context.Background(), s, Options{})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected status ok, got failed")
	assert.Contains(t, result.Errors[0], "error[E202]")
}

func TestRunWorkersDoNotChangeResult(t *testing.T) {
	s := loadScenario(t, "inline_chain")
	serial, err := Run(context.Background(), s, Options{})
	require.NoError(t, err)

	s.Workers = 4
	parallel, err := Run(context.Background(), s, Options{})
	require.NoError(t, err)

	assert.Equal(t, serial.Output, parallel.Output)
	assert.Equal(t, serial.Order, parallel.Order)
	assert.Equal(t, serial.Splices, parallel.Splices)
}

func TestRunRecordsToStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"), store.WithIDGenerator(tu.NewSequentialIDs()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	ok, err := Run(ctx, loadScenario(t, "shadow_basic"), Options{Store: st})
	require.NoError(t, err)
	failed, err := Run(ctx, loadScenario(t, "undeclare_use"), Options{Store: st})
	require.NoError(t, err)

	assert.Equal(t, "00000000-0000-7000-8000-000000000001", ok.RunID)
	assert.Equal(t, "00000000-0000-7000-8000-000000000002", failed.RunID)

	run, err := st.GetRun(ctx, failed.RunID)
	require.NoError(t, err)
	assert.Equal(t, "moved", run.UnitName)
	assert.Equal(t, store.StatusFailed, run.Status)
	require.Len(t, run.Diagnostics, len(failed.Diagnostics))
	assert.Equal(t, failed.Diagnostics[0].Code, run.Diagnostics[0].Code)

	runs, err := st.ListRuns(ctx, store.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunInvalidUnit(t *testing.T) {
	s := &Scenario{
		Name:   "invalid",
		Source: `unit: bad: func: f: {result: "void", body: [{return: 1}]}`,
		Expect: StatusOK,
	}
	_, err := Run(context.Background(), s, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid unit bad")
	assert.Contains(t, err.Error(), "[E122]")
}

func TestLoadUnitSelection(t *testing.T) {
	src := `
unit: a: global: x: type: "int"
unit: b: global: y: type: "int"
`
	_, err := LoadUnit(&Scenario{Name: "multi", Source: src})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declares 2 units")

	u, err := LoadUnit(&Scenario{Name: "multi", Source: src, Unit: "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", u.Name)
	assert.Equal(t, "multi.cue", u.Globals[0].Pos.File)

	_, err = LoadUnit(&Scenario{Name: "multi", Source: src, Unit: "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unit c not found")
}

func TestLoadUnitCompileError(t *testing.T) {
	_, err := LoadUnit(&Scenario{Name: "broken", Source: `unit: u: func: f: body: [{goto: 1}]`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile broken.cue")
	assert.Contains(t, err.Error(), `unknown statement "goto"`)
}

func TestLoadUnitFromFile(t *testing.T) {
	u, err := LoadUnit(loadScenario(t, "nested_shadow"))
	require.NoError(t, err)
	assert.Equal(t, "nested", u.Name)
	assert.Equal(t, "nested.cue", u.Funcs[0].Pos.File)
}
