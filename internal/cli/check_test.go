package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCleanUnits(t *testing.T) {
	out, _, err := execute(t, "check", unitsDir("ok"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ chain (0 warning(s))")
	assert.Contains(t, out, "✓ scope (1 warning(s))")
	assert.Contains(t, out, "warning[W301]")
	assert.Contains(t, out, "hidden declaration is here")
}

func TestCheckSingleUnit(t *testing.T) {
	out, _, err := execute(t, "check", unitsDir("ok"), "--unit", "chain")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ chain")
	assert.NotContains(t, out, "scope")

	_, _, err = execute(t, "check", unitsDir("ok"), "--unit", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCheckFatalDiagnostics(t *testing.T) {
	out, _, err := execute(t, "check", unitsDir("bad"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "error[E202]")
	assert.Contains(t, out, "moved.cue:4:")
	assert.Contains(t, out, "✗ moved (1 error(s), 0 warning(s))")
}

func TestCheckJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "check", unitsDir("bad"))
	require.Error(t, err)

	var resp struct {
		Status string      `json:"status"`
		Error  *CLIError   `json:"error"`
		Data   CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E202", resp.Error.Code)

	out, _, err = execute(t, "--format", "json", "check", unitsDir("ok"))
	require.NoError(t, err)

	var ok struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ok))
	assert.Equal(t, "ok", ok.Status)
	require.Len(t, ok.Data.Units, 2)
	assert.Equal(t, 0, ok.Data.Errors)
	assert.Equal(t, 1, ok.Data.Warnings)
	assert.Equal(t, []string{"inc"}, ok.Data.Units[0].Order)
}

func TestCheckValidationFailure(t *testing.T) {
	out, _, err := execute(t, "check", unitsDir("invalid"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
}

func TestCheckWorkers(t *testing.T) {
	serial, _, err := execute(t, "--workers", "1", "check", unitsDir("ok"))
	require.NoError(t, err)
	parallel, _, err := execute(t, "--workers", "8", "check", unitsDir("ok"))
	require.NoError(t, err)
	assert.Equal(t, serial, parallel)
}

func TestCheckVerboseLogsToStderr(t *testing.T) {
	out, errOut, err := execute(t, "--verbose", "--format", "json", "check", unitsDir("ok"))
	require.NoError(t, err)
	assert.Contains(t, errOut, "Found 2 CUE file(s)")
	assert.Contains(t, errOut, "level=DEBUG")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
}
