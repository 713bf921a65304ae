package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/diag"
	tu "github.com/roach88/extcheck/internal/testutil"
)

// createTestStore creates a new store with predictable run IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(tu.NewSequentialIDs()))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run with minimal required fields.
func createTestRun(name, hash, status string) *Run {
	return &Run{
		UnitName:    name,
		UnitHash:    hash,
		ToolVersion: ast.ToolVersion,
		Status:      status,
	}
}

// createTestDiagnostic creates a diagnostic at the given line of name.cue.
func createTestDiagnostic(k diag.Kind, name string, line int) *diag.Diagnostic {
	return diag.New(k, ast.Pos{File: name + ".cue", Line: line, Col: 3}, "test %s", k)
}
