package diag

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extcheck/internal/ast"
)

func TestKindCodesAndSeverity(t *testing.T) {
	tests := []struct {
		kind     Kind
		code     string
		severity Severity
	}{
		{Redefinition, "E201", SeverityError},
		{NotFound, "E202", SeverityError},
		{NotLocalVariable, "E203", SeverityError},
		{NothingToShadow, "E204", SeverityError},
		{AddressOfInlineAlways, "E205", SeverityError},
		{CyclicAlwaysInline, "E206", SeverityError},
		{InvalidCall, "E207", SeverityError},
		{DeprecatedNestedShadow, "W301", SeverityWarning},
		{DeprecatedSelfReference, "W302", SeverityWarning},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.code, tt.kind.Code())
			assert.Equal(t, tt.severity, tt.kind.Severity())

			parsed, err := ParseKind(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, parsed)
		})
	}

	_, err := ParseKind("Bogus")
	assert.Error(t, err)
}

func TestDiagnosticError(t *testing.T) {
	d := New(NotFound, ast.Pos{File: "a.cue", Line: 3, Col: 7}, "%q is not accessible", "v")
	assert.Equal(t, `a.cue:3:7: error[E202] "v" is not accessible`, d.Error())

	d.WithRelated(ast.Pos{Line: 1, Col: 1}, "undeclared here")
	require.Len(t, d.Related, 1)
	assert.Equal(t, "undeclared here", d.Related[0].Message)
}

func TestCollectorSortsAndDedupes(t *testing.T) {
	c := NewCollector()
	c.Report(NotFound, ast.Pos{Line: 5, Col: 1}, "b")
	c.Report(DeprecatedNestedShadow, ast.Pos{Line: 2, Col: 4}, "w")
	c.Report(Redefinition, ast.Pos{Line: 2, Col: 4}, "a")
	c.Report(NotFound, ast.Pos{Line: 5, Col: 1}, "b") // duplicate

	all := c.All()
	require.Len(t, all, 3)
	assert.Equal(t, Redefinition, all[0].Kind)
	assert.Equal(t, DeprecatedNestedShadow, all[1].Kind)
	assert.Equal(t, NotFound, all[2].Kind)

	assert.Len(t, c.Errors(), 2)
	assert.Len(t, c.Warnings(), 1)
	assert.True(t, c.HasErrors())
}

func TestCollectorErr(t *testing.T) {
	c := NewCollector()
	c.Report(DeprecatedSelfReference, ast.Pos{Line: 1}, "warn only")
	assert.NoError(t, c.Err())

	c.Report(NothingToShadow, ast.Pos{Line: 4}, "nothing to shadow")
	c.Report(NotFound, ast.Pos{Line: 9}, "missing")
	err := c.Err()
	require.Error(t, err)

	l, ok := AsList(err)
	require.True(t, ok)
	assert.Len(t, l.Diagnostics, 2)
	assert.Contains(t, err.Error(), "and 1 more errors")

	wrapped := fmt.Errorf("analyze: %w", err)
	assert.True(t, HasKind(wrapped, NothingToShadow))
	assert.False(t, HasKind(wrapped, CyclicAlwaysInline))
}

func TestCollectorConcurrentAdd(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				c.Report(NotFound, ast.Pos{Line: i + 1, Col: w + 1}, "n%d", i)
			}
		}(w)
	}
	wg.Wait()

	all := c.All()
	assert.Len(t, all, 400)
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1].Pos, all[i].Pos
		assert.False(t, cur.Before(prev), "sorted at %d", i)
	}
}
