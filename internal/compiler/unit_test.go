package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extcheck/internal/ast"
)

func compileSource(t *testing.T, src, path string) (*ast.Unit, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename("unit.cue"))
	require.NoError(t, v.Err())
	return CompileUnit(v.LookupPath(cue.ParsePath(path)))
}

func TestCompileUnitBasic(t *testing.T) {
	u, err := compileSource(t, `
unit: sample: {
	global: g: {type: "int", init: 1}
	func: twice: {
		inline: "always"
		result: "int"
		params: [{type: "int", name: "a"}]
		body: [{return: {binary: {op: "*", x: "a", y: 2}}}]
	}
	func: main: {
		result: "int"
		body: [
			{decl: {type: "int", name: "x", init: 1}},
			{shadow: {type: "int", name: "x", init: {call: {fn: "twice", args: ["x"]}}}},
			{return: "x"},
		]
	}
}
`, "unit.sample")
	require.NoError(t, err)

	want := `// unit sample
int g = 1;

__inline_always int twice(int a) {
  return a * 2;
}

int main() {
  int x = 1;
  __shadow int x = twice(x);
  return x;
}
`
	assert.Equal(t, want, ast.Sprint(u))
}

func TestCompileUnitStatements(t *testing.T) {
	u, err := compileSource(t, `
unit: stmts: func: f: {
	inline: "never"
	params: [{type: "int*", name: "p"}, {type: "int", name: "n"}]
	body: [
		{decl: {type: "int", vars: [{name: "a"}, {name: "b", init: 2}]}},
		{undeclare: ["a", "b"]},
		{"if": {
			cond: {binary: {op: "<", x: "n", y: 0}}
			then: [{return: null}]
			else: [{assign: {lhs: "n", rhs: {unary: {op: "-", x: "n"}}}}]
		}},
		{while: {cond: "n", body: [{assign: {lhs: "n", rhs: {binary: {op: "-", x: "n", y: 1}}}}]}},
		{block: [{expr: {call: {fn: "::log", args: [{unary: {op: "&", x: "n"}}]}}}]},
		{undeclare: "p"},
	]
}
`, "unit.stmts")
	require.NoError(t, err)

	want := `// unit stmts

__inline_never void f(int* p, int n) {
  int a, b = 2;
  __undeclare a, b;
  if (n < 0) {
    return;
  } else {
    n = -n;
  }
  while (n) {
    n = n - 1;
  }
  {
    ::log(&n);
  }
  __undeclare p;
}
`
	assert.Equal(t, want, ast.Sprint(u))
}

func TestCompileUnitExpressionForms(t *testing.T) {
	u, err := compileSource(t, `
unit: exprs: func: main: {
	body: [
		{expr: {ident: "a"}},
		{expr: {global: "b"}},
		{expr: {int: 7}},
		{expr: "::c"},
		{expr: {source_location: {}}},
	]
}
`, "unit.exprs")
	require.NoError(t, err)

	fn := u.Func("main")
	require.NotNil(t, fn)
	require.Len(t, fn.Body, 5)

	a := fn.Body[0].(*ast.ExprStmt).X.(*ast.Ident)
	assert.Equal(t, "a", a.Name)
	assert.False(t, a.Global)

	b := fn.Body[1].(*ast.ExprStmt).X.(*ast.Ident)
	assert.Equal(t, "b", b.Name)
	assert.True(t, b.Global)

	assert.Equal(t, int64(7), fn.Body[2].(*ast.ExprStmt).X.(*ast.IntLit).Value)

	c := fn.Body[3].(*ast.ExprStmt).X.(*ast.Ident)
	assert.Equal(t, "c", c.Name)
	assert.True(t, c.Global)

	loc, ok := fn.Body[4].(*ast.ExprStmt).X.(*ast.SourceLocExpr)
	require.True(t, ok)
	assert.Equal(t, 8, loc.Pos.Line)
}

func TestCompileUnitPositions(t *testing.T) {
	u, err := compileSource(t, `
unit: pos: func: main: {
	body: [
		{decl: {type: "int", name: "x"}},
		{return: "x"},
	]
}
`, "unit.pos")
	require.NoError(t, err)

	fn := u.Func("main")
	require.NotNil(t, fn)
	decl := fn.Body[0].(*ast.DeclStmt)
	assert.Equal(t, "unit.cue", decl.Pos.File)
	assert.Equal(t, 4, decl.Pos.Line)
	assert.Equal(t, 4, decl.Vars[0].Pos.Line)

	ret := fn.Body[1].(*ast.ReturnStmt)
	assert.Equal(t, 5, ret.Result.Start().Line)
}

func TestCompileUnitErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
		msg   string
	}{
		{
			name:  "empty unit",
			src:   `unit: u: {}`,
			field: "unit",
			msg:   "at least one global or function",
		},
		{
			name:  "unknown statement",
			src:   `unit: u: func: f: body: [{goto: "x"}]`,
			field: "statement",
			msg:   `unknown statement "goto"`,
		},
		{
			name:  "two keys",
			src:   `unit: u: func: f: body: [{expr: 1, return: 2}]`,
			field: "statement",
			msg:   "exactly one key, found 2",
		},
		{
			name:  "unknown expression",
			src:   `unit: u: func: f: body: [{expr: {lambda: 1}}]`,
			field: "expression",
			msg:   `unknown expression "lambda"`,
		},
		{
			name:  "bool expression",
			src:   `unit: u: func: f: body: [{expr: true}]`,
			field: "expression",
			msg:   "must be a string, an int or a struct",
		},
		{
			name:  "bad inline mode",
			src:   `unit: u: func: f: inline: "sometimes"`,
			field: "inline",
			msg:   "sometimes",
		},
		{
			name:  "global without type",
			src:   `unit: u: global: g: init: 1`,
			field: "type",
			msg:   "type is required",
		},
		{
			name:  "empty declarator list",
			src:   `unit: u: func: f: body: [{decl: {type: "int", vars: []}}]`,
			field: "vars",
			msg:   "at least one variable",
		},
		{
			name:  "empty undeclare list",
			src:   `unit: u: func: f: body: [{undeclare: []}]`,
			field: "undeclare",
			msg:   "at least one name",
		},
		{
			name:  "missing assign target",
			src:   `unit: u: func: f: body: [{assign: {rhs: 1}}]`,
			field: "expression",
			msg:   "expression is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileSource(t, tt.src, "unit.u")
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, ce.Message, tt.msg)
		})
	}
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "statement", Message: "bad"}
	assert.Equal(t, "statement: bad", err.Error())
	assert.False(t, err.Position().IsValid())

	_, cerr := compileSource(t, "unit: u: func: f: body: [\n\t{goto: 1},\n]", "unit.u")
	require.Error(t, cerr)
	assert.Contains(t, cerr.Error(), "unit.cue:2:")
	var ce *CompileError
	require.ErrorAs(t, cerr, &ce)
	assert.Equal(t, 2, ce.Position().Line)
}

func TestFormatCUEErrorNil(t *testing.T) {
	assert.NoError(t, formatCUEError(nil))
}

func TestCompileUnits(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
unit: a: global: x: type: "int"
unit: b: func: main: body: [{return: null}]
`, cue.Filename("units.cue"))
	require.NoError(t, v.Err())

	units, err := CompileUnits(v)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "a", units[0].Name)
	assert.Equal(t, "b", units[1].Name)

	_, err = CompileUnits(ctx.CompileString(`other: 1`))
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "no unit declared", ce.Message)
}
