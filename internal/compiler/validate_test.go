package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extcheck/internal/ast"
	tu "github.com/roach88/extcheck/internal/testutil"
)

func codes(errs []ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateValidUnit(t *testing.T) {
	u := tu.Unit("ok", []*ast.GlobalDecl{tu.Global("int", "g", tu.Int(1))},
		tu.Always("int", "twice", tu.P("int", "a"), tu.Return(tu.Bin("*", tu.Id("a"), tu.Int(2)))),
		tu.Plain("int", "main", nil,
			tu.Decl("int", "x", tu.Int(1)),
			tu.Shadow("int", "x", tu.Call("twice", tu.Id("x"))),
			tu.Set(tu.Id("x"), tu.Neg(tu.Id("x"))),
			tu.Undeclare("x"),
			tu.Return(tu.Qualified("g")),
		),
	)
	assert.Empty(t, Validate(u))
}

func TestValidateEmptyUnit(t *testing.T) {
	errs := Validate(&ast.Unit{Name: "empty"})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrEmptyUnit, errs[0].Code)
}

func TestValidateNames(t *testing.T) {
	u := tu.Unit("names", []*ast.GlobalDecl{tu.Global("int", "__g", nil)},
		tu.Plain("void", "1f", tu.P("int", "a.b"),
			tu.Decl("int", "x-y", nil),
		),
	)
	errs := Validate(u)
	assert.Equal(t, []string{ErrReservedName, ErrInvalidIdentifier, ErrInvalidIdentifier, ErrInvalidIdentifier}, codes(errs))
	assert.Equal(t, "global.__g", errs[0].Field)
	assert.Equal(t, "func.1f.params[0]", errs[2].Field)
	assert.Equal(t, 5, errs[3].Line)
}

func TestValidateTypes(t *testing.T) {
	u := tu.Unit("types", []*ast.GlobalDecl{tu.Global("void", "g", nil)},
		tu.Plain("void", "f", tu.P(" ", "a"),
			tu.Decl("", "x", nil),
		),
	)
	assert.Equal(t, []string{ErrVoidVariable, ErrMissingType, ErrMissingType}, codes(Validate(u)))
}

func TestValidateDuplicateParam(t *testing.T) {
	u := tu.Unit("dup", nil, tu.Plain("void", "f", tu.P("int", "a", "int", "a")))
	errs := Validate(u)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateParam, errs[0].Code)
	assert.Contains(t, errs[0].Message, `"a"`)
}

func TestValidateOperators(t *testing.T) {
	u := tu.Unit("ops", []*ast.GlobalDecl{tu.Global("int", "g", tu.Bin("**", tu.Int(2), tu.Int(3)))},
		tu.Plain("int", "f", nil,
			tu.Return(&ast.UnaryExpr{Op: "++", X: tu.Id("g")}),
		),
	)
	errs := Validate(u)
	assert.Equal(t, []string{ErrUnknownOperator, ErrUnknownOperator}, codes(errs))
	assert.Contains(t, errs[0].Message, `"**"`)
	assert.Contains(t, errs[1].Message, `"++"`)
}

func TestValidateAssignmentTarget(t *testing.T) {
	u := tu.Unit("assign", nil,
		tu.Plain("void", "f", tu.P("int*", "p"),
			tu.Set(&ast.UnaryExpr{Op: "*", X: tu.Id("p")}, tu.Int(1)),
			tu.Set(tu.Int(1), tu.Int(2)),
			tu.Set(tu.Call("g"), tu.Int(2)),
		),
	)
	errs := Validate(u)
	assert.Equal(t, []string{ErrNotAssignable, ErrNotAssignable}, codes(errs))
	assert.Contains(t, errs[0].Message, "cannot assign to 1")
	assert.Contains(t, errs[1].Message, "cannot assign to g()")
}

func TestValidateVoidReturn(t *testing.T) {
	u := tu.Unit("ret", nil,
		tu.Plain("void", "f", nil, tu.Return(tu.Int(1))),
		tu.Plain("", "g", nil, tu.Return(nil)),
		tu.Plain("int", "h", nil, tu.Return(tu.Int(1))),
	)
	errs := Validate(u)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrVoidReturn, errs[0].Code)
	assert.Equal(t, "func.f", errs[0].Field)
}

func TestValidateEmptyUndeclare(t *testing.T) {
	u := tu.Unit("undecl", nil, tu.Plain("void", "f", nil, &ast.UndeclareStmt{}))
	assert.Equal(t, []string{ErrEmptyUndeclare}, codes(Validate(u)))
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "func.f", Message: "bad", Code: ErrVoidReturn, Line: 3}
	assert.Equal(t, "[E122] line 3: func.f: bad", e.Error())

	e.Line = 0
	assert.Equal(t, "[E122] func.f: bad", e.Error())
}

func TestValidateCollectsAll(t *testing.T) {
	u := tu.Unit("many", nil,
		tu.Plain("void", "__f", tu.P("void", "a"),
			tu.Return(tu.Bin("<>", tu.Id("a"), tu.Id("a"))),
		),
	)
	assert.Equal(t, []string{ErrReservedName, ErrVoidVariable, ErrVoidReturn, ErrUnknownOperator}, codes(Validate(u)))
}
