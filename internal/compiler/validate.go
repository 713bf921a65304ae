package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/extcheck/internal/ast"
)

// Validation error codes (E100-E199)
const (
	// Unit errors (E100)
	ErrEmptyUnit = "E100" // unit declares nothing

	// Name errors (E101-E104)
	ErrInvalidIdentifier = "E101" // name is not an identifier
	ErrReservedName      = "E102" // name uses the reserved __ prefix
	ErrDuplicateParam    = "E103" // parameter declared twice
	ErrEmptyUndeclare    = "E104" // __undeclare without names

	// Type errors (E110-E114)
	ErrMissingType  = "E110" // type string is empty
	ErrVoidVariable = "E111" // variable or parameter of type void

	// Expression errors (E120-E129)
	ErrUnknownOperator = "E120" // operator not in the expression language
	ErrNotAssignable   = "E121" // assignment target is not an lvalue
	ErrVoidReturn      = "E122" // return with a value in a void function
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var unaryOps = map[string]bool{"-": true, "+": true, "!": true, "~": true, "&": true, "*": true}

var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"&&": true, "||": true,
}

// Validate checks the structural rules a unit must satisfy before analysis.
// Returns all errors found (does not fail-fast).
//
// Name binding is not checked here: redefinitions, unknown names and
// misuse of __shadow and __undeclare are diagnosed by the analyzer.
func Validate(u *ast.Unit) []ValidationError {
	v := &validator{}
	if len(u.Globals) == 0 && len(u.Funcs) == 0 {
		v.add("unit", "a unit must declare at least one global or function", ErrEmptyUnit, ast.Pos{})
	}
	for _, g := range u.Globals {
		field := "global." + g.Name
		v.name(field, g.Name, g.Pos)
		v.varType(field, g.Type, g.Pos)
		v.expr(field, g.Init)
	}
	for _, fn := range u.Funcs {
		v.fn(fn)
	}
	return v.errs
}

type validator struct {
	errs []ValidationError
}

func (v *validator) add(field, msg, code string, pos ast.Pos) {
	v.errs = append(v.errs, ValidationError{Field: field, Message: msg, Code: code, Line: pos.Line})
}

func (v *validator) name(field, name string, pos ast.Pos) {
	switch {
	case !identifierPattern.MatchString(name):
		v.add(field, fmt.Sprintf("%q is not a valid identifier", name), ErrInvalidIdentifier, pos)
	case strings.HasPrefix(name, "__"):
		v.add(field, fmt.Sprintf("%q uses the reserved __ prefix", name), ErrReservedName, pos)
	}
}

func (v *validator) varType(field, typ string, pos ast.Pos) {
	switch strings.TrimSpace(typ) {
	case "":
		v.add(field, "type is required", ErrMissingType, pos)
	case "void":
		v.add(field, "variables cannot have type void", ErrVoidVariable, pos)
	}
}

func (v *validator) fn(fn *ast.FuncDecl) {
	field := "func." + fn.Name
	v.name(field, fn.Name, fn.Pos)

	seen := make(map[string]bool)
	for i, p := range fn.Params {
		pfield := fmt.Sprintf("%s.params[%d]", field, i)
		v.name(pfield, p.Name, p.Pos)
		v.varType(pfield, p.Type, p.Pos)
		if seen[p.Name] {
			v.add(pfield, fmt.Sprintf("parameter %q declared twice", p.Name), ErrDuplicateParam, p.Pos)
		}
		seen[p.Name] = true
	}

	for _, s := range fn.Body {
		ast.Inspect(s, func(n ast.Node) bool {
			v.node(field, fn, n)
			return true
		})
	}
}

func (v *validator) node(field string, fn *ast.FuncDecl, n ast.Node) {
	switch x := n.(type) {
	case *ast.DeclStmt:
		v.varType(field, x.Type, x.Pos)
	case *ast.VarSpec:
		v.name(field, x.Name, x.Pos)
	case *ast.UndeclareStmt:
		if len(x.Names) == 0 {
			v.add(field, "__undeclare needs at least one name", ErrEmptyUndeclare, x.Pos)
		}
	case *ast.Ident:
		v.name(field, x.Name, x.Pos)
	case *ast.UnaryExpr:
		if !unaryOps[x.Op] {
			v.add(field, fmt.Sprintf("unknown unary operator %q", x.Op), ErrUnknownOperator, x.Pos)
		}
	case *ast.BinaryExpr:
		if !binaryOps[x.Op] {
			v.add(field, fmt.Sprintf("unknown binary operator %q", x.Op), ErrUnknownOperator, x.Start())
		}
	case *ast.AssignStmt:
		if !assignable(x.LHS) {
			v.add(field, fmt.Sprintf("cannot assign to %s", ast.FormatExpr(x.LHS)), ErrNotAssignable, x.Pos)
		}
	case *ast.ReturnStmt:
		if fn != nil && x.Result != nil && fn.Void() {
			v.add(field, "void function returns a value", ErrVoidReturn, x.Pos)
		}
	}
}

// expr validates a unit-scope initializer.
func (v *validator) expr(field string, e ast.Expr) {
	if e == nil {
		return
	}
	ast.Inspect(e, func(n ast.Node) bool {
		v.node(field, nil, n)
		return true
	})
}

func assignable(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.Ident:
		return true
	case *ast.UnaryExpr:
		return x.Op == "*"
	}
	return false
}
