package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/extcheck/internal/ast"
)

// CompileUnit parses a CUE value into a translation unit.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the unit struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(src, cue.Filename("demo.cue"))
//	u, err := CompileUnit(v.LookupPath(cue.ParsePath("unit.demo")))
//
// A unit holds globals and functions in source order:
//
//	unit: demo: {
//		global: g: {type: "int", init: 1}
//		func: twice: {
//			inline: "always"
//			result: "int"
//			params: [{type: "int", name: "a"}]
//			body: [{return: {binary: {op: "*", x: "a", y: 2}}}]
//		}
//	}
//
// Statements and expressions are structs with a single key naming the
// construct. A string expression is an identifier ("::g" for a qualified
// one) and an int expression is a literal. Every node takes its position
// from the CUE value it was compiled from.
func CompileUnit(v cue.Value) (*ast.Unit, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	u := &ast.Unit{}

	// Parse unit name from struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		u.Name = labels[len(labels)-1].String()
	}

	globalsVal := field(v, "global")
	if globalsVal.Exists() {
		iter, err := globalsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			g, err := compileGlobal(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			u.Globals = append(u.Globals, g)
		}
	}

	funcsVal := field(v, "func")
	if funcsVal.Exists() {
		iter, err := funcsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			fn, err := compileFunc(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			u.Funcs = append(u.Funcs, fn)
		}
	}

	if len(u.Globals) == 0 && len(u.Funcs) == 0 {
		return nil, &CompileError{
			Field:   "unit",
			Message: "a unit must declare at least one global or function",
			Pos:     v.Pos(),
		}
	}
	return u, nil
}

func field(v cue.Value, name string) cue.Value {
	return v.LookupPath(cue.MakePath(cue.Str(name)))
}

func requiredString(v cue.Value, name string) (string, error) {
	fv := field(v, name)
	if !fv.Exists() {
		return "", &CompileError{Field: name, Message: name + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, name string) (string, error) {
	fv := field(v, name)
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func compileGlobal(name string, v cue.Value) (*ast.GlobalDecl, error) {
	typ, err := requiredString(v, "type")
	if err != nil {
		return nil, err
	}
	g := &ast.GlobalDecl{Pos: convertPos(v.Pos()), Name: name, Type: typ}
	if initVal := field(v, "init"); initVal.Exists() {
		if g.Init, err = compileExpr(initVal); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func compileFunc(name string, v cue.Value) (*ast.FuncDecl, error) {
	fn := &ast.FuncDecl{Pos: convertPos(v.Pos()), Name: name}

	mode, err := optionalString(v, "inline")
	if err != nil {
		return nil, err
	}
	if fn.Mode, err = ast.ParseInlineMode(mode); err != nil {
		return nil, &CompileError{Field: "inline", Message: err.Error(), Pos: field(v, "inline").Pos()}
	}

	if fn.Result, err = optionalString(v, "result"); err != nil {
		return nil, err
	}

	if paramsVal := field(v, "params"); paramsVal.Exists() {
		iter, err := paramsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			pv := iter.Value()
			typ, err := requiredString(pv, "type")
			if err != nil {
				return nil, err
			}
			pname, err := requiredString(pv, "name")
			if err != nil {
				return nil, err
			}
			fn.Params = append(fn.Params, &ast.Param{Pos: convertPos(pv.Pos()), Name: pname, Type: typ})
		}
	}

	if bodyVal := field(v, "body"); bodyVal.Exists() {
		if fn.Body, err = compileStmts(bodyVal); err != nil {
			return nil, err
		}
	}
	return fn, nil
}

// single returns the only field of a one-key struct.
func single(v cue.Value, what string) (string, cue.Value, error) {
	if v.IncompleteKind() != cue.StructKind {
		return "", cue.Value{}, &CompileError{
			Field:   what,
			Message: fmt.Sprintf("%s must be a struct, got %v", what, v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
	iter, err := v.Fields()
	if err != nil {
		return "", cue.Value{}, formatCUEError(err)
	}
	var (
		key string
		val cue.Value
		n   int
	)
	for iter.Next() {
		key, val = iter.Label(), iter.Value()
		n++
	}
	if n != 1 {
		return "", cue.Value{}, &CompileError{
			Field:   what,
			Message: fmt.Sprintf("%s must have exactly one key, found %d", what, n),
			Pos:     v.Pos(),
		}
	}
	return key, val, nil
}

func compileStmts(v cue.Value) ([]ast.Stmt, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []ast.Stmt
	for iter.Next() {
		s, err := compileStmt(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func compileBlock(v cue.Value) (*ast.BlockStmt, error) {
	stmts, err := compileStmts(v)
	if err != nil {
		return nil, err
	}
	return &ast.BlockStmt{Pos: convertPos(v.Pos()), Stmts: stmts}, nil
}

func compileStmt(v cue.Value) (ast.Stmt, error) {
	key, body, err := single(v, "statement")
	if err != nil {
		return nil, err
	}
	pos := convertPos(v.Pos())

	switch key {
	case "decl", "shadow":
		return compileDecl(body, pos, key == "shadow")

	case "undeclare":
		s := &ast.UndeclareStmt{Pos: pos}
		names, err := stringList(body, "undeclare")
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			s.Names = append(s.Names, &ast.Ident{Pos: n.pos, Name: n.s})
		}
		return s, nil

	case "expr":
		x, err := compileExpr(body)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{X: x}, nil

	case "assign":
		lhs, err := compileExpr(field(body, "lhs"))
		if err != nil {
			return nil, err
		}
		rhs, err := compileExpr(field(body, "rhs"))
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Pos: pos, LHS: lhs, RHS: rhs}, nil

	case "return":
		s := &ast.ReturnStmt{Pos: pos}
		if body.IncompleteKind() == cue.NullKind {
			return s, nil
		}
		if s.Result, err = compileExpr(body); err != nil {
			return nil, err
		}
		return s, nil

	case "block":
		return compileBlock(body)

	case "if":
		cond, err := compileExpr(field(body, "cond"))
		if err != nil {
			return nil, err
		}
		s := &ast.IfStmt{Pos: pos, Cond: cond}
		if s.Then, err = compileBlock(field(body, "then")); err != nil {
			return nil, err
		}
		if elseVal := field(body, "else"); elseVal.Exists() {
			if s.Else, err = compileBlock(elseVal); err != nil {
				return nil, err
			}
		}
		return s, nil

	case "while":
		cond, err := compileExpr(field(body, "cond"))
		if err != nil {
			return nil, err
		}
		s := &ast.WhileStmt{Pos: pos, Cond: cond}
		if s.Body, err = compileBlock(field(body, "body")); err != nil {
			return nil, err
		}
		return s, nil
	}

	return nil, &CompileError{
		Field:   "statement",
		Message: fmt.Sprintf("unknown statement %q", key),
		Pos:     v.Pos(),
	}
}

// compileDecl accepts either a declarator list or a single name:
//
//	{decl: {type: "int", vars: [{name: "x", init: 1}, {name: "y"}]}}
//	{shadow: {type: "int", name: "x", init: {binary: {op: "*", x: 2, y: "x"}}}}
func compileDecl(v cue.Value, pos ast.Pos, shadow bool) (ast.Stmt, error) {
	typ, err := requiredString(v, "type")
	if err != nil {
		return nil, err
	}
	d := &ast.DeclStmt{Pos: pos, Type: typ, Shadow: shadow}

	varsVal := field(v, "vars")
	if !varsVal.Exists() {
		spec, err := compileVarSpec(v)
		if err != nil {
			return nil, err
		}
		d.Vars = append(d.Vars, spec)
		return d, nil
	}

	iter, err := varsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		spec, err := compileVarSpec(iter.Value())
		if err != nil {
			return nil, err
		}
		d.Vars = append(d.Vars, spec)
	}
	if len(d.Vars) == 0 {
		return nil, &CompileError{Field: "vars", Message: "a declaration needs at least one variable", Pos: varsVal.Pos()}
	}
	return d, nil
}

func compileVarSpec(v cue.Value) (*ast.VarSpec, error) {
	name, err := requiredString(v, "name")
	if err != nil {
		return nil, err
	}
	spec := &ast.VarSpec{Pos: convertPos(field(v, "name").Pos()), Name: name}
	if initVal := field(v, "init"); initVal.Exists() {
		if spec.Init, err = compileExpr(initVal); err != nil {
			return nil, err
		}
	}
	return spec, nil
}

type posString struct {
	s   string
	pos ast.Pos
}

// stringList accepts a string or a list of strings.
func stringList(v cue.Value, what string) ([]posString, error) {
	if s, err := v.String(); err == nil {
		return []posString{{s: s, pos: convertPos(v.Pos())}}, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: what, Message: "must be a string or a list of strings", Pos: v.Pos()}
	}
	var out []posString
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, posString{s: s, pos: convertPos(iter.Value().Pos())})
	}
	if len(out) == 0 {
		return nil, &CompileError{Field: what, Message: "at least one name is required", Pos: v.Pos()}
	}
	return out, nil
}

func compileIdent(s string, pos ast.Pos) *ast.Ident {
	if name, ok := strings.CutPrefix(s, "::"); ok {
		return &ast.Ident{Pos: pos, Name: name, Global: true}
	}
	return &ast.Ident{Pos: pos, Name: s}
}

func compileExpr(v cue.Value) (ast.Expr, error) {
	if !v.Exists() {
		return nil, &CompileError{Field: "expression", Message: "expression is required", Pos: v.Pos()}
	}
	pos := convertPos(v.Pos())

	switch v.IncompleteKind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return compileIdent(s, pos), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &ast.IntLit{Pos: pos, Value: n}, nil
	case cue.StructKind:
	default:
		return nil, &CompileError{
			Field:   "expression",
			Message: fmt.Sprintf("expression must be a string, an int or a struct, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	key, body, err := single(v, "expression")
	if err != nil {
		return nil, err
	}

	switch key {
	case "ident", "global":
		s, err := body.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &ast.Ident{Pos: pos, Name: s, Global: key == "global"}, nil

	case "int":
		n, err := body.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return &ast.IntLit{Pos: pos, Value: n}, nil

	case "unary":
		op, err := requiredString(body, "op")
		if err != nil {
			return nil, err
		}
		x, err := compileExpr(field(body, "x"))
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Pos: pos, Op: op, X: x}, nil

	case "binary":
		op, err := requiredString(body, "op")
		if err != nil {
			return nil, err
		}
		x, err := compileExpr(field(body, "x"))
		if err != nil {
			return nil, err
		}
		y, err := compileExpr(field(body, "y"))
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Pos: pos, Op: op, X: x, Y: y}, nil

	case "call":
		fnExpr, err := compileExpr(field(body, "fn"))
		if err != nil {
			return nil, err
		}
		call := &ast.CallExpr{Pos: pos, Fn: fnExpr}
		if argsVal := field(body, "args"); argsVal.Exists() {
			iter, err := argsVal.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for iter.Next() {
				a, err := compileExpr(iter.Value())
				if err != nil {
					return nil, err
				}
				call.Args = append(call.Args, a)
			}
		}
		return call, nil

	case "source_location":
		return &ast.SourceLocExpr{Pos: pos}, nil
	}

	return nil, &CompileError{
		Field:   "expression",
		Message: fmt.Sprintf("unknown expression %q", key),
		Pos:     v.Pos(),
	}
}

// CompileUnits compiles every unit declared under the top-level "unit"
// field of v, in declaration order.
func CompileUnits(v cue.Value) ([]*ast.Unit, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	unitsVal := field(v, "unit")
	if !unitsVal.Exists() {
		return nil, &CompileError{Field: "unit", Message: "no unit declared", Pos: v.Pos()}
	}
	iter, err := unitsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var units []*ast.Unit
	for iter.Next() {
		u, err := CompileUnit(iter.Value())
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	if len(units) == 0 {
		return nil, &CompileError{Field: "unit", Message: "no unit declared", Pos: unitsVal.Pos()}
	}
	return units, nil
}
