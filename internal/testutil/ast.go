package testutil

import (
	"github.com/roach88/extcheck/internal/ast"
)

// Helpers for building ASTs in tests without a front end.
//
// Constructors leave positions empty. Number assigns every node the
// line it occupies in ast.Sprint output, so tests can write expectations
// against the printed form.

// Id is an identifier reference.
func Id(name string) *ast.Ident { return &ast.Ident{Name: name} }

// Qualified is a ::name reference.
func Qualified(name string) *ast.Ident { return &ast.Ident{Name: name, Global: true} }

// Int is an integer literal.
func Int(v int64) *ast.IntLit { return &ast.IntLit{Value: v} }

// Addr is &x.
func Addr(x ast.Expr) *ast.UnaryExpr { return &ast.UnaryExpr{Op: "&", X: x} }

// Neg is -x.
func Neg(x ast.Expr) *ast.UnaryExpr { return &ast.UnaryExpr{Op: "-", X: x} }

// Bin is x op y.
func Bin(op string, x, y ast.Expr) *ast.BinaryExpr { return &ast.BinaryExpr{Op: op, X: x, Y: y} }

// Call is fn(args...).
func Call(fn string, args ...ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{Fn: Id(fn), Args: args}
}

// Here is the source-location intrinsic.
func Here() *ast.SourceLocExpr { return &ast.SourceLocExpr{} }

// V is a declarator for Decl and Shadow. init may be nil.
func V(name string, init ast.Expr) *ast.VarSpec {
	if init == nil {
		return &ast.VarSpec{Name: name}
	}
	return &ast.VarSpec{Name: name, Init: init}
}

// Decl is a plain declaration of one variable. init may be nil.
func Decl(typ, name string, init ast.Expr) *ast.DeclStmt {
	return &ast.DeclStmt{Type: typ, Vars: []*ast.VarSpec{V(name, init)}}
}

// DeclN is a plain declaration of several variables.
func DeclN(typ string, vars ...*ast.VarSpec) *ast.DeclStmt {
	return &ast.DeclStmt{Type: typ, Vars: vars}
}

// Shadow is a __shadow declaration of one variable. init may be nil.
func Shadow(typ, name string, init ast.Expr) *ast.DeclStmt {
	return &ast.DeclStmt{Type: typ, Shadow: true, Vars: []*ast.VarSpec{V(name, init)}}
}

// ShadowN is a __shadow declaration of several variables.
func ShadowN(typ string, vars ...*ast.VarSpec) *ast.DeclStmt {
	return &ast.DeclStmt{Type: typ, Shadow: true, Vars: vars}
}

// Undeclare is __undeclare names.
func Undeclare(names ...string) *ast.UndeclareStmt {
	s := &ast.UndeclareStmt{}
	for _, n := range names {
		s.Names = append(s.Names, Id(n))
	}
	return s
}

// Do is an expression statement.
func Do(x ast.Expr) *ast.ExprStmt { return &ast.ExprStmt{X: x} }

// Set is lhs = rhs.
func Set(lhs, rhs ast.Expr) *ast.AssignStmt { return &ast.AssignStmt{LHS: lhs, RHS: rhs} }

// Return is return x; x may be nil.
func Return(x ast.Expr) *ast.ReturnStmt {
	if x == nil {
		return &ast.ReturnStmt{}
	}
	return &ast.ReturnStmt{Result: x}
}

// Block is a braced block.
func Block(stmts ...ast.Stmt) *ast.BlockStmt { return &ast.BlockStmt{Stmts: stmts} }

// If is if (cond) then else; els may be nil.
func If(cond ast.Expr, then, els *ast.BlockStmt) *ast.IfStmt {
	return &ast.IfStmt{Cond: cond, Then: then, Else: els}
}

// While is while (cond) body.
func While(cond ast.Expr, body *ast.BlockStmt) *ast.WhileStmt {
	return &ast.WhileStmt{Cond: cond, Body: body}
}

// P is a parameter list from alternating type, name pairs.
func P(typeNames ...string) []*ast.Param {
	var out []*ast.Param
	for i := 0; i+1 < len(typeNames); i += 2 {
		out = append(out, &ast.Param{Type: typeNames[i], Name: typeNames[i+1]})
	}
	return out
}

// Fn is a function declaration.
func Fn(mode ast.InlineMode, result, name string, params []*ast.Param, body ...ast.Stmt) *ast.FuncDecl {
	return &ast.FuncDecl{Name: name, Mode: mode, Result: result, Params: params, Body: body}
}

// Always is an __inline_always function declaration.
func Always(result, name string, params []*ast.Param, body ...ast.Stmt) *ast.FuncDecl {
	return Fn(ast.InlineAlways, result, name, params, body...)
}

// Plain is a function declaration without an inline attribute.
func Plain(result, name string, params []*ast.Param, body ...ast.Stmt) *ast.FuncDecl {
	return Fn(ast.InlineDefault, result, name, params, body...)
}

// Global is a unit-scope variable. init may be nil.
func Global(typ, name string, init ast.Expr) *ast.GlobalDecl {
	g := &ast.GlobalDecl{Type: typ, Name: name}
	if init != nil {
		g.Init = init
	}
	return g
}

// Unit builds a numbered unit from globals and functions.
func Unit(name string, globals []*ast.GlobalDecl, funcs ...*ast.FuncDecl) *ast.Unit {
	return Number(&ast.Unit{Name: name, Globals: globals, Funcs: funcs})
}

// Number assigns positions to every node of u and returns u.
//
// A node's line is the line it starts on in ast.Sprint(u). Columns count
// nodes left to right within a line, starting at the indentation.
func Number(u *ast.Unit) *ast.Unit {
	n := &numberer{line: 1, file: u.Name + ".cue"}
	for _, g := range u.Globals {
		n.next(0)
		g.Pos = n.pos()
		n.expr(g.Init)
	}
	for _, fn := range u.Funcs {
		n.line++ // blank separator
		n.next(0)
		fn.Pos = n.pos()
		for _, p := range fn.Params {
			p.Pos = n.pos()
		}
		n.stmts(fn.Body, 1)
		n.next(0) // closing brace
	}
	return u
}

type numberer struct {
	file string
	line int
	col  int
}

func (n *numberer) next(indent int) {
	n.line++
	n.col = indent*2 + 1
}

func (n *numberer) pos() ast.Pos {
	p := ast.Pos{File: n.file, Line: n.line, Col: n.col}
	n.col++
	return p
}

func (n *numberer) stmts(list []ast.Stmt, indent int) {
	for _, s := range list {
		n.stmt(s, indent)
	}
}

func (n *numberer) body(b *ast.BlockStmt, indent int) {
	if b != nil {
		n.stmts(b.Stmts, indent)
	}
}

func (n *numberer) stmt(s ast.Stmt, indent int) {
	n.next(indent)
	switch x := s.(type) {
	case *ast.DeclStmt:
		x.Pos = n.pos()
		for _, v := range x.Vars {
			v.Pos = n.pos()
			n.expr(v.Init)
		}
	case *ast.UndeclareStmt:
		x.Pos = n.pos()
		for _, id := range x.Names {
			id.Pos = n.pos()
		}
	case *ast.ExprStmt:
		n.expr(x.X)
	case *ast.AssignStmt:
		x.Pos = n.pos()
		n.expr(x.LHS)
		n.expr(x.RHS)
	case *ast.ReturnStmt:
		x.Pos = n.pos()
		n.expr(x.Result)
	case *ast.BlockStmt:
		x.Pos = n.pos()
		n.body(x, indent+1)
		n.next(indent)
	case *ast.IfStmt:
		x.Pos = n.pos()
		n.expr(x.Cond)
		if x.Then != nil {
			x.Then.Pos = x.Pos
		}
		n.body(x.Then, indent+1)
		if x.Else != nil {
			n.next(indent)
			x.Else.Pos = n.pos()
			n.body(x.Else, indent+1)
		}
		n.next(indent)
	case *ast.WhileStmt:
		x.Pos = n.pos()
		n.expr(x.Cond)
		if x.Body != nil {
			x.Body.Pos = x.Pos
		}
		n.body(x.Body, indent+1)
		n.next(indent)
	case *ast.LeaveStmt:
		x.Pos = n.pos()
	}
}

func (n *numberer) expr(e ast.Expr) {
	switch x := e.(type) {
	case *ast.Ident:
		x.Pos = n.pos()
	case *ast.IntLit:
		x.Pos = n.pos()
	case *ast.UnaryExpr:
		x.Pos = n.pos()
		n.expr(x.X)
	case *ast.BinaryExpr:
		x.Pos = n.pos()
		n.expr(x.X)
		n.expr(x.Y)
	case *ast.CallExpr:
		x.Pos = n.pos()
		n.expr(x.Fn)
		for _, a := range x.Args {
			n.expr(a)
		}
	case *ast.SourceLocExpr:
		x.Pos = n.pos()
	}
}
