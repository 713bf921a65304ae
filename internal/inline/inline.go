// Package inline expands calls to __inline_always functions.
//
// Every direct call to an always-inline function F becomes an
// ast.InlineExpr holding a renamed copy of F's body: parameters turn into
// fresh caller-local declarations initialized from the arguments, F's
// locals get names of the form F.name.N that cannot collide with source
// identifiers, and references to unit-scope names are qualified so caller
// locals cannot capture them. Always-inline functions never reach the
// output as standalone symbols.
package inline

import (
	"fmt"

	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/callgraph"
	"github.com/roach88/extcheck/internal/diag"
)

// Expansion is the result of Expand.
type Expansion struct {
	// Unit holds the globals and every function that is not always-inline,
	// with all always-inline calls spliced.
	Unit *ast.Unit

	// Always holds the always-inline functions in declaration order, each
	// with its own always-inline calls spliced. They are not emitted; the
	// analyzer resolves them to validate their bodies once.
	Always []*ast.FuncDecl

	// Splices is the number of call sites expanded.
	Splices int
}

// Expand splices every always-inline call of u. u is not modified.
//
// g must be the acyclic graph built from u. Always-inline functions are
// expanded callees first, so a body is complete before it is copied into
// a caller. Problems are reported to diags: AddressOfInlineAlways for any
// use of an always-inline function other than a direct call, and
// InvalidCall for a call with the wrong number of arguments, which is left
// unexpanded.
func Expand(u *ast.Unit, g *callgraph.Graph, diags *diag.Collector) *Expansion {
	x := &expander{
		unit:  ast.CloneUnit(u),
		graph: g,
		diags: diags,
	}

	for _, name := range g.Order() {
		if fn := x.unit.Func(name); fn != nil {
			x.rewriteFunc(fn)
		}
	}

	out := &ast.Unit{Name: x.unit.Name, Globals: x.unit.Globals}
	for _, gd := range out.Globals {
		if gd.Init != nil {
			r := &rewriter{x: x, locals: ast.NewLocalNames(nil)}
			gd.Init = r.expr(gd.Init)
		}
	}

	exp := &Expansion{Unit: out}
	for _, fn := range x.unit.Funcs {
		if g.IsAlways(fn.Name) {
			exp.Always = append(exp.Always, fn)
			continue
		}
		x.rewriteFunc(fn)
		out.Funcs = append(out.Funcs, fn)
	}
	exp.Splices = x.counter
	return exp
}

type expander struct {
	unit    *ast.Unit
	graph   *callgraph.Graph
	diags   *diag.Collector
	counter int // unit-wide splice counter
}

func (x *expander) rewriteFunc(fn *ast.FuncDecl) {
	r := &rewriter{x: x, locals: ast.NewLocalNames(fn.Params)}
	r.stmts(fn.Body)
}

// rewriter walks one function body in program order, replacing direct
// always-inline calls with splices and reporting other uses of
// always-inline functions.
type rewriter struct {
	x      *expander
	locals *ast.LocalNames
}

// isLocal reports whether id denotes a local or an undeclared local slot
// rather than a unit-scope name.
func (r *rewriter) isLocal(id *ast.Ident) bool {
	return !id.Global && r.locals.Hides(id.Name)
}

func (r *rewriter) alwaysCallee(c *ast.CallExpr) (*ast.FuncDecl, bool) {
	id, ok := c.Callee()
	if !ok || r.isLocal(id) || !r.x.graph.IsAlways(id.Name) {
		return nil, false
	}
	// the clone, whose own always-inline calls are already spliced
	return r.x.unit.Func(id.Name), true
}

func (r *rewriter) stmts(list []ast.Stmt) {
	for _, s := range list {
		r.stmt(s)
	}
}

func (r *rewriter) block(b *ast.BlockStmt) {
	if b == nil {
		return
	}
	r.locals.Push()
	r.stmts(b.Stmts)
	r.locals.Pop()
}

func (r *rewriter) stmt(s ast.Stmt) {
	switch x := s.(type) {
	case *ast.DeclStmt:
		for _, v := range x.Vars {
			if x.Shadow {
				v.Init = r.optExpr(v.Init)
				r.locals.Declare(v.Name)
			} else {
				r.locals.Declare(v.Name)
				v.Init = r.optExpr(v.Init)
			}
		}
	case *ast.UndeclareStmt:
		r.locals.Stmt(x)
	case *ast.ExprStmt:
		if c, ok := x.X.(*ast.CallExpr); ok {
			x.X = r.call(c, true)
		} else {
			x.X = r.expr(x.X)
		}
	case *ast.AssignStmt:
		x.LHS = r.expr(x.LHS)
		x.RHS = r.expr(x.RHS)
	case *ast.ReturnStmt:
		x.Result = r.optExpr(x.Result)
	case *ast.BlockStmt:
		r.block(x)
	case *ast.IfStmt:
		x.Cond = r.expr(x.Cond)
		r.block(x.Then)
		r.block(x.Else)
	case *ast.WhileStmt:
		x.Cond = r.expr(x.Cond)
		r.block(x.Body)
	}
}

// optExpr is expr for optional operands; nil stays an untyped nil.
func (r *rewriter) optExpr(e ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}
	return r.expr(e)
}

func (r *rewriter) expr(e ast.Expr) ast.Expr {
	switch x := e.(type) {
	case *ast.Ident:
		r.checkUse(x)
	case *ast.UnaryExpr:
		x.X = r.expr(x.X)
	case *ast.BinaryExpr:
		x.X = r.expr(x.X)
		x.Y = r.expr(x.Y)
	case *ast.CallExpr:
		return r.call(x, false)
	}
	return e
}

// checkUse reports an always-inline function named outside direct-call
// position: taking its address, storing it, or passing it along.
func (r *rewriter) checkUse(id *ast.Ident) {
	if r.isLocal(id) || !r.x.graph.IsAlways(id.Name) {
		return
	}
	fn := r.x.unit.Func(id.Name)
	r.x.diags.Report(diag.AddressOfInlineAlways, id.Pos,
		"cannot take the address of always-inline function %q; it is never emitted as a symbol", id.Name).
		WithRelated(fn.Pos, "%q declared %s here", fn.Name, fn.Mode.Keyword())
}

// call rewrites c. discard is set when the value of the call is unused.
func (r *rewriter) call(c *ast.CallExpr, discard bool) ast.Expr {
	for i, a := range c.Args {
		c.Args[i] = r.expr(a)
	}
	fn, ok := r.alwaysCallee(c)
	if !ok {
		if _, isIdent := c.Callee(); !isIdent {
			c.Fn = r.expr(c.Fn)
		}
		return c
	}
	if len(c.Args) != len(fn.Params) {
		r.x.diags.Report(diag.InvalidCall, c.Pos,
			"call to always-inline function %q has %d arguments, want %d", fn.Name, len(c.Args), len(fn.Params)).
			WithRelated(fn.Pos, "%q declared here", fn.Name)
		return c
	}
	r.x.counter++
	return newSplice(fn, c, r.x.counter, discard).build()
}

// freshName renders the name a splice gives to a callee local.
func freshName(callee, name string, n int) string {
	return fmt.Sprintf("%s.%s.%d", callee, name, n)
}
