// Package resolve applies __shadow and __undeclare to function bodies.
//
// The resolver walks a body in program order against a private symbol
// table, binds every identifier to the declaration it denotes, and reports
// the scope-control errors and deprecations. It then flattens the body:
// every parameter and local gets a unique name, __shadow declarations become
// plain ones and __undeclare statements disappear, so later stages see an
// ordinary block-structured function.
package resolve

import (
	"errors"

	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/diag"
	"github.com/roach88/extcheck/internal/symtab"
)

// Result is a resolved and flattened function.
type Result struct {
	// Func is a flattened copy of the input function.
	Func *ast.FuncDecl

	// Bindings lists the parameters and locals in declaration order.
	Bindings []Info
}

// Function resolves fn against the unit scope g. fn is not modified.
//
// Spliced bodies are resolved quietly: they were checked once as the body
// of their always-inline function, and reporting them again at every call
// site would only repeat those diagnostics. The arguments of a splice are
// caller code and are checked normally.
func Function(fn *ast.FuncDecl, g *Globals, diags *diag.Collector) *Result {
	out := ast.CloneFunc(fn)
	t := g.table()
	r := newResolver(t, diags)
	r.scope = t.Open(t.Global(), symtab.FunctionScope)

	for _, p := range out.Params {
		if _, err := t.Declare(r.scope, p.Name, p.Type, p.Pos, symtab.Param); err != nil {
			r.report(err)
		}
	}
	r.stmts(out.Body)

	names := flatNames(t.Bindings(), usedNames(out, g))
	flatten(out, names)

	res := &Result{Func: out}
	for _, b := range t.Bindings() {
		if b.Kind.IsLocal() {
			res.Bindings = append(res.Bindings, newInfo(b, names[b.ID]))
		}
	}
	return res
}

// pending is a binding whose initializer is being resolved.
type pending struct {
	b     *symtab.Binding
	scope *symtab.Scope
}

type resolver struct {
	table *symtab.Table
	diags *diag.Collector
	scope *symtab.Scope

	quiet int // > 0 inside callee code of a splice
	inits []pending

	known   map[*symtab.Binding]int64
	escaped map[*symtab.Binding]bool

	// callsClobber forgets every folded value at a call. Set at unit scope,
	// where any function may store to a global.
	callsClobber bool
}

func newResolver(t *symtab.Table, diags *diag.Collector) *resolver {
	return &resolver{
		table:   t,
		diags:   diags,
		known:   make(map[*symtab.Binding]int64),
		escaped: make(map[*symtab.Binding]bool),
	}
}

func report(diags *diag.Collector, err error) {
	var se *symtab.Error
	if errors.As(err, &se) {
		diags.Add(se.Diagnostic())
		return
	}
	diags.Add(diag.New(diag.NotFound, ast.Pos{}, "%v", err))
}

func (r *resolver) report(err error) {
	if r.quiet == 0 {
		report(r.diags, err)
	}
}

func (r *resolver) warn(d *diag.Diagnostic) {
	if r.quiet == 0 {
		r.diags.Add(d)
	}
}

// open enters a block scope and returns the function that leaves it.
func (r *resolver) open() func() {
	outer := r.scope
	r.scope = r.table.Open(outer, symtab.BlockScope)
	return func() { r.scope = outer }
}

func (r *resolver) stmts(list []ast.Stmt) {
	for _, s := range list {
		r.stmt(s)
	}
}

func (r *resolver) block(b *ast.BlockStmt) {
	if b == nil {
		return
	}
	defer r.open()()
	r.stmts(b.Stmts)
}

func (r *resolver) stmt(s ast.Stmt) {
	switch x := s.(type) {
	case *ast.DeclStmt:
		if x.Shadow {
			r.shadowDecl(x)
		} else {
			r.decl(x)
		}
	case *ast.UndeclareStmt:
		for _, id := range x.Names {
			b, err := r.table.Undeclare(r.scope, id.Name, id.Pos)
			if err != nil {
				r.report(err)
				continue
			}
			id.Binding = b.ID
		}
	case *ast.ExprStmt:
		r.expr(x.X)
	case *ast.AssignStmt:
		r.expr(x.RHS)
		r.expr(x.LHS)
		if id, ok := x.LHS.(*ast.Ident); ok {
			r.forget(r.binding(id))
		}
	case *ast.ReturnStmt:
		r.optExpr(x.Result)
	case *ast.BlockStmt:
		r.block(x)
	case *ast.IfStmt:
		r.expr(x.Cond)
		r.block(x.Then)
		r.block(x.Else)
	case *ast.WhileStmt:
		// the condition and body run again after the body stored
		r.forgetStored(x)
		r.expr(x.Cond)
		r.block(x.Body)
	case *ast.LeaveStmt:
	}
}

// decl declares each variable before resolving its initializer, so the
// initializer of x sees x itself: C++'s point of declaration.
func (r *resolver) decl(d *ast.DeclStmt) {
	for _, v := range d.Vars {
		b, err := r.table.Declare(r.scope, v.Name, d.Type, v.Pos, symtab.Local)
		if err != nil {
			r.report(err)
			r.optExpr(v.Init)
			continue
		}
		v.Binding = b.ID
		if b.Hides != nil {
			r.warn(diag.New(diag.DeprecatedNestedShadow, v.Pos,
				"declaration of %q hides a %s of an enclosing scope; use __shadow", v.Name, b.Hides.Kind).
				WithRelated(b.Hides.Pos, "hidden declaration is here"))
		}
		r.initialize(b, v.Init)
	}
}

// shadowDecl introduces a __shadow declaration. Either every declarator
// has a binding to supersede or none is introduced.
func (r *resolver) shadowDecl(d *ast.DeclStmt) {
	names := make([]string, len(d.Vars))
	positions := make([]ast.Pos, len(d.Vars))
	for i, v := range d.Vars {
		names[i] = v.Name
		positions[i] = v.Pos
	}
	if errs := r.table.CheckShadow(r.scope, names, positions); len(errs) > 0 {
		if r.quiet > 0 {
			// spliced code shadowing a unit-scope name that the caller
			// does not see; treat it as a fresh declaration
			r.decl(d)
			return
		}
		for _, err := range errs {
			r.report(err)
		}
		for _, v := range d.Vars {
			r.optExpr(v.Init)
		}
		return
	}

	for _, v := range d.Vars {
		// the initializer sees the binding being superseded
		val, ok := r.optExpr(v.Init)
		b, err := r.table.Shadow(r.scope, v.Name, d.Type, v.Pos)
		if err != nil {
			r.report(err)
			continue
		}
		v.Binding = b.ID
		if ok {
			r.remember(b, val)
		}
	}
}

func (r *resolver) initialize(b *symtab.Binding, init ast.Expr) {
	if init == nil {
		return
	}
	r.inits = append(r.inits, pending{b: b, scope: r.scope})
	val, ok := r.expr(init)
	r.inits = r.inits[:len(r.inits)-1]
	if ok {
		r.remember(b, val)
	}
}

func (r *resolver) remember(b *symtab.Binding, val int64) {
	v := val
	b.Value = &v
	if !r.escaped[b] {
		r.known[b] = val
	}
}

func (r *resolver) forget(b *symtab.Binding) {
	if b != nil {
		delete(r.known, b)
	}
}

// forgetStored drops the folded value of every variable visible here that
// n assigns or takes the address of.
func (r *resolver) forgetStored(n ast.Node) {
	ast.Inspect(n, func(n ast.Node) bool {
		var id *ast.Ident
		switch x := n.(type) {
		case *ast.AssignStmt:
			id, _ = x.LHS.(*ast.Ident)
		case *ast.UnaryExpr:
			if x.Op == "&" {
				id, _ = x.X.(*ast.Ident)
			}
		}
		if id != nil {
			scope := r.scope
			if id.Global {
				scope = r.table.Global()
			}
			if b, err := r.table.Lookup(scope, id.Name); err == nil {
				r.forget(b)
			}
		}
		return true
	})
}

// binding returns the binding id was resolved to, or nil.
func (r *resolver) binding(id *ast.Ident) *symtab.Binding {
	all := r.table.Bindings()
	if id.Binding <= 0 || id.Binding > len(all) {
		return nil
	}
	return all[id.Binding-1]
}

// ident resolves id. A callee that names nothing is an external function.
func (r *resolver) ident(id *ast.Ident, callee bool) *symtab.Binding {
	scope := r.scope
	if id.Global {
		scope = r.table.Global()
	}
	b, err := r.table.LookupAt(scope, id.Name, id.Pos)
	if err != nil {
		var se *symtab.Error
		if callee && errors.As(err, &se) && se.Prior == nil {
			return nil
		}
		r.report(err)
		return nil
	}
	id.Binding = b.ID

	for _, p := range r.inits {
		if b.Scope == p.scope && b.Token >= p.b.Token {
			r.warn(diag.New(diag.DeprecatedSelfReference, id.Pos,
				"initializer of %q refers to %q, which is not declared before it", p.b.Name, b.Name).
				WithRelated(b.Pos, "%q declared here", b.Name))
		}
	}
	return b
}

func (r *resolver) optExpr(e ast.Expr) (int64, bool) {
	if e == nil {
		return 0, false
	}
	return r.expr(e)
}

// expr resolves e and returns its value when it folds to a constant.
func (r *resolver) expr(e ast.Expr) (int64, bool) {
	switch x := e.(type) {
	case *ast.Ident:
		b := r.ident(x, false)
		if b == nil {
			return 0, false
		}
		v, ok := r.known[b]
		return v, ok
	case *ast.IntLit:
		return x.Value, true
	case *ast.UnaryExpr:
		v, ok := r.expr(x.X)
		if x.Op == "&" {
			if id, isIdent := x.X.(*ast.Ident); isIdent {
				if b := r.binding(id); b != nil {
					r.escaped[b] = true
					r.forget(b)
				}
			}
			return 0, false
		}
		if !ok {
			return 0, false
		}
		return foldUnary(x.Op, v)
	case *ast.BinaryExpr:
		a, aok := r.expr(x.X)
		b, bok := r.expr(x.Y)
		if !aok || !bok {
			return 0, false
		}
		return foldBinary(x.Op, a, b)
	case *ast.CallExpr:
		if id, ok := x.Callee(); ok {
			r.ident(id, true)
		} else {
			r.expr(x.Fn)
		}
		for _, a := range x.Args {
			r.expr(a)
		}
		if r.callsClobber {
			clear(r.known)
		}
		return 0, false
	case *ast.InlineExpr:
		return r.splice(x)
	}
	return 0, false
}

// splice resolves a spliced body as a nested block. Its value is the
// value of its result variable at block exit.
func (r *resolver) splice(x *ast.InlineExpr) (int64, bool) {
	defer r.open()()
	stmts := x.Body.Stmts
	n := min(x.Params, len(stmts))
	r.stmts(stmts[:n])

	r.quiet++
	defer func() { r.quiet-- }()
	r.stmts(stmts[n:])
	if x.Result == nil {
		return 0, false
	}
	return r.expr(x.Result)
}
