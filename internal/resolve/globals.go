package resolve

import (
	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/diag"
	"github.com/roach88/extcheck/internal/symtab"
)

// Globals is the unit scope: every global variable and function of a
// translation unit. It is read-only once built, so the resolution of every
// function body can share it.
type Globals struct {
	decls []unitDecl
	funcs []unitDecl
	used  map[string]bool
}

type unitDecl struct {
	name string
	typ  string
	kind symtab.Kind
	pos  ast.Pos
}

// Collect declares the globals and functions of u at unit scope and reports
// a Redefinition for every name declared twice. The first declaration of a
// name wins.
func Collect(u *ast.Unit, diags *diag.Collector) *Globals {
	g := &Globals{used: make(map[string]bool)}
	t := symtab.New()
	add := func(d unitDecl) {
		g.used[d.name] = true
		if _, err := t.Declare(t.Global(), d.name, d.typ, d.pos, d.kind); err != nil {
			report(diags, err)
			return
		}
		g.decls = append(g.decls, d)
		if d.kind == symtab.Function {
			g.funcs = append(g.funcs, d)
		}
	}
	for _, gd := range u.Globals {
		add(unitDecl{name: gd.Name, typ: gd.Type, kind: symtab.Global, pos: gd.Pos})
	}
	for _, fn := range u.Funcs {
		add(unitDecl{name: fn.Name, typ: fn.Result, kind: symtab.Function, pos: fn.Pos})
	}
	return g
}

// Len returns the number of unit-scope names.
func (g *Globals) Len() int {
	return len(g.decls)
}

// Used reports whether name is declared at unit scope.
func (g *Globals) Used(name string) bool {
	return g.used[name]
}

// table returns a fresh symbol table whose global scope holds every
// unit-scope name.
func (g *Globals) table() *symtab.Table {
	t := symtab.New()
	for _, d := range g.decls {
		// names are unique, Collect dropped the duplicates
		_, _ = t.Declare(t.Global(), d.name, d.typ, d.pos, d.kind)
	}
	return t
}

// GlobalResult is the outcome of resolving the global initializers.
type GlobalResult struct {
	Globals  []*ast.GlobalDecl
	Bindings []Info
}

// Initializers resolves the initializers of list, a copy of the unit's
// globals with always-inline calls already spliced, and folds the constant
// ones.
//
// Functions are visible everywhere; a global is visible from its own
// declaration on, so an initializer naming a later global fails with
// NotFound and one naming its own global is a self-reference. Any call may
// store to a global, so it forgets every folded value.
func (g *Globals) Initializers(list []*ast.GlobalDecl, diags *diag.Collector) *GlobalResult {
	t := symtab.New()
	for _, d := range g.funcs {
		_, _ = t.Declare(t.Global(), d.name, d.typ, d.pos, d.kind)
	}
	r := newResolver(t, diags)
	r.scope = t.Global()
	r.callsClobber = true

	out := &GlobalResult{}
	for _, gd := range list {
		cp := &ast.GlobalDecl{Pos: gd.Pos, Name: gd.Name, Type: gd.Type, Init: ast.CloneExpr(gd.Init)}
		out.Globals = append(out.Globals, cp)

		b, err := t.Declare(t.Global(), cp.Name, cp.Type, cp.Pos, symtab.Global)
		if err != nil {
			// reported by Collect
			r.quiet++
			r.optExpr(cp.Init)
			r.quiet--
			continue
		}
		r.initialize(b, cp.Init)
	}
	for _, b := range t.Bindings() {
		if b.Kind == symtab.Global {
			out.Bindings = append(out.Bindings, newInfo(b, b.Name))
		}
	}
	return out
}
