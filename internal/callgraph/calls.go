// Package callgraph builds the call graph of always-inline functions and
// rejects cycles in it.
//
// Only functions declared __inline_always are nodes. Calls to default and
// never-inline functions are boundaries: they are emitted as ordinary calls
// and cannot make the expansion recurse.
package callgraph

import (
	"github.com/roach88/extcheck/internal/ast"
)

// Call is a direct call to a unit-scope name found in a function body.
type Call struct {
	Name string
	Site ast.Pos
	Expr *ast.CallExpr
}

// DirectCalls returns the calls in fn's body whose callee is an identifier
// naming something at unit scope, in source order. A callee that names a
// visible local variable (a function pointer, say) is not a direct call.
func DirectCalls(fn *ast.FuncDecl) []Call {
	w := &callWalker{locals: ast.NewLocalNames(fn.Params)}
	w.stmts(fn.Body)
	return w.calls
}

type callWalker struct {
	locals *ast.LocalNames
	calls  []Call
}

func (w *callWalker) stmts(list []ast.Stmt) {
	for _, s := range list {
		w.stmt(s)
	}
}

func (w *callWalker) block(b *ast.BlockStmt) {
	if b == nil {
		return
	}
	w.locals.Push()
	w.stmts(b.Stmts)
	w.locals.Pop()
}

func (w *callWalker) stmt(s ast.Stmt) {
	switch x := s.(type) {
	case *ast.DeclStmt:
		for _, v := range x.Vars {
			if x.Shadow {
				// the initializer of a shadow sees the prior binding
				w.expr(v.Init)
				w.locals.Declare(v.Name)
			} else {
				w.locals.Declare(v.Name)
				w.expr(v.Init)
			}
		}
	case *ast.UndeclareStmt:
		w.locals.Stmt(x)
	case *ast.ExprStmt:
		w.expr(x.X)
	case *ast.AssignStmt:
		w.expr(x.LHS)
		w.expr(x.RHS)
	case *ast.ReturnStmt:
		w.expr(x.Result)
	case *ast.BlockStmt:
		w.block(x)
	case *ast.IfStmt:
		w.expr(x.Cond)
		w.block(x.Then)
		w.block(x.Else)
	case *ast.WhileStmt:
		w.expr(x.Cond)
		w.block(x.Body)
	}
}

func (w *callWalker) expr(e ast.Expr) {
	switch x := e.(type) {
	case *ast.UnaryExpr:
		w.expr(x.X)
	case *ast.BinaryExpr:
		w.expr(x.X)
		w.expr(x.Y)
	case *ast.CallExpr:
		if id, ok := x.Callee(); ok && (id.Global || !w.locals.Hides(id.Name)) {
			w.calls = append(w.calls, Call{Name: id.Name, Site: x.Pos, Expr: x})
		} else {
			w.expr(x.Fn)
		}
		for _, a := range x.Args {
			w.expr(a)
		}
	case *ast.InlineExpr:
		w.block(x.Body)
	}
}
