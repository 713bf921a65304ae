package inline

import (
	"fmt"
	"strings"

	"github.com/roach88/extcheck/internal/ast"
)

// splice is the context of one call-site expansion. It maps the callee's
// parameters and locals to fresh caller-scope names and lives only while
// the copy is built.
type splice struct {
	fn      *ast.FuncDecl
	call    *ast.CallExpr
	n       int
	discard bool

	site   ast.Pos
	label  string
	result string // name of the value variable, "" when there is none

	scopes []map[string]string
}

func newSplice(fn *ast.FuncDecl, call *ast.CallExpr, n int, discard bool) *splice {
	s := &splice{
		fn:      fn,
		call:    call,
		n:       n,
		discard: discard,
		site:    call.Pos,
		label:   fmt.Sprintf("%s.exit.%d", fn.Name, n),
	}
	if !discard && !fn.Void() {
		// "return" cannot be a source identifier, so this never collides
		// with a renamed local
		s.result = freshName(fn.Name, "return", n)
	}
	return s
}

// build returns the InlineExpr replacing the call.
func (s *splice) build() *ast.InlineExpr {
	s.push()
	var body []ast.Stmt

	// arguments are evaluated once each, left to right
	for i, p := range s.fn.Params {
		body = append(body, &ast.DeclStmt{
			Pos:  s.site,
			Type: p.Type,
			Vars: []*ast.VarSpec{{Pos: s.site, Name: s.bind(p.Name), Init: s.call.Args[i]}},
		})
	}

	stmts := s.renameStmts(ast.CloneStmts(s.fn.Body))
	body = append(body, s.lowerBody(stmts)...)
	s.pop()

	out := &ast.InlineExpr{
		Pos:    s.site,
		Callee: s.fn.Name,
		Label:  s.label,
		Body:   &ast.BlockStmt{Pos: s.site, Stmts: body},
		Params: len(s.fn.Params),
	}
	if s.result != "" {
		out.Result = &ast.Ident{Pos: s.site, Name: s.result}
	}
	return out
}

func (s *splice) push() { s.scopes = append(s.scopes, make(map[string]string)) }
func (s *splice) pop()  { s.scopes = s.scopes[:len(s.scopes)-1] }

// bind maps name to a fresh caller-scope name in the innermost scope.
func (s *splice) bind(name string) string {
	fresh := freshName(s.fn.Name, name, s.n)
	s.scopes[len(s.scopes)-1][name] = fresh
	return fresh
}

func (s *splice) lookup(name string) (string, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if fresh, ok := s.scopes[i][name]; ok {
			return fresh, true
		}
	}
	return "", false
}

// spliced reports whether name was produced by an earlier expansion.
// Source identifiers never contain a dot.
func spliced(name string) bool {
	return strings.Contains(name, ".")
}

func (s *splice) renameStmts(list []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(list))
	for _, st := range list {
		if d, ok := st.(*ast.DeclStmt); ok && d.Shadow {
			out = append(out, s.renameShadow(d)...)
			continue
		}
		s.renameStmt(st)
		out = append(out, st)
	}
	return out
}

func (s *splice) renameBlock(b *ast.BlockStmt) {
	if b == nil {
		return
	}
	s.push()
	b.Stmts = s.renameStmts(b.Stmts)
	s.pop()
}

// renameShadow renames a __shadow declaration. A declarator that shadows
// a callee local keeps __shadow on its mapped name. One that shadows a
// unit-scope name is an ordinary new local inside the splice, so the
// declaration is split into runs of shadowing and plain declarators,
// keeping their order.
func (s *splice) renameShadow(d *ast.DeclStmt) []ast.Stmt {
	var out []ast.Stmt
	var cur *ast.DeclStmt
	for _, v := range d.Vars {
		s.renameExpr(v.Init)
		shadow := true
		switch fresh, ok := s.lookup(v.Name); {
		case spliced(v.Name):
		case ok:
			v.Name = fresh
		default:
			v.Name = s.bind(v.Name)
			shadow = false
		}
		if cur == nil || cur.Shadow != shadow {
			cur = &ast.DeclStmt{Pos: v.Pos, Type: d.Type, Shadow: shadow}
			if len(out) == 0 {
				cur.Pos = d.Pos
			}
			out = append(out, cur)
		}
		cur.Vars = append(cur.Vars, v)
	}
	return out
}

func (s *splice) renameStmt(st ast.Stmt) {
	switch x := st.(type) {
	case *ast.DeclStmt:
		for _, v := range x.Vars {
			if spliced(v.Name) {
				s.renameExpr(v.Init)
				continue
			}
			v.Name = s.bind(v.Name)
			s.renameExpr(v.Init)
		}
	case *ast.UndeclareStmt:
		for _, id := range x.Names {
			if fresh, ok := s.lookup(id.Name); ok && !spliced(id.Name) {
				id.Name = fresh
			}
		}
	case *ast.ExprStmt:
		s.renameExpr(x.X)
	case *ast.AssignStmt:
		s.renameExpr(x.LHS)
		s.renameExpr(x.RHS)
	case *ast.ReturnStmt:
		s.renameExpr(x.Result)
	case *ast.BlockStmt:
		s.renameBlock(x)
	case *ast.IfStmt:
		s.renameExpr(x.Cond)
		s.renameBlock(x.Then)
		s.renameBlock(x.Else)
	case *ast.WhileStmt:
		s.renameExpr(x.Cond)
		s.renameBlock(x.Body)
	}
}

func (s *splice) renameExpr(e ast.Expr) {
	switch x := e.(type) {
	case nil:
	case *ast.Ident:
		if x.Global || spliced(x.Name) {
			return
		}
		if fresh, ok := s.lookup(x.Name); ok {
			x.Name = fresh
			return
		}
		// free reference: bind it to unit scope so a caller local of the
		// same name cannot capture it
		x.Global = true
	case *ast.UnaryExpr:
		s.renameExpr(x.X)
	case *ast.BinaryExpr:
		s.renameExpr(x.X)
		s.renameExpr(x.Y)
	case *ast.CallExpr:
		s.renameExpr(x.Fn)
		for _, a := range x.Args {
			s.renameExpr(a)
		}
	case *ast.SourceLocExpr:
		// the intrinsic names the call site, macro-like: a copy nested in
		// several splices resolves to the outermost one
		x.Resolved = s.site
		x.Chain = append(x.Chain, s.site)
	case *ast.InlineExpr:
		s.renameBlock(x.Body)
	}
}

// lowerBody rewrites the returns of the renamed body.
//
// A body whose only return is its last statement falls through: the
// return becomes the declaration of the value variable, or an expression
// statement when the value is unused. Otherwise the value variable is
// declared up front and every return assigns it and leaves the splice
// block.
func (s *splice) lowerBody(stmts []ast.Stmt) []ast.Stmt {
	if last, ok := trailingReturn(stmts); ok && countReturns(stmts) == 1 {
		out := stmts[:len(stmts)-1]
		switch {
		case last.Result == nil:
		case s.result != "":
			out = append(out, &ast.DeclStmt{
				Pos:  last.Pos,
				Type: s.fn.Result,
				Vars: []*ast.VarSpec{{Pos: last.Pos, Name: s.result, Init: last.Result}},
			})
		default:
			out = append(out, &ast.ExprStmt{X: last.Result})
		}
		return out
	}

	var out []ast.Stmt
	if s.result != "" {
		out = append(out, &ast.DeclStmt{
			Pos:  s.site,
			Type: s.fn.Result,
			Vars: []*ast.VarSpec{{Pos: s.site, Name: s.result}},
		})
	}
	return append(out, s.lowerList(stmts)...)
}

func (s *splice) lowerList(list []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(list))
	for _, st := range list {
		switch x := st.(type) {
		case *ast.ReturnStmt:
			out = append(out, s.lowerReturn(x)...)
			continue
		case *ast.BlockStmt:
			x.Stmts = s.lowerList(x.Stmts)
		case *ast.IfStmt:
			s.lowerBlock(x.Then)
			s.lowerBlock(x.Else)
		case *ast.WhileStmt:
			s.lowerBlock(x.Body)
		}
		out = append(out, st)
	}
	return out
}

func (s *splice) lowerBlock(b *ast.BlockStmt) {
	if b != nil {
		b.Stmts = s.lowerList(b.Stmts)
	}
}

func (s *splice) lowerReturn(r *ast.ReturnStmt) []ast.Stmt {
	var out []ast.Stmt
	if r.Result != nil {
		if s.result != "" {
			out = append(out, &ast.AssignStmt{
				Pos: r.Pos,
				LHS: &ast.Ident{Pos: r.Pos, Name: s.result},
				RHS: r.Result,
			})
		} else {
			out = append(out, &ast.ExprStmt{X: r.Result})
		}
	}
	return append(out, &ast.LeaveStmt{Pos: r.Pos, Label: s.label})
}

func trailingReturn(stmts []ast.Stmt) (*ast.ReturnStmt, bool) {
	if len(stmts) == 0 {
		return nil, false
	}
	r, ok := stmts[len(stmts)-1].(*ast.ReturnStmt)
	return r, ok
}

// countReturns counts the returns of a body, not those of splices nested
// in it, which were lowered when they were built.
func countReturns(stmts []ast.Stmt) int {
	n := 0
	ast.InspectStmts(stmts, func(node ast.Node) bool {
		switch node.(type) {
		case *ast.ReturnStmt:
			n++
		case *ast.InlineExpr:
			return false
		}
		return true
	})
	return n
}
