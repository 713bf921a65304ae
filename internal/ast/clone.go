package ast

import "slices"

// CloneUnit returns a deep copy of u.
func CloneUnit(u *Unit) *Unit {
	out := &Unit{Name: u.Name}
	for _, g := range u.Globals {
		out.Globals = append(out.Globals, &GlobalDecl{Pos: g.Pos, Name: g.Name, Type: g.Type, Init: CloneExpr(g.Init)})
	}
	for _, fn := range u.Funcs {
		out.Funcs = append(out.Funcs, CloneFunc(fn))
	}
	return out
}

// CloneFunc returns a deep copy of fn.
func CloneFunc(fn *FuncDecl) *FuncDecl {
	out := &FuncDecl{
		Pos:    fn.Pos,
		Name:   fn.Name,
		Mode:   fn.Mode,
		Result: fn.Result,
		Body:   CloneStmts(fn.Body),
	}
	for _, p := range fn.Params {
		cp := *p
		out.Params = append(out.Params, &cp)
	}
	return out
}

// CloneStmts returns a deep copy of list.
func CloneStmts(list []Stmt) []Stmt {
	if list == nil {
		return nil
	}
	out := make([]Stmt, len(list))
	for i, s := range list {
		out[i] = CloneStmt(s)
	}
	return out
}

// CloneStmt returns a deep copy of s.
func CloneStmt(s Stmt) Stmt {
	switch x := s.(type) {
	case *DeclStmt:
		out := &DeclStmt{Pos: x.Pos, Type: x.Type, Shadow: x.Shadow}
		for _, v := range x.Vars {
			out.Vars = append(out.Vars, &VarSpec{Pos: v.Pos, Name: v.Name, Init: CloneExpr(v.Init), Binding: v.Binding})
		}
		return out
	case *UndeclareStmt:
		out := &UndeclareStmt{Pos: x.Pos}
		for _, id := range x.Names {
			out.Names = append(out.Names, cloneIdent(id))
		}
		return out
	case *ExprStmt:
		return &ExprStmt{X: CloneExpr(x.X)}
	case *AssignStmt:
		return &AssignStmt{Pos: x.Pos, LHS: CloneExpr(x.LHS), RHS: CloneExpr(x.RHS)}
	case *ReturnStmt:
		return &ReturnStmt{Pos: x.Pos, Result: CloneExpr(x.Result)}
	case *BlockStmt:
		return CloneBlock(x)
	case *IfStmt:
		return &IfStmt{Pos: x.Pos, Cond: CloneExpr(x.Cond), Then: CloneBlock(x.Then), Else: CloneBlock(x.Else)}
	case *WhileStmt:
		return &WhileStmt{Pos: x.Pos, Cond: CloneExpr(x.Cond), Body: CloneBlock(x.Body)}
	case *LeaveStmt:
		cp := *x
		return &cp
	case nil:
		return nil
	}
	panic("ast: unexpected statement type")
}

// CloneBlock returns a deep copy of b, or nil.
func CloneBlock(b *BlockStmt) *BlockStmt {
	if b == nil {
		return nil
	}
	return &BlockStmt{Pos: b.Pos, Stmts: CloneStmts(b.Stmts)}
}

// CloneExpr returns a deep copy of e.
func CloneExpr(e Expr) Expr {
	switch x := e.(type) {
	case nil:
		return nil
	case *Ident:
		return cloneIdent(x)
	case *IntLit:
		cp := *x
		return &cp
	case *UnaryExpr:
		return &UnaryExpr{Pos: x.Pos, Op: x.Op, X: CloneExpr(x.X)}
	case *BinaryExpr:
		return &BinaryExpr{Pos: x.Pos, Op: x.Op, X: CloneExpr(x.X), Y: CloneExpr(x.Y)}
	case *CallExpr:
		out := &CallExpr{Pos: x.Pos, Fn: CloneExpr(x.Fn)}
		for _, a := range x.Args {
			out.Args = append(out.Args, CloneExpr(a))
		}
		return out
	case *SourceLocExpr:
		return &SourceLocExpr{Pos: x.Pos, Resolved: x.Resolved, Chain: slices.Clone(x.Chain)}
	case *InlineExpr:
		out := &InlineExpr{Pos: x.Pos, Callee: x.Callee, Label: x.Label, Body: CloneBlock(x.Body), Params: x.Params}
		if x.Result != nil {
			out.Result = cloneIdent(x.Result)
		}
		return out
	}
	panic("ast: unexpected expression type")
}

func cloneIdent(id *Ident) *Ident {
	cp := *id
	return &cp
}
