package ast

// Inspect traverses the tree rooted at n in depth-first pre-order.
// If fn returns false, the children of the node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch x := n.(type) {
	case *FuncDecl:
		for _, p := range x.Params {
			Inspect(p, fn)
		}
		InspectStmts(x.Body, fn)
	case *GlobalDecl:
		inspectExpr(x.Init, fn)
	case *Param, *Ident, *IntLit, *SourceLocExpr, *LeaveStmt:
		// leaves
	case *DeclStmt:
		for _, v := range x.Vars {
			Inspect(v, fn)
		}
	case *VarSpec:
		inspectExpr(x.Init, fn)
	case *UndeclareStmt:
		for _, id := range x.Names {
			Inspect(id, fn)
		}
	case *ExprStmt:
		inspectExpr(x.X, fn)
	case *AssignStmt:
		inspectExpr(x.LHS, fn)
		inspectExpr(x.RHS, fn)
	case *ReturnStmt:
		inspectExpr(x.Result, fn)
	case *BlockStmt:
		InspectStmts(x.Stmts, fn)
	case *IfStmt:
		inspectExpr(x.Cond, fn)
		inspectBlock(x.Then, fn)
		inspectBlock(x.Else, fn)
	case *WhileStmt:
		inspectExpr(x.Cond, fn)
		inspectBlock(x.Body, fn)
	case *UnaryExpr:
		inspectExpr(x.X, fn)
	case *BinaryExpr:
		inspectExpr(x.X, fn)
		inspectExpr(x.Y, fn)
	case *CallExpr:
		inspectExpr(x.Fn, fn)
		for _, a := range x.Args {
			inspectExpr(a, fn)
		}
	case *InlineExpr:
		inspectBlock(x.Body, fn)
		if x.Result != nil {
			Inspect(x.Result, fn)
		}
	}
}

// InspectStmts calls Inspect on every statement of list.
func InspectStmts(list []Stmt, fn func(Node) bool) {
	for _, s := range list {
		Inspect(s, fn)
	}
}

// typed nil interfaces must not reach fn
func inspectExpr(e Expr, fn func(Node) bool) {
	if e != nil {
		Inspect(e, fn)
	}
}

func inspectBlock(b *BlockStmt, fn func(Node) bool) {
	if b != nil {
		Inspect(b, fn)
	}
}
