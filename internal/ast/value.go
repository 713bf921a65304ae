package ast

// ToValue converts a unit into a tree of map[string]any, []any, string,
// int64 and bool. The tree is what JSON output and MarshalCanonical consume.
// Absent optional fields are omitted, never null.
func ToValue(u *Unit) map[string]any {
	globals := make([]any, 0, len(u.Globals))
	for _, g := range u.Globals {
		m := map[string]any{"name": g.Name, "type": g.Type, "pos": posValue(g.Pos)}
		if g.Init != nil {
			m["init"] = ExprValue(g.Init)
		}
		globals = append(globals, m)
	}
	funcs := make([]any, 0, len(u.Funcs))
	for _, fn := range u.Funcs {
		funcs = append(funcs, FuncValue(fn))
	}
	return map[string]any{
		"name":    u.Name,
		"globals": globals,
		"funcs":   funcs,
	}
}

// FuncValue converts a function declaration.
func FuncValue(fn *FuncDecl) map[string]any {
	params := make([]any, 0, len(fn.Params))
	for _, p := range fn.Params {
		params = append(params, map[string]any{"name": p.Name, "type": p.Type, "pos": posValue(p.Pos)})
	}
	result := fn.Result
	if result == "" {
		result = "void"
	}
	return map[string]any{
		"name":   fn.Name,
		"inline": fn.Mode.String(),
		"result": result,
		"params": params,
		"body":   stmtsValue(fn.Body),
		"pos":    posValue(fn.Pos),
	}
}

func posValue(p Pos) map[string]any {
	m := map[string]any{"line": int64(p.Line), "col": int64(p.Col)}
	if p.File != "" {
		m["file"] = p.File
	}
	return m
}

func stmtsValue(list []Stmt) []any {
	out := make([]any, 0, len(list))
	for _, s := range list {
		out = append(out, StmtValue(s))
	}
	return out
}

func blockValue(b *BlockStmt) []any {
	if b == nil {
		return []any{}
	}
	return stmtsValue(b.Stmts)
}

// StmtValue converts a statement.
func StmtValue(s Stmt) map[string]any {
	switch x := s.(type) {
	case *DeclStmt:
		vars := make([]any, 0, len(x.Vars))
		for _, v := range x.Vars {
			m := map[string]any{"name": v.Name, "pos": posValue(v.Pos)}
			if v.Init != nil {
				m["init"] = ExprValue(v.Init)
			}
			vars = append(vars, m)
		}
		kind := "decl"
		if x.Shadow {
			kind = "shadow"
		}
		return map[string]any{"kind": kind, "type": x.Type, "vars": vars, "pos": posValue(x.Pos)}
	case *UndeclareStmt:
		names := make([]any, 0, len(x.Names))
		for _, id := range x.Names {
			names = append(names, id.Name)
		}
		return map[string]any{"kind": "undeclare", "names": names, "pos": posValue(x.Pos)}
	case *ExprStmt:
		return map[string]any{"kind": "expr", "x": ExprValue(x.X)}
	case *AssignStmt:
		return map[string]any{"kind": "assign", "lhs": ExprValue(x.LHS), "rhs": ExprValue(x.RHS), "pos": posValue(x.Pos)}
	case *ReturnStmt:
		m := map[string]any{"kind": "return", "pos": posValue(x.Pos)}
		if x.Result != nil {
			m["result"] = ExprValue(x.Result)
		}
		return m
	case *BlockStmt:
		return map[string]any{"kind": "block", "stmts": blockValue(x), "pos": posValue(x.Pos)}
	case *IfStmt:
		m := map[string]any{"kind": "if", "cond": ExprValue(x.Cond), "then": blockValue(x.Then), "pos": posValue(x.Pos)}
		if x.Else != nil {
			m["else"] = blockValue(x.Else)
		}
		return m
	case *WhileStmt:
		return map[string]any{"kind": "while", "cond": ExprValue(x.Cond), "body": blockValue(x.Body), "pos": posValue(x.Pos)}
	case *LeaveStmt:
		return map[string]any{"kind": "leave", "label": x.Label, "pos": posValue(x.Pos)}
	}
	return map[string]any{"kind": "unknown"}
}

// ExprValue converts an expression.
func ExprValue(e Expr) map[string]any {
	switch x := e.(type) {
	case *Ident:
		m := map[string]any{"kind": "ident", "name": x.Name, "pos": posValue(x.Pos)}
		if x.Global {
			m["global"] = true
		}
		return m
	case *IntLit:
		return map[string]any{"kind": "int", "value": x.Value, "pos": posValue(x.Pos)}
	case *UnaryExpr:
		return map[string]any{"kind": "unary", "op": x.Op, "x": ExprValue(x.X), "pos": posValue(x.Pos)}
	case *BinaryExpr:
		return map[string]any{"kind": "binary", "op": x.Op, "x": ExprValue(x.X), "y": ExprValue(x.Y), "pos": posValue(x.Pos)}
	case *CallExpr:
		args := make([]any, 0, len(x.Args))
		for _, a := range x.Args {
			args = append(args, ExprValue(a))
		}
		return map[string]any{"kind": "call", "fn": ExprValue(x.Fn), "args": args, "pos": posValue(x.Pos)}
	case *SourceLocExpr:
		chain := make([]any, 0, len(x.Chain))
		for _, p := range x.Chain {
			chain = append(chain, posValue(p))
		}
		return map[string]any{"kind": "source_location", "resolved": posValue(x.Where()), "chain": chain, "pos": posValue(x.Pos)}
	case *InlineExpr:
		m := map[string]any{
			"kind":   "splice",
			"callee": x.Callee,
			"label":  x.Label,
			"params": int64(x.Params),
			"body":   blockValue(x.Body),
			"pos":    posValue(x.Pos),
		}
		if x.Result != nil {
			m["result"] = ExprValue(x.Result)
		}
		return m
	}
	return map[string]any{"kind": "unknown"}
}
