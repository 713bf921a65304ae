package ast

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes u to w as pseudo-C++ source.
//
// Spliced bodies print as
//
//	__splice(callee @ line:col, label) { ... } -> result
//
// and the source-location intrinsic prints the coordinate it resolves to.
func Fprint(w io.Writer, u *Unit) error {
	p := &printer{}
	p.unit(u)
	_, err := io.WriteString(w, p.buf.String())
	return err
}

// Sprint returns the printed form of u.
func Sprint(u *Unit) string {
	p := &printer{}
	p.unit(u)
	return p.buf.String()
}

// FormatExpr returns the printed form of a single expression.
func FormatExpr(e Expr) string {
	p := &printer{}
	p.expr(e, false)
	return p.buf.String()
}

type printer struct {
	buf    strings.Builder
	indent int
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(&p.buf, format, args...)
}

func (p *printer) line(format string, args ...any) {
	p.buf.WriteString(strings.Repeat("  ", p.indent))
	p.printf(format, args...)
	p.buf.WriteByte('\n')
}

func (p *printer) unit(u *Unit) {
	p.line("// unit %s", u.Name)
	for _, g := range u.Globals {
		p.startLine()
		p.printf("%s %s", g.Type, g.Name)
		if g.Init != nil {
			p.buf.WriteString(" = ")
			p.expr(g.Init, false)
		}
		p.buf.WriteString(";\n")
	}
	for _, fn := range u.Funcs {
		p.buf.WriteByte('\n')
		p.fn(fn)
	}
}

func (p *printer) startLine() {
	p.buf.WriteString(strings.Repeat("  ", p.indent))
}

func (p *printer) fn(fn *FuncDecl) {
	result := fn.Result
	if result == "" {
		result = "void"
	}
	params := make([]string, len(fn.Params))
	for i, prm := range fn.Params {
		params[i] = prm.Type + " " + prm.Name
	}
	head := fmt.Sprintf("%s %s(%s) {", result, fn.Name, strings.Join(params, ", "))
	if kw := fn.Mode.Keyword(); kw != "" {
		head = kw + " " + head
	}
	p.line("%s", head)
	p.indent++
	p.stmts(fn.Body)
	p.indent--
	p.line("}")
}

func (p *printer) stmts(list []Stmt) {
	for _, s := range list {
		p.stmt(s)
	}
}

func (p *printer) block(b *BlockStmt) {
	p.indent++
	if b != nil {
		p.stmts(b.Stmts)
	}
	p.indent--
}

func (p *printer) stmt(s Stmt) {
	switch x := s.(type) {
	case *DeclStmt:
		p.startLine()
		if x.Shadow {
			p.buf.WriteString("__shadow ")
		}
		p.printf("%s ", x.Type)
		for i, v := range x.Vars {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.buf.WriteString(v.Name)
			if v.Init != nil {
				p.buf.WriteString(" = ")
				p.expr(v.Init, false)
			}
		}
		p.buf.WriteString(";\n")
	case *UndeclareStmt:
		names := make([]string, len(x.Names))
		for i, id := range x.Names {
			names[i] = id.Name
		}
		p.line("__undeclare %s;", strings.Join(names, ", "))
	case *ExprStmt:
		p.startLine()
		p.expr(x.X, false)
		p.buf.WriteString(";\n")
	case *AssignStmt:
		p.startLine()
		p.expr(x.LHS, false)
		p.buf.WriteString(" = ")
		p.expr(x.RHS, false)
		p.buf.WriteString(";\n")
	case *ReturnStmt:
		if x.Result == nil {
			p.line("return;")
			return
		}
		p.startLine()
		p.buf.WriteString("return ")
		p.expr(x.Result, false)
		p.buf.WriteString(";\n")
	case *BlockStmt:
		p.line("{")
		p.block(x)
		p.line("}")
	case *IfStmt:
		p.startLine()
		p.buf.WriteString("if (")
		p.expr(x.Cond, false)
		p.buf.WriteString(") {\n")
		p.block(x.Then)
		if x.Else != nil {
			p.line("} else {")
			p.block(x.Else)
		}
		p.line("}")
	case *WhileStmt:
		p.startLine()
		p.buf.WriteString("while (")
		p.expr(x.Cond, false)
		p.buf.WriteString(") {\n")
		p.block(x.Body)
		p.line("}")
	case *LeaveStmt:
		p.line("__leave %s;", x.Label)
	}
}

// expr prints e. nested is set for operands of another operator.
func (p *printer) expr(e Expr, nested bool) {
	switch x := e.(type) {
	case *Ident:
		if x.Global {
			p.buf.WriteString("::")
		}
		p.buf.WriteString(x.Name)
	case *IntLit:
		p.printf("%d", x.Value)
	case *UnaryExpr:
		p.buf.WriteString(x.Op)
		p.expr(x.X, true)
	case *BinaryExpr:
		if nested {
			p.buf.WriteByte('(')
		}
		p.expr(x.X, true)
		p.printf(" %s ", x.Op)
		p.expr(x.Y, true)
		if nested {
			p.buf.WriteByte(')')
		}
	case *CallExpr:
		p.expr(x.Fn, true)
		p.buf.WriteByte('(')
		for i, a := range x.Args {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.expr(a, false)
		}
		p.buf.WriteByte(')')
	case *SourceLocExpr:
		where := x.Where()
		p.printf("__source_location(%d:%d)", where.Line, where.Col)
	case *InlineExpr:
		p.printf("__splice(%s @ %d:%d, %s) {\n", x.Callee, x.Pos.Line, x.Pos.Col, x.Label)
		p.block(x.Body)
		p.startLine()
		p.buf.WriteByte('}')
		if x.Result != nil {
			p.buf.WriteString(" -> ")
			p.expr(x.Result, false)
		}
	}
}
