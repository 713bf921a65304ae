package ast

// A Node is a node in the tree.
type Node interface {
	// Start returns the position of the node's first token.
	Start() Pos
}

// A Stmt is a statement.
type Stmt interface {
	Node
	stmt()
}

// An Expr is an expression.
type Expr interface {
	Node
	expr()
}

func (*DeclStmt) stmt()      {}
func (*UndeclareStmt) stmt() {}
func (*ExprStmt) stmt()      {}
func (*AssignStmt) stmt()    {}
func (*ReturnStmt) stmt()    {}
func (*BlockStmt) stmt()     {}
func (*IfStmt) stmt()        {}
func (*WhileStmt) stmt()     {}
func (*LeaveStmt) stmt()     {}

func (*Ident) expr()         {}
func (*IntLit) expr()        {}
func (*UnaryExpr) expr()     {}
func (*BinaryExpr) expr()    {}
func (*CallExpr) expr()      {}
func (*SourceLocExpr) expr() {}
func (*InlineExpr) expr()    {}

// Unit is a translation unit.
type Unit struct {
	Name    string
	Globals []*GlobalDecl
	Funcs   []*FuncDecl
}

// Func returns the function declared with the given name, or nil.
func (u *Unit) Func(name string) *FuncDecl {
	for _, fn := range u.Funcs {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// GlobalDecl is a namespace-scope variable.
type GlobalDecl struct {
	Pos  Pos
	Name string
	Type string
	Init Expr // may be nil
}

func (x *GlobalDecl) Start() Pos { return x.Pos }

// FuncDecl is a function definition.
type FuncDecl struct {
	Pos    Pos
	Name   string
	Mode   InlineMode
	Result string // "" or "void" for no result
	Params []*Param
	Body   []Stmt
}

func (x *FuncDecl) Start() Pos { return x.Pos }

// Void reports whether the function returns no value.
func (x *FuncDecl) Void() bool {
	return x.Result == "" || x.Result == "void"
}

// Param is a function parameter.
type Param struct {
	Pos  Pos
	Name string
	Type string
}

func (x *Param) Start() Pos { return x.Pos }

// DeclStmt declares one or more variables of the same type:
//
//	int x = 1, y;
//	__shadow int x = 2 * x;
type DeclStmt struct {
	Pos    Pos
	Type   string
	Shadow bool // declared with __shadow
	Vars   []*VarSpec
}

func (x *DeclStmt) Start() Pos { return x.Pos }

// VarSpec is a single declarator of a DeclStmt.
type VarSpec struct {
	Pos  Pos
	Name string
	Init Expr // may be nil

	// set by resolver:
	Binding int // binding ID, 0 if unresolved
}

func (x *VarSpec) Start() Pos { return x.Pos }

// UndeclareStmt removes names from the current scope: __undeclare a, b;
type UndeclareStmt struct {
	Pos   Pos
	Names []*Ident
}

func (x *UndeclareStmt) Start() Pos { return x.Pos }

// ExprStmt is an expression evaluated for side effects.
type ExprStmt struct {
	X Expr
}

func (x *ExprStmt) Start() Pos { return x.X.Start() }

// AssignStmt is an assignment: LHS = RHS.
type AssignStmt struct {
	Pos Pos
	LHS Expr
	RHS Expr
}

func (x *AssignStmt) Start() Pos { return x.Pos }

// ReturnStmt returns from a function.
type ReturnStmt struct {
	Pos    Pos
	Result Expr // may be nil
}

func (x *ReturnStmt) Start() Pos { return x.Pos }

// BlockStmt is a braced statement list with its own scope.
type BlockStmt struct {
	Pos   Pos
	Stmts []Stmt
}

func (x *BlockStmt) Start() Pos { return x.Pos }

// IfStmt is a conditional. Each branch is its own scope.
type IfStmt struct {
	Pos  Pos
	Cond Expr
	Then *BlockStmt
	Else *BlockStmt // may be nil
}

func (x *IfStmt) Start() Pos { return x.Pos }

// WhileStmt is a loop.
type WhileStmt struct {
	Pos  Pos
	Cond Expr
	Body *BlockStmt
}

func (x *WhileStmt) Start() Pos { return x.Pos }

// LeaveStmt exits the InlineExpr block labelled Label. The inliner produces
// it for returns that are not the last statement of a spliced body.
type LeaveStmt struct {
	Pos   Pos
	Label string
}

func (x *LeaveStmt) Start() Pos { return x.Pos }

// Ident is a name reference.
type Ident struct {
	Pos  Pos
	Name string

	// Global marks a qualified reference (::name) that bypasses local scopes.
	// The inliner sets it on free references of spliced bodies.
	Global bool

	// set by resolver:
	Binding int // binding ID, 0 if unresolved or external
}

func (x *Ident) Start() Pos { return x.Pos }

// IntLit is an integer literal.
type IntLit struct {
	Pos   Pos
	Value int64
}

func (x *IntLit) Start() Pos { return x.Pos }

// UnaryExpr is Op X. Op "&" takes an address.
type UnaryExpr struct {
	Pos Pos
	Op  string
	X   Expr
}

func (x *UnaryExpr) Start() Pos { return x.Pos }

// BinaryExpr is X Op Y.
type BinaryExpr struct {
	Pos Pos
	Op  string
	X   Expr
	Y   Expr
}

func (x *BinaryExpr) Start() Pos { return x.X.Start() }

// CallExpr is Fn(Args).
type CallExpr struct {
	Pos  Pos
	Fn   Expr
	Args []Expr
}

func (x *CallExpr) Start() Pos { return x.Pos }

// Callee returns the called function name when Fn is a plain identifier.
func (x *CallExpr) Callee() (*Ident, bool) {
	id, ok := x.Fn.(*Ident)
	return id, ok
}

// SourceLocExpr is the "current call site" intrinsic.
//
// Resolved is the coordinate the intrinsic evaluates to. It equals Pos in
// source that was never spliced; the inliner points it at the splice point.
type SourceLocExpr struct {
	Pos      Pos
	Resolved Pos
	Chain    []Pos // splice points, innermost first
}

func (x *SourceLocExpr) Start() Pos { return x.Pos }

// Where returns the coordinate the intrinsic evaluates to.
func (x *SourceLocExpr) Where() Pos {
	if x.Resolved.IsValid() {
		return x.Resolved
	}
	return x.Pos
}

// InlineExpr is the body of an always-inline function spliced into a caller.
// It behaves as a nested block whose locals die at block exit; its value, if
// any, is the value of Result at block exit.
type InlineExpr struct {
	Pos    Pos    // position of the replaced call
	Callee string // name of the inlined function
	Label  string // target of LeaveStmt inside Body
	Result *Ident // nil when the value is discarded or the callee is void
	Body   *BlockStmt

	// Params is the number of leading Body statements that bind the
	// arguments. Their initializers are caller code; the rest of Body is
	// the callee's.
	Params int
}

func (x *InlineExpr) Start() Pos { return x.Pos }
