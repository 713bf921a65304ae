// Package symtab implements the scoped symbol table behind __shadow and
// __undeclare: a tree of scopes, each holding at most one live slot per
// name, and immutable-identity bindings linked into shadow chains.
package symtab

import (
	"fmt"

	"github.com/roach88/extcheck/internal/ast"
)

// ScopeKind is the kind of a lexical scope.
type ScopeKind uint8

const (
	GlobalScope   ScopeKind = iota // unit scope: globals and functions
	FunctionScope                  // parameters and the outermost body statements
	BlockScope                     // braces, if/else branches, loop bodies, spliced bodies
)

func (k ScopeKind) String() string {
	switch k {
	case GlobalScope:
		return "global"
	case FunctionScope:
		return "function"
	case BlockScope:
		return "block"
	}
	return fmt.Sprintf("ScopeKind(%d)", k)
}

// Kind classifies what a binding names.
type Kind uint8

const (
	Global Kind = iota
	Function
	Param
	Local
)

func (k Kind) String() string {
	switch k {
	case Global:
		return "global"
	case Function:
		return "function"
	case Param:
		return "parameter"
	case Local:
		return "local variable"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsLocal reports whether bindings of this kind may be undeclared.
func (k Kind) IsLocal() bool {
	return k == Param || k == Local
}

// State is the visibility state of a binding.
type State uint8

const (
	Active     State = iota // visible to lookups
	Shadowed                // superseded by a same-scope __shadow
	Undeclared              // hidden by __undeclare; storage is untouched
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Shadowed:
		return "shadowed"
	case Undeclared:
		return "undeclared"
	}
	return fmt.Sprintf("State(%d)", s)
}

// Binding is one declaration of a name. A binding is never replaced in
// place: a __shadow issues a new binding with a bumped generation that
// points back at the one it supersedes.
type Binding struct {
	ID         int // 1-based, unique within a Table; 0 for tombstones
	Name       string
	Type       string
	Kind       Kind
	State      State
	Generation uint  // 0 for a fresh declaration, Prev.Generation+1 for a shadow
	Token      int64 // ordering token of the declaring event
	Pos        ast.Pos
	Scope      *Scope

	// Prev is the binding a __shadow declaration superseded. For a
	// tombstone it is the enclosing binding being hidden.
	Prev *Binding

	// Hides is the enclosing local a plain nested declaration hides.
	Hides *Binding

	// UndeclaredAt and UndeclaredToken record the __undeclare event.
	UndeclaredAt    ast.Pos
	UndeclaredToken int64

	// Tombstone marks a slot created by undeclaring a binding of an
	// enclosing scope. It hides the name until the end of its scope and
	// owns no storage.
	Tombstone bool

	// Value is the folded constant value of the binding, if known.
	Value *int64
}

func (b *Binding) String() string {
	return fmt.Sprintf("%s#%d(%s, gen %d, %s)", b.Name, b.ID, b.Kind, b.Generation, b.State)
}

// Scope is a lexical scope. It owns its bindings; Parent is a non-owning
// back-reference.
type Scope struct {
	Kind   ScopeKind
	Parent *Scope

	slots    map[string]*Binding // name -> current slot (active, undeclared or tombstone)
	bindings []*Binding          // every binding declared here, in program order
}

func newScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{Kind: kind, Parent: parent, slots: make(map[string]*Binding)}
}

// Slot returns the current slot for name in this scope only.
func (s *Scope) Slot(name string) *Binding {
	return s.slots[name]
}

// Bindings returns the bindings declared in this scope, in program order.
// Tombstones are not included.
func (s *Scope) Bindings() []*Binding {
	return s.bindings
}

// Depth returns the number of enclosing scopes.
func (s *Scope) Depth() int {
	d := 0
	for p := s.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}
