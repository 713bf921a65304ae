package symtab

import (
	"github.com/roach88/extcheck/internal/ast"
)

// Table owns one scope tree and every binding in it.
//
// A Table is not safe for concurrent use. The resolver gives each function
// body its own Table, so bodies can be resolved in parallel without sharing
// mutable state.
type Table struct {
	clock    *Clock
	global   *Scope
	bindings []*Binding
}

// New creates a table with an empty global scope.
func New() *Table {
	return &Table{
		clock:  NewClock(),
		global: newScope(GlobalScope, nil),
	}
}

// Global returns the unit scope.
func (t *Table) Global() *Scope {
	return t.global
}

// Open creates a scope nested in parent.
func (t *Table) Open(parent *Scope, kind ScopeKind) *Scope {
	return newScope(kind, parent)
}

// Bindings returns every binding of the table in creation order.
func (t *Table) Bindings() []*Binding {
	return t.bindings
}

// Clock returns the table's ordering-token clock.
func (t *Table) Clock() *Clock {
	return t.clock
}

func (t *Table) add(s *Scope, b *Binding) {
	b.ID = len(t.bindings) + 1
	b.Scope = s
	b.Token = t.clock.Next()
	t.bindings = append(t.bindings, b)
	s.bindings = append(s.bindings, b)
	s.slots[b.Name] = b
}

// Declare introduces name in scope s.
//
// It fails with Redefinition if s already holds a slot for name, whether
// active or undeclared: vacating a slot with __undeclare does not permit a
// plain redeclaration. When a local declaration hides a local of an
// enclosing scope, the hidden binding is recorded in Hides.
func (t *Table) Declare(s *Scope, name, typ string, pos ast.Pos, kind Kind) (*Binding, error) {
	if cur := s.slots[name]; cur != nil {
		return nil, newRedefinitionError(name, pos, cur)
	}

	b := &Binding{Name: name, Type: typ, Kind: kind, State: Active, Pos: pos}
	if kind == Local && s.Parent != nil {
		if outer, err := t.Lookup(s.Parent, name); err == nil && outer.Kind.IsLocal() {
			b.Hides = outer
		}
	}
	t.add(s, b)
	return b, nil
}

// Lookup resolves name innermost scope first.
//
// An undeclared slot makes the name invisible: lookup stops there with
// NotFound rather than falling through to an enclosing binding.
func (t *Table) Lookup(s *Scope, name string) (*Binding, error) {
	return t.LookupAt(s, name, ast.Pos{})
}

// LookupAt is Lookup with the failure reported at pos.
func (t *Table) LookupAt(s *Scope, name string, pos ast.Pos) (*Binding, error) {
	for sc := s; sc != nil; sc = sc.Parent {
		b := sc.slots[name]
		if b == nil {
			continue
		}
		if b.State == Undeclared {
			return nil, newNotFoundError(name, pos, b)
		}
		return b, nil
	}
	return nil, newNotFoundError(name, pos, nil)
}

// Undeclare removes the visibility of name from the current point to the
// end of scope s. The storage of the binding is untouched.
//
// It fails with NotFound when no binding is visible and NotLocalVariable
// when the visible binding is a global or a function. A binding of s itself
// is marked undeclared; a binding of an enclosing scope is hidden by a
// tombstone slot in s, so it becomes visible again once s ends.
func (t *Table) Undeclare(s *Scope, name string, pos ast.Pos) (*Binding, error) {
	b, err := t.LookupAt(s, name, pos)
	if err != nil {
		return nil, err
	}
	if !b.Kind.IsLocal() {
		return nil, newNotLocalError(name, pos, b)
	}

	token := t.clock.Next()
	if b.Scope == s {
		b.State = Undeclared
		b.UndeclaredAt = pos
		b.UndeclaredToken = token
		return b, nil
	}

	s.slots[name] = &Binding{
		Name:            name,
		Type:            b.Type,
		Kind:            b.Kind,
		State:           Undeclared,
		Token:           token,
		Pos:             pos,
		Scope:           s,
		Prev:            b,
		UndeclaredAt:    pos,
		UndeclaredToken: token,
		Tombstone:       true,
	}
	return b, nil
}

// shadowTarget returns the binding a __shadow of name in s would
// supersede, or nil. A same-scope slot qualifies whether active or
// undeclared; otherwise an active binding of an enclosing scope must be
// visible.
func (t *Table) shadowTarget(s *Scope, name string) *Binding {
	if cur := s.slots[name]; cur != nil {
		if cur.Tombstone {
			return cur.Prev
		}
		return cur
	}
	b, err := t.Lookup(s, name)
	if err != nil {
		return nil
	}
	return b
}

// CanShadow reports whether a __shadow of name in s would succeed.
func (t *Table) CanShadow(s *Scope, name string) bool {
	return t.shadowTarget(s, name) != nil
}

// CheckShadow is the all-or-nothing precheck for a multi-name __shadow
// declaration. It returns a NothingToShadow error for every failing name,
// in declaration order. Names repeated in the list are checked once each
// against the state before the declaration.
func (t *Table) CheckShadow(s *Scope, names []string, positions []ast.Pos) []*Error {
	var errs []*Error
	for i, name := range names {
		if t.CanShadow(s, name) {
			continue
		}
		var pos ast.Pos
		if i < len(positions) {
			pos = positions[i]
		}
		errs = append(errs, newNothingToShadowError(name, pos))
	}
	return errs
}

// Shadow introduces a new binding of name in s that supersedes the prior
// one.
//
// The prior binding must be active and visible from s, or be an undeclared
// slot of s itself; otherwise Shadow fails with NothingToShadow. The new
// binding gets Generation = Prev.Generation+1. A prior binding of the same
// scope becomes Shadowed; an enclosing binding stays active and is visible
// again when s ends.
//
// Callers resolve the initializer of a shadow declaration before calling
// Shadow, so the initializer sees the prior binding.
func (t *Table) Shadow(s *Scope, name, typ string, pos ast.Pos) (*Binding, error) {
	prev := t.shadowTarget(s, name)
	if prev == nil {
		return nil, newNothingToShadowError(name, pos)
	}
	if prev.Scope == s && prev.State == Active {
		prev.State = Shadowed
	}

	b := &Binding{
		Name:       name,
		Type:       typ,
		Kind:       Local,
		State:      Active,
		Generation: prev.Generation + 1,
		Pos:        pos,
		Prev:       prev,
	}
	t.add(s, b)
	return b, nil
}

// Chain returns b and its shadow predecessors, newest first.
func Chain(b *Binding) []*Binding {
	var out []*Binding
	for ; b != nil; b = b.Prev {
		out = append(out, b)
	}
	return out
}
