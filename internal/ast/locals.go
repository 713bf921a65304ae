package ast

// LocalNames tracks which local variable names are visible while a function
// body is walked in program order. It answers one question: does an
// identifier refer to a local variable or to something declared at unit
// scope? The resolver does full binding analysis; this is the cheap lexical
// approximation the call graph and the inliner share.
type LocalNames struct {
	scopes []map[string]bool // name -> visible; false records an undeclared name
}

// NewLocalNames returns a tracker with one open scope holding params.
func NewLocalNames(params []*Param) *LocalNames {
	l := &LocalNames{}
	l.Push()
	for _, p := range params {
		l.Declare(p.Name)
	}
	return l
}

// Push opens a nested scope.
func (l *LocalNames) Push() {
	l.scopes = append(l.scopes, make(map[string]bool))
}

// Pop closes the innermost scope.
func (l *LocalNames) Pop() {
	l.scopes = l.scopes[:len(l.scopes)-1]
}

// Declare makes name visible in the innermost scope.
func (l *LocalNames) Declare(name string) {
	l.scopes[len(l.scopes)-1][name] = true
}

// Undeclare hides name from the innermost scope to its end. A name that
// is not a visible local is left alone: undeclaring it is an error the
// resolver reports, and it leaves no slot behind.
func (l *LocalNames) Undeclare(name string) {
	if l.Has(name) {
		l.scopes[len(l.scopes)-1][name] = false
	}
}

// Has reports whether name currently denotes a local variable.
func (l *LocalNames) Has(name string) bool {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if visible, ok := l.scopes[i][name]; ok {
			return visible
		}
	}
	return false
}

// Hides reports whether name is bound below unit scope: it is a visible
// local, or a local undeclared in an enclosing scope still hides the
// unit-scope name until that scope ends.
func (l *LocalNames) Hides(name string) bool {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if _, ok := l.scopes[i][name]; ok {
			return true
		}
	}
	return false
}

// Stmt updates the tracker for the declarations made by s. Nested scopes of
// s are not entered; callers walking into them use Push and Pop.
func (l *LocalNames) Stmt(s Stmt) {
	switch x := s.(type) {
	case *DeclStmt:
		for _, v := range x.Vars {
			l.Declare(v.Name)
		}
	case *UndeclareStmt:
		for _, id := range x.Names {
			l.Undeclare(id.Name)
		}
	}
}
