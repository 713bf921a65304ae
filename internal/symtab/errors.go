package symtab

import (
	"errors"
	"fmt"

	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/diag"
)

// Error is a failed symbol table operation.
//
// Code reuses the diagnostic kinds so callers can report the failure
// without translating it.
type Error struct {
	// Code is one of diag.Redefinition, diag.NotFound,
	// diag.NotLocalVariable or diag.NothingToShadow.
	Code diag.Kind

	// Name is the identifier the operation was applied to.
	Name string

	// Pos is where the operation was requested.
	Pos ast.Pos

	// Prior is the binding that caused the failure, if any: the existing
	// slot for Redefinition, the hiding slot for NotFound, the global or
	// function for NotLocalVariable.
	Prior *Binding

	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Diagnostic converts e into a diagnostic, pointing at the prior binding
// when there is one.
func (e *Error) Diagnostic() *diag.Diagnostic {
	d := diag.New(e.Code, e.Pos, "%s", e.Message)
	switch {
	case e.Prior == nil || !e.Prior.Pos.IsValid():
	case e.Prior.State == Undeclared:
		d.WithRelated(e.Prior.UndeclaredAt, "%q undeclared here", e.Name)
	default:
		d.WithRelated(e.Prior.Pos, "%s %q declared here", e.Prior.Kind, e.Prior.Name)
	}
	return d
}

// IsRedefinition returns true if err is a Redefinition failure.
// Uses errors.As to handle wrapped errors.
func IsRedefinition(err error) bool {
	return hasCode(err, diag.Redefinition)
}

// IsNotFound returns true if err is a NotFound failure.
func IsNotFound(err error) bool {
	return hasCode(err, diag.NotFound)
}

// IsNotLocalVariable returns true if err is a NotLocalVariable failure.
func IsNotLocalVariable(err error) bool {
	return hasCode(err, diag.NotLocalVariable)
}

// IsNothingToShadow returns true if err is a NothingToShadow failure.
func IsNothingToShadow(err error) bool {
	return hasCode(err, diag.NothingToShadow)
}

func hasCode(err error, code diag.Kind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func newRedefinitionError(name string, pos ast.Pos, prior *Binding) *Error {
	msg := fmt.Sprintf("redefinition of %q", name)
	if prior.State == Undeclared {
		msg = fmt.Sprintf("redefinition of undeclared %q; use __shadow to reuse the name", name)
	}
	return &Error{Code: diag.Redefinition, Name: name, Pos: pos, Prior: prior, Message: msg}
}

func newNotFoundError(name string, pos ast.Pos, hidden *Binding) *Error {
	msg := fmt.Sprintf("use of undeclared identifier %q", name)
	if hidden != nil {
		msg = fmt.Sprintf("%q is not accessible after __undeclare", name)
	}
	return &Error{Code: diag.NotFound, Name: name, Pos: pos, Prior: hidden, Message: msg}
}

func newNotLocalError(name string, pos ast.Pos, b *Binding) *Error {
	return &Error{
		Code:    diag.NotLocalVariable,
		Name:    name,
		Pos:     pos,
		Prior:   b,
		Message: fmt.Sprintf("cannot __undeclare %q: it is a %s, not a local variable", name, b.Kind),
	}
}

func newNothingToShadowError(name string, pos ast.Pos) *Error {
	return &Error{
		Code:    diag.NothingToShadow,
		Name:    name,
		Pos:     pos,
		Message: fmt.Sprintf("__shadow of %q with no prior declaration to shadow", name),
	}
}
