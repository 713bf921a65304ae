// Package diag defines the structured diagnostics reported by the analyzer
// and a collector that accepts them from concurrent workers.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/extcheck/internal/ast"
)

// Kind identifies a class of diagnostic.
type Kind string

// Fatal kinds. Any of them blocks the transformed output.
const (
	Redefinition          Kind = "Redefinition"
	NotFound              Kind = "NotFound"
	NotLocalVariable      Kind = "NotLocalVariable"
	NothingToShadow       Kind = "NothingToShadow"
	AddressOfInlineAlways Kind = "AddressOfInlineAlways"
	CyclicAlwaysInline    Kind = "CyclicAlwaysInline"
	InvalidCall           Kind = "InvalidCall"
)

// Deprecation warnings. They never block the transformed output.
const (
	DeprecatedNestedShadow  Kind = "DeprecatedNestedShadow"
	DeprecatedSelfReference Kind = "DeprecatedSelfReference"
)

// Diagnostic codes (E201-E299 errors, W301-W399 warnings)
const (
	ErrRedefinition          = "E201" // same-scope redeclaration without __shadow
	ErrNotFound              = "E202" // name not visible
	ErrNotLocalVariable      = "E203" // __undeclare of a global or function
	ErrNothingToShadow       = "E204" // __shadow without a prior binding
	ErrAddressOfInlineAlways = "E205" // always-inline function used as a value
	ErrCyclicAlwaysInline    = "E206" // recursive always-inline call graph
	ErrInvalidCall           = "E207" // always-inline call with wrong argument count

	WarnNestedShadow  = "W301" // inner local hides outer local without __shadow
	WarnSelfReference = "W302" // initializer references its own binding
)

// Severity is error or warning.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

var kindCodes = map[Kind]string{
	Redefinition:            ErrRedefinition,
	NotFound:                ErrNotFound,
	NotLocalVariable:        ErrNotLocalVariable,
	NothingToShadow:         ErrNothingToShadow,
	AddressOfInlineAlways:   ErrAddressOfInlineAlways,
	CyclicAlwaysInline:      ErrCyclicAlwaysInline,
	InvalidCall:             ErrInvalidCall,
	DeprecatedNestedShadow:  WarnNestedShadow,
	DeprecatedSelfReference: WarnSelfReference,
}

// Code returns the stable code of k, or "" for an unknown kind.
func (k Kind) Code() string {
	return kindCodes[k]
}

// Severity returns the severity of k.
func (k Kind) Severity() Severity {
	if strings.HasPrefix(k.Code(), "W") {
		return SeverityWarning
	}
	return SeverityError
}

// ParseKind accepts a kind name or its code.
func ParseKind(s string) (Kind, error) {
	for k, code := range kindCodes {
		if string(k) == s || code == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown diagnostic kind %q", s)
}

// Related is a secondary coordinate attached to a diagnostic, such as one
// edge of a call cycle or the declaration a use refers to.
type Related struct {
	Pos     ast.Pos `json:"pos"`
	Message string  `json:"message"`
}

// Diagnostic is one structured error or warning.
type Diagnostic struct {
	Kind     Kind      `json:"kind"`
	Code     string    `json:"code"`
	Severity Severity  `json:"severity"`
	Pos      ast.Pos   `json:"pos"`
	Message  string    `json:"message"`
	Related  []Related `json:"related,omitempty"`
}

// New returns a diagnostic of kind k at pos.
func New(k Kind, pos ast.Pos, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Kind:     k,
		Code:     k.Code(),
		Severity: k.Severity(),
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	}
}

// WithRelated appends a related coordinate and returns d.
func (d *Diagnostic) WithRelated(pos ast.Pos, format string, args ...any) *Diagnostic {
	d.Related = append(d.Related, Related{Pos: pos, Message: fmt.Sprintf(format, args...)})
	return d
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s[%s] %s", d.Pos, d.Severity, d.Code, d.Message)
}

// IsError reports whether d is fatal.
func (d *Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// key identifies a diagnostic for de-duplication.
func (d *Diagnostic) key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s", d.Pos, d.Code, d.Message)
	for _, r := range d.Related {
		fmt.Fprintf(&b, "|%s %s", r.Pos, r.Message)
	}
	return b.String()
}

// List is the error returned when analysis produced fatal diagnostics.
type List struct {
	Diagnostics []*Diagnostic
}

// Error implements the error interface.
func (l *List) Error() string {
	switch len(l.Diagnostics) {
	case 0:
		return "no errors"
	case 1:
		return l.Diagnostics[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l.Diagnostics[0].Error(), len(l.Diagnostics)-1)
}

// AsList extracts a *List from err.
// Uses errors.As to handle wrapped errors.
func AsList(err error) (*List, bool) {
	var l *List
	if errors.As(err, &l) {
		return l, true
	}
	return nil, false
}

// HasKind reports whether err carries a diagnostic of kind k, either
// directly or inside a *List.
func HasKind(err error, k Kind) bool {
	var d *Diagnostic
	if errors.As(err, &d) && d.Kind == k {
		return true
	}
	if l, ok := AsList(err); ok {
		for _, d := range l.Diagnostics {
			if d.Kind == k {
				return true
			}
		}
	}
	return false
}
