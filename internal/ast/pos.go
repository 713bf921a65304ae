package ast

import (
	"fmt"
	"strings"
)

// Pos is a source coordinate.
type Pos struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

// IsValid reports whether the position carries a line number.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Before orders positions by file, line and column.
func (p Pos) Before(q Pos) bool {
	if p.File != q.File {
		return p.File < q.File
	}
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Col < q.Col
}

// InlineMode is the inlining request attached to a function declaration.
type InlineMode uint8

const (
	InlineDefault InlineMode = iota // no attribute
	InlineAlways                    // __inline_always
	InlineNever                     // __inline_never
)

var inlineModeNames = [...]string{
	InlineDefault: "default",
	InlineAlways:  "always",
	InlineNever:   "never",
}

func (m InlineMode) String() string {
	if int(m) < len(inlineModeNames) {
		return inlineModeNames[m]
	}
	return fmt.Sprintf("InlineMode(%d)", m)
}

// Keyword returns the source spelling of the mode, or "" for InlineDefault.
func (m InlineMode) Keyword() string {
	switch m {
	case InlineAlways:
		return "__inline_always"
	case InlineNever:
		return "__inline_never"
	default:
		return ""
	}
}

// ParseInlineMode parses "default", "always" or "never". The source keywords
// __inline_always and __inline_never are accepted too.
func ParseInlineMode(s string) (InlineMode, error) {
	switch strings.TrimSpace(s) {
	case "", "default":
		return InlineDefault, nil
	case "always", "__inline_always":
		return InlineAlways, nil
	case "never", "__inline_never":
		return InlineNever, nil
	}
	return InlineDefault, fmt.Errorf("invalid inline mode %q, must be \"default\", \"always\", or \"never\"", s)
}
