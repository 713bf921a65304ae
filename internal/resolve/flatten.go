package resolve

import (
	"fmt"
	"strings"

	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/symtab"
)

// Info describes one binding of a resolved function or of the unit scope.
type Info struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Flat       string  `json:"flat"`
	Type       string  `json:"type"`
	Kind       string  `json:"kind"`
	State      string  `json:"state"`
	Generation uint    `json:"generation"`
	Prev       int     `json:"prev,omitempty"`
	Pos        ast.Pos `json:"pos"`
	Value      *int64  `json:"value,omitempty"`
	Spliced    bool    `json:"spliced,omitempty"`
}

func newInfo(b *symtab.Binding, flat string) Info {
	info := Info{
		ID:         b.ID,
		Name:       b.Name,
		Flat:       flat,
		Type:       b.Type,
		Kind:       b.Kind.String(),
		State:      b.State.String(),
		Generation: b.Generation,
		Pos:        b.Pos,
		Value:      b.Value,
		Spliced:    strings.Contains(b.Name, "."),
	}
	if b.Prev != nil {
		info.Prev = b.Prev.ID
	}
	return info
}

// usedNames returns every name a flat name must not collide with: the
// unit-scope names and every name declared in fn.
func usedNames(fn *ast.FuncDecl, g *Globals) map[string]bool {
	used := make(map[string]bool, len(g.used))
	for name := range g.used {
		used[name] = true
	}
	ast.Inspect(fn, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.Param:
			used[x.Name] = true
		case *ast.VarSpec:
			used[x.Name] = true
		}
		return true
	})
	return used
}

// flatNames assigns each parameter and local a unique name. The first
// binding of a name keeps it; later ones get name_K with the smallest K
// above their rank that is still free.
func flatNames(bindings []*symtab.Binding, used map[string]bool) map[int]string {
	names := make(map[int]string)
	rank := make(map[string]int)
	for _, b := range bindings {
		if !b.Kind.IsLocal() {
			continue
		}
		rank[b.Name]++
		n := rank[b.Name]
		if n == 1 {
			names[b.ID] = b.Name
			continue
		}
		for k := n; ; k++ {
			cand := fmt.Sprintf("%s_%d", b.Name, k)
			if !used[cand] {
				used[cand] = true
				names[b.ID] = cand
				break
			}
		}
	}
	return names
}

// flatten renames fn in place and removes the scope-control constructs.
func flatten(fn *ast.FuncDecl, names map[int]string) {
	fn.Body = dropUndeclares(fn.Body)
	ast.Inspect(fn, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.BlockStmt:
			x.Stmts = dropUndeclares(x.Stmts)
		case *ast.DeclStmt:
			x.Shadow = false
		case *ast.VarSpec:
			if flat, ok := names[x.Binding]; ok {
				x.Name = flat
			}
		case *ast.Ident:
			if flat, ok := names[x.Binding]; ok {
				x.Name = flat
			}
		}
		return true
	})
}

func dropUndeclares(list []ast.Stmt) []ast.Stmt {
	out := list[:0]
	for _, s := range list {
		if _, ok := s.(*ast.UndeclareStmt); !ok {
			out = append(out, s)
		}
	}
	return out
}
