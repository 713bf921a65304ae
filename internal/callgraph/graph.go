package callgraph

import (
	"fmt"
	"strings"

	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/diag"
)

// Edge is a call from one always-inline function to another. Site is the
// first call site in the caller's body.
type Edge struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Site ast.Pos `json:"site"`
}

// Node is an always-inline function and its outgoing edges in source order.
type Node struct {
	Func  *ast.FuncDecl
	Edges []Edge
}

// Graph is an acyclic always-inline call graph.
type Graph struct {
	nodes map[string]*Node
	decl  []string // node names in declaration order
	order []string // callees first
}

// Builder collects function declarations for Build.
type Builder struct {
	funcs []*ast.FuncDecl
	seen  map[string]bool
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{seen: make(map[string]bool)}
}

// AddFunction registers fn. Only the first declaration of a name counts;
// duplicates are reported as redefinitions before the graph is built.
func (b *Builder) AddFunction(fn *ast.FuncDecl) {
	if b.seen[fn.Name] {
		return
	}
	b.seen[fn.Name] = true
	b.funcs = append(b.funcs, fn)
}

// Build constructs the graph and checks it for cycles.
//
// The check is a three-colour depth-first search that starts from each
// always-inline function in declaration order and follows edges in source
// order, so the reported cycle is the first one this traversal meets. A
// back edge to a function still in progress fails Build with *CycleError.
func (b *Builder) Build() (*Graph, error) {
	g := &Graph{nodes: make(map[string]*Node)}
	for _, fn := range b.funcs {
		if fn.Mode == ast.InlineAlways {
			g.nodes[fn.Name] = &Node{Func: fn}
			g.decl = append(g.decl, fn.Name)
		}
	}

	for _, name := range g.decl {
		n := g.nodes[name]
		linked := make(map[string]bool)
		for _, c := range DirectCalls(n.Func) {
			if _, ok := g.nodes[c.Name]; !ok || linked[c.Name] {
				continue
			}
			linked[c.Name] = true
			n.Edges = append(n.Edges, Edge{From: name, To: c.Name, Site: c.Site})
		}
	}

	if err := g.sort(); err != nil {
		return nil, err
	}
	return g, nil
}

type colour uint8

const (
	white colour = iota // unvisited
	grey                // on the current DFS path
	black               // done
)

func (g *Graph) sort() error {
	colours := make(map[string]colour, len(g.nodes))
	var path []Edge

	var visit func(name string) error
	visit = func(name string) error {
		colours[name] = grey
		for _, e := range g.nodes[name].Edges {
			switch colours[e.To] {
			case grey:
				start := len(path)
				for i, p := range path {
					if p.From == e.To {
						start = i
						break
					}
				}
				cycle := append(append([]Edge{}, path[start:]...), e)
				return &CycleError{Edges: cycle, graph: g}
			case white:
				path = append(path, e)
				if err := visit(e.To); err != nil {
					return err
				}
				path = path[:len(path)-1]
			}
		}
		colours[name] = black
		g.order = append(g.order, name)
		return nil
	}

	for _, name := range g.decl {
		if colours[name] == white {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Order returns the always-inline functions in topological order, callees
// before their callers.
func (g *Graph) Order() []string {
	return g.order
}

// Functions returns the always-inline function names in declaration order.
func (g *Graph) Functions() []string {
	return g.decl
}

// Node returns the node for name, or nil if name is not always-inline.
func (g *Graph) Node(name string) *Node {
	return g.nodes[name]
}

// IsAlways reports whether name is an always-inline function.
func (g *Graph) IsAlways(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Callees returns the outgoing edges of name in source order.
func (g *Graph) Callees(name string) []Edge {
	if n := g.nodes[name]; n != nil {
		return n.Edges
	}
	return nil
}

// Edges returns every edge, grouped by caller in declaration order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, name := range g.decl {
		out = append(out, g.nodes[name].Edges...)
	}
	return out
}

// CycleError reports a cycle among always-inline functions. Edges is the
// cycle as the search discovered it; the closing back edge is last.
type CycleError struct {
	Edges []Edge
	graph *Graph
}

// Path returns the functions along the cycle, starting and ending with the
// same name.
func (e *CycleError) Path() []string {
	if len(e.Edges) == 0 {
		return nil
	}
	path := []string{e.Edges[0].From}
	for _, edge := range e.Edges {
		path = append(path, edge.To)
	}
	return path
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("always-inline functions call each other recursively: %s", strings.Join(e.Path(), " -> "))
}

// Diagnostic converts the cycle into a CyclicAlwaysInline diagnostic at the
// declaration of the first function, with one related coordinate per edge.
func (e *CycleError) Diagnostic() *diag.Diagnostic {
	pos := e.Edges[0].Site
	if e.graph != nil {
		if n := e.graph.nodes[e.Edges[0].From]; n != nil {
			pos = n.Func.Pos
		}
	}
	d := diag.New(diag.CyclicAlwaysInline, pos, "%s", e.Error())
	for _, edge := range e.Edges {
		d.WithRelated(edge.Site, "%s calls %s", edge.From, edge.To)
	}
	return d
}
