// Package analyzer runs the staged semantic analysis of a translation unit.
//
// The stages are strictly ordered:
//
//  1. collect the unit-scope names (Redefinition is fatal here)
//  2. build the always-inline call graph (a cycle short-circuits)
//  3. order the always-inline functions callees first
//  4. splice every always-inline call
//  5. resolve every function body in parallel
//
// Bodies are independent after stage 4: each is resolved against its own
// symbol table and only the diagnostic collector is shared.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/callgraph"
	"github.com/roach88/extcheck/internal/diag"
	"github.com/roach88/extcheck/internal/inline"
	"github.com/roach88/extcheck/internal/resolve"
)

// Options configures Analyze.
type Options struct {
	// Workers bounds the number of bodies resolved at once.
	// Zero or less means GOMAXPROCS.
	Workers int

	// Logger receives stage boundaries at debug level.
	// Nil means slog.Default().
	Logger *slog.Logger
}

// Result is the outcome of Analyze.
type Result struct {
	// Unit is the transformed unit, or nil when a fatal diagnostic was
	// reported.
	Unit *ast.Unit

	// Order is the expansion order of the always-inline functions.
	Order []string

	// Edges is the always-inline call graph.
	Edges []callgraph.Edge

	// Splices is the number of expanded call sites.
	Splices int

	// Diagnostics holds every diagnostic, Warnings only the non-fatal ones.
	Diagnostics []*diag.Diagnostic
	Warnings    []*diag.Diagnostic

	// Globals describes the unit-scope variables.
	Globals []resolve.Info

	// Bindings maps each emitted function to its parameters and locals.
	Bindings map[string][]resolve.Info
}

// OK reports whether the analysis produced a transformed unit.
func (r *Result) OK() bool {
	return r.Unit != nil
}

// Analyze validates and transforms u. u is not modified.
//
// The Result is returned even when analysis fails, so warnings are never
// lost. On failure Result.Unit is nil and the error is a *diag.List of
// every fatal diagnostic. A cancelled ctx stops the resolution stage and
// returns ctx.Err().
func Analyze(ctx context.Context, u *ast.Unit, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	diags := diag.NewCollector()
	res := &Result{Bindings: make(map[string][]resolve.Info)}
	finish := func() (*Result, error) {
		res.Diagnostics = diags.All()
		res.Warnings = diags.Warnings()
		if err := diags.Err(); err != nil {
			res.Unit = nil
			return res, err
		}
		return res, nil
	}

	// Stage 1: unit scope
	globals := resolve.Collect(u, diags)
	log.Debug("collected unit scope", "unit", u.Name, "names", globals.Len())
	if diags.HasErrors() {
		return finish()
	}

	// Stages 2 and 3: call graph and order
	b := callgraph.NewBuilder()
	for _, fn := range u.Funcs {
		b.AddFunction(fn)
	}
	graph, err := b.Build()
	if err != nil {
		var ce *callgraph.CycleError
		if !errors.As(err, &ce) {
			return nil, fmt.Errorf("build call graph: %w", err)
		}
		diags.Add(ce.Diagnostic())
		log.Debug("call graph is cyclic", "cycle", ce.Path())
		return finish()
	}
	res.Order = graph.Order()
	res.Edges = graph.Edges()
	log.Debug("built call graph", "always", len(res.Order), "edges", len(res.Edges))

	// Stage 4: inline
	exp := inline.Expand(u, graph, diags)
	res.Splices = exp.Splices
	log.Debug("expanded always-inline calls", "splices", exp.Splices)

	// Stage 5: resolve
	gres := globals.Initializers(exp.Unit.Globals, diags)
	res.Globals = gres.Bindings

	funcs, err := resolveAll(ctx, exp, globals, diags, workers)
	if err != nil {
		return nil, err
	}
	log.Debug("resolved bodies", "functions", len(funcs), "workers", workers)

	out := &ast.Unit{Name: u.Name, Globals: gres.Globals}
	for _, r := range funcs {
		out.Funcs = append(out.Funcs, r.Func)
		res.Bindings[r.Func.Name] = r.Bindings
	}
	res.Unit = out
	return finish()
}

// resolveAll resolves the emitted functions and validates the
// always-inline bodies. It returns the emitted results in declaration
// order.
func resolveAll(ctx context.Context, exp *inline.Expansion, globals *resolve.Globals, diags *diag.Collector, workers int) ([]*resolve.Result, error) {
	results := make([]*resolve.Result, len(exp.Unit.Funcs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, fn := range exp.Unit.Funcs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = resolve.Function(fn, globals, diags)
			return nil
		})
	}
	for _, fn := range exp.Always {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			resolve.Function(fn, globals, diags)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
