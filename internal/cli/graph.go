package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/extcheck/internal/ast"
	"github.com/roach88/extcheck/internal/callgraph"
	"github.com/roach88/extcheck/internal/diag"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	Unit string
	Dot  bool
}

// GraphReport is the always-inline call graph of one unit.
type GraphReport struct {
	Unit       string           `json:"unit"`
	Order      []string         `json:"order"`
	Edges      []callgraph.Edge `json:"edges"`
	Cycle      []string         `json:"cycle,omitempty"`
	Diagnostic *diag.Diagnostic `json:"diagnostic,omitempty"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph <units-dir>",
		Short: "Show the always-inline call graph",
		Long: `Show the call graph between __inline_always functions and the order
in which they are expanded (callees first).

Exit codes:
  0 - Every graph is acyclic
  1 - Validation failed or a unit has an always-inline cycle
  2 - Command error (invalid paths, etc.)

Examples:
  extcheck graph ./units
  extcheck graph ./units --unit chain --dot | dot -Tsvg > chain.svg`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Unit, "unit", "", "show only the named unit")
	cmd.Flags().BoolVar(&opts.Dot, "dot", false, "print Graphviz DOT instead of text")

	return cmd
}

func runGraph(opts *GraphOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	units, err := loadValidUnits(dir, opts.Unit, formatter)
	if err != nil {
		return err
	}

	reports := make([]*GraphReport, 0, len(units))
	cyclic := 0
	for _, u := range units {
		report, err := buildGraph(u)
		if err != nil {
			return WrapExitError(ExitCommandError, "build call graph", err)
		}
		if report.Cycle != nil {
			cyclic++
		}
		reports = append(reports, report)
	}

	w := cmd.OutOrStdout()
	switch {
	case opts.Format == "json":
		if cyclic > 0 {
			d := firstCycle(reports)
			_ = formatter.Error(d.Code, d.Error(), reports)
		} else if err := formatter.Success(reports); err != nil {
			return err
		}
	case opts.Dot:
		for _, report := range reports {
			writeDot(w, report)
		}
	default:
		for _, report := range reports {
			writeGraphText(w, report)
		}
	}

	if cyclic > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d unit(s) have an always-inline cycle", cyclic))
	}
	return nil
}

// buildGraph builds the call graph of u. A cycle is part of the report.
func buildGraph(u *ast.Unit) (*GraphReport, error) {
	b := callgraph.NewBuilder()
	for _, fn := range u.Funcs {
		b.AddFunction(fn)
	}
	report := &GraphReport{Unit: u.Name, Order: []string{}, Edges: []callgraph.Edge{}}

	g, err := b.Build()
	if err != nil {
		var ce *callgraph.CycleError
		if !errors.As(err, &ce) {
			return nil, err
		}
		report.Cycle = ce.Path()
		report.Diagnostic = ce.Diagnostic()
		return report, nil
	}
	report.Order = g.Order()
	if edges := g.Edges(); edges != nil {
		report.Edges = edges
	}
	return report, nil
}

func firstCycle(reports []*GraphReport) *diag.Diagnostic {
	for _, r := range reports {
		if r.Diagnostic != nil {
			return r.Diagnostic
		}
	}
	return nil
}

func writeGraphText(w io.Writer, r *GraphReport) {
	fmt.Fprintf(w, "unit %s\n", r.Unit)
	if r.Cycle != nil {
		fmt.Fprintf(w, "  ✗ cycle: %s\n", strings.Join(r.Cycle, " -> "))
		writeDiagnostics(w, []*diag.Diagnostic{r.Diagnostic})
		return
	}
	if len(r.Order) == 0 {
		fmt.Fprintln(w, "  no always-inline functions")
		return
	}
	fmt.Fprintf(w, "  order: %s\n", strings.Join(r.Order, ", "))
	for _, e := range r.Edges {
		fmt.Fprintf(w, "  %s -> %s (%s)\n", e.From, e.To, e.Site)
	}
}

func writeDot(w io.Writer, r *GraphReport) {
	fmt.Fprintf(w, "digraph %q {\n", r.Unit)
	for _, name := range r.Order {
		fmt.Fprintf(w, "  %q;\n", name)
	}
	for _, e := range r.Edges {
		fmt.Fprintf(w, "  %q -> %q;\n", e.From, e.To)
	}
	for i := 0; i+1 < len(r.Cycle); i++ {
		fmt.Fprintf(w, "  %q -> %q [color=red];\n", r.Cycle[i], r.Cycle[i+1])
	}
	fmt.Fprintln(w, "}")
}
