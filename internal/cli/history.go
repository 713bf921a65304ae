package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/extcheck/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Unit     string
	Limit    int
}

// HistoryResult holds the listed runs.
type HistoryResult struct {
	Runs  []*store.Run `json:"runs"`
	Stats store.Stats  `json:"stats"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded analysis runs",
		Long: `List the analysis runs recorded by "expand --db" and "test --db".

Without arguments the runs are listed oldest first. With a run ID the
run is shown with its diagnostics and transformed output.

Examples:
  extcheck history --db ./extcheck.db
  extcheck history --db ./extcheck.db --unit shadow --limit 10
  extcheck history --db ./extcheck.db 0192f5e0-7c1a-7b3e-9d2f-4a6b8c0d1e2f`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runHistoryShow(opts, args[0], cmd)
			}
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Unit, "unit", "", "list only runs of the named unit")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "list at most N runs (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	// Open database
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), store.ListOptions{UnitName: opts.Unit, Limit: opts.Limit})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	// stats cover every matching run, not just the listed ones
	stats, err := st.Stats(cmd.Context(), opts.Unit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run statistics", err)
	}
	result := HistoryResult{Runs: runs, Stats: stats}

	if opts.Format == "json" {
		return outputJSON(cmd.OutOrStdout(), result)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(w, "  [%d] %s %-6s %s splices=%d\n",
			run.Seq, truncateID(run.ID), run.Status, run.UnitName, run.Splices)
		if opts.Verbose {
			fmt.Fprintf(w, "       Hash: %s\n", truncateID(run.UnitHash))
			fmt.Fprintf(w, "       Tool: %s\n", run.ToolVersion)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Runs: %d total, %d ok, %d failed", stats.Total, stats.OK, stats.Failed)
	if len(runs) < stats.Total {
		fmt.Fprintf(w, " (%d shown)", len(runs))
	}
	fmt.Fprintln(w)
	return nil
}

func runHistoryShow(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	run, err := st.GetRun(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", id))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	if opts.Format == "json" {
		return outputJSON(cmd.OutOrStdout(), run)
	}
	writeRunText(cmd.OutOrStdout(), run)
	return nil
}

func writeRunText(w io.Writer, run *store.Run) {
	fmt.Fprintf(w, "Run: %s\n", run.ID)
	fmt.Fprintf(w, "Unit: %s\n", run.UnitName)
	fmt.Fprintf(w, "Status: %s\n", run.Status)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Expansion ===")
	if len(run.Order) == 0 {
		fmt.Fprintln(w, "  (no always-inline functions)")
	} else {
		fmt.Fprintf(w, "  Order:   %s\n", strings.Join(run.Order, ", "))
		fmt.Fprintf(w, "  Splices: %d\n", run.Splices)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Diagnostics ===")
	if len(run.Diagnostics) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		writeDiagnostics(w, run.Diagnostics)
	}

	if run.Output != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Output ===")
		fmt.Fprint(w, run.Output)
	}
}

// outputJSON writes data in the success envelope.
func outputJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: data})
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
