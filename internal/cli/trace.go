package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/framesynth/internal/ir"
	"github.com/roach88/framesynth/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	PassID   string // optional - show one pass in detail
	CallID   string // optional - filter scopes and diagnostics to one call
}

// TraceListResult lists recorded passes.
type TraceListResult struct {
	Passes []ir.PassRecord `json:"passes"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded analysis passes",
		Long: `Inspect a trace database written by 'framesynth analyze --db'.

Without --pass, lists every recorded pass with its call, synthesized and
diagnostic counts. With --pass, shows the scopes the pass synthesized
(in associated-scope order per root marker) and the diagnostics it
reported.

Examples:
  framesynth trace --db ./trace.db
  framesynth trace --db ./trace.db --pass 0190...
  framesynth trace --db ./trace.db --pass 0190... --call grouped --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.PassID, "pass", "", "pass ID to show in detail")
	cmd.Flags().StringVar(&opts.CallID, "call", "", "filter to one call ID (with --pass)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// store.Open would create a missing database
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error("E_NO_DB", fmt.Sprintf("database not found: %s", opts.Database), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database))
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.PassID == "" {
		passes, err := st.ListPasses(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list passes", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(TraceListResult{Passes: passes})
		}
		printPasses(formatter, passes)
		return nil
	}

	trace, err := st.ReadTrace(ctx, opts.PassID)
	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error("E_NO_PASS", fmt.Sprintf("no pass %q recorded", opts.PassID), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("no pass %q", opts.PassID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}
	if opts.CallID != "" {
		trace = filterTrace(trace, opts.CallID)
	}

	if formatter.Format == "json" {
		return formatter.Success(trace)
	}
	printTrace(formatter, trace, opts.Verbose)
	return nil
}

// filterTrace keeps the scopes and diagnostics of one call.
func filterTrace(t store.Trace, callID string) store.Trace {
	out := store.Trace{Pass: t.Pass, Scopes: []ir.ScopeRecord{}, Diagnostics: []ir.DiagnosticRecord{}}
	for _, s := range t.Scopes {
		if s.CallID == callID {
			out.Scopes = append(out.Scopes, s)
		}
	}
	for _, d := range t.Diagnostics {
		if d.CallID == callID {
			out.Diagnostics = append(out.Diagnostics, d)
		}
	}
	return out
}

func printPasses(f *OutputFormatter, passes []ir.PassRecord) {
	if len(passes) == 0 {
		fmt.Fprintln(f.Writer, "No passes recorded.")
		return
	}
	for _, p := range passes {
		created := time.Unix(p.CreatedAt, 0).UTC().Format(time.RFC3339)
		fmt.Fprintf(f.Writer, "%s  %s  %d call(s), %d synthesized, %d diagnostic(s)  %s\n",
			p.ID, f.Muted(created), p.Calls, p.Synthesized, p.Diagnostics, p.Source)
	}
}

func printTrace(f *OutputFormatter, t store.Trace, verbose bool) {
	p := t.Pass
	fmt.Fprintf(f.Writer, "Pass: %s\n", p.ID)
	fmt.Fprintf(f.Writer, "Program: %s %s\n", p.Source, f.Muted(p.ProgramHash))
	fmt.Fprintf(f.Writer, "Analyzer: %s\n", p.AnalyzerVersion)
	fmt.Fprintln(f.Writer)

	fmt.Fprintln(f.Writer, "Scopes:")
	if len(t.Scopes) == 0 {
		fmt.Fprintln(f.Writer, "  (none)")
	}
	root := ""
	for _, s := range t.Scopes {
		if s.RootMarker != root {
			root = s.RootMarker
			fmt.Fprintf(f.Writer, "  %s %s\n", root, f.Muted("("+s.CallID+")"))
		}
		fmt.Fprintf(f.Writer, "    [%d] %s\n", s.Ordinal, s.Scope)
		if verbose {
			for _, prop := range s.Properties {
				fmt.Fprintf(f.Writer, "          %s: %s\n", prop.Name, prop.ElementType)
			}
		}
	}

	fmt.Fprintln(f.Writer)
	fmt.Fprintln(f.Writer, "Diagnostics:")
	if len(t.Diagnostics) == 0 {
		fmt.Fprintln(f.Writer, "  (none)")
	}
	for _, d := range t.Diagnostics {
		fmt.Fprintf(f.Writer, "  %s %s: %s\n", f.Code(d.Code), d.CallID, d.Message)
	}
}
