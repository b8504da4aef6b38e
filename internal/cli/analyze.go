package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/framesynth/internal/compiler"
	"github.com/roach88/framesynth/internal/diag"
	"github.com/roach88/framesynth/internal/engine"
	"github.com/roach88/framesynth/internal/ir"
	"github.com/roach88/framesynth/internal/store"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Database string // overrides store.path
	Strict   bool   // fail on diagnostics regardless of analysis.on_missing_schema
}

// AnalyzeResult is the output of the analyze command.
type AnalyzeResult struct {
	PassID      string               `json:"pass_id"`
	ProgramHash string               `json:"program_hash"`
	Calls       []engine.CallOutcome `json:"calls"`
	Registries  engine.Snapshot      `json:"registries"`
	Diagnostics []diag.Diagnostic    `json:"diagnostics"`
	Recorded    bool                 `json:"recorded,omitempty"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <program>",
		Short: "Run an analysis pass and print the synthesized markers",
		Long: `Compile a CUE program and run one analysis pass over its calls.

For every call the pass reports whether accessors were synthesized, the
call was skipped, or its interpretation failed. Synthesized calls list
their root marker and scopes.

With --db (or store.path) the pass is recorded in a SQLite trace
database for later inspection with 'framesynth trace'.

Exit codes:
  0 - Pass complete
  1 - Diagnostics reported under the fail policy, or an internal error
  2 - Command error (invalid paths, database errors, etc.)

Example:
  framesynth analyze ./program
  framesynth analyze --db ./trace.db ./program.cue
  framesynth analyze --strict --format json ./program`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the pass in this SQLite trace database")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when any diagnostic is reported")

	return cmd
}

// analysis is one completed pass over a loaded program.
type analysis struct {
	loaded      *compiler.LoadResult
	pass        *engine.Pass
	result      *engine.Result
	diagnostics []diag.Diagnostic
}

// analyzeProgram loads a program and runs a pass configured from the
// resolved configuration.
func analyzeProgram(opts *RootOptions, f *OutputFormatter, path string) (*analysis, error) {
	loaded, err := loadProgram(f, path)
	if err != nil {
		return nil, err
	}

	cfg := opts.Config.Analysis
	logger := opts.Logger.With(zap.String("program", path))
	collector := cfg.NewCollector()
	pass := engine.NewPass(engine.Options{
		Reporter:      diag.WithLogger(collector, logger),
		Disambiguator: cfg.NewDisambiguator(),
		Logger:        logger,
		IDGenerator:   opts.IDGenerator,
		TokenPackage:  cfg.TokenPackage,
	})

	res, err := pass.Run(loaded.Program)
	if err != nil {
		code := "E_INTERNAL"
		var ie *engine.InternalError
		if errors.As(err, &ie) {
			code = string(ie.Code)
		}
		_ = f.Error(code, err.Error(), nil)
		return nil, WrapExitError(ExitFailure, "analysis aborted", err)
	}

	return &analysis{loaded: loaded, pass: pass, result: res, diagnostics: collector.Diagnostics()}, nil
}

func runAnalyze(opts *AnalyzeOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	a, err := analyzeProgram(opts.RootOptions, formatter, path)
	if err != nil {
		return err
	}

	hash, err := ir.ProgramHash(a.loaded.Program)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash program", err)
	}
	out := AnalyzeResult{
		PassID:      a.pass.ID(),
		ProgramHash: hash,
		Calls:       a.result.Calls,
		Registries:  a.pass.Registries().Snapshot(),
		Diagnostics: a.diagnostics,
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.Store.Path
	}
	if dbPath != "" {
		if out.Recorded, err = recordPass(cmd.Context(), dbPath, path, a); err != nil {
			_ = formatter.Error("E_STORE", err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record pass", err)
		}
		formatter.VerboseLog("Recorded pass %s in %s", out.PassID, dbPath)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		printAnalysis(formatter, a)
	}

	failOn := opts.Strict || opts.Config.Analysis.FailOnDiagnostics()
	if failOn && len(a.diagnostics) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d diagnostic(s) reported", len(a.diagnostics)))
	}
	return nil
}

// recordPass writes the pass to the trace database.
func recordPass(ctx context.Context, dbPath, source string, a *analysis) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return false, err
	}
	defer st.Close()

	trace, err := store.BuildTrace(a.loaded.Program, source, a.pass, a.result, a.diagnostics, time.Now().Unix())
	if err != nil {
		return false, err
	}
	return st.WriteTrace(ctx, trace)
}

func printAnalysis(f *OutputFormatter, a *analysis) {
	diagsByCall := make(map[string][]diag.Diagnostic)
	for _, d := range a.diagnostics {
		diagsByCall[d.CallID] = append(diagsByCall[d.CallID], d)
	}

	for _, out := range a.result.Calls {
		switch out.Status {
		case engine.StatusSynthesized:
			f.OK("%s %s -> %s", out.CallID, f.Muted(out.Callee), out.RootMarker)
			for _, scope := range out.Types {
				fmt.Fprintf(f.Writer, "    %s\n", scope)
			}
		case engine.StatusFailed:
			f.Fail("%s %s", out.CallID, f.Muted(out.Callee))
			for _, d := range diagsByCall[out.CallID] {
				fmt.Fprintf(f.Writer, "    %s %s\n", f.Code(string(d.Code)), d.Message)
			}
		default:
			f.Skip("%s %s (%s)", out.CallID, f.Muted(out.Callee), out.Reason)
		}
	}

	fmt.Fprintln(f.Writer)
	fmt.Fprintf(f.Writer, "Pass %s: %d synthesized, %d failed, %d skipped\n",
		a.pass.ID(),
		a.result.Count(engine.StatusSynthesized),
		a.result.Count(engine.StatusFailed),
		a.result.Count(engine.StatusSkipped),
	)
}
