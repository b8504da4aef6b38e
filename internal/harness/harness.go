package harness

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/framesynth/internal/compiler"
	"github.com/roach88/framesynth/internal/diag"
	"github.com/roach88/framesynth/internal/engine"
	"github.com/roach88/framesynth/internal/ir"
	"github.com/roach88/framesynth/internal/store"
	"github.com/roach88/framesynth/internal/testutil"
)

// PassID is the fixed pass ID of every scenario run.
const PassID = "harness-pass"

// Options configures scenario execution.
type Options struct {
	// Logger receives pass debug events and diagnostic warnings.
	// Default: zap.NewNop().
	Logger *zap.Logger
}

// Run executes a test scenario with default options.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithOptions(scenario, Options{})
}

// RunWithOptions executes a test scenario and returns the result.
//
// Each scenario runs in a fresh pass and a fresh in-memory trace store.
//
// Execution flow:
// 1. Load and compile the CUE program
// 2. Run one pass over every call
// 3. Record the pass in the trace store and read it back
// 4. Evaluate assertions
//
// An error is returned when the scenario cannot be executed at all: the
// program does not load or the pass hits an internal-consistency error.
// Failed assertions are reported in Result.Errors.
func RunWithOptions(scenario *Scenario, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("scenario", scenario.Name))

	loaded, err := compiler.LoadProgram(scenario.Program)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}
	prog := loaded.Program

	collector := diag.NewCollector(diag.OncePerCall())
	pass := engine.NewPass(engine.Options{
		Reporter:      diag.WithLogger(collector, logger),
		Disambiguator: scenarioDisambiguator(scenario),
		Logger:        logger,
		IDGenerator:   testutil.NewFixedIDGenerator(PassID),
		TokenPackage:  scenario.TokenPackage,
	})
	res, err := pass.Run(prog)
	if err != nil {
		return nil, fmt.Errorf("failed to run pass: %w", err)
	}

	result := NewResult()
	result.pass = pass
	result.Outcomes = res.Calls
	result.Registries = pass.Registries().Snapshot()
	result.Diagnostics = collector.Diagnostics()

	trace, err := record(prog, scenario, pass, res, result.Diagnostics)
	if err != nil {
		return nil, fmt.Errorf("failed to record trace: %w", err)
	}
	result.Trace = trace

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func scenarioDisambiguator(s *Scenario) engine.Disambiguator {
	if s.Disambiguator == DisambiguatorHash {
		return engine.HashDisambiguator{}
	}
	return engine.NewSequenceDisambiguator()
}

// record writes the pass to a fresh in-memory store and reads it back.
// CreatedAt is fixed at zero so traces are reproducible.
func record(prog *ir.Program, s *Scenario, pass *engine.Pass, res *engine.Result, diags []diag.Diagnostic) (store.Trace, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return store.Trace{}, err
	}
	defer st.Close()

	trace, err := store.BuildTrace(prog, s.Program, pass, res, diags, 0)
	if err != nil {
		return store.Trace{}, err
	}
	ctx := context.Background()
	if _, err := st.WriteTrace(ctx, trace); err != nil {
		return store.Trace{}, err
	}
	return st.ReadTrace(ctx, pass.ID())
}
