package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/roach88/framesynth/internal/engine"
)

func count(n int) *int { return &n }

func TestScenarios(t *testing.T) {
	paths, err := DiscoverScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithOptions(scenario, Options{Logger: zaptest.NewLogger(t)})
			require.NoError(t, err)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_RecordsTrace(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/grouped_record.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Equal(t, PassID, result.Trace.Pass.ID)
	assert.Equal(t, int64(3), result.Trace.Pass.Calls)
	assert.Equal(t, int64(2), result.Trace.Pass.Synthesized)
	assert.Equal(t, int64(1), result.Trace.Pass.Diagnostics)
	assert.Equal(t, int64(0), result.Trace.Pass.CreatedAt)
	require.Len(t, result.Trace.Scopes, 3)
	require.Len(t, result.Trace.Diagnostics, 1)
	assert.Equal(t, "E202", result.Trace.Diagnostics[0].Code)
}

func TestRun_FailedAssertions(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_expectations",
		Description: "every assertion disagrees with the pass",
		Program:     "testdata/scenarios/programs/grouped.cue",
		Assertions: []Assertion{
			{Type: AssertStatus, Call: "count", Status: string(engine.StatusSynthesized)},
			{Type: AssertMembers, Call: "df", Names: []string{"b", "a"}},
			{Type: AssertResolve, Call: "df", Path: []string{"a"}, Element: "Int"},
			{Type: AssertScopes, Call: "grouped", Count: count(1)},
			{Type: AssertDiagnostic, Call: "df", Code: "E201"},
			{Type: AssertDiagnosticCount, Count: count(0)},
			{Type: AssertRecordedScopes, Count: count(2)},
			{Type: AssertMembers, Call: "missing"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Errors, len(scenario.Assertions))

	for i, want := range []string{
		"Expected: status synthesized",
		"Expected: members [b a]",
		"Expected: element kotlin.Int",
		"Expected: 1 scopes",
		"Actual: no diagnostics",
		"Expected: diagnostic_count 0",
		"Expected: recorded_scopes 2",
		"Actual: no such call",
	} {
		assert.Contains(t, result.Errors[i], want, "assertion %d", i)
	}
}

func TestRun_AssertionErrorListsCalls(t *testing.T) {
	scenario := &Scenario{
		Name:        "listing",
		Description: "failures carry the call outcomes",
		Program:     "testdata/scenarios/programs/grouped.cue",
		Assertions:  []Assertion{{Type: AssertStatus, Call: "df", Status: string(engine.StatusFailed)}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)

	msg := result.Errors[0]
	assert.True(t, strings.HasPrefix(msg, "assertions[0]: Assertion failed: status (call df)"), msg)
	assert.Contains(t, msg, "[3] count org.jetbrains.kotlinx.dataframe.api.columnsCount failed")
}

func TestRun_ProgramLoadError(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing_program",
		Description: "the program does not exist",
		Program:     filepath.Join(t.TempDir(), "missing.cue"),
		Assertions:  []Assertion{{Type: AssertDiagnosticCount, Count: count(0)}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load program")
}

func TestRun_HashDisambiguator(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/grouped_record.yaml")
	require.NoError(t, err)
	scenario.Disambiguator = DisambiguatorHash
	scenario.Assertions = []Assertion{{Type: AssertScopes, Call: "grouped", Count: count(2)}}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	// Nested markers are numbered by hash, not by first use.
	for _, entry := range result.Registries.Tokens {
		assert.NotEqual(t, "example.C1", entry.ID)
	}
}
