package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProgram creates a minimal CUE program for scenario loading.
func writeProgram(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "program.cue")
	content := `call: df: {
	callee:  "dataFrameOf"
	refined: true
	args: columns: [{name: "a", type: "Int"}]
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir)
	path := writeScenario(t, dir, `
name: test_scenario
description: "Test scenario for validation"
program: program.cue
disambiguator: hash
assertions:
  - type: members
    call: df
    names: [a]
  - type: diagnostic_count
    count: 0
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, filepath.Join(dir, "program.cue"), scenario.Program)
	assert.Equal(t, DisambiguatorHash, scenario.Disambiguator)
	require.Len(t, scenario.Assertions, 2)
	assert.Equal(t, []string{"a"}, scenario.Assertions[0].Names)
	require.NotNil(t, scenario.Assertions[1].Count)
	assert.Equal(t, 0, *scenario.Assertions[1].Count)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	dir := t.TempDir()
	writeProgram(t, dir)
	path := writeScenario(t, dir, `
name: typo
description: misspelled assertions key
program: program.cue
assertion:
  - type: diagnostic_count
    count: 0
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing name",
			body: "description: d\nprogram: program.cue\nassertions: [{type: diagnostic_count, count: 0}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			body: "name: n\nprogram: program.cue\nassertions: [{type: diagnostic_count, count: 0}]\n",
			want: "description is required",
		},
		{
			name: "missing program",
			body: "name: n\ndescription: d\nassertions: [{type: diagnostic_count, count: 0}]\n",
			want: "program is required",
		},
		{
			name: "program not found",
			body: "name: n\ndescription: d\nprogram: nope.cue\nassertions: [{type: diagnostic_count, count: 0}]\n",
			want: "program not found",
		},
		{
			name: "unknown disambiguator",
			body: "name: n\ndescription: d\nprogram: program.cue\ndisambiguator: random\nassertions: [{type: diagnostic_count, count: 0}]\n",
			want: `unknown disambiguator "random"`,
		},
		{
			name: "no assertions",
			body: "name: n\ndescription: d\nprogram: program.cue\n",
			want: "assertions list is required",
		},
		{
			name: "unknown assertion type",
			body: "name: n\ndescription: d\nprogram: program.cue\nassertions: [{type: trace_contains}]\n",
			want: `unknown assertion type "trace_contains"`,
		},
		{
			name: "status without call",
			body: "name: n\ndescription: d\nprogram: program.cue\nassertions: [{type: status, status: failed}]\n",
			want: "call is required for status",
		},
		{
			name: "unknown status",
			body: "name: n\ndescription: d\nprogram: program.cue\nassertions: [{type: status, call: df, status: done}]\n",
			want: `unknown status "done"`,
		},
		{
			name: "resolve without path",
			body: "name: n\ndescription: d\nprogram: program.cue\nassertions: [{type: resolve, call: df, element: Int}]\n",
			want: "path is required for resolve",
		},
		{
			name: "resolve without types",
			body: "name: n\ndescription: d\nprogram: program.cue\nassertions: [{type: resolve, call: df, path: [a]}]\n",
			want: "element or container is required",
		},
		{
			name: "diagnostic without code",
			body: "name: n\ndescription: d\nprogram: program.cue\nassertions: [{type: diagnostic, call: df}]\n",
			want: "code is required for diagnostic",
		},
		{
			name: "count missing",
			body: "name: n\ndescription: d\nprogram: program.cue\nassertions: [{type: recorded_scopes}]\n",
			want: "non-negative count is required",
		},
		{
			name: "count negative",
			body: "name: n\ndescription: d\nprogram: program.cue\nassertions: [{type: scopes, call: df, count: -1}]\n",
			want: "non-negative count is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeProgram(t, dir)
			path := writeScenario(t, dir, tt.body)

			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDiscoverScenarios(t *testing.T) {
	paths, err := DiscoverScenarios("testdata/scenarios")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata/scenarios", "grouped_record.yaml"),
		filepath.Join("testdata/scenarios", "refined_chain.yaml"),
	}, paths)
}

func TestDiscoverScenarios_MissingDir(t *testing.T) {
	_, err := DiscoverScenarios(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario directory")
}

func TestDiscoverScenarios_EmptyDir(t *testing.T) {
	paths, err := DiscoverScenarios(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, paths)
}
