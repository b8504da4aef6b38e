package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// To regenerate golden files:
//
//	go test ./internal/harness -run TestGolden -update
func TestGolden_GroupedRecord(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/grouped_record.yaml")
	require.NoError(t, err)
	require.NoError(t, RunWithGolden(t, scenario))
}

func TestSnapshot_OmitsPositions(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/grouped_record.yaml")
	require.NoError(t, err)
	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 1)
	require.NotEmpty(t, result.Diagnostics[0].Pos)

	data, err := NewSnapshot(scenario.Name, result).MarshalCanonical()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "grouped.cue")
	assert.NotContains(t, string(data), `"pos"`)
}

func TestSnapshot_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/refined_chain.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := NewSnapshot(scenario.Name, first).MarshalCanonical()
	require.NoError(t, err)
	b, err := NewSnapshot(scenario.Name, second).MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
