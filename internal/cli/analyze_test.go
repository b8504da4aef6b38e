package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/framesynth/internal/engine"
)

func TestAnalyze_Text(t *testing.T) {
	out, err := execute(t, NewAnalyzeCommand(testOptions(t, "text")), groupedProgram)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ df org.jetbrains.kotlinx.dataframe.api.dataFrameOf -> example.Token1")
	assert.Contains(t, out, "    example.Token1Scope\n")
	assert.Contains(t, out, "✓ grouped org.jetbrains.kotlinx.dataframe.api.GroupClause.into -> example.Token2")
	assert.Contains(t, out, "✗ count org.jetbrains.kotlinx.dataframe.api.columnsCount")
	assert.Contains(t, out, "E202 org.jetbrains.kotlinx.dataframe.api.columnsCount must return ir.Schema, but was 1 (ir.IRInt)")
	assert.Contains(t, out, "Pass test-pass: 2 synthesized, 1 failed, 0 skipped")
}

func TestAnalyze_JSON(t *testing.T) {
	out, err := execute(t, NewAnalyzeCommand(testOptions(t, "json")), groupedProgram)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   AnalyzeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data
	assert.Equal(t, testPassID, data.PassID)
	assert.Len(t, data.ProgramHash, 64)
	require.Len(t, data.Calls, 3)
	assert.Equal(t, engine.StatusSynthesized, data.Calls[0].Status)
	assert.Equal(t, engine.StatusSynthesized, data.Calls[1].Status)
	assert.Equal(t, engine.StatusFailed, data.Calls[2].Status)
	require.Len(t, data.Calls[1].Types, 2)
	assert.Equal(t, "example.C1Scope", data.Calls[1].Types[0].String())
	require.Len(t, data.Diagnostics, 1)
	assert.Equal(t, "count", data.Diagnostics[0].CallID)
	assert.False(t, data.Recorded)
}

func TestAnalyze_Strict(t *testing.T) {
	cmd := NewAnalyzeCommand(testOptions(t, "text"))
	_, err := execute(t, cmd, "--strict", groupedProgram)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestAnalyze_StrictWithoutDiagnostics(t *testing.T) {
	path := writeCUE(t, `
call: df: {
	callee:  "dataFrameOf"
	refined: true
	args: columns: [{name: "a", type: "Int"}]
}
`)
	out, err := execute(t, NewAnalyzeCommand(testOptions(t, "text")), "--strict", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ df")
	assert.Contains(t, out, "framesynth.generated.Token")
}

func TestAnalyze_SkippedCalls(t *testing.T) {
	path := writeCUE(t, `
call: plain: {
	callee:  "dataFrameOf"
	returns: "DataFrame<app.Person>"
	args: columns: [{name: "a", type: "Int"}]
}
call: next: {
	callee:   "add"
	receiver: "plain"
	refined:  true
	args: {name: "b", type: "Int"}
}
`)
	out, err := execute(t, NewAnalyzeCommand(testOptions(t, "text")), path)
	require.NoError(t, err)
	assert.Contains(t, out, "- plain org.jetbrains.kotlinx.dataframe.api.dataFrameOf (not applicable)")
	assert.Contains(t, out, `- next org.jetbrains.kotlinx.dataframe.api.add (receiver "plain" has no schema)`)
	assert.Contains(t, out, "0 synthesized, 0 failed, 2 skipped")
}

func TestAnalyze_RecordsTrace(t *testing.T) {
	db := filepath.Join(t.TempDir(), "trace.db")
	out, err := execute(t, NewAnalyzeCommand(testOptions(t, "json")), "--db", db, groupedProgram)
	require.NoError(t, err)

	var resp struct {
		Data AnalyzeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Recorded)

	// Same pass ID again: already recorded, nothing inserted.
	out, err = execute(t, NewAnalyzeCommand(testOptions(t, "json")), "--db", db, groupedProgram)
	require.NoError(t, err)
	var again struct {
		Data AnalyzeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &again))
	assert.False(t, again.Data.Recorded)
}

func TestAnalyze_StorePathFromConfig(t *testing.T) {
	opts := testOptions(t, "text")
	opts.Config.Store.Path = filepath.Join(t.TempDir(), "configured.db")

	_, err := execute(t, NewAnalyzeCommand(opts), groupedProgram)
	require.NoError(t, err)
	assert.FileExists(t, opts.Config.Store.Path)
}

func TestAnalyze_InvalidProgram(t *testing.T) {
	path := writeCUE(t, `
call: a: {
	callee:   "add"
	receiver: "missing"
	refined:  true
	args: {name: "x", type: "Int"}
}
`)
	_, err := execute(t, NewAnalyzeCommand(testOptions(t, "text")), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed")
}

func TestAnalyze_SequenceDisambiguator(t *testing.T) {
	opts := testOptions(t, "json")
	opts.Config.Analysis.Disambiguator = "sequence"
	opts.Config.Analysis.TokenPackage = "app.generated"

	path := writeCUE(t, `
call: df: {
	callee:  "dataFrameOf"
	refined: true
	args: columns: [{name: "g", group: [{name: "x", type: "Int"}]}]
}
`)
	out, err := execute(t, NewAnalyzeCommand(opts), path)
	require.NoError(t, err)

	var resp struct {
		Data AnalyzeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Calls, 1)
	types := resp.Data.Calls[0].Types
	require.Len(t, types, 2)
	assert.Equal(t, "app.generated.G1Scope", types[0].String())
}
