package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/framesynth/internal/ir"
)

func TestCollectorRecordsAll(t *testing.T) {
	c := NewCollector()
	call := &ir.Call{ID: "g", Callee: "api.into", Pos: "main.cue:3:2"}

	assert.False(t, c.HasReportedError(call))
	c.Report(call, CodeInterpreterFailed, "boom")
	c.Report(call, CodeWrongResultKind, "not a schema")

	assert.True(t, c.HasReportedError(call))
	require.Equal(t, 2, c.Len())
	assert.Equal(t, Diagnostic{
		CallID: "g", Callee: "api.into", Code: CodeInterpreterFailed, Message: "boom", Pos: "main.cue:3:2",
	}, c.Diagnostics()[0])
}

func TestCollectorOncePerCall(t *testing.T) {
	c := NewCollector(OncePerCall())
	a := &ir.Call{ID: "a"}
	b := &ir.Call{ID: "b"}

	c.Report(a, CodeInterpreterFailed, "first")
	c.Report(a, CodeWrongResultKind, "second")
	c.Report(b, CodeWrongResultKind, "other call")

	diags := c.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, "first", diags[0].Message)
	assert.Equal(t, "b", diags[1].CallID)
}

func TestDiscardTracksState(t *testing.T) {
	d := NewDiscard()
	call := &ir.Call{ID: "x"}

	d.Report(call, CodeInterpreterFailed, "hidden")

	assert.True(t, d.HasReportedError(call))
	assert.Empty(t, d.Diagnostics())
}

func TestDiagnosticsIsACopy(t *testing.T) {
	c := NewCollector()
	c.Report(&ir.Call{ID: "x"}, CodeInterpreterFailed, "m")

	diags := c.Diagnostics()
	diags[0].Message = "changed"
	assert.Equal(t, "m", c.Diagnostics()[0].Message)
}

func TestDiagnosticError(t *testing.T) {
	d := Diagnostic{CallID: "g", Code: CodeWrongResultKind, Message: "bad", Pos: "a.cue:1:1"}
	assert.Equal(t, "a.cue:1:1: [E202] g: bad", d.Error())

	d.Pos = ""
	assert.Equal(t, "[E202] g: bad", d.Error())
}

func TestWithLogger(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := NewCollector()
	r := WithLogger(c, zap.New(core))
	call := &ir.Call{ID: "g", Callee: "api.into"}

	r.Report(call, CodeInterpreterFailed, "boom")

	assert.True(t, r.HasReportedError(call))
	assert.Equal(t, 1, c.Len())
	entries := logs.FilterMessage("interpretation error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "E201", entries[0].ContextMap()["code"])
}
