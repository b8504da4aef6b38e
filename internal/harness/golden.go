package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/framesynth/internal/engine"
	"github.com/roach88/framesynth/internal/ir"
)

// Snapshot captures what a scenario's pass synthesized.
// Diagnostic positions are left out so snapshots do not depend on where
// the program file lives.
type Snapshot struct {
	Scenario    string               `json:"scenario"`
	Outcomes    []engine.CallOutcome `json:"outcomes"`
	Registries  engine.Snapshot      `json:"registries"`
	Diagnostics []snapshotDiagnostic `json:"diagnostics"`
}

type snapshotDiagnostic struct {
	CallID  string `json:"call_id"`
	Callee  string `json:"callee"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewSnapshot builds the golden snapshot of a result.
func NewSnapshot(name string, r *Result) Snapshot {
	s := Snapshot{
		Scenario:    name,
		Outcomes:    r.Outcomes,
		Registries:  r.Registries,
		Diagnostics: make([]snapshotDiagnostic, len(r.Diagnostics)),
	}
	for i, d := range r.Diagnostics {
		s.Diagnostics[i] = snapshotDiagnostic{CallID: d.CallID, Callee: d.Callee, Code: string(d.Code), Message: d.Message}
	}
	return s
}

// MarshalCanonical renders the snapshot as RFC 8785 canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	// Decode back into generic values; json.Number keeps integers exact.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	v, err := ir.FromNative(generic)
	if err != nil {
		return nil, fmt.Errorf("convert snapshot: %w", err)
	}
	return ir.MarshalCanonical(v)
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden
// file or an assertion fails.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(name, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
