package store

import (
	"fmt"

	"github.com/roach88/framesynth/internal/diag"
	"github.com/roach88/framesynth/internal/engine"
	"github.com/roach88/framesynth/internal/ir"
)

// Trace is everything recorded for one pass.
type Trace struct {
	Pass        ir.PassRecord         `json:"pass"`
	Scopes      []ir.ScopeRecord      `json:"scopes"`
	Diagnostics []ir.DiagnosticRecord `json:"diagnostics"`
}

// BuildTrace assembles the trace of a finished pass. source names the input
// the program was compiled from; createdAt is Unix seconds.
func BuildTrace(prog *ir.Program, source string, pass *engine.Pass, res *engine.Result, diags []diag.Diagnostic, createdAt int64) (Trace, error) {
	hash, err := ir.ProgramHash(prog)
	if err != nil {
		return Trace{}, fmt.Errorf("build trace: %w", err)
	}

	t := Trace{
		Pass: ir.PassRecord{
			ID:              pass.ID(),
			ProgramHash:     hash,
			Source:          source,
			AnalyzerVersion: ir.AnalyzerVersion,
			Calls:           int64(len(res.Calls)),
			Synthesized:     int64(res.Count(engine.StatusSynthesized)),
			Diagnostics:     int64(len(diags)),
			CreatedAt:       createdAt,
		},
		Scopes:      []ir.ScopeRecord{},
		Diagnostics: make([]ir.DiagnosticRecord, 0, len(diags)),
	}

	reg := pass.Registries()
	seen := make(map[ir.ClassID]bool)
	for _, out := range res.Calls {
		if out.RootMarker == nil || seen[out.RootMarker.Class] {
			continue
		}
		root := out.RootMarker.Class
		seen[root] = true
		for i, scope := range reg.ScopesFor(root) {
			ctx, ok := reg.Scope(scope.Class)
			if !ok {
				return Trace{}, fmt.Errorf("build trace: scope %s of %s is not registered", scope, root)
			}
			t.Scopes = append(t.Scopes, ir.ScopeRecord{
				PassID:     pass.ID(),
				CallID:     out.CallID,
				RootMarker: root.String(),
				Scope:      scope.String(),
				Ordinal:    int64(i),
				Properties: ctx.Properties,
			})
		}
	}

	for _, d := range diags {
		t.Diagnostics = append(t.Diagnostics, ir.DiagnosticRecord{
			PassID:  pass.ID(),
			CallID:  d.CallID,
			Callee:  d.Callee,
			Code:    string(d.Code),
			Message: d.Message,
			Pos:     d.Pos,
		})
	}
	return t, nil
}
