package harness

import (
	"github.com/roach88/framesynth/internal/diag"
	"github.com/roach88/framesynth/internal/engine"
	"github.com/roach88/framesynth/internal/store"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions match.
	Pass bool `json:"pass"`

	// Outcomes are the per-call outcomes in program order.
	Outcomes []engine.CallOutcome `json:"outcomes"`

	// Registries is the sorted snapshot of everything the pass synthesized.
	Registries engine.Snapshot `json:"registries"`

	// Diagnostics are the interpretation errors in report order.
	Diagnostics []diag.Diagnostic `json:"diagnostics"`

	// Trace is the pass as read back from the trace store.
	Trace store.Trace `json:"-"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	pass *engine.Pass
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Outcomes:    []engine.CallOutcome{},
		Diagnostics: []diag.Diagnostic{},
		Errors:      []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Outcome returns the outcome of a call.
func (r *Result) Outcome(callID string) (engine.CallOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.CallID == callID {
			return o, true
		}
	}
	return engine.CallOutcome{}, false
}
