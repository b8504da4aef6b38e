package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/framesynth/internal/ir"
)

// CallStatus is the outcome of one call in a pass.
type CallStatus string

const (
	// StatusSynthesized means accessors were generated for the call.
	StatusSynthesized CallStatus = "synthesized"

	// StatusSkipped means the call does not apply, or its receiver has no
	// schema. Nothing was reported.
	StatusSkipped CallStatus = "skipped"

	// StatusFailed means interpretation failed and a diagnostic was reported.
	StatusFailed CallStatus = "failed"
)

// CallOutcome records what a pass did with one call.
type CallOutcome struct {
	CallID     string       `json:"call_id"`
	Callee     string       `json:"callee"`
	Status     CallStatus   `json:"status"`
	Reason     string       `json:"reason,omitempty"`
	RootMarker *ir.TypeRef  `json:"root_marker,omitempty"`
	Types      []ir.TypeRef `json:"types,omitempty"`
}

// Result is the outcome of Run.
type Result struct {
	PassID string        `json:"pass_id"`
	Calls  []CallOutcome `json:"calls"`
}

// Outcome returns the outcome of the call with the given ID.
func (r *Result) Outcome(callID string) (*CallOutcome, bool) {
	for i := range r.Calls {
		if r.Calls[i].CallID == callID {
			return &r.Calls[i], true
		}
	}
	return nil, false
}

// Count returns the number of calls with the given status.
func (r *Result) Count(status CallStatus) int {
	n := 0
	for _, c := range r.Calls {
		if c.Status == status {
			n++
		}
	}
	return n
}

// Run generates accessors for every call of a program.
//
// Receivers are processed before the calls invoked on them, otherwise calls
// keep program order. A call whose receiver was not synthesized is skipped
// without a diagnostic. Outcomes are returned in program order.
//
// Run returns an InternalError, and no Result, when a receiver is unknown or
// cyclic or when materialization hits an internal-consistency error.
func (p *Pass) Run(prog *ir.Program) (*Result, error) {
	r := &runner{
		pass:     p,
		calls:    make(map[string]*ir.Call, len(prog.Calls)),
		outcomes: make(map[string]*CallOutcome, len(prog.Calls)),
		visiting: make(map[string]bool),
	}
	for i := range prog.Calls {
		r.calls[prog.Calls[i].ID] = &prog.Calls[i]
	}

	res := &Result{PassID: p.id, Calls: make([]CallOutcome, 0, len(prog.Calls))}
	for i := range prog.Calls {
		out, err := r.visit(prog.Calls[i].ID)
		if err != nil {
			return nil, err
		}
		res.Calls = append(res.Calls, *out)
	}

	p.logger.Debug("pass complete",
		zap.Int("calls", len(res.Calls)),
		zap.Int("synthesized", res.Count(StatusSynthesized)),
		zap.Int("failed", res.Count(StatusFailed)),
	)
	return res, nil
}

// runner memoizes call outcomes during a depth-first walk over receivers.
type runner struct {
	pass     *Pass
	calls    map[string]*ir.Call
	outcomes map[string]*CallOutcome
	visiting map[string]bool
}

func (r *runner) visit(id string) (*CallOutcome, error) {
	if out, ok := r.outcomes[id]; ok {
		return out, nil
	}
	call, ok := r.calls[id]
	if !ok {
		return nil, &InternalError{Code: ErrCodeInvalidProgram, Message: fmt.Sprintf("unknown receiver %q", id)}
	}
	if r.visiting[id] {
		return nil, &InternalError{Code: ErrCodeInvalidProgram, Message: "receiver cycle", CallID: id}
	}
	r.visiting[id] = true
	defer delete(r.visiting, id)

	var out *CallOutcome
	if call.Receiver != "" {
		recv, err := r.visit(call.Receiver)
		if err != nil {
			return nil, err
		}
		if recv.Status != StatusSynthesized {
			out = &CallOutcome{
				CallID: call.ID,
				Callee: call.Callee,
				Status: StatusSkipped,
				Reason: fmt.Sprintf("receiver %q has no schema", call.Receiver),
			}
		}
	}
	if out == nil {
		var err error
		if out, err = r.process(call); err != nil {
			return nil, err
		}
	}
	r.outcomes[id] = out
	return out, nil
}

func (r *runner) process(call *ir.Call) (*CallOutcome, error) {
	p := r.pass
	refined, err := p.refine(call)
	if err != nil {
		return nil, err
	}

	out := &CallOutcome{CallID: call.ID, Callee: call.Callee}
	types, err := p.GenerateAccessors(refined)
	if err != nil {
		return nil, err
	}
	marker, ok := p.markers[call.ID]
	switch {
	case ok:
		out.Status = StatusSynthesized
		out.RootMarker = &marker
		out.Types = types
	case p.reporter.HasReportedError(refined):
		out.Status = StatusFailed
	default:
		out.Status = StatusSkipped
		out.Reason = "not applicable"
	}
	return out, nil
}
