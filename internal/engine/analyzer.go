package engine

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/framesynth/internal/diag"
	"github.com/roach88/framesynth/internal/interp"
	"github.com/roach88/framesynth/internal/ir"
)

// CallResult is a recognized refined call with its interpreted schema.
type CallResult struct {
	RootMarker ir.TypeRef
	Schema     ir.Schema
}

// Analyze decides whether call is a refined call and, if so, interprets it.
//
// It returns false, without error, when the call does not apply: the return
// type is not DataFrame<M>, M is not a class, M is neither tagged as
// generated nor named like a token, or no interpreter is registered for the
// callee. It also returns false when interpretation fails; the failure is
// then reported once through the pass's Reporter.
//
// Analyze never panics on behalf of an interpreter.
func (p *Pass) Analyze(call *ir.Call) (*CallResult, bool) {
	log := p.logger.With(zap.String("call", call.ID), zap.String("callee", call.Callee))

	rootMarker, ok := p.refinedMarker(call)
	if !ok {
		log.Debug("call shape not refined", zap.Stringer("returns", call.ReturnType))
		return nil, false
	}

	interpreter, ok := p.interpreters.Lookup(call.Callee)
	if !ok {
		log.Debug("no interpreter registered")
		return nil, false
	}

	args := interp.NewArguments(call, p.receiverFunc(call), p.reporter)
	value, err := interpret(interpreter, args)
	if err != nil {
		if !p.reporter.HasReportedError(call) {
			p.reporter.Report(call, diag.CodeInterpreterFailed, err.Error())
		}
		return nil, false
	}

	schema, ok := value.(ir.Schema)
	if !ok {
		if !p.reporter.HasReportedError(call) {
			p.reporter.Report(call, diag.CodeWrongResultKind,
				fmt.Sprintf("%s must return ir.Schema, but was %v", call.Callee, describe(value)))
		}
		return nil, false
	}
	return &CallResult{RootMarker: rootMarker, Schema: schema}, true
}

// refinedMarker extracts M from a DataFrame<M> return type when M is a
// token produced by the pass. Tokens are recognized by provenance or, for
// tokens whose provenance is not attached yet, by name.
func (p *Pass) refinedMarker(call *ir.Call) (ir.TypeRef, bool) {
	rt := call.ReturnType
	if !rt.IsClass() || rt.Class != ir.DataFrameClass {
		return ir.TypeRef{}, false
	}
	marker, ok := rt.Arg(0)
	if !ok || !marker.IsClass() {
		return ir.TypeRef{}, false
	}
	notGenerated := !p.reg.IsGenerated(marker.Class)
	notToken := !strings.HasPrefix(marker.Class.Name, ir.RootTokenPrefix)
	if notGenerated && notToken {
		return ir.TypeRef{}, false
	}
	return marker, true
}

// interpret runs an interpreter and turns a panic into an error.
func interpret(i interp.Interpreter, args *interp.Arguments) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("interpreter panicked: %v", r)
		}
	}()
	return i.Interpret(args)
}

func describe(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%v (%T)", v, v)
}
