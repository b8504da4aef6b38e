package interp

import (
	"maps"
	"slices"
)

// Interpreter computes the result of one operation from its arguments.
type Interpreter interface {
	Interpret(args *Arguments) (any, error)
}

// Func adapts a plain function to Interpreter.
type Func func(args *Arguments) (any, error)

// Interpret implements Interpreter.
func (f Func) Interpret(args *Arguments) (any, error) {
	return f(args)
}

// Registry is an immutable map from fully-qualified callee to Interpreter.
// It is safe for concurrent use.
type Registry struct {
	interpreters map[string]Interpreter
}

// NewRegistry creates a Registry from a callee to interpreter map.
// The map is copied.
func NewRegistry(interpreters map[string]Interpreter) *Registry {
	return &Registry{interpreters: maps.Clone(interpreters)}
}

// Lookup returns the interpreter registered for callee.
func (r *Registry) Lookup(callee string) (Interpreter, bool) {
	if r == nil {
		return nil, false
	}
	i, ok := r.interpreters[callee]
	return i, ok
}

// With returns a new Registry that also maps callee to i.
func (r *Registry) With(callee string, i Interpreter) *Registry {
	next := make(map[string]Interpreter)
	if r != nil {
		maps.Copy(next, r.interpreters)
	}
	next[callee] = i
	return &Registry{interpreters: next}
}

// Callees returns the registered callees in sorted order.
func (r *Registry) Callees() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.interpreters))
}
