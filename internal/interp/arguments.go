package interp

import (
	"errors"
	"fmt"

	"github.com/roach88/framesynth/internal/diag"
	"github.com/roach88/framesynth/internal/ir"
)

// ErrNoReceiver is returned by Arguments.Receiver for calls without a
// receiver.
var ErrNoReceiver = errors.New("call has no receiver")

// ReceiverFunc returns the schema of the call's receiver.
type ReceiverFunc func() (ir.Schema, error)

// Arguments gives an interpreter typed access to one call.
type Arguments struct {
	Call     *ir.Call
	receiver ReceiverFunc
	reporter diag.Reporter
}

// NewArguments binds a call to its receiver resolver and reporter.
// Either may be nil.
func NewArguments(call *ir.Call, receiver ReceiverFunc, reporter diag.Reporter) *Arguments {
	return &Arguments{Call: call, receiver: receiver, reporter: reporter}
}

// Receiver returns the schema of the frame this call is invoked on.
func (a *Arguments) Receiver() (ir.Schema, error) {
	if a.Call.Receiver == "" || a.receiver == nil {
		return ir.Schema{}, fmt.Errorf("%s: %w", a.Call.CalleeName(), ErrNoReceiver)
	}
	return a.receiver()
}

// Report records an interpretation error for the call.
func (a *Arguments) Report(code diag.Code, message string) {
	if a.reporter != nil {
		a.reporter.Report(a.Call, code, message)
	}
}

// Value returns the raw argument value.
func (a *Arguments) Value(name string) (ir.IRValue, bool) {
	return a.Call.Arg(name)
}

func (a *Arguments) required(name string) (ir.IRValue, error) {
	v, ok := a.Call.Arg(name)
	if !ok {
		return nil, fmt.Errorf("argument %q is required", name)
	}
	return v, nil
}

// String returns a required string argument.
func (a *Arguments) String(name string) (string, error) {
	v, err := a.required(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(ir.IRString)
	if !ok {
		return "", fmt.Errorf("argument %q: expected string, got %T", name, v)
	}
	return string(s), nil
}

// Strings returns a required list of strings. A single string is treated as
// a one-element list.
func (a *Arguments) Strings(name string) ([]string, error) {
	v, err := a.required(name)
	if err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case ir.IRString:
		return []string{string(val)}, nil
	case ir.IRArray:
		out := make([]string, len(val))
		for i, elem := range val {
			s, ok := elem.(ir.IRString)
			if !ok {
				return nil, fmt.Errorf("argument %q[%d]: expected string, got %T", name, i, elem)
			}
			out[i] = string(s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("argument %q: expected string or list of strings, got %T", name, v)
	}
}

// Path returns a required dotted column path argument.
func (a *Arguments) Path(name string) (ir.ColumnPath, error) {
	s, err := a.String(name)
	if err != nil {
		return nil, err
	}
	p, err := ir.ParseColumnPath(s)
	if err != nil {
		return nil, fmt.Errorf("argument %q: %w", name, err)
	}
	return p, nil
}

// Paths returns a required list of dotted column paths.
func (a *Arguments) Paths(name string) ([]ir.ColumnPath, error) {
	ss, err := a.Strings(name)
	if err != nil {
		return nil, err
	}
	if len(ss) == 0 {
		return nil, fmt.Errorf("argument %q: at least one column is required", name)
	}
	out := make([]ir.ColumnPath, len(ss))
	for i, s := range ss {
		p, err := ir.ParseColumnPath(s)
		if err != nil {
			return nil, fmt.Errorf("argument %q[%d]: %w", name, i, err)
		}
		out[i] = p
	}
	return out, nil
}

// Type returns a required type argument written in ir.ParseTypeRef syntax.
func (a *Arguments) Type(name string) (ir.TypeRef, error) {
	s, err := a.String(name)
	if err != nil {
		return ir.TypeRef{}, err
	}
	t, err := ir.ParseTypeRef(s)
	if err != nil {
		return ir.TypeRef{}, fmt.Errorf("argument %q: %w", name, err)
	}
	return t, nil
}

// Bool returns an optional boolean argument; absent means false.
func (a *Arguments) Bool(name string) (bool, error) {
	v, ok := a.Call.Arg(name)
	if !ok {
		return false, nil
	}
	b, ok := v.(ir.IRBool)
	if !ok {
		return false, fmt.Errorf("argument %q: expected bool, got %T", name, v)
	}
	return bool(b), nil
}

// Schema returns a required argument holding columns in ir.SchemaFromIR form.
func (a *Arguments) Schema(name string) (ir.Schema, error) {
	v, err := a.required(name)
	if err != nil {
		return ir.Schema{}, err
	}
	s, err := ir.SchemaFromIR(v)
	if err != nil {
		return ir.Schema{}, fmt.Errorf("argument %q: %w", name, err)
	}
	return s, nil
}
