package ir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Call is one call expression of an analyzed call chain.
type Call struct {
	// ID uniquely identifies the call within its Program.
	ID string `json:"id"`

	// Callee is the fully-qualified operation identity, e.g.
	// "org.jetbrains.kotlinx.dataframe.api.add".
	Callee string `json:"callee"`

	// Receiver is the ID of the call whose result this call is invoked on.
	Receiver string `json:"receiver,omitempty"`

	// ReceiverPath selects a column group or frame column of the receiver's
	// result (e.g. "c" in grouped.c.add(...)).
	ReceiverPath ColumnPath `json:"receiver_path,omitempty"`

	// ReturnType is the declared return type of the call.
	ReturnType TypeRef `json:"return_type"`

	// Refined marks a call whose root token is allocated by the analysis
	// pass rather than written in the declared return type.
	Refined bool `json:"refined,omitempty"`

	// Args are the call's arguments in source order.
	Args []NamedArg `json:"args,omitempty"`

	// Pos is the source position ("file:line:col"), if known.
	Pos string `json:"pos,omitempty"`
}

// NamedArg is a named argument value.
type NamedArg struct {
	Name  string  `json:"name"`
	Value IRValue `json:"value"`
}

// UnmarshalJSON implements json.Unmarshaler for NamedArg.
func (a *NamedArg) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  string          `json:"name"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	val, err := unmarshalIRValue(raw.Value)
	if err != nil {
		return fmt.Errorf("arg %q: %w", raw.Name, err)
	}
	a.Name = raw.Name
	a.Value = val
	return nil
}

// Arg returns the named argument's value.
func (c *Call) Arg(name string) (IRValue, bool) {
	for _, a := range c.Args {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// CalleeName returns the short name of the callee (the segment after the
// last dot).
func (c *Call) CalleeName() string {
	if idx := strings.LastIndex(c.Callee, "."); idx >= 0 {
		return c.Callee[idx+1:]
	}
	return c.Callee
}

// ToIR converts the call to an IRObject for canonical hashing.
func (c *Call) ToIR() IRObject {
	args := make(IRArray, len(c.Args))
	for i, a := range c.Args {
		args[i] = IRObject{"name": IRString(a.Name), "value": a.Value}
	}
	obj := IRObject{
		"id":          IRString(c.ID),
		"callee":      IRString(c.Callee),
		"return_type": IRString(c.ReturnType.String()),
		"args":        args,
	}
	if c.Receiver != "" {
		obj["receiver"] = IRString(c.Receiver)
	}
	if len(c.ReceiverPath) > 0 {
		obj["receiver_path"] = IRString(c.ReceiverPath.String())
	}
	if c.Refined {
		obj["refined"] = IRBool(true)
	}
	return obj
}

// Program is an ordered set of calls forming one or more call chains.
type Program struct {
	Calls []Call `json:"calls"`
}

// Call returns the call with the given ID.
func (p *Program) Call(id string) (*Call, bool) {
	for i := range p.Calls {
		if p.Calls[i].ID == id {
			return &p.Calls[i], true
		}
	}
	return nil, false
}
