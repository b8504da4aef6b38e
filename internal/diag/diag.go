package diag

import (
	"fmt"

	"github.com/roach88/framesynth/internal/ir"
)

// Code identifies a class of interpretation diagnostic.
type Code string

// Diagnostic codes.
// E2xx: interpretation errors
const (
	// E201: the interpreter ran and returned an error
	CodeInterpreterFailed Code = "E201"
	// E202: the interpreter returned something other than a schema
	CodeWrongResultKind Code = "E202"
)

// Diagnostic is one reported interpretation error.
type Diagnostic struct {
	CallID  string `json:"call_id"`
	Callee  string `json:"callee"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Pos     string `json:"pos,omitempty"`
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	if d.Pos != "" {
		return fmt.Sprintf("%s: [%s] %s: %s", d.Pos, d.Code, d.CallID, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Code, d.CallID, d.Message)
}

// Reporter receives interpretation errors for calls.
type Reporter interface {
	// Report records an error for call. A Reporter may drop the record
	// (see OncePerCall and NewDiscard) but must still remember the call
	// as failed.
	Report(call *ir.Call, code Code, message string)

	// HasReportedError reports whether an error was reported for call.
	HasReportedError(call *ir.Call) bool
}

// Option configures a Collector.
type Option func(*Collector)

// OncePerCall keeps only the first diagnostic reported for each call.
func OncePerCall() Option {
	return func(c *Collector) {
		c.oncePerCall = true
	}
}

// Collector is a Reporter that records diagnostics in report order.
// A Collector belongs to a single pass and is not safe for concurrent use.
type Collector struct {
	oncePerCall bool
	record      bool
	failed      map[string]bool
	diagnostics []Diagnostic
}

// NewCollector creates a Collector.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		record: true,
		failed: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDiscard creates a Reporter that remembers failed calls but records no
// diagnostics.
func NewDiscard() *Collector {
	c := NewCollector()
	c.record = false
	return c
}

// Report implements Reporter.
func (c *Collector) Report(call *ir.Call, code Code, message string) {
	already := c.failed[call.ID]
	c.failed[call.ID] = true
	if !c.record || (c.oncePerCall && already) {
		return
	}
	c.diagnostics = append(c.diagnostics, Diagnostic{
		CallID:  call.ID,
		Callee:  call.Callee,
		Code:    code,
		Message: message,
		Pos:     call.Pos,
	})
}

// HasReportedError implements Reporter.
func (c *Collector) HasReportedError(call *ir.Call) bool {
	return c.failed[call.ID]
}

// Diagnostics returns a copy of the recorded diagnostics in report order.
func (c *Collector) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(c.diagnostics))
	copy(out, c.diagnostics)
	return out
}

// Len returns the number of recorded diagnostics.
func (c *Collector) Len() int {
	return len(c.diagnostics)
}

var _ Reporter = (*Collector)(nil)
