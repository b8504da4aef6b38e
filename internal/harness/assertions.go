package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/framesynth/internal/engine"
	"github.com/roach88/framesynth/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the call outcomes to help debug the failure.
type AssertionError struct {
	Type     string               // Assertion type for categorization
	Call     string               // Call the assertion is about, if any
	Expected string               // Human-readable expected outcome
	Actual   string               // Human-readable actual outcome
	Outcomes []engine.CallOutcome // Call outcomes for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Call != "" {
		fmt.Fprintf(&buf, " (call %s)", e.Call)
	}
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Outcomes) > 0 {
		fmt.Fprintf(&buf, "\nCalls:\n")
		for i, o := range e.Outcomes {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", i+1, o.CallID, o.Callee, o.Status)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against a result and returns
// the failure messages in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertStatus:
		return assertStatus(r, a)
	case AssertMembers:
		return assertMembers(r, a)
	case AssertResolve:
		return assertResolve(r, a)
	case AssertScopes:
		return assertScopes(r, a)
	case AssertDiagnostic:
		return assertDiagnostic(r, a)
	case AssertDiagnosticCount:
		return assertCount(r, a, "diagnostic_count", len(r.Diagnostics))
	case AssertRecordedScopes:
		return assertCount(r, a, "recorded_scopes", len(r.Trace.Scopes))
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func (r *Result) fail(a Assertion, expected, actual string) error {
	return &AssertionError{Type: a.Type, Call: a.Call, Expected: expected, Actual: actual, Outcomes: r.Outcomes}
}

// rootMarker returns the root marker a call was synthesized under.
func (r *Result) rootMarker(a Assertion) (ir.TypeRef, error) {
	o, ok := r.Outcome(a.Call)
	if !ok {
		return ir.TypeRef{}, r.fail(a, "call "+a.Call, "no such call")
	}
	if o.RootMarker == nil {
		return ir.TypeRef{}, r.fail(a, "synthesized call", string(o.Status))
	}
	return *o.RootMarker, nil
}

func assertStatus(r *Result, a Assertion) error {
	o, ok := r.Outcome(a.Call)
	if !ok {
		return r.fail(a, "call "+a.Call, "no such call")
	}
	if string(o.Status) != a.Status {
		return r.fail(a, "status "+a.Status, "status "+string(o.Status))
	}
	if a.Reason != "" && o.Reason != a.Reason {
		return r.fail(a, fmt.Sprintf("reason %q", a.Reason), fmt.Sprintf("reason %q", o.Reason))
	}
	return nil
}

func assertMembers(r *Result, a Assertion) error {
	marker, err := r.rootMarker(a)
	if err != nil {
		return err
	}
	reg := r.pass.Registries()
	if len(a.Path) > 0 {
		prop, ok := reg.Resolve(marker, a.Path...)
		if !ok {
			return r.fail(a, "member "+strings.Join(a.Path, "."), "not resolvable")
		}
		nested, ok := reg.NestedAt(marker, a.Path...)
		if !ok {
			return r.fail(a, strings.Join(a.Path, ".")+" to have members", "leaf column "+prop.ElementType.String())
		}
		marker = nested
	}
	members, ok := reg.Members(marker)
	if !ok {
		return r.fail(a, "members of "+marker.String(), "marker not registered")
	}
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	if !slices.Equal(names, a.Names) {
		return r.fail(a, fmt.Sprintf("members %v", a.Names), fmt.Sprintf("members %v", names))
	}
	return nil
}

func assertResolve(r *Result, a Assertion) error {
	marker, err := r.rootMarker(a)
	if err != nil {
		return err
	}
	prop, ok := r.pass.Registries().Resolve(marker, a.Path...)
	if !ok {
		return r.fail(a, "member "+strings.Join(a.Path, "."), "not resolvable")
	}
	if a.Element != "" {
		if err := matchType(r, a, "element", a.Element, prop.ElementType); err != nil {
			return err
		}
	}
	if a.Container != "" {
		return matchType(r, a, "container", a.Container, prop.ContainerType)
	}
	return nil
}

// matchType compares types structurally so scenarios may use aliases such
// as "DataColumn<String>".
func matchType(r *Result, a Assertion, what, want string, got ir.TypeRef) error {
	ref, err := ir.ParseTypeRef(want)
	if err != nil {
		return fmt.Errorf("%s type %q: %w", what, want, err)
	}
	if !ref.Equal(got) {
		return r.fail(a, what+" "+ref.String(), what+" "+got.String())
	}
	return nil
}

func assertScopes(r *Result, a Assertion) error {
	marker, err := r.rootMarker(a)
	if err != nil {
		return err
	}
	n := len(r.pass.Registries().ScopesFor(marker.Class))
	if n != *a.Count {
		return r.fail(a, fmt.Sprintf("%d scopes", *a.Count), fmt.Sprintf("%d scopes", n))
	}
	return nil
}

func assertDiagnostic(r *Result, a Assertion) error {
	var messages []string
	for _, d := range r.Diagnostics {
		if d.CallID != a.Call {
			continue
		}
		if string(d.Code) == a.Code && strings.Contains(d.Message, a.Contains) {
			return nil
		}
		messages = append(messages, d.Error())
	}
	expected := "diagnostic " + a.Code
	if a.Contains != "" {
		expected += fmt.Sprintf(" containing %q", a.Contains)
	}
	if len(messages) == 0 {
		return r.fail(a, expected, "no diagnostics")
	}
	return r.fail(a, expected, strings.Join(messages, "; "))
}

func assertCount(r *Result, a Assertion, what string, n int) error {
	if n != *a.Count {
		return r.fail(a, fmt.Sprintf("%s %d", what, *a.Count), fmt.Sprintf("%s %d", what, n))
	}
	return nil
}
