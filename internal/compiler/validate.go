package compiler

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/framesynth/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// Program errors (E101-E119)
	ErrMissingCallee      = "E101" // callee is required
	ErrRefinedWithReturns = "E102" // refined calls declare no return type
	ErrDuplicateCallID    = "E103" // duplicate call id
	ErrUnknownReceiver    = "E104" // receiver references no call
	ErrReceiverCycle      = "E105" // receiver chain loops back
	ErrPathWithoutRecv    = "E106" // path set on a call without receiver
	ErrSharedRootToken    = "E107" // root token declared by more than one call

	// Schema errors (E120-E139)
	ErrDuplicateColumn   = "E120" // duplicate column name in one sequence
	ErrEmptyColumnName   = "E121" // column name is required
	ErrMissingNested     = "E122" // group or frame column without nested schema
	ErrInvalidColumnType = "E123" // leaf column type is missing or a star projection
	ErrNilColumn         = "E124" // nil schema node
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled IR against structural rules.
// Returns all errors found (does not fail-fast).
// Supports Program and Schema types.
func Validate(v any) []ValidationError {
	switch val := v.(type) {
	case *ir.Program:
		return validateProgram(val)
	case ir.Program:
		return validateProgram(&val)
	case ir.Schema:
		return validateColumns(val.Columns, "columns")
	case *ir.Schema:
		return validateColumns(val.Columns, "columns")
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

// Combine folds validation errors into a single error, or nil.
func Combine(errs []ValidationError) error {
	var result *multierror.Error
	for _, e := range errs {
		result = multierror.Append(result, e)
	}
	if result != nil {
		result.ErrorFormat = formatErrors
	}
	return result.ErrorOrNil()
}

func formatErrors(errs []error) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = "  " + err.Error()
	}
	return fmt.Sprintf("%d validation errors:\n%s", len(errs), strings.Join(lines, "\n"))
}

func validateProgram(p *ir.Program) []ValidationError {
	var errs []ValidationError

	ids := make(map[string]bool, len(p.Calls))
	for i, call := range p.Calls {
		// E103: duplicate call id
		if ids[call.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("calls[%d].id", i),
				Message: fmt.Sprintf("duplicate call id: %q", call.ID),
				Code:    ErrDuplicateCallID,
			})
		}
		ids[call.ID] = true
	}

	for _, call := range p.Calls {
		field := fmt.Sprintf("call.%s", call.ID)

		// E101: callee is required
		if strings.TrimSpace(call.Callee) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".callee",
				Message: "callee is required",
				Code:    ErrMissingCallee,
			})
		}

		// E102: refined calls get their return type from the pass
		if call.Refined && !call.ReturnType.IsZero() {
			errs = append(errs, ValidationError{
				Field:   field + ".returns",
				Message: "refined calls must not declare a return type",
				Code:    ErrRefinedWithReturns,
			})
		}

		// E104: receiver must reference a call
		if call.Receiver != "" && !ids[call.Receiver] {
			errs = append(errs, ValidationError{
				Field:   field + ".receiver",
				Message: fmt.Sprintf("unknown receiver %q", call.Receiver),
				Code:    ErrUnknownReceiver,
			})
		}

		// E106: a path selects inside a receiver
		if call.Receiver == "" && len(call.ReceiverPath) > 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".path",
				Message: "path requires a receiver",
				Code:    ErrPathWithoutRecv,
			})
		}
	}

	// E107: each declared root token belongs to one call
	owners := make(map[ir.ClassID]string)
	for _, call := range p.Calls {
		token, ok := declaredRootToken(call)
		if !ok {
			continue
		}
		if owner, taken := owners[token]; taken {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("call.%s.returns", call.ID),
				Message: fmt.Sprintf("root token %s is already declared by call %q", token, owner),
				Code:    ErrSharedRootToken,
			})
			continue
		}
		owners[token] = call.ID
	}

	// E105: receiver cycles
	for _, cycle := range ReceiverCycles(p) {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("call.%s.receiver", cycle[0]),
			Message: fmt.Sprintf("receiver cycle: %s", strings.Join(cycle, " -> ")),
			Code:    ErrReceiverCycle,
		})
	}

	return errs
}

// declaredRootToken returns M of a DataFrame<M> return type when M is
// named like a generated root token.
func declaredRootToken(call ir.Call) (ir.ClassID, bool) {
	rt := call.ReturnType
	if call.Refined || !rt.IsClass() || rt.Class != ir.DataFrameClass {
		return ir.ClassID{}, false
	}
	marker, ok := rt.Arg(0)
	if !ok || !marker.IsClass() || !strings.HasPrefix(marker.Class.Name, ir.RootTokenPrefix) {
		return ir.ClassID{}, false
	}
	return marker.Class, true
}

// validateColumns checks one column sequence and everything nested in it.
func validateColumns(cols []ir.SchemaNode, field string) []ValidationError {
	var errs []ValidationError
	names := make(map[string]bool, len(cols))

	for i, node := range cols {
		path := fmt.Sprintf("%s[%d]", field, i)

		// E124: nil node
		if node == nil {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: "column is nil",
				Code:    ErrNilColumn,
			})
			continue
		}

		name := node.ColumnName()
		// E121: name is required
		if name == "" {
			errs = append(errs, ValidationError{
				Field:   path + ".name",
				Message: "column name is required",
				Code:    ErrEmptyColumnName,
			})
		} else if names[name] {
			// E120: names are unique within one sequence
			errs = append(errs, ValidationError{
				Field:   path + ".name",
				Message: fmt.Sprintf("duplicate column name: %q", name),
				Code:    ErrDuplicateColumn,
			})
		}
		names[name] = true

		switch n := node.(type) {
		case ir.Column:
			// E123: leaf type
			if n.Type.IsZero() || n.Type.Kind == ir.KindStar {
				errs = append(errs, ValidationError{
					Field:   path + ".type",
					Message: fmt.Sprintf("column %q has no valid type", name),
					Code:    ErrInvalidColumnType,
				})
			}
		case ir.ColumnGroup:
			errs = append(errs, validateNested(n.Columns, name, path)...)
		case ir.FrameColumn:
			errs = append(errs, validateNested(n.Columns, name, path)...)
		}
	}
	return errs
}

func validateNested(cols []ir.SchemaNode, name, path string) []ValidationError {
	// E122: nested schema is required
	if cols == nil {
		return []ValidationError{{
			Field:   path + ".columns",
			Message: fmt.Sprintf("column %q declares no nested schema", name),
			Code:    ErrMissingNested,
		}}
	}
	return validateColumns(cols, path+".columns")
}
