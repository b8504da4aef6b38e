package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/framesynth/internal/ir"
)

// DefaultCalleePackage qualifies callees written without a package.
const DefaultCalleePackage = ir.DataFramePackage + ".api"

// CompileProgram parses the `call:` struct of a CUE value into a Program.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// Calls keep their declaration order:
//
//	call: df: {
//		callee:  "dataFrameOf"
//		returns: "DataFrame<Token1>"
//		args: columns: [{name: "a", type: "String"}]
//	}
//	call: grouped: {
//		callee:   "GroupClause.into"
//		receiver: "df"
//		refined:  true
//		args: {columns: ["a"], into: "c"}
//	}
//
// A missing `call:` struct yields an empty Program.
func CompileProgram(v cue.Value) (*ir.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	prog := &ir.Program{}
	callsVal := v.LookupPath(cue.ParsePath("call"))
	if !callsVal.Exists() {
		return prog, nil
	}

	iter, err := callsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		call, err := CompileCall(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		prog.Calls = append(prog.Calls, *call)
	}
	return prog, nil
}

// CompileCall parses one call struct.
func CompileCall(id string, v cue.Value) (*ir.Call, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	call := &ir.Call{ID: id, Pos: formatPos(v.Pos())}

	callee, err := optionalString(v, "callee")
	if err != nil {
		return nil, err
	}
	if callee != "" && (!strings.Contains(callee, ".") || strings.HasPrefix(callee, "GroupClause.")) {
		callee = DefaultCalleePackage + "." + callee
	}
	call.Callee = callee

	if call.Receiver, err = optionalString(v, "receiver"); err != nil {
		return nil, err
	}

	path, err := optionalString(v, "path")
	if err != nil {
		return nil, err
	}
	if path != "" {
		if call.ReceiverPath, err = ir.ParseColumnPath(path); err != nil {
			return nil, &CompileError{Field: "path", Message: err.Error(), Pos: v.Pos()}
		}
	}

	returns, err := optionalString(v, "returns")
	if err != nil {
		return nil, err
	}
	if returns != "" {
		if call.ReturnType, err = ir.ParseTypeRef(returns); err != nil {
			return nil, &CompileError{Field: "returns", Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("returns")).Pos()}
		}
	}

	refinedVal := v.LookupPath(cue.ParsePath("refined"))
	if refinedVal.Exists() {
		if call.Refined, err = refinedVal.Bool(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	argsVal := v.LookupPath(cue.ParsePath("args"))
	if argsVal.Exists() {
		argsIter, err := argsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for argsIter.Next() {
			val, err := valueToIR(argsIter.Value())
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, ir.NamedArg{Name: argsIter.Label(), Value: val})
		}
	}

	return call, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: "must be a string", Pos: fv.Pos()}
	}
	return s, nil
}

// valueToIR converts a concrete CUE value to an IR value.
// Floats and null are forbidden.
func valueToIR(v cue.Value) (ir.IRValue, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.ListKind:
		list, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := ir.IRArray{}
		for list.Next() {
			elem, err := valueToIR(list.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.IRObject{}
		for iter.Next() {
			elem, err := valueToIR(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Label()] = elem
		}
		return obj, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   "args",
			Message: "float values are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	case cue.NullKind:
		return nil, &CompileError{
			Field:   "args",
			Message: "null values are forbidden - omit the argument instead",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   "args",
			Message: fmt.Sprintf("argument must be concrete, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", formatPos(e.Pos), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func formatPos(pos token.Pos) string {
	if !pos.IsValid() {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", pos.Filename(), pos.Line(), pos.Column())
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
