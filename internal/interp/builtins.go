package interp

import (
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/framesynth/internal/compiler"
	"github.com/roach88/framesynth/internal/ir"
)

// APIPackage is the package of the builtin operations.
const APIPackage = ir.DataFramePackage + ".api"

// Builtin callees.
const (
	CalleeDataFrameOf  = APIPackage + ".dataFrameOf"
	CalleeAdd          = APIPackage + ".add"
	CalleeRemove       = APIPackage + ".remove"
	CalleeSelect       = APIPackage + ".select"
	CalleeRename       = APIPackage + ".rename"
	CalleeGroupInto    = APIPackage + ".GroupClause.into"
	CalleeUngroup      = APIPackage + ".ungroup"
	CalleeCast         = APIPackage + ".cast"
	CalleeColumnsCount = APIPackage + ".columnsCount"
)

var (
	builtinsOnce sync.Once
	builtins     *Registry
)

// Builtins returns the registry of builtin schema operations.
// The registry is built on first use and shared.
func Builtins() *Registry {
	builtinsOnce.Do(func() {
		builtins = NewRegistry(map[string]Interpreter{
			CalleeDataFrameOf:  checked(dataFrameOf),
			CalleeAdd:          checked(add),
			CalleeRemove:       checked(remove),
			CalleeSelect:       checked(selectColumns),
			CalleeRename:       checked(rename),
			CalleeGroupInto:    checked(groupInto),
			CalleeUngroup:      checked(ungroup),
			CalleeCast:         checked(cast),
			CalleeColumnsCount: Func(columnsCount),
		})
	})
	return builtins
}

// checked fails the call when fn produces a schema that does not pass
// structural validation. Column literals come from user programs, so
// nested duplicates and star leaf types are interpretation errors.
func checked(fn func(*Arguments) (any, error)) Func {
	return func(args *Arguments) (any, error) {
		v, err := fn(args)
		if err != nil {
			return nil, err
		}
		if s, ok := v.(ir.Schema); ok {
			if errs := compiler.Validate(s); len(errs) > 0 {
				return nil, compiler.Combine(errs)
			}
		}
		return v, nil
	}
}

// dataFrameOf(columns) declares a schema literally.
func dataFrameOf(args *Arguments) (any, error) {
	s, err := args.Schema("columns")
	if err != nil {
		return nil, err
	}
	if err := checkUnique(s.Columns); err != nil {
		return nil, err
	}
	return s, nil
}

// add(name, type[, under]) appends a leaf column, optionally inside the
// group at path "under".
func add(args *Arguments) (any, error) {
	recv, err := args.Receiver()
	if err != nil {
		return nil, err
	}
	name, err := args.String("name")
	if err != nil {
		return nil, err
	}
	t, err := args.Type("type")
	if err != nil {
		return nil, err
	}
	nullable, err := args.Bool("nullable")
	if err != nil {
		return nil, err
	}
	var parent ir.ColumnPath
	if _, ok := args.Value("under"); ok {
		if parent, err = args.Path("under"); err != nil {
			return nil, err
		}
	}
	col := ir.Column{Name: name, Type: t.WithNullable(false), Nullable: nullable || t.Nullable}
	return recv.Modify(parent, func(s ir.Schema) (ir.Schema, error) {
		if s.Index(name) >= 0 {
			return ir.Schema{}, fmt.Errorf("add: column %q already exists", name)
		}
		return s.Append(col), nil
	})
}

// remove(columns) drops columns by path.
func remove(args *Arguments) (any, error) {
	recv, err := args.Receiver()
	if err != nil {
		return nil, err
	}
	paths, err := args.Paths("columns")
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if recv, _, err = recv.Remove(p); err != nil {
			return nil, fmt.Errorf("remove: %w", err)
		}
	}
	return recv, nil
}

// select(columns) keeps the listed columns in argument order. A nested path
// selects the column itself, lifted to the top level.
func selectColumns(args *Arguments) (any, error) {
	recv, err := args.Receiver()
	if err != nil {
		return nil, err
	}
	paths, err := args.Paths("columns")
	if err != nil {
		return nil, err
	}
	cols := make([]ir.SchemaNode, 0, len(paths))
	for _, p := range paths {
		node, ok := recv.Lookup(p)
		if !ok {
			return nil, fmt.Errorf("select: column %q not found", p)
		}
		cols = append(cols, node)
	}
	if err := checkUnique(cols); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return ir.NewSchema(cols...), nil
}

// rename(column, into) renames one column in place.
func rename(args *Arguments) (any, error) {
	recv, err := args.Receiver()
	if err != nil {
		return nil, err
	}
	path, err := args.Path("column")
	if err != nil {
		return nil, err
	}
	into, err := args.String("into")
	if err != nil {
		return nil, err
	}
	return recv.Modify(path.Parent(), func(s ir.Schema) (ir.Schema, error) {
		i := s.Index(path.Name())
		if i < 0 {
			return ir.Schema{}, fmt.Errorf("rename: column %q not found", path)
		}
		if j := s.Index(into); j >= 0 && j != i {
			return ir.Schema{}, fmt.Errorf("rename: column %q already exists", into)
		}
		return s.Replace(i, ir.Renamed(s.Columns[i], into)), nil
	})
}

// group{columns}.into(into) moves columns into a new top-level column
// group. Members keep argument order; the group takes the position of the
// earliest receiver column touched by the move.
func groupInto(args *Arguments) (any, error) {
	recv, err := args.Receiver()
	if err != nil {
		return nil, err
	}
	paths, err := args.Paths("columns")
	if err != nil {
		return nil, err
	}
	into, err := args.String("into")
	if err != nil {
		return nil, err
	}

	roots := make(map[string]bool, len(paths))
	for _, p := range paths {
		roots[p[0]] = true
	}
	moved := make([]ir.SchemaNode, 0, len(paths))
	out := recv
	for _, p := range paths {
		var node ir.SchemaNode
		if out, node, err = out.Remove(p); err != nil {
			return nil, fmt.Errorf("group: %w", err)
		}
		moved = append(moved, node)
	}
	if err := checkUnique(moved); err != nil {
		return nil, fmt.Errorf("group: %w", err)
	}
	if out.Index(into) >= 0 {
		return nil, fmt.Errorf("group: column %q already exists", into)
	}

	pos := 0
	for _, c := range recv.Columns {
		if roots[c.ColumnName()] {
			break
		}
		if out.Index(c.ColumnName()) >= 0 {
			pos++
		}
	}
	return out.Insert(pos, ir.ColumnGroup{Name: into, Columns: moved}), nil
}

// ungroup(column) replaces a column group with its children.
func ungroup(args *Arguments) (any, error) {
	recv, err := args.Receiver()
	if err != nil {
		return nil, err
	}
	path, err := args.Path("column")
	if err != nil {
		return nil, err
	}
	return recv.Modify(path.Parent(), func(s ir.Schema) (ir.Schema, error) {
		i := s.Index(path.Name())
		if i < 0 {
			return ir.Schema{}, fmt.Errorf("ungroup: column %q not found", path)
		}
		group, ok := s.Columns[i].(ir.ColumnGroup)
		if !ok {
			return ir.Schema{}, fmt.Errorf("ungroup: column %q is not a column group", path)
		}
		cols := slices.Concat(s.Columns[:i], group.Columns, s.Columns[i+1:])
		if err := checkUnique(cols); err != nil {
			return ir.Schema{}, fmt.Errorf("ungroup: %w", err)
		}
		return ir.NewSchema(cols...), nil
	})
}

// cast(columns[, verify]) replaces the receiver schema by a declared one.
// With verify set every declared top-level column must exist in the
// receiver.
func cast(args *Arguments) (any, error) {
	recv, err := args.Receiver()
	if err != nil {
		return nil, err
	}
	target, err := args.Schema("columns")
	if err != nil {
		return nil, err
	}
	if err := checkUnique(target.Columns); err != nil {
		return nil, fmt.Errorf("cast: %w", err)
	}
	verify, err := args.Bool("verify")
	if err != nil {
		return nil, err
	}
	if verify {
		for _, name := range target.Names() {
			if recv.Index(name) < 0 {
				return nil, fmt.Errorf("cast: column %q not found in receiver", name)
			}
		}
	}
	return target, nil
}

// columnsCount returns the number of top-level columns. It does not
// produce a frame.
func columnsCount(args *Arguments) (any, error) {
	recv, err := args.Receiver()
	if err != nil {
		return nil, err
	}
	return ir.IRInt(len(recv.Columns)), nil
}

func checkUnique(cols []ir.SchemaNode) error {
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if seen[c.ColumnName()] {
			return fmt.Errorf("duplicate column %q", c.ColumnName())
		}
		seen[c.ColumnName()] = true
	}
	return nil
}
