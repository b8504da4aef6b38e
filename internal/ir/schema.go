package ir

import (
	"fmt"
	"slices"
	"strings"
)

// SchemaNode is one column of a tabular schema.
// Only Column, ColumnGroup and FrameColumn implement it.
type SchemaNode interface {
	// ColumnName returns the column's name within its parent sequence.
	ColumnName() string

	schemaNode()
}

// Column is a leaf column with a declared element type.
type Column struct {
	Name     string
	Type     TypeRef
	Nullable bool
}

func (Column) schemaNode() {}

// ColumnName implements SchemaNode.
func (c Column) ColumnName() string { return c.Name }

// ElementType is the type a single row reads for this column.
func (c Column) ElementType() TypeRef {
	return c.Type.WithNullable(c.Type.Nullable || c.Nullable)
}

// ColumnGroup is a nested, non-optional sub-schema addressed as one value.
type ColumnGroup struct {
	Name    string
	Columns []SchemaNode
}

func (ColumnGroup) schemaNode() {}

// ColumnName implements SchemaNode.
func (g ColumnGroup) ColumnName() string { return g.Name }

// FrameColumn is a nested sub-schema addressed as an independent sub-table.
type FrameColumn struct {
	Name     string
	Columns  []SchemaNode
	Nullable bool
}

func (FrameColumn) schemaNode() {}

// ColumnName implements SchemaNode.
func (f FrameColumn) ColumnName() string { return f.Name }

// Schema is the ordered root sequence of a tabular schema.
// Schema values are never mutated; every helper returns a new Schema.
type Schema struct {
	Columns []SchemaNode
}

// NewSchema builds a schema from columns in declaration order.
func NewSchema(columns ...SchemaNode) Schema {
	return Schema{Columns: columns}
}

// Children returns the nested columns of a group or frame column.
func Children(node SchemaNode) ([]SchemaNode, bool) {
	switch n := node.(type) {
	case ColumnGroup:
		return n.Columns, true
	case FrameColumn:
		return n.Columns, true
	default:
		return nil, false
	}
}

// withChildren returns a copy of a group or frame column with new children.
func withChildren(node SchemaNode, columns []SchemaNode) SchemaNode {
	switch n := node.(type) {
	case ColumnGroup:
		n.Columns = columns
		return n
	case FrameColumn:
		n.Columns = columns
		return n
	default:
		return node
	}
}

// Renamed returns a copy of node with a new name.
func Renamed(node SchemaNode, name string) SchemaNode {
	switch n := node.(type) {
	case Column:
		n.Name = name
		return n
	case ColumnGroup:
		n.Name = name
		return n
	case FrameColumn:
		n.Name = name
		return n
	default:
		return node
	}
}

// Names returns the top-level column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.ColumnName()
	}
	return names
}

// Index returns the position of the named top-level column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.ColumnName() == name {
			return i
		}
	}
	return -1
}

// Get returns the named top-level column.
func (s Schema) Get(name string) (SchemaNode, bool) {
	if i := s.Index(name); i >= 0 {
		return s.Columns[i], true
	}
	return nil, false
}

// Lookup resolves a column path through nested groups and frame columns.
func (s Schema) Lookup(path ColumnPath) (SchemaNode, bool) {
	if len(path) == 0 {
		return nil, false
	}
	node, ok := s.Get(path[0])
	if !ok {
		return nil, false
	}
	if len(path) == 1 {
		return node, true
	}
	children, ok := Children(node)
	if !ok {
		return nil, false
	}
	return Schema{Columns: children}.Lookup(path[1:])
}

// Nested returns the sub-schema under the group or frame column at path.
// An empty path returns s itself.
func (s Schema) Nested(path ColumnPath) (Schema, bool) {
	if len(path) == 0 {
		return s, true
	}
	node, ok := s.Lookup(path)
	if !ok {
		return Schema{}, false
	}
	children, ok := Children(node)
	if !ok {
		return Schema{}, false
	}
	return Schema{Columns: children}, true
}

// Append returns a schema with nodes added after the existing columns.
func (s Schema) Append(nodes ...SchemaNode) Schema {
	cols := make([]SchemaNode, 0, len(s.Columns)+len(nodes))
	cols = append(cols, s.Columns...)
	cols = append(cols, nodes...)
	return Schema{Columns: cols}
}

// Insert returns a schema with node placed at index i.
func (s Schema) Insert(i int, node SchemaNode) Schema {
	if i < 0 || i > len(s.Columns) {
		i = len(s.Columns)
	}
	return Schema{Columns: slices.Insert(slices.Clone(s.Columns), i, node)}
}

// Replace returns a schema with the column at index i replaced by node.
func (s Schema) Replace(i int, node SchemaNode) Schema {
	cols := slices.Clone(s.Columns)
	cols[i] = node
	return Schema{Columns: cols}
}

// Modify applies fn to the sub-schema at parent and rebuilds the tree
// above it. An empty parent applies fn to s.
func (s Schema) Modify(parent ColumnPath, fn func(Schema) (Schema, error)) (Schema, error) {
	if len(parent) == 0 {
		return fn(s)
	}
	i := s.Index(parent[0])
	if i < 0 {
		return Schema{}, fmt.Errorf("column %q not found", parent[0])
	}
	children, ok := Children(s.Columns[i])
	if !ok {
		return Schema{}, fmt.Errorf("column %q is not a column group or frame column", parent[0])
	}
	updated, err := Schema{Columns: children}.Modify(parent[1:], fn)
	if err != nil {
		return Schema{}, err
	}
	return s.Replace(i, withChildren(s.Columns[i], updated.Columns)), nil
}

// Remove returns a schema without the column at path, and the removed column.
func (s Schema) Remove(path ColumnPath) (Schema, SchemaNode, error) {
	if len(path) == 0 {
		return Schema{}, nil, fmt.Errorf("empty column path")
	}
	var removed SchemaNode
	out, err := s.Modify(path.Parent(), func(parent Schema) (Schema, error) {
		i := parent.Index(path.Name())
		if i < 0 {
			return Schema{}, fmt.Errorf("column %q not found", path)
		}
		removed = parent.Columns[i]
		return Schema{Columns: slices.Delete(slices.Clone(parent.Columns), i, i+1)}, nil
	})
	if err != nil {
		return Schema{}, nil, err
	}
	return out, removed, nil
}

// ColumnPath addresses a column through nested groups, outermost first.
type ColumnPath []string

// ParseColumnPath splits a dotted path ("c.a") into its segments.
func ParseColumnPath(s string) (ColumnPath, error) {
	if s == "" {
		return nil, fmt.Errorf("empty column path")
	}
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid column path %q", s)
		}
	}
	return ColumnPath(parts), nil
}

// String returns the dotted form of the path.
func (p ColumnPath) String() string {
	return strings.Join(p, ".")
}

// Name returns the last segment.
func (p ColumnPath) Name() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns the path without its last segment.
func (p ColumnPath) Parent() ColumnPath {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}
