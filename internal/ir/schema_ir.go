package ir

import "fmt"

// Node kinds used in the IR form of a schema.
const (
	NodeKindColumn = "column"
	NodeKindGroup  = "group"
	NodeKindFrame  = "frame"
)

// ToIR converts the schema to an IRArray for canonical hashing and snapshots.
//
// Each node becomes an object with "kind" and "name"; leaves carry "type"
// and "nullable", groups carry "columns", frames carry both "columns" and
// "nullable".
func (s Schema) ToIR() IRArray {
	arr := make(IRArray, len(s.Columns))
	for i, node := range s.Columns {
		arr[i] = nodeToIR(node)
	}
	return arr
}

func nodeToIR(node SchemaNode) IRObject {
	switch n := node.(type) {
	case Column:
		return IRObject{
			"kind":     IRString(NodeKindColumn),
			"name":     IRString(n.Name),
			"type":     IRString(n.Type.String()),
			"nullable": IRBool(n.Nullable),
		}
	case ColumnGroup:
		return IRObject{
			"kind":    IRString(NodeKindGroup),
			"name":    IRString(n.Name),
			"columns": Schema{Columns: n.Columns}.ToIR(),
		}
	case FrameColumn:
		return IRObject{
			"kind":     IRString(NodeKindFrame),
			"name":     IRString(n.Name),
			"columns":  Schema{Columns: n.Columns}.ToIR(),
			"nullable": IRBool(n.Nullable),
		}
	default:
		return IRObject{"kind": IRString(fmt.Sprintf("%T", node))}
	}
}

// SchemaFromIR builds a schema from its IR form.
//
// Besides the exact form produced by ToIR, the shorthand used in call
// arguments is accepted: "kind" may be omitted when exactly one of "type",
// "group" (nested columns of a column group) or "frame" (nested columns of
// a frame column) is present, and a nullable leaf may be written as
// "type": "Int?".
func SchemaFromIR(v IRValue) (Schema, error) {
	arr, ok := v.(IRArray)
	if !ok {
		return Schema{}, fmt.Errorf("schema: expected array of columns, got %T", v)
	}
	cols := make([]SchemaNode, 0, len(arr))
	for i, elem := range arr {
		node, err := nodeFromIR(elem)
		if err != nil {
			return Schema{}, fmt.Errorf("columns[%d]: %w", i, err)
		}
		cols = append(cols, node)
	}
	return Schema{Columns: cols}, nil
}

func nodeFromIR(v IRValue) (SchemaNode, error) {
	obj, ok := v.(IRObject)
	if !ok {
		return nil, fmt.Errorf("expected column object, got %T", v)
	}
	name, ok := obj["name"].(IRString)
	if !ok || name == "" {
		return nil, fmt.Errorf("column name is required")
	}
	nullable := false
	if b, ok := obj["nullable"].(IRBool); ok {
		nullable = bool(b)
	}

	kind := ""
	if k, ok := obj["kind"].(IRString); ok {
		kind = string(k)
	}
	if kind == "" {
		kind = inferNodeKind(obj)
	}

	switch kind {
	case NodeKindColumn:
		ts, ok := obj["type"].(IRString)
		if !ok {
			return nil, fmt.Errorf("column %q: type is required", name)
		}
		t, err := ParseTypeRef(string(ts))
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		return Column{Name: string(name), Type: t.WithNullable(false), Nullable: nullable || t.Nullable}, nil
	case NodeKindGroup:
		nested, err := nestedFromIR(obj, "group")
		if err != nil {
			return nil, fmt.Errorf("column group %q: %w", name, err)
		}
		return ColumnGroup{Name: string(name), Columns: nested.Columns}, nil
	case NodeKindFrame:
		nested, err := nestedFromIR(obj, "frame")
		if err != nil {
			return nil, fmt.Errorf("frame column %q: %w", name, err)
		}
		return FrameColumn{Name: string(name), Columns: nested.Columns, Nullable: nullable}, nil
	default:
		return nil, fmt.Errorf("column %q: cannot determine column kind", name)
	}
}

func inferNodeKind(obj IRObject) string {
	_, hasType := obj["type"]
	_, hasGroup := obj["group"]
	_, hasFrame := obj["frame"]
	switch {
	case hasType && !hasGroup && !hasFrame:
		return NodeKindColumn
	case hasGroup && !hasType && !hasFrame:
		return NodeKindGroup
	case hasFrame && !hasType && !hasGroup:
		return NodeKindFrame
	default:
		return ""
	}
}

func nestedFromIR(obj IRObject, shorthand string) (Schema, error) {
	if v, ok := obj["columns"]; ok {
		return SchemaFromIR(v)
	}
	if v, ok := obj[shorthand]; ok {
		return SchemaFromIR(v)
	}
	return Schema{}, fmt.Errorf("nested columns are required")
}
