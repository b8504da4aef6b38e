package store

import (
	"fmt"

	"github.com/roach88/framesynth/internal/ir"
)

// marshalProperties converts a property list to canonical JSON TEXT.
func marshalProperties(props []ir.SchemaProperty) (string, error) {
	arr := make(ir.IRArray, len(props))
	for i, p := range props {
		arr[i] = p.ToIR()
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}
	return string(data), nil
}

// unmarshalProperties parses a property list written by marshalProperties.
func unmarshalProperties(data string) ([]ir.SchemaProperty, error) {
	var arr ir.IRArray
	if err := arr.UnmarshalJSON([]byte(data)); err != nil {
		return nil, fmt.Errorf("unmarshal properties: %w", err)
	}

	props := make([]ir.SchemaProperty, 0, len(arr))
	for i, v := range arr {
		obj, ok := v.(ir.IRObject)
		if !ok {
			return nil, fmt.Errorf("unmarshal properties: [%d]: expected object, got %T", i, v)
		}
		p, err := propertyFromIR(obj)
		if err != nil {
			return nil, fmt.Errorf("unmarshal properties: [%d]: %w", i, err)
		}
		props = append(props, p)
	}
	return props, nil
}

func propertyFromIR(obj ir.IRObject) (ir.SchemaProperty, error) {
	name, ok := obj["name"].(ir.IRString)
	if !ok {
		return ir.SchemaProperty{}, fmt.Errorf("name is required")
	}
	p := ir.SchemaProperty{Name: string(name)}
	types := []struct {
		key string
		dst *ir.TypeRef
	}{
		{"marker", &p.Marker},
		{"element_type", &p.ElementType},
		{"container_type", &p.ContainerType},
	}
	for _, t := range types {
		s, ok := obj[t.key].(ir.IRString)
		if !ok {
			return ir.SchemaProperty{}, fmt.Errorf("property %q: %s is required", name, t.key)
		}
		ref, err := ir.ParseTypeRef(string(s))
		if err != nil {
			return ir.SchemaProperty{}, fmt.Errorf("property %q: %s: %w", name, t.key, err)
		}
		*t.dst = ref
	}
	if b, ok := obj["override"].(ir.IRBool); ok {
		p.Override = bool(b)
	}
	return p, nil
}
