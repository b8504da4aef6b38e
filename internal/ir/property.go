package ir

// SchemaProperty is one accessor declared on a synthesized marker type.
//
// ElementType is the type seen when the property is read from a single row;
// ContainerType is the type seen when it is read as a column of values.
type SchemaProperty struct {
	Marker        TypeRef `json:"marker"`
	Name          string  `json:"name"`
	ElementType   TypeRef `json:"element_type"`
	ContainerType TypeRef `json:"container_type"`
	Override      bool    `json:"override,omitempty"` // shadows an inherited property of the same name
}

// Equal reports structural equality.
func (p SchemaProperty) Equal(o SchemaProperty) bool {
	return p.Name == o.Name &&
		p.Override == o.Override &&
		p.Marker.Equal(o.Marker) &&
		p.ElementType.Equal(o.ElementType) &&
		p.ContainerType.Equal(o.ContainerType)
}

// ToIR converts the property to an IRObject for canonical serialization.
func (p SchemaProperty) ToIR() IRObject {
	obj := IRObject{
		"marker":         IRString(p.Marker.String()),
		"name":           IRString(p.Name),
		"element_type":   IRString(p.ElementType.String()),
		"container_type": IRString(p.ContainerType.String()),
	}
	if p.Override {
		obj["override"] = IRBool(true)
	}
	return obj
}

// SchemaContext is the ordered property list registered for a token or scope.
type SchemaContext struct {
	Properties []SchemaProperty `json:"properties"`
}

// Lookup returns the property with the given name.
func (c SchemaContext) Lookup(name string) (SchemaProperty, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return SchemaProperty{}, false
}

// Names returns the property names in declaration order.
func (c SchemaContext) Names() []string {
	names := make([]string, len(c.Properties))
	for i, p := range c.Properties {
		names[i] = p.Name
	}
	return names
}

// Equal reports whether both contexts hold the same properties in the same order.
func (c SchemaContext) Equal(o SchemaContext) bool {
	if len(c.Properties) != len(o.Properties) {
		return false
	}
	for i := range c.Properties {
		if !c.Properties[i].Equal(o.Properties[i]) {
			return false
		}
	}
	return true
}

// ToIR converts the property list to an IRArray.
func (c SchemaContext) ToIR() IRArray {
	arr := make(IRArray, len(c.Properties))
	for i, p := range c.Properties {
		arr[i] = p.ToIR()
	}
	return arr
}
