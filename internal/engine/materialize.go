package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/framesynth/internal/compiler"
	"github.com/roach88/framesynth/internal/ir"
)

// materializer turns one call's schema into registered markers.
//
// Writes are staged and only applied to the registries once the whole tree
// has been materialized without conflicts, so a failed materialization
// registers nothing.
type materializer struct {
	call  *ir.Call
	reg   *Registries
	names *namer

	scopes    []stagedContext
	tokens    []stagedContext
	generated []ir.ClassID
	types     []ir.TypeRef
	kinds     map[propertyKey]string
}

type stagedContext struct {
	id  ir.ClassID
	ctx ir.SchemaContext
}

// tokenRequest names a token to allocate when no root marker is supplied.
type tokenRequest struct {
	id ir.ClassID
	ok bool
}

// materialize registers the schema under a marker and returns the marker.
// Either rootMarker or suggested must be set; passing neither is a
// programming error and panics.
func (m *materializer) materialize(s ir.Schema, rootMarker *ir.TypeRef, suggested tokenRequest) (ir.TypeRef, error) {
	var token ir.ClassID
	var marker ir.TypeRef
	switch {
	case rootMarker != nil:
		token = rootMarker.Class
		marker = *rootMarker
		if err := m.names.reserveRoot(token); err != nil {
			return ir.TypeRef{}, err
		}
	case suggested.ok:
		token = suggested.id
		marker = ir.ClassType(token)
		m.generated = append(m.generated, token)
	default:
		panic("materialize: neither root marker nor suggested name")
	}
	scope := m.names.scope(token)

	props := make([]ir.SchemaProperty, 0, len(s.Columns))
	for _, node := range s.Columns {
		prop := ir.SchemaProperty{Marker: marker, Name: node.ColumnName()}
		if err := m.stageKind(token, node); err != nil {
			return ir.TypeRef{}, err
		}
		switch n := node.(type) {
		case ir.Column:
			prop.ElementType = n.ElementType()
			prop.ContainerType = ir.DataColumnOf(prop.ElementType)
		case ir.ColumnGroup:
			nested, err := m.materializeNested(n.Columns, token, n.Name)
			if err != nil {
				return ir.TypeRef{}, err
			}
			prop.ElementType = ir.DataRowOf(nested)
			prop.ContainerType = ir.ColumnGroupOf(nested)
		case ir.FrameColumn:
			nested, err := m.materializeNested(n.Columns, token, n.Name)
			if err != nil {
				return ir.TypeRef{}, err
			}
			prop.ElementType = ir.DataFrameOf(nested).WithNullable(n.Nullable)
			prop.ContainerType = ir.DataColumnOf(prop.ElementType)
		default:
			panic(fmt.Sprintf("materialize: unexpected schema node %T", node))
		}
		props = append(props, prop)
	}

	ctx := ir.SchemaContext{Properties: props}
	m.scopes = append(m.scopes, stagedContext{id: scope, ctx: ctx})
	m.tokens = append(m.tokens, stagedContext{id: token, ctx: ctx})
	m.types = append(m.types, ir.ClassType(scope))
	return marker, nil
}

// stageKind records the node kind behind a token property. A kind that
// disagrees with an earlier one is a conflict even when the property types
// are equal.
func (m *materializer) stageKind(token ir.ClassID, node ir.SchemaNode) error {
	var kind string
	switch node.(type) {
	case ir.ColumnGroup:
		kind = ir.NodeKindGroup
	case ir.FrameColumn:
		kind = ir.NodeKindFrame
	default:
		kind = ir.NodeKindColumn
	}
	key := propertyKey{owner: token, name: node.ColumnName()}
	for _, prev := range []map[propertyKey]string{m.reg.kinds, m.kinds} {
		if k, ok := prev[key]; ok && k != kind {
			return m.internal(newConflictError("property kind of", token.String()+"."+key.name))
		}
	}
	if m.kinds == nil {
		m.kinds = make(map[propertyKey]string)
	}
	m.kinds[key] = kind
	return nil
}

func (m *materializer) materializeNested(cols []ir.SchemaNode, enclosing ir.ClassID, column string) (ir.TypeRef, error) {
	id := m.names.nestedToken(m.call, enclosing, column)
	return m.materialize(ir.Schema{Columns: cols}, nil, tokenRequest{id: id, ok: true})
}

// commit checks every staged write against the registries and then applies
// them all.
func (m *materializer) commit(root ir.ClassID) error {
	if err := m.check(m.scopes, m.reg.scopes, "scope"); err != nil {
		return err
	}
	if err := m.check(m.tokens, m.reg.tokens, "token"); err != nil {
		return err
	}
	if prev, ok := m.reg.associated[root]; ok && !slices.EqualFunc(prev, m.types, ir.TypeRef.Equal) {
		return m.internal(newConflictError("associated scopes of", root.String()))
	}

	for _, s := range m.scopes {
		m.reg.scopes[s.id] = s.ctx
	}
	for _, t := range m.tokens {
		m.reg.tokens[t.id] = t.ctx
	}
	for _, id := range m.generated {
		m.reg.MarkGenerated(id)
	}
	for k, kind := range m.kinds {
		m.reg.kinds[k] = kind
	}
	m.reg.associated[root] = slices.Clone(m.types)
	return nil
}

// check rejects a staged write that disagrees with an existing entry or
// with an earlier staged write for the same identifier.
func (m *materializer) check(writes []stagedContext, existing map[ir.ClassID]ir.SchemaContext, kind string) error {
	seen := make(map[ir.ClassID]ir.SchemaContext, len(writes))
	for _, w := range writes {
		for _, prev := range []map[ir.ClassID]ir.SchemaContext{existing, seen} {
			if ctx, ok := prev[w.id]; ok && !ctx.Equal(w.ctx) {
				return m.internal(newConflictError(kind, w.id.String()))
			}
		}
		seen[w.id] = w.ctx
	}
	return nil
}

func (m *materializer) internal(err *InternalError) error {
	if err.CallID == "" {
		err.CallID = m.call.ID
	}
	return err
}

// validateSchema rejects malformed interpreter output before anything is
// allocated.
func validateSchema(call *ir.Call, s ir.Schema) error {
	if errs := compiler.Validate(s); len(errs) > 0 {
		return &InternalError{
			Code:    ErrCodeInvalidSchema,
			Message: "interpreter produced a malformed schema",
			CallID:  call.ID,
			Err:     compiler.Combine(errs),
		}
	}
	return nil
}
