package engine

import (
	"slices"
	"strings"

	"github.com/roach88/framesynth/internal/ir"
)

// Registries holds everything one pass synthesized.
//
// Registries are exclusively owned by one Pass and are not safe for
// concurrent use. Writes are idempotent: writing an equal value again is a
// no-op, writing a different value is a CONFLICTING_STATE InternalError.
type Registries struct {
	scopes     map[ir.ClassID]ir.SchemaContext
	tokens     map[ir.ClassID]ir.SchemaContext
	associated map[ir.ClassID][]ir.TypeRef
	generated  map[ir.ClassID]bool
	kinds      map[propertyKey]string // schema node kind per token property
}

// propertyKey names one property of a token.
type propertyKey struct {
	owner ir.ClassID
	name  string
}

// NewRegistries creates empty registries.
func NewRegistries() *Registries {
	return &Registries{
		scopes:     make(map[ir.ClassID]ir.SchemaContext),
		tokens:     make(map[ir.ClassID]ir.SchemaContext),
		associated: make(map[ir.ClassID][]ir.TypeRef),
		generated:  make(map[ir.ClassID]bool),
		kinds:      make(map[propertyKey]string),
	}
}

// MarkGenerated tags a token as produced by the pass.
func (r *Registries) MarkGenerated(id ir.ClassID) {
	r.generated[id] = true
}

// IsGenerated reports whether a token was produced by the pass.
func (r *Registries) IsGenerated(id ir.ClassID) bool {
	return r.generated[id]
}

// Scope returns the property list registered for a scope.
func (r *Registries) Scope(id ir.ClassID) (ir.SchemaContext, bool) {
	ctx, ok := r.scopes[id]
	return ctx, ok
}

// Token returns the property list registered for a token.
func (r *Registries) Token(id ir.ClassID) (ir.SchemaContext, bool) {
	ctx, ok := r.tokens[id]
	return ctx, ok
}

// ScopesFor returns the scope types synthesized for a root token, in
// materialization order. The returned slice is a copy.
func (r *Registries) ScopesFor(root ir.ClassID) []ir.TypeRef {
	return slices.Clone(r.associated[root])
}

// Members returns the properties declared on a marker type.
func (r *Registries) Members(marker ir.TypeRef) ([]ir.SchemaProperty, bool) {
	if !marker.IsClass() {
		return nil, false
	}
	ctx, ok := r.tokens[marker.Class]
	if !ok {
		return nil, false
	}
	return slices.Clone(ctx.Properties), true
}

// Resolve looks up a member access chain such as df.c.a starting at marker.
// Every segment but the last must name a column group or frame column.
func (r *Registries) Resolve(marker ir.TypeRef, path ...string) (ir.SchemaProperty, bool) {
	if len(path) == 0 {
		return ir.SchemaProperty{}, false
	}
	current := marker
	for i, name := range path {
		ctx, ok := r.tokens[current.Class]
		if !ok || !current.IsClass() {
			return ir.SchemaProperty{}, false
		}
		prop, ok := ctx.Lookup(name)
		if !ok {
			return ir.SchemaProperty{}, false
		}
		if i == len(path)-1 {
			return prop, true
		}
		nested, _, ok := r.nestedMarker(current.Class, prop)
		if !ok {
			return ir.SchemaProperty{}, false
		}
		current = nested
	}
	return ir.SchemaProperty{}, false
}

// NestedAt resolves a member access chain to the marker of the column
// group or frame column it ends at. Leaf columns have no nested marker,
// whatever their declared type.
func (r *Registries) NestedAt(marker ir.TypeRef, path ...string) (ir.TypeRef, bool) {
	if len(path) == 0 {
		return ir.TypeRef{}, false
	}
	owner := marker
	if len(path) > 1 {
		var ok bool
		if owner, ok = r.NestedAt(marker, path[:len(path)-1]...); !ok {
			return ir.TypeRef{}, false
		}
	}
	prop, ok := r.Resolve(owner, path[len(path)-1])
	if !ok {
		return ir.TypeRef{}, false
	}
	nested, _, ok := r.nestedMarker(owner.Class, prop)
	return nested, ok
}

// nestedMarker returns the marker of a group or frame property of owner
// together with its node kind.
func (r *Registries) nestedMarker(owner ir.ClassID, p ir.SchemaProperty) (ir.TypeRef, string, bool) {
	kind := r.kinds[propertyKey{owner: owner, name: p.Name}]
	if kind != ir.NodeKindGroup && kind != ir.NodeKindFrame {
		return ir.TypeRef{}, "", false
	}
	m, ok := p.ElementType.Arg(0)
	if !ok || !m.IsClass() {
		return ir.TypeRef{}, "", false
	}
	if _, ok := r.tokens[m.Class]; !ok {
		return ir.TypeRef{}, "", false
	}
	return m, kind, true
}

// SchemaOf rebuilds the schema registered for a marker. Chained calls use
// it to recover their receiver's schema.
func (r *Registries) SchemaOf(marker ir.TypeRef) (ir.Schema, bool) {
	return r.schemaOf(marker, make(map[ir.ClassID]bool))
}

func (r *Registries) schemaOf(marker ir.TypeRef, visiting map[ir.ClassID]bool) (ir.Schema, bool) {
	if !marker.IsClass() || visiting[marker.Class] {
		return ir.Schema{}, false
	}
	ctx, ok := r.tokens[marker.Class]
	if !ok {
		return ir.Schema{}, false
	}
	visiting[marker.Class] = true
	defer delete(visiting, marker.Class)

	cols := make([]ir.SchemaNode, 0, len(ctx.Properties))
	for _, p := range ctx.Properties {
		nested, kind, isNested := r.nestedMarker(marker.Class, p)
		if !isNested {
			cols = append(cols, ir.Column{
				Name:     p.Name,
				Type:     p.ElementType.WithNullable(false),
				Nullable: p.ElementType.Nullable,
			})
			continue
		}
		sub, ok := r.schemaOf(nested, visiting)
		if !ok {
			return ir.Schema{}, false
		}
		if kind == ir.NodeKindGroup {
			cols = append(cols, ir.ColumnGroup{Name: p.Name, Columns: sub.Columns})
		} else {
			cols = append(cols, ir.FrameColumn{Name: p.Name, Columns: sub.Columns, Nullable: p.ElementType.Nullable})
		}
	}
	return ir.Schema{Columns: cols}, true
}

// Snapshot is a deterministic, serializable view of the registries.
type Snapshot struct {
	Tokens     []Entry       `json:"tokens"`
	Scopes     []Entry       `json:"scopes"`
	Associated []Association `json:"associated"`
	Generated  []string      `json:"generated"`
}

// Entry is one registered property list.
type Entry struct {
	ID         string              `json:"id"`
	Properties []ir.SchemaProperty `json:"properties"`
}

// Association lists the scopes synthesized for one root token.
type Association struct {
	Root   string       `json:"root"`
	Scopes []ir.TypeRef `json:"scopes"`
}

// Snapshot returns the registries sorted by identifier.
func (r *Registries) Snapshot() Snapshot {
	snap := Snapshot{
		Tokens:     entries(r.tokens),
		Scopes:     entries(r.scopes),
		Associated: []Association{},
		Generated:  []string{},
	}
	for _, root := range sortedIDs(r.associated) {
		snap.Associated = append(snap.Associated, Association{Root: root.String(), Scopes: slices.Clone(r.associated[root])})
	}
	for _, id := range sortedIDs(r.generated) {
		snap.Generated = append(snap.Generated, id.String())
	}
	return snap
}

func entries(m map[ir.ClassID]ir.SchemaContext) []Entry {
	out := make([]Entry, 0, len(m))
	for _, id := range sortedIDs(m) {
		out = append(out, Entry{ID: id.String(), Properties: slices.Clone(m[id].Properties)})
	}
	return out
}

func sortedIDs[V any](m map[ir.ClassID]V) []ir.ClassID {
	ids := make([]ir.ClassID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ir.ClassID) int {
		return strings.Compare(a.String(), b.String())
	})
	return ids
}
