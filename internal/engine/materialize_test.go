package engine

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/framesynth/internal/ir"
)

// The grouped frame of `df.group { a and b }.into("c")` materialized with no
// external root marker under the name "Root".
func TestMaterializeGroupedRecord(t *testing.T) {
	p, _ := newTestPass(t)
	schema := ir.NewSchema(group("c", leaf("a", "String"), leaf("b", "Int")))

	marker, types, err := p.MaterializeNamed(intoCall("grouped"), schema, "Root")
	require.NoError(t, err)

	root := ir.ClassType(gen("Root"))
	c1 := ir.ClassType(gen("C1"))
	assert.Equal(t, "gen.Root", marker.String())

	rootCtx, ok := p.Registries().Token(gen("Root"))
	require.True(t, ok)
	want := []ir.SchemaProperty{{
		Marker:        root,
		Name:          "c",
		ElementType:   ir.DataRowOf(c1),
		ContainerType: ir.ColumnGroupOf(c1),
	}}
	assert.Empty(t, cmp.Diff(want, rootCtx.Properties))

	c1Scope, ok := p.Registries().Scope(gen("C1Scope"))
	require.True(t, ok)
	str := ir.MustParseTypeRef("String")
	num := ir.MustParseTypeRef("Int")
	wantNested := []ir.SchemaProperty{
		{Marker: c1, Name: "a", ElementType: str, ContainerType: ir.DataColumnOf(str)},
		{Marker: c1, Name: "b", ElementType: num, ContainerType: ir.DataColumnOf(num)},
	}
	assert.Empty(t, cmp.Diff(wantNested, c1Scope.Properties))

	// Associated scopes are self-inclusive and post-order.
	wantScopes := []ir.TypeRef{ir.ClassType(gen("C1Scope")), ir.ClassType(gen("RootScope"))}
	assert.Empty(t, cmp.Diff(wantScopes, types))
	assert.Empty(t, cmp.Diff(wantScopes, p.Registries().ScopesFor(gen("Root"))))

	assert.True(t, p.Registries().IsGenerated(gen("Root")))
	assert.True(t, p.Registries().IsGenerated(gen("C1")))
}

func TestMaterializeHashDisambiguator(t *testing.T) {
	p, _ := newTestPass(t, withDisambiguator(HashDisambiguator{}))
	schema := ir.NewSchema(group("c", leaf("a", "String")))

	_, _, err := p.MaterializeNamed(intoCall("grouped"), schema, "Root")
	require.NoError(t, err)

	suffix := HashDisambiguator{}.Disambiguate("into", gen("Root"))
	name := "C" + strconv.FormatUint(uint64(suffix), 10)
	_, ok := p.Registries().Token(gen(name))
	assert.True(t, ok, "nested token %s should be registered", name)
	_, ok = p.Registries().Scope(gen(name + "Scope"))
	assert.True(t, ok)
}

func TestMaterializeOrderPreserved(t *testing.T) {
	p, _ := newTestPass(t)
	schema := ir.NewSchema(
		leaf("z", "Int"),
		group("m", leaf("y", "Int"), leaf("b", "Int")),
		leaf("a", "Int"),
		frame("f", false, leaf("q", "Int")),
	)

	marker, err := mustRoot(t, p, schema)
	require.NoError(t, err)

	members, ok := p.Registries().Members(marker)
	require.True(t, ok)
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	assert.Equal(t, schema.Names(), names)

	nested, ok := p.Registries().Resolve(marker, "m")
	require.True(t, ok)
	inner, _ := nested.ElementType.Arg(0)
	innerMembers, _ := p.Registries().Members(inner)
	assert.Equal(t, "y", innerMembers[0].Name)
	assert.Equal(t, "b", innerMembers[1].Name)
}

func TestMaterializeFrameColumnTypes(t *testing.T) {
	p, _ := newTestPass(t)
	schema := ir.NewSchema(frame("orders", true, leaf("id", "Int")), leaf("n", "String?"))

	marker, err := mustRoot(t, p, schema)
	require.NoError(t, err)

	orders, ok := p.Registries().Resolve(marker, "orders")
	require.True(t, ok)
	assert.Equal(t, "org.jetbrains.kotlinx.dataframe.DataFrame<gen.Orders1>?", orders.ElementType.String())
	assert.Equal(t,
		"org.jetbrains.kotlinx.dataframe.DataColumn<org.jetbrains.kotlinx.dataframe.DataFrame<gen.Orders1>?>",
		orders.ContainerType.String())

	n, ok := p.Registries().Resolve(marker, "n")
	require.True(t, ok)
	assert.Equal(t, "kotlin.String?", n.ElementType.String())
	assert.Equal(t, "org.jetbrains.kotlinx.dataframe.DataColumn<kotlin.String?>", n.ContainerType.String())
}

func TestMaterializeIdempotent(t *testing.T) {
	p, _ := newTestPass(t)
	schema := ir.NewSchema(group("c", leaf("a", "String"), group("d", leaf("x", "Int"))), leaf("b", "Int"))
	call := intoCall("grouped")
	root := ir.ClassType(gen("Token1"))

	first, err := p.MaterializeRoot(call, schema, root)
	require.NoError(t, err)
	snap := p.Registries().Snapshot()

	second, err := p.MaterializeRoot(call, schema, root)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second))
	assert.Empty(t, cmp.Diff(snap, p.Registries().Snapshot()), "re-materialization must be a no-op")
}

func TestMaterializeRoundTripTwoLevels(t *testing.T) {
	p, _ := newTestPass(t)
	inner := group("inner", leaf("x", "Int"), leaf("y", "String"))
	schema := ir.NewSchema(group("outer", inner))

	marker, err := mustRoot(t, p, schema)
	require.NoError(t, err)

	outer, ok := p.Registries().Resolve(marker, "outer")
	require.True(t, ok)
	outerMarker, _ := outer.ElementType.Arg(0)
	outerCtx, ok := p.Registries().Token(outerMarker.Class)
	require.True(t, ok)
	require.Len(t, outerCtx.Properties, 1)

	innerProp := outerCtx.Properties[0]
	innerMarker, _ := innerProp.ElementType.Arg(0)
	assert.True(t, innerProp.ContainerType.Equal(ir.ColumnGroupOf(innerMarker)))

	innerCtx, ok := p.Registries().Token(innerMarker.Class)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, innerCtx.Names())

	rebuilt, ok := p.Registries().SchemaOf(marker)
	require.True(t, ok)
	assert.Equal(t, ir.MustSchemaHash(schema), ir.MustSchemaHash(rebuilt))
}

func TestMaterializeNameUniqueness(t *testing.T) {
	// Every group is named "g"; the constant disambiguator makes every
	// nested token derive the same name.
	p, _ := newTestPass(t, withDisambiguator(constantDisambiguator(7)))
	schema := ir.NewSchema(
		group("g", group("g", leaf("x", "Int"))),
		frame("G", false, group("g", leaf("y", "Int"))),
	)

	_, err := mustRoot(t, p, schema)
	require.NoError(t, err)

	assertUniqueIDs(t, p.Registries().Snapshot())
	_, ok := p.Registries().Token(gen("G7_2"))
	assert.True(t, ok, "collisions get a numeric suffix")
}

func TestMaterializeInvalidSchemaRegistersNothing(t *testing.T) {
	tests := []struct {
		name   string
		schema ir.Schema
	}{
		{"duplicate names", ir.NewSchema(leaf("a", "Int"), leaf("a", "String"))},
		{"duplicate nested names", ir.NewSchema(group("c", leaf("a", "Int"), leaf("a", "Int")))},
		{"missing nested schema", ir.NewSchema(ir.ColumnGroup{Name: "c"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, collector := newTestPass(t)

			_, err := p.MaterializeRoot(intoCall("x"), tt.schema, ir.ClassType(gen("Token1")))
			require.Error(t, err)
			assert.True(t, IsInvalidSchemaError(err))

			snap := p.Registries().Snapshot()
			assert.Empty(t, snap.Tokens)
			assert.Empty(t, snap.Scopes)
			assert.Empty(t, snap.Associated)
			assert.Zero(t, collector.Len(), "internal errors are not diagnostics")
		})
	}
}

func TestMaterializeConflictRegistersNothing(t *testing.T) {
	p, _ := newTestPass(t)
	root := ir.ClassType(gen("Token1"))

	_, err := p.MaterializeRoot(intoCall("a"), ir.NewSchema(leaf("a", "Int")), root)
	require.NoError(t, err)
	before := p.Registries().Snapshot()

	_, err = p.MaterializeRoot(intoCall("a"), ir.NewSchema(leaf("a", "String"), group("g", leaf("x", "Int"))), root)
	require.Error(t, err)
	assert.True(t, IsConflictError(err))

	var ie *InternalError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "a", ie.CallID)
	assert.Empty(t, cmp.Diff(before, p.Registries().Snapshot()))
}

func TestMaterializeRootBelongsToOneCall(t *testing.T) {
	p, _ := newTestPass(t)
	schema := ir.NewSchema(group("c", leaf("a", "Int")))
	root := ir.ClassType(gen("Token1"))

	_, err := p.MaterializeRoot(intoCall("one"), schema, root)
	require.NoError(t, err)

	_, err = p.MaterializeRoot(intoCall("two"), schema, root)
	assert.True(t, IsConflictError(err))
}

func TestMaterializeRootMarkerMustBeClass(t *testing.T) {
	p, _ := newTestPass(t)
	_, err := p.MaterializeRoot(intoCall("a"), ir.NewSchema(), ir.TypeVariable("T"))
	assert.True(t, IsInvalidSchemaError(err))
}

func TestMaterializePanicsWithoutName(t *testing.T) {
	p, _ := newTestPass(t)
	m := p.newMaterializer(intoCall("a"))
	assert.Panics(t, func() {
		_, _ = m.materialize(ir.NewSchema(), nil, tokenRequest{})
	})
}

func mustRoot(t *testing.T, p *Pass, schema ir.Schema) (ir.TypeRef, error) {
	t.Helper()
	root := ir.ClassType(gen("Token1"))
	_, err := p.MaterializeRoot(intoCall("call"), schema, root)
	return root, err
}

func assertUniqueIDs(t *testing.T, snap Snapshot) {
	t.Helper()
	seen := make(map[string]bool)
	for _, entries := range [][]Entry{snap.Tokens, snap.Scopes} {
		for _, e := range entries {
			assert.False(t, seen[e.ID], "identifier %s allocated twice", e.ID)
			seen[e.ID] = true

			names := make(map[string]bool)
			for _, prop := range e.Properties {
				assert.False(t, names[prop.Name], "property %s repeated in %s", prop.Name, e.ID)
				names[prop.Name] = true
			}
		}
	}
}
