package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/framesynth/internal/ir"
)

func TestResolveMisses(t *testing.T) {
	p, _ := newTestPass(t)
	marker, err := mustRoot(t, p, ir.NewSchema(leaf("a", "Int"), group("c", leaf("x", "Int"))))
	require.NoError(t, err)
	reg := p.Registries()

	_, ok := reg.Resolve(marker)
	assert.False(t, ok, "empty path")
	_, ok = reg.Resolve(marker, "missing")
	assert.False(t, ok)
	_, ok = reg.Resolve(marker, "a", "x")
	assert.False(t, ok, "leaf columns have no members")
	_, ok = reg.Resolve(ir.ClassType(gen("Unknown")), "a")
	assert.False(t, ok)
	_, ok = reg.Resolve(marker, "c", "x")
	assert.True(t, ok)
}

func TestMembersUnknownMarker(t *testing.T) {
	reg := NewRegistries()
	_, ok := reg.Members(ir.TypeVariable("T"))
	assert.False(t, ok)
	_, ok = reg.Members(ir.ClassType(gen("Token1")))
	assert.False(t, ok)
	_, ok = reg.SchemaOf(ir.ClassType(gen("Token1")))
	assert.False(t, ok)
}

func TestScopesForReturnsCopy(t *testing.T) {
	p, _ := newTestPass(t)
	_, err := mustRoot(t, p, ir.NewSchema(group("c", leaf("x", "Int"))))
	require.NoError(t, err)

	scopes := p.Registries().ScopesFor(gen("Token1"))
	require.Len(t, scopes, 2)
	scopes[0] = ir.ClassType(gen("Mutated"))
	assert.Equal(t, "gen.C1Scope", p.Registries().ScopesFor(gen("Token1"))[0].String())
	assert.Nil(t, p.Registries().ScopesFor(gen("Unknown")))
}

func TestSchemaOfFrameColumns(t *testing.T) {
	p, _ := newTestPass(t)
	schema := ir.NewSchema(
		frame("orders", true, leaf("id", "Int"), group("price", leaf("amount", "Long"))),
		leaf("note", "String?"),
	)
	marker, err := mustRoot(t, p, schema)
	require.NoError(t, err)

	rebuilt, ok := p.Registries().SchemaOf(marker)
	require.True(t, ok)
	assert.Equal(t, schema.ToIR(), rebuilt.ToIR())
}

func TestLeafOfNestedTypeStaysLeaf(t *testing.T) {
	p, _ := newTestPass(t)
	marker, err := mustRoot(t, p, ir.NewSchema(group("c", leaf("a", "Int"))))
	require.NoError(t, err)
	reg := p.Registries()
	nested, ok := reg.NestedAt(marker, "c")
	require.True(t, ok)

	schema := ir.NewSchema(
		ir.Column{Name: "row", Type: ir.DataRowOf(nested)},
		ir.Column{Name: "rows", Type: ir.DataFrameOf(nested)},
	)
	other := ir.ClassType(gen("Token2"))
	_, err = p.MaterializeRoot(intoCall("other"), schema, other)
	require.NoError(t, err)

	rebuilt, ok := reg.SchemaOf(other)
	require.True(t, ok)
	assert.Equal(t, schema.ToIR(), rebuilt.ToIR())

	_, ok = reg.NestedAt(other, "row")
	assert.False(t, ok)
	_, ok = reg.Resolve(other, "row", "a")
	assert.False(t, ok, "leaf columns have no members")
}

func TestPropertyKindConflict(t *testing.T) {
	p, _ := newTestPass(t)
	marker, err := mustRoot(t, p, ir.NewSchema(group("c", leaf("a", "Int"))))
	require.NoError(t, err)
	nested, ok := p.Registries().NestedAt(marker, "c")
	require.True(t, ok)
	before := p.Registries().Snapshot()

	// Same property types as the group, but declared as a leaf.
	leafOnly := ir.NewSchema(ir.Column{Name: "c", Type: ir.DataRowOf(nested)})
	_, err = p.MaterializeRoot(intoCall("grouped"), leafOnly, marker)
	assert.True(t, IsConflictError(err))
	assert.Equal(t, before, p.Registries().Snapshot())
}

func TestNestedAt(t *testing.T) {
	p, _ := newTestPass(t)
	marker, err := mustRoot(t, p, ir.NewSchema(group("c", frame("f", false, leaf("x", "Int"))), leaf("a", "Int")))
	require.NoError(t, err)
	reg := p.Registries()

	f, ok := reg.NestedAt(marker, "c", "f")
	require.True(t, ok)
	members, ok := reg.Members(f)
	require.True(t, ok)
	assert.Equal(t, "x", members[0].Name)

	_, ok = reg.NestedAt(marker, "a")
	assert.False(t, ok)
	_, ok = reg.NestedAt(marker)
	assert.False(t, ok)
	_, ok = reg.NestedAt(marker, "missing", "f")
	assert.False(t, ok)
}

func TestSnapshotSortedAndSerializable(t *testing.T) {
	p, _ := newTestPass(t)
	_, _, err := p.MaterializeNamed(intoCall("x"), ir.NewSchema(group("z", leaf("a", "Int")), group("b", leaf("a", "Int"))), "Root")
	require.NoError(t, err)

	snap := p.Registries().Snapshot()
	ids := make([]string, len(snap.Tokens))
	for i, e := range snap.Tokens {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"gen.B1", "gen.Root", "gen.Z1"}, ids)
	assert.Equal(t, []string{"gen.B1", "gen.Root", "gen.Z1"}, snap.Generated)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"root":"gen.Root"`)
}
