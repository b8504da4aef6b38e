package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/framesynth/internal/ir"
)

// schemaFromBytes decodes fuzz input into a schema of at most three levels.
// Sibling names are unique; nested names collide freely across levels.
func schemaFromBytes(data []byte) ir.Schema {
	pos := 0
	next := func() byte {
		if pos >= len(data) {
			return 0
		}
		b := data[pos]
		pos++
		return b
	}
	stems := []string{"g", "G", "9", "c1Scope"}

	var build func(depth int) []ir.SchemaNode
	build = func(depth int) []ir.SchemaNode {
		n := int(next() % 4)
		cols := make([]ir.SchemaNode, 0, n)
		for i := range n {
			name := fmt.Sprintf("%s%d", stems[next()%4], i)
			kind := next() % 3
			switch {
			case kind == 0 || depth >= 3:
				cols = append(cols, leaf(name, "Int"))
			case kind == 1:
				cols = append(cols, group(name, build(depth+1)...))
			default:
				cols = append(cols, frame(name, next()%2 == 0, build(depth+1)...))
			}
		}
		return cols
	}
	return ir.NewSchema(build(0)...)
}

func countNested(cols []ir.SchemaNode) int {
	n := 0
	for _, c := range cols {
		if children, ok := ir.Children(c); ok {
			n += 1 + countNested(children)
		}
	}
	return n
}

func FuzzNamerUniqueness(f *testing.F) {
	f.Add([]byte{3, 0, 1, 1, 2, 0, 0, 1, 1, 2, 0, 1, 1})
	f.Add([]byte{2, 1, 1, 1, 1, 0, 2, 2, 0, 1, 0, 0})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		schema := schemaFromBytes(data)
		suffix := uint32(0)
		if len(data) > 0 {
			suffix = uint32(data[len(data)-1] % 3)
		}
		p, _ := newTestPass(t, withDisambiguator(constantDisambiguator(suffix)))

		marker, types, err := p.MaterializeNamed(intoCall("fuzz"), schema, "Root")
		require.NoError(t, err)

		snap := p.Registries().Snapshot()
		assertUniqueIDs(t, snap)
		assert.Len(t, snap.Tokens, 1+countNested(schema.Columns))
		assert.Len(t, types, len(snap.Scopes))

		rebuilt, ok := p.Registries().SchemaOf(marker)
		require.True(t, ok)
		assert.Equal(t, ir.MustSchemaHash(schema), ir.MustSchemaHash(rebuilt))
	})
}
