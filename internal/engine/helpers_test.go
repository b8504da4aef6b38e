package engine

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/roach88/framesynth/internal/diag"
	"github.com/roach88/framesynth/internal/interp"
	"github.com/roach88/framesynth/internal/ir"
	"github.com/roach88/framesynth/internal/testutil"
)

const testPkg = "gen"

// newTestPass creates a pass with sequence-numbered names in package "gen".
func newTestPass(t *testing.T, opts ...func(*Options)) (*Pass, *diag.Collector) {
	t.Helper()
	collector := diag.NewCollector(diag.OncePerCall())
	o := Options{
		Reporter:      collector,
		Disambiguator: NewSequenceDisambiguator(),
		Logger:        zaptest.NewLogger(t),
		IDGenerator:   testutil.NewFixedIDGenerator("pass-1"),
		TokenPackage:  testPkg,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return NewPass(o), collector
}

func withInterpreters(r *interp.Registry) func(*Options) {
	return func(o *Options) { o.Interpreters = r }
}

func withDisambiguator(d Disambiguator) func(*Options) {
	return func(o *Options) { o.Disambiguator = d }
}

func gen(name string) ir.ClassID {
	return ir.ClassID{Package: testPkg, Name: name}
}

// leaf builds a column the way schemas decode it: a trailing "?" marks the
// column nullable.
func leaf(name, typ string) ir.Column {
	t := ir.MustParseTypeRef(typ)
	return ir.Column{Name: name, Type: t.WithNullable(false), Nullable: t.Nullable}
}

func group(name string, cols ...ir.SchemaNode) ir.ColumnGroup {
	if cols == nil {
		cols = []ir.SchemaNode{}
	}
	return ir.ColumnGroup{Name: name, Columns: cols}
}

func frame(name string, nullable bool, cols ...ir.SchemaNode) ir.FrameColumn {
	if cols == nil {
		cols = []ir.SchemaNode{}
	}
	return ir.FrameColumn{Name: name, Columns: cols, Nullable: nullable}
}

func intoCall(id string) *ir.Call {
	return &ir.Call{ID: id, Callee: interp.CalleeGroupInto}
}

// constantDisambiguator forces every nested name of the same column to
// collide.
type constantDisambiguator uint32

func (c constantDisambiguator) Disambiguate(string, ir.ClassID) uint32 { return uint32(c) }
