package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/framesynth/internal/ir"
)

func TestMarkerName(t *testing.T) {
	title := cases.Title(language.Und, cases.NoLower)
	tests := []struct {
		column string
		want   string
	}{
		{"c", "C"},
		{"userId", "UserId"},
		{"first name", "FirstName"},
		{"ünits", "Ünits"},
		{"9", "Col9"},
		{"$", "Col"},
		{"", "Col"},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.want, markerName(title, tt.column))
		})
	}
}

func TestHashDisambiguatorDeterministic(t *testing.T) {
	d := HashDisambiguator{}
	a := d.Disambiguate("into", gen("Root"))
	assert.Equal(t, a, d.Disambiguate("into", gen("Root")))
	assert.NotEqual(t, a, d.Disambiguate("into", gen("Other")))
	assert.NotEqual(t, a, d.Disambiguate("add", gen("Root")))
}

func TestSequenceDisambiguator(t *testing.T) {
	d := NewSequenceDisambiguator()
	assert.Equal(t, uint32(1), d.Disambiguate("into", gen("Root")))
	assert.Equal(t, uint32(2), d.Disambiguate("into", gen("C1")))
	assert.Equal(t, uint32(1), d.Disambiguate("into", gen("Root")))
	assert.Equal(t, uint32(3), d.Disambiguate("add", gen("Root")))
}

func TestNamerStableKeys(t *testing.T) {
	n := newNamer(testPkg, NewSequenceDisambiguator())
	call := intoCall("x")

	first := n.nestedToken(call, gen("Root"), "c")
	assert.Equal(t, gen("C1"), first)
	assert.Equal(t, first, n.nestedToken(call, gen("Root"), "c"))
	assert.Equal(t, gen("C1Scope"), n.scope(first))
	assert.Equal(t, n.scope(first), n.scope(first))
}

func TestNamerCollisionSuffix(t *testing.T) {
	n := newNamer(testPkg, constantDisambiguator(0))
	call := intoCall("x")

	assert.Equal(t, gen("C0"), n.nestedToken(call, gen("Root"), "c"))
	assert.Equal(t, gen("C0_2"), n.nestedToken(call, gen("Root"), "C"))
	assert.Equal(t, gen("C0_3"), n.nestedToken(intoCall("y"), gen("Root"), "c"))
}

func TestNamerScopeNeverShadowsToken(t *testing.T) {
	n := newNamer(testPkg, constantDisambiguator(1))
	call := intoCall("x")

	// A root token named C1Scope takes the name the scope of C1 would get.
	token := n.rootToken("x", "C1Scope")
	nested := n.nestedToken(call, gen("Root"), "c")
	scope := n.scope(nested)
	assert.Equal(t, gen("C1Scope"), token)
	assert.Equal(t, gen("C1Scope_2"), scope)
}

func TestNamerRootTokens(t *testing.T) {
	n := newNamer(testPkg, constantDisambiguator(1))

	a := n.rootToken("a", "Root")
	assert.Equal(t, gen("Root"), a)
	assert.Equal(t, a, n.rootToken("a", "Root"))
	assert.Equal(t, gen("Root_2"), n.rootToken("b", "Root"))

	require.NoError(t, n.reserveRoot(a), "root tokens may be shared")
	require.NoError(t, n.reserveRoot(gen("Token1")))
	require.NoError(t, n.reserveRoot(gen("Token1")))
}

func TestNamerReserveRootConflict(t *testing.T) {
	n := newNamer(testPkg, constantDisambiguator(1))
	nested := n.nestedToken(intoCall("x"), gen("Root"), "c")

	err := n.reserveRoot(nested)
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestNestedTokensLiveBesideTheirParent(t *testing.T) {
	n := newNamer(testPkg, constantDisambiguator(4))
	parent := ir.ClassID{Package: "org.example", Name: "Token1"}

	got := n.nestedToken(intoCall("x"), parent, "address")
	assert.Equal(t, ir.ClassID{Package: "org.example", Name: "Address4"}, got)
}
