package engine

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/framesynth/internal/ir"
)

// Disambiguator computes the numeric suffix of a nested marker name from
// the enclosing call's short callee name and the enclosing token.
//
// Implementations must be deterministic: the same inputs always yield the
// same number within one pass.
type Disambiguator interface {
	Disambiguate(callee string, enclosing ir.ClassID) uint32
}

// HashDisambiguator derives the suffix from xxhash64 of the callee name and
// the enclosing token, folded to 32 bits. It is stateless.
type HashDisambiguator struct{}

// Disambiguate implements Disambiguator.
func (HashDisambiguator) Disambiguate(callee string, enclosing ir.ClassID) uint32 {
	h := xxhash.New()
	_, _ = h.WriteString(callee)
	_, _ = h.Write([]byte{0x00})
	_, _ = h.WriteString(enclosing.String())
	sum := h.Sum64()
	return uint32(sum>>32) ^ uint32(sum)
}

// SequenceDisambiguator numbers distinct (callee, enclosing) pairs 1, 2, 3,
// ... in first-seen order. Names stay short and predictable, which suits
// tests and golden files.
//
// Thread-safety: SequenceDisambiguator is safe for concurrent use via
// internal mutex, but sharing one across passes makes numbering depend on
// pass interleaving.
type SequenceDisambiguator struct {
	mu   sync.Mutex
	seen map[string]uint32
}

// NewSequenceDisambiguator creates a SequenceDisambiguator.
func NewSequenceDisambiguator() *SequenceDisambiguator {
	return &SequenceDisambiguator{seen: make(map[string]uint32)}
}

// Disambiguate implements Disambiguator.
func (d *SequenceDisambiguator) Disambiguate(callee string, enclosing ir.ClassID) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := callee + "\x00" + enclosing.String()
	if n, ok := d.seen[key]; ok {
		return n
	}
	n := uint32(len(d.seen) + 1)
	d.seen[key] = n
	return n
}

// namer allocates token and scope identifiers for one pass.
//
// Every identifier is recorded with the key it was allocated for.
// Allocating again for the same key returns the same identifier; a
// different key that derives the same name gets the next free "_2", "_3",
// ... suffix. Identifiers are therefore unique within the pass no matter
// what the disambiguator returns.
type namer struct {
	pkg    string
	disamb Disambiguator
	title  cases.Caser

	owner map[ir.ClassID]string
	byKey map[string]ir.ClassID
	roots map[ir.ClassID]bool
}

func newNamer(pkg string, disamb Disambiguator) *namer {
	return &namer{
		pkg:    pkg,
		disamb: disamb,
		title:  cases.Title(language.Und, cases.NoLower),
		owner:  make(map[ir.ClassID]string),
		byKey:  make(map[string]ir.ClassID),
		roots:  make(map[ir.ClassID]bool),
	}
}

// reserveRoot claims a root token. Root tokens may be shared by several
// calls but never by a nested token or scope.
func (n *namer) reserveRoot(id ir.ClassID) error {
	if n.roots[id] {
		return nil
	}
	key := "root\x00" + id.String()
	if _, taken := n.owner[id]; taken {
		return &InternalError{
			Code:    ErrCodeConflictingState,
			Message: fmt.Sprintf("root token %s is already allocated to a nested schema", id),
		}
	}
	n.owner[id] = key
	n.byKey[key] = id
	n.roots[id] = true
	return nil
}

// rootToken allocates a root token named after suggested in the pass
// package. The same (call, suggested) pair always yields the same token.
func (n *namer) rootToken(callID, suggested string) ir.ClassID {
	id := n.allocate("named\x00"+callID+"\x00"+suggested, ir.ClassID{Package: n.pkg, Name: suggested})
	n.roots[id] = true
	return id
}

// nestedToken allocates the token of a column group or frame column.
func (n *namer) nestedToken(call *ir.Call, enclosing ir.ClassID, column string) ir.ClassID {
	name := markerName(n.title, column) + strconv.FormatUint(uint64(n.disamb.Disambiguate(call.CalleeName(), enclosing)), 10)
	key := "nested\x00" + call.ID + "\x00" + enclosing.String() + "\x00" + column
	return n.allocate(key, enclosing.Sibling(name))
}

// scope allocates the scope identifier of a token.
func (n *namer) scope(token ir.ClassID) ir.ClassID {
	return n.allocate("scope\x00"+token.String(), token.Sibling(token.Name+"Scope"))
}

func (n *namer) allocate(key string, base ir.ClassID) ir.ClassID {
	if id, ok := n.byKey[key]; ok {
		return id
	}
	id := base
	for i := 2; ; i++ {
		if _, taken := n.owner[id]; !taken {
			break
		}
		id = base.Sibling(base.Name + "_" + strconv.Itoa(i))
	}
	n.owner[id] = key
	n.byKey[key] = id
	return id
}

// markerName turns a column name into a type-name stem: title-cased, with
// characters that cannot appear in an identifier removed. A stem that would
// be empty or start with a digit gets a "Col" prefix.
func markerName(title cases.Caser, column string) string {
	var b strings.Builder
	for _, r := range title.String(column) {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	stem := b.String()
	if stem == "" || unicode.IsDigit([]rune(stem)[0]) {
		stem = "Col" + stem
	}
	return stem
}
