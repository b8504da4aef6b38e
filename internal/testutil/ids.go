package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator generates the same pass ID every time.
//
// This enables deterministic test execution and golden snapshot comparison:
// the same scenario with the same FixedIDGenerator produces byte-identical
// snapshots.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a new fixed pass ID generator.
// If id is empty, Generate() returns "test-pass-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-pass-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed pass ID.
//
// Implements engine.IDGenerator interface.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

// SequenceIDGenerator generates "<prefix>-1", "<prefix>-2", ... in order.
//
// Thread-safety: SequenceIDGenerator is safe for concurrent use via internal mutex.
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequenceIDGenerator creates a generator whose first ID is "<prefix>-1".
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate returns the next ID in sequence.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}
