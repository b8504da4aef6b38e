// Package engine implements the framesynth analysis pass.
//
// A Pass turns refined calls into synthesized marker types and the property
// lists that make them resolvable by name.
//
// ARCHITECTURE:
//
// Per-Call Pipeline:
//  1. Analyze recognizes a DataFrame<M> return type whose marker M was
//     produced by the pass (provenance tag, or the Token naming convention)
//  2. The callee's interpreter (internal/interp) computes the ir.Schema
//  3. MaterializeRoot validates the schema, then walks it depth-first,
//     allocating a token and a scope for every node with children
//  4. Property lists are registered under both identifiers, and the scope
//     list is published as the root token's associated scopes
//
// Chained calls read their receiver's schema back out of the Registries, so
// Run processes receivers before the calls invoked on them.
//
// CRITICAL PATTERNS:
//
// Single Owner:
// Registries, naming state and the Reporter belong to exactly one Pass.
// Nothing is global; concurrent passes share no mutable state.
//
// Deterministic Naming:
// Children are materialized in declaration order. Identifiers depend only
// on (call, enclosing token, column name), so materializing the same root
// again yields the same identifiers and overwrites entries with equal
// values.
//
// Failure Classes:
// Calls that do not apply are skipped silently. Interpretation failures are
// reported once through diag.Reporter and the pass continues. Malformed
// schemas and conflicting registry writes are InternalErrors that abort the
// pass.
package engine
