// Package store provides SQLite-backed storage for analysis traces.
//
// A trace records what one pass synthesized and reported:
//   - Passes: one row per pass, keyed by the pass ID
//   - Scopes: the associated scopes of every synthesized root marker, with
//     their property lists
//   - Diagnostics: interpretation errors reported during the pass
//
// The store is an audit log. Passes never read it back to skip work.
//
// # Ordering
//
// All list queries are deterministic: passes by created_at then id, scopes
// by root marker then ordinal, diagnostics in report order. Text columns
// compare with COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Property lists are stored as RFC 8785 canonical JSON (see ir.MarshalCanonical).
package store
