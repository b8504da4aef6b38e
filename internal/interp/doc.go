// Package interp maps operation identities to schema interpreters.
//
// The Registry is a closed table built once at startup: lookup is a map
// access, never discovery. A callee with no registered Interpreter is a
// normal outcome, not an error.
//
// Interpreters work on schema shape only. They receive the call's
// arguments and, for chained calls, the receiver's schema, and return the
// resulting ir.Schema (or, for operations that do not produce a frame,
// some other value).
package interp
