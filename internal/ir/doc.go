// Package ir provides the schema value model and call representation for framesynth.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the value model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Schemas are immutable values; every helper returns a new Schema
//   - Column order within one sequence is significant and preserved
//   - ClassID is comparable and is the key type of every registry
//   - TypeRef marshals to its textual form (e.g. "DataFrame<Token1>?")
//   - NO float types in call arguments - use int64 for numbers
//   - All JSON tags use snake_case
package ir
