// Package diag collects interpretation diagnostics for an analysis pass.
//
// A Reporter is passed explicitly to every stage that can fail on behalf of
// a call. It is never global state: each pass owns its own Reporter, so
// concurrent passes never observe each other's diagnostics.
//
// Implementations:
//   - Collector records diagnostics, optionally at most one per call
//   - NewDiscard tracks which calls failed but records nothing, for
//     speculative passes whose diagnostics must stay invisible
//   - WithLogger decorates another Reporter and logs each report with zap
package diag
