// Package harness runs conformance scenarios against the analysis pass.
//
// A scenario is a YAML file naming a CUE program and a list of assertions
// about what one pass over that program synthesizes:
//
//	name: grouped_record
//	description: group{a and b}.into("c") yields a nested marker
//	program: programs/grouped.cue
//	assertions:
//	  - type: status
//	    call: grouped
//	    status: synthesized
//	  - type: members
//	    call: grouped
//	    path: [c]
//	    names: [a, b]
//
// Each scenario runs in a fresh pass with sequence-numbered nested names
// (unless the scenario asks for hash naming) and a fixed pass ID, so the
// registry snapshot is deterministic and can be compared against a golden
// file. The pass is also recorded in an in-memory trace store, which the
// recorded_scopes assertion reads back.
package harness
