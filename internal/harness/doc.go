// Package harness runs conformance scenarios for document projection.
//
// A scenario compiles CUE type declarations, stores them in a fresh
// in-memory descriptor store, derives the requested type from the stored
// descriptors and projects a YAML document through the plan. The tree is
// stored as a snapshot and read back before it is checked, so every
// scenario also exercises the store round trip.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schemas:
//	  - path/to/types.cue
//	type: Test
//	document:
//	  a: x
//	  beta: [y]
//	assertions:
//	  - type: kind
//	    path: $.beta[0]
//	    kind: tuple_struct
//	  - type: equals
//	    path: $.a
//	    value: '"x"'
//
// A scenario that must fail names the failure instead of assertions:
//
//	expect:
//	  error: INVALID_DOCUMENT
//	  path: $.beta[0]
//
// Passing scenarios can be compared against golden files with
// RunWithGolden.
package harness
