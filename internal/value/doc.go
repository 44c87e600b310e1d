// Package value provides the generic value tree: a closed, dynamically-typed
// representation that any projectable Go value can be converted into.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import value; value imports nothing internal.
//
// Key design constraints:
//   - The union is sealed: only the node types declared here implement Value
//   - Numbers are widened to exactly five buckets (I64, I128, U64, U128, F64)
//   - Trees are immutable snapshots with no sharing and no back-references
//   - Map and Struct keys carry no order; renderings sort them canonically
package value
