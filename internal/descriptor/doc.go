// Package descriptor defines structural descriptors: the shape of a type
// (named fields, positional fields, no fields, or a list of variants) with
// everything else about the type stripped away.
//
// Descriptors are produced outside the projection engine, by Go reflection
// (Reflect), by CUE declarations (package compiler) or by go/types (package
// codegen), and consumed by package derive. A descriptor is treated as
// authoritative and exhaustive at derivation time.
//
// Field types are optional type references (see ParseTypeRef). Derivation
// only needs field names and positions; references let a catalog resolve
// nested types and let documents be projected with the declared widths.
package descriptor
