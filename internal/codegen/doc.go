// Package codegen generates projection code for Go types.
//
// Types are read from type-checked packages (golang.org/x/tools/go/packages)
// and described with the same rules as descriptor.Reflect: struct fields in
// declaration order, the generic struct tag, and the positional marker.
// Sealed sums are interfaces marked with a directive:
//
//	//generic:sum
//	type Shape interface{ isShape() }
//
// Every named type of the package implementing Shape is a variant, in
// declaration order. Structs are selected with //generic:derive or by name.
//
// Each descriptor is derived before anything is emitted, so shapes without
// a projection fail generation instead of failing at run time. The output,
// <package>_generic.go, holds a GenericValue method per struct and a
// <Sum>GenericValue function per sum.
package codegen
