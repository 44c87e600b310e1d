// Package project converts Go values into generic value trees.
//
// Base cases (scalars, sequences, string-keyed maps, pointers as options,
// fixed tuples, UUIDs) have typed helpers that never fail. User-defined
// structs and registered sums go through a Registry, which derives a plan
// once per type from its reflected descriptor and caches it. Types that
// implement Projector (hand-written or generated by package codegen)
// project through their own method.
package project

import (
	"github.com/google/uuid"

	"github.com/roach88/generic/internal/value"
)

// Projector is implemented by types that know their own projection.
type Projector interface {
	GenericValue() value.Value
}

// Signed is every signed integer kind, machine word included.
type Signed interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int
}

// Unsigned is every unsigned integer kind, machine word included.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint | ~uintptr
}

// Unit projects the empty value.
func Unit() value.Value {
	return value.Unit{}
}

// Bool projects a boolean.
func Bool(b bool) value.Value {
	return value.Bool(b)
}

// String projects text.
func String[S ~string](s S) value.Value {
	return value.String(s)
}

// Rune projects a single character as one-character text. Invalid code
// points render as U+FFFD.
func Rune(r rune) value.Value {
	return value.String(string(r))
}

// Int widens a signed integer to I64.
func Int[T Signed](n T) value.Value {
	return value.I64(int64(n))
}

// Uint widens an unsigned integer to U64.
func Uint[T Unsigned](n T) value.Value {
	return value.U64(uint64(n))
}

// Float widens a float to F64.
func Float[T ~float32 | ~float64](f T) value.Value {
	return value.F64(float64(f))
}

// Int128 projects a 128-bit signed integer.
func Int128(n value.Int128) value.Value {
	return value.I128(n)
}

// Uint128 projects a 128-bit unsigned integer.
func Uint128(n value.Uint128) value.Value {
	return value.U128(n)
}

// UUID projects an identifier as its canonical 36-character text.
func UUID(id uuid.UUID) value.Value {
	return value.String(id.String())
}

// Slice projects each element in order. A nil slice is an empty Vec.
func Slice[T any](xs []T, elem func(T) value.Value) value.Value {
	out := make(value.Vec, len(xs))
	for i, x := range xs {
		out[i] = elem(x)
	}
	return out
}

// Map projects each value; keys are copied verbatim.
func Map[K ~string, V any](m map[K]V, elem func(V) value.Value) value.Value {
	out := make(value.Map, len(m))
	for k, v := range m {
		out[string(k)] = elem(v)
	}
	return out
}

// Option projects a nil pointer as None and anything else as Some.
func Option[T any](p *T, elem func(T) value.Value) value.Value {
	if p == nil {
		return value.None()
	}
	return value.Some(elem(*p))
}

// Of projects a value through its own GenericValue method.
func Of[T Projector](x T) value.Value {
	return x.GenericValue()
}
