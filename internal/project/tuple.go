package project

import "github.com/roach88/generic/internal/value"

// Tuple2 is a 2-element tuple. Reflection projects it as a Tuple.
type Tuple2[A, B any] struct {
	V0 A
	V1 B
}

// Tuple3 is a 3-element tuple.
type Tuple3[A, B, C any] struct {
	V0 A
	V1 B
	V2 C
}

// Tuple4 is a 4-element tuple.
type Tuple4[A, B, C, D any] struct {
	V0 A
	V1 B
	V2 C
	V3 D
}

func (Tuple2[A, B]) TupleArity() int       { return 2 }
func (Tuple3[A, B, C]) TupleArity() int    { return 3 }
func (Tuple4[A, B, C, D]) TupleArity() int { return 4 }

// Pair projects a 2-tuple from projected elements.
func Pair(a, b value.Value) value.Value {
	return value.Tuple{a, b}
}

// Triple projects a 3-tuple from projected elements.
func Triple(a, b, c value.Value) value.Value {
	return value.Tuple{a, b, c}
}

// Quad projects a 4-tuple from projected elements.
func Quad(a, b, c, d value.Value) value.Value {
	return value.Tuple{a, b, c, d}
}
