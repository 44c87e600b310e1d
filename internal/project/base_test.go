package project

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/generic/internal/value"
)

func TestNumericWidening(t *testing.T) {
	assert.Equal(t, value.U64(200), Uint(uint8(200)))
	assert.Equal(t, value.I64(-5), Int(int32(-5)))
	assert.Equal(t, value.I64(math.MinInt8), Int(int8(math.MinInt8)))
	assert.Equal(t, value.I64(math.MaxInt64), Int(int64(math.MaxInt64)))
	assert.Equal(t, value.U64(math.MaxUint64), Uint(uint64(math.MaxUint64)))
	assert.Equal(t, value.I64(-1), Int(-1), "machine-word int widens to I64")
	assert.Equal(t, value.U64(7), Uint(uint(7)), "machine-word uint widens to U64")
	assert.Equal(t, value.U64(9), Uint(uintptr(9)))
	assert.Equal(t, value.F64(1.5), Float(float32(1.5)))
	assert.Equal(t, value.F64(0.1), Float(0.1))

	top := value.Uint128{Hi: math.MaxUint64, Lo: math.MaxUint64}
	assert.Equal(t, value.U128(top), Uint128(top), "never narrowed")
	assert.Equal(t, value.I128(value.Int128FromInt64(-3)), Int128(value.Int128FromInt64(-3)))
}

type label string

func TestTextAndScalars(t *testing.T) {
	assert.Equal(t, value.Unit{}, Unit())
	assert.Equal(t, value.Bool(true), Bool(true))
	assert.Equal(t, value.String("s"), String("s"))
	assert.Equal(t, value.String("named"), String(label("named")))
	assert.Equal(t, value.String("x"), Rune('x'))
	assert.Equal(t, value.String("\u00e9"), Rune('\u00e9'))
	assert.Equal(t, value.String("\uFFFD"), Rune(-1))

	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, value.String("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), UUID(id))
}

func TestContainers(t *testing.T) {
	assert.Equal(t,
		value.Vec{value.I64(3), value.I64(1), value.I64(2)},
		Slice([]int{3, 1, 2}, Int[int]),
		"order preserved")
	assert.Equal(t, value.Vec{}, Slice[string](nil, String[string]))

	assert.Equal(t,
		value.Map{"a": value.U64(1), "b": value.U64(2)},
		Map(map[label]uint8{"a": 1, "b": 2}, Uint[uint8]))

	n := int16(4)
	assert.Equal(t, value.Some(value.I64(4)), Option(&n, Int[int16]))
	assert.Equal(t, value.None(), Option[int16](nil, Int[int16]))

	assert.Equal(t, value.Tuple{value.I64(1), value.String("x")}, Pair(Int(1), String("x")))
	assert.Equal(t, value.Tuple{Unit(), Unit(), Unit()}, Triple(Unit(), Unit(), Unit()))
	assert.Len(t, Quad(Unit(), Unit(), Unit(), Unit()), 4)
}

type celsius float64

func (c celsius) GenericValue() value.Value {
	return value.Map{"celsius": value.F64(c)}
}

func TestOf(t *testing.T) {
	assert.Equal(t, value.Map{"celsius": value.F64(21.5)}, Of(celsius(21.5)))
}

func TestTupleArity(t *testing.T) {
	assert.Equal(t, 2, Tuple2[int, int]{}.TupleArity())
	assert.Equal(t, 3, Tuple3[int, int, int]{}.TupleArity())
	assert.Equal(t, 4, Tuple4[int, int, int, int]{}.TupleArity())
}
