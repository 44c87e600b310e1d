package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompactRendering(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Unit{}, "()"},
		{Bool(false), "false"},
		{String("a\"b"), `"a\"b"`},
		{I64(-5), "-5i64"},
		{U64(200), "200u64"},
		{F64(1.5), "1.5f64"},
		{I128(Int128FromInt64(-2)), "-2i128"},
		{U128(Uint128{Hi: 1}), "18446744073709551616u128"},
		{None(), "None"},
		{Some(I64(1)), "Some(1i64)"},
		{Tuple{I64(1), String("x")}, `(1i64, "x")`},
		{Vec{}, "[]"},
		{Map{"b": I64(2), "a": I64(1)}, `{"a": 1i64, "b": 2i64}`},
		{Struct{TypeName: "Test", Data: map[string]Value{"b": String("y"), "a": String("x")}}, `Test {a: "x", b: "y"}`},
		{TupleStruct{TypeName: "Beta", Data: []Value{String("test")}}, `Beta("test")`},
		{TupleVariant{TypeName: "Alpha", VariantName: "One", Data: []Value{String("x")}}, `Alpha::One("x")`},
		{StructVariant{TypeName: "Alpha", VariantName: "Four", Data: map[string]Value{"x": I64(1)}}, `Alpha::Four {x: 1i64}`},
		{UnitVariant{TypeName: "Alpha", VariantName: "Two"}, "Alpha::Two"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.String())
	}
}

func TestPrettyRendering(t *testing.T) {
	v := Struct{
		TypeName: "Test",
		Data: map[string]Value{
			"b": Vec{I64(1), I64(2)},
			"a": String("x"),
		},
	}

	want := "Test {\n" +
		"    a: \"x\",\n" +
		"    b: [\n" +
		"        1i64,\n" +
		"        2i64,\n" +
		"    ],\n" +
		"}"
	assert.Equal(t, want, Pretty(v))
}

func TestPrettyScalarsMatchCompact(t *testing.T) {
	assert.Equal(t, "Alpha::Two", Pretty(UnitVariant{TypeName: "Alpha", VariantName: "Two"}))
	assert.Equal(t, "Beta()", Pretty(TupleStruct{TypeName: "Beta"}))
	assert.Equal(t, "Beta(\n    \"test\",\n)", Pretty(TupleStruct{TypeName: "Beta", Data: []Value{String("test")}}))
}
