package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/generic/internal/value"
)

func sampleTree() value.Value {
	return value.Struct{TypeName: "Test", Data: map[string]value.Value{
		"a": value.String("x"),
		"beta": value.Vec{
			value.TupleStruct{TypeName: "Beta", Data: []value.Value{value.String("y")}},
		},
		"kind": value.StructVariant{TypeName: "Alpha", VariantName: "Four", Data: map[string]value.Value{
			"x": value.U64(7),
			"y": value.Some(value.Tuple{value.F64(1.5), value.Bool(true)}),
		}},
		"none": value.None(),
	}}
}

func TestParsePath(t *testing.T) {
	steps, err := parsePath("$.a.beta[12][0].c")
	require.NoError(t, err)
	assert.Equal(t, []step{{key: "a"}, {key: "beta"}, {index: 12}, {index: 0}, {key: "c"}}, steps)

	steps, err = parsePath("$")
	require.NoError(t, err)
	assert.Empty(t, steps)

	for _, bad := range []string{"a", "$.", "$[x]", "$[0", "$x", "$[-1]"} {
		_, err := parsePath(bad)
		assert.Error(t, err, bad)
	}
}

func TestLookup(t *testing.T) {
	tree := sampleTree()

	tests := []struct {
		path string
		want value.Value
	}{
		{"$.a", value.String("x")},
		{"$.beta[0][0]", value.String("y")},
		{"$.kind.x", value.U64(7)},
		{"$.kind.y[1]", value.Bool(true)},
	}
	for _, tt := range tests {
		got, err := lookup(tree, tt.path)
		require.NoError(t, err, tt.path)
		assert.True(t, value.Equal(tt.want, got), "%s: got %v", tt.path, got)
	}

	for _, bad := range []string{"$.missing", "$.beta[3]", "$.a.b", "$.a[0]", "$.none[0]"} {
		_, err := lookup(tree, bad)
		assert.Error(t, err, bad)
	}
}

func TestCheckAssertion(t *testing.T) {
	tree := sampleTree()

	pass := []Assertion{
		{Type: AssertKind, Path: "$", Kind: value.KindStruct},
		{Type: AssertKind, Path: "$.kind.y", Kind: value.KindOption},
		{Type: AssertEquals, Path: "$.kind.x", Value: "7u64"},
		{Type: AssertEquals, Path: "$.beta[0]", Value: `Beta("y")`},
		{Type: AssertVariant, Path: "$.kind", Variant: "Four"},
	}
	for _, a := range pass {
		assert.NoError(t, checkAssertion(tree, a), "%+v", a)
	}

	fail := []Assertion{
		{Type: AssertKind, Path: "$.a", Kind: value.KindVec},
		{Type: AssertEquals, Path: "$.kind.x", Value: "7i64"},
		{Type: AssertVariant, Path: "$.a", Variant: "Four"},
		{Type: AssertKind, Path: "$.nope", Kind: value.KindVec},
	}
	for _, a := range fail {
		err := checkAssertion(tree, a)
		var ae *AssertionError
		require.ErrorAs(t, err, &ae, "%+v", a)
		assert.Equal(t, a.Path, ae.Path)
		assert.Contains(t, ae.Error(), "Full tree:")
	}
}
