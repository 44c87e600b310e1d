package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/generic/internal/descriptor"
	"github.com/roach88/generic/internal/value"
)

// fakeSource serves pre-projected values; the capability passes them through.
type fakeSource struct {
	named      map[string]value.Value
	positional []value.Value
	variant    string
	payload    *fakeSource
}

func (s fakeSource) Named(name string) any { return s.named[name] }
func (s fakeSource) At(i int) any          { return s.positional[i] }
func (s fakeSource) Variant() (string, Source) {
	if s.payload == nil {
		return s.variant, fakeSource{}
	}
	return s.variant, *s.payload
}

func passThrough(_ descriptor.Field, v any) value.Value {
	return v.(value.Value)
}

func alphaDescriptor() *descriptor.Type {
	return descriptor.Enum("Alpha",
		descriptor.V("One", descriptor.Positional(descriptor.P("string"))),
		descriptor.V("Two", descriptor.NoFields()),
		descriptor.V("Three", descriptor.NoFields()),
		descriptor.V("Four", descriptor.Named(descriptor.F("x", "i64"))),
	)
}

func TestDeriveNamedAggregate(t *testing.T) {
	plan, err := Derive(descriptor.Struct("Point", descriptor.Named(
		descriptor.F("x", "i64"),
		descriptor.F("y", "string"),
	)))
	require.NoError(t, err)
	assert.Equal(t, "Point", plan.TypeName())
	assert.Equal(t, descriptor.KindStruct, plan.Kind())

	got := plan.Project(fakeSource{named: map[string]value.Value{
		"x": value.I64(1),
		"y": value.String("s"),
	}}, passThrough)

	assert.Equal(t, value.Struct{TypeName: "Point", Data: map[string]value.Value{
		"x": value.I64(1),
		"y": value.String("s"),
	}}, got)
}

func TestDeriveNamedAggregateIgnoresDeclarationOrder(t *testing.T) {
	xy, err := Derive(descriptor.Struct("Point", descriptor.Named(descriptor.F("x", ""), descriptor.F("y", ""))))
	require.NoError(t, err)
	yx, err := Derive(descriptor.Struct("Point", descriptor.Named(descriptor.F("y", ""), descriptor.F("x", ""))))
	require.NoError(t, err)

	src := fakeSource{named: map[string]value.Value{"x": value.I64(1), "y": value.String("s")}}
	assert.True(t, value.Equal(xy.Project(src, passThrough), yx.Project(src, passThrough)))
}

func TestDerivePositionalAggregatePreservesOrder(t *testing.T) {
	plan, err := Derive(descriptor.Struct("Triple", descriptor.Positional(
		descriptor.P("string"), descriptor.P("string"), descriptor.P("string"),
	)))
	require.NoError(t, err)

	got := plan.Project(fakeSource{positional: []value.Value{
		value.String("a"), value.String("b"), value.String("c"),
	}}, passThrough)

	assert.Equal(t, value.TupleStruct{TypeName: "Triple", Data: []value.Value{
		value.String("a"), value.String("b"), value.String("c"),
	}}, got)
}

func TestDeriveSumVariantKinds(t *testing.T) {
	plan, err := Derive(alphaDescriptor())
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two", "Three", "Four"}, plan.Variants())

	one := plan.Project(fakeSource{
		variant: "One",
		payload: &fakeSource{positional: []value.Value{value.String("x")}},
	}, passThrough)
	assert.Equal(t, value.TupleVariant{
		TypeName: "Alpha", VariantName: "One", Data: []value.Value{value.String("x")},
	}, one)

	two := plan.Project(fakeSource{variant: "Two"}, passThrough)
	assert.Equal(t, value.UnitVariant{TypeName: "Alpha", VariantName: "Two"}, two)

	four := plan.Project(fakeSource{
		variant: "Four",
		payload: &fakeSource{named: map[string]value.Value{"x": value.I64(9)}},
	}, passThrough)
	assert.Equal(t, value.StructVariant{
		TypeName: "Alpha", VariantName: "Four", Data: map[string]value.Value{"x": value.I64(9)},
	}, four)
}

func TestDeriveCapabilityReceivesFieldDescriptor(t *testing.T) {
	plan, err := Derive(descriptor.Struct("Sized", descriptor.Named(descriptor.F("n", "u8"))))
	require.NoError(t, err)

	var seen descriptor.Field
	plan.Project(fakeSource{named: map[string]value.Value{"n": value.U64(200)}},
		func(f descriptor.Field, v any) value.Value {
			seen = f
			return v.(value.Value)
		})
	assert.Equal(t, descriptor.F("n", "u8"), seen)
}

func TestDeriveStaleVariantPanics(t *testing.T) {
	plan, err := Derive(alphaDescriptor())
	require.NoError(t, err)

	assert.PanicsWithValue(t,
		`derive: Alpha has no variant "Five" (plan derived with [One Two Three Four])`,
		func() { plan.Project(fakeSource{variant: "Five"}, passThrough) })
}

func TestDeriveRejectsUnsupportedShapes(t *testing.T) {
	tests := []struct {
		name string
		typ  *descriptor.Type
	}{
		{"unit aggregate", descriptor.Struct("Empty", descriptor.NoFields())},
		{"union aggregate", descriptor.Union("Either", "Left", "Right")},
		{"empty sum", descriptor.Enum("Never")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Derive(tt.typ)
			require.Error(t, err)
			assert.Nil(t, plan, "no plan means no projection is ever observable")
			assert.True(t, IsUnsupportedShape(err))
			assert.False(t, IsMissingDescriptor(err))
			assert.Contains(t, err.Error(), "UNSUPPORTED_SHAPE: "+tt.typ.Name)
		})
	}
}

func TestDeriveMissingDescriptor(t *testing.T) {
	_, err := Derive(nil)
	assert.True(t, IsMissingDescriptor(err))

	_, err = Derive(descriptor.Struct("Dup", descriptor.Named(descriptor.F("a", ""), descriptor.F("a", ""))))
	require.Error(t, err)
	assert.True(t, IsMissingDescriptor(err))

	var verr descriptor.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, descriptor.ErrDuplicateName, verr.Code)
}

func TestDeriveEmptyFieldLists(t *testing.T) {
	for _, fields := range []descriptor.Fields{descriptor.Named(), descriptor.Positional(), descriptor.NoFields()} {
		_, err := Derive(descriptor.Struct("Hollow", fields))
		assert.True(t, IsUnsupportedShape(err), "struct with %s fields", fields.Kind)
	}

	plan, err := Derive(descriptor.Enum("Mode",
		descriptor.V("Off", descriptor.NoFields()),
		descriptor.V("Blank", descriptor.Named()),
		descriptor.V("Nil", descriptor.Positional()),
	))
	require.NoError(t, err)

	tests := []struct {
		variant string
		want    value.Value
	}{
		{"Off", value.UnitVariant{TypeName: "Mode", VariantName: "Off"}},
		{"Blank", value.StructVariant{TypeName: "Mode", VariantName: "Blank", Data: map[string]value.Value{}}},
		{"Nil", value.TupleVariant{TypeName: "Mode", VariantName: "Nil", Data: []value.Value{}}},
	}
	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			got := plan.Project(fakeSource{variant: tt.variant}, passThrough)
			assert.True(t, value.Equal(tt.want, got), "got %v", got)
			assert.Equal(t, value.KindOf(tt.want), value.KindOf(got))
		})
	}
}
