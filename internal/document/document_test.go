package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/generic/internal/derive"
	"github.com/roach88/generic/internal/descriptor"
	"github.com/roach88/generic/internal/value"
)

func testCatalog(t *testing.T) *derive.Catalog {
	t.Helper()
	cat, err := derive.NewCatalog([]*descriptor.Type{
		descriptor.Struct("Test", descriptor.Named(
			descriptor.F("a", "string"),
			descriptor.F("beta", "[]Beta"),
		)),
		descriptor.Struct("Beta", descriptor.Positional(descriptor.P("string"))),
		descriptor.Struct("Point", descriptor.Positional(descriptor.P("i32"), descriptor.P("i32"))),
		descriptor.Enum("Alpha",
			descriptor.V("One", descriptor.Positional(descriptor.P("string"))),
			descriptor.V("Two", descriptor.NoFields()),
			descriptor.V("Four", descriptor.Named(descriptor.F("x", "u8"), descriptor.F("y", "?f32"))),
		),
		descriptor.Struct("Kitchen", descriptor.Named(
			descriptor.F("id", "uuid"),
			descriptor.F("c", "char"),
			descriptor.F("big", "i128"),
			descriptor.F("pair", "(string, bool)"),
			descriptor.F("tags", "map[string]u16"),
			descriptor.F("any", ""),
			descriptor.F("nothing", "unit"),
		)),
		descriptor.Enum("Mode",
			descriptor.V("Off", descriptor.NoFields()),
			descriptor.V("Blank", descriptor.Named()),
			descriptor.V("Nil", descriptor.Positional()),
		),
		descriptor.Struct("Broken", descriptor.Named(descriptor.F("g", "Ghost"))),
	})
	require.Error(t, err) // Broken references an undeclared type
	return cat
}

func TestProjectNamedStruct(t *testing.T) {
	p := New(testCatalog(t))

	got, err := p.ProjectBytes("Test", []byte(`
a: hello
beta: [one, two]
`))
	require.NoError(t, err)
	assert.Equal(t, value.Struct{TypeName: "Test", Data: map[string]value.Value{
		"a": value.String("hello"),
		"beta": value.Vec{
			value.TupleStruct{TypeName: "Beta", Data: []value.Value{value.String("one")}},
			value.TupleStruct{TypeName: "Beta", Data: []value.Value{value.String("two")}},
		},
	}}, got)
}

func TestProjectJSON(t *testing.T) {
	p := New(testCatalog(t))

	got, err := p.ProjectBytes("Point", []byte(`[3, -4]`))
	require.NoError(t, err)
	assert.Equal(t, value.TupleStruct{TypeName: "Point", Data: []value.Value{value.I64(3), value.I64(-4)}}, got)
}

func TestProjectVariants(t *testing.T) {
	p := New(testCatalog(t))

	tests := []struct {
		name string
		doc  string
		want value.Value
	}{
		{"unit as scalar", `Two`, value.UnitVariant{TypeName: "Alpha", VariantName: "Two"}},
		{"unit as mapping", `{Two: null}`, value.UnitVariant{TypeName: "Alpha", VariantName: "Two"}},
		{"positional", `{One: x}`, value.TupleVariant{
			TypeName: "Alpha", VariantName: "One", Data: []value.Value{value.String("x")},
		}},
		{"named with option", `{Four: {x: 7, y: 1.5}}`, value.StructVariant{
			TypeName: "Alpha", VariantName: "Four", Data: map[string]value.Value{
				"x": value.U64(7),
				"y": value.Some(value.F64(1.5)),
			},
		}},
		{"missing option", `{Four: {x: 7}}`, value.StructVariant{
			TypeName: "Alpha", VariantName: "Four", Data: map[string]value.Value{
				"x": value.U64(7),
				"y": value.None(),
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ProjectBytes("Alpha", []byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProjectEmptyPayloadVariants(t *testing.T) {
	p := New(testCatalog(t))

	blank := value.StructVariant{TypeName: "Mode", VariantName: "Blank", Data: map[string]value.Value{}}
	empty := value.TupleVariant{TypeName: "Mode", VariantName: "Nil", Data: []value.Value{}}
	tests := []struct {
		doc  string
		want value.Value
	}{
		{`Off`, value.UnitVariant{TypeName: "Mode", VariantName: "Off"}},
		{`Blank`, blank},
		{`{Blank: {}}`, blank},
		{`{Blank: null}`, blank},
		{`Nil`, empty},
		{`{Nil: []}`, empty},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			got, err := p.ProjectBytes("Mode", []byte(tt.doc))
			require.NoError(t, err)
			assert.True(t, value.Equal(tt.want, got), "got %v", got)
			assert.Equal(t, value.KindOf(tt.want), value.KindOf(got))
		})
	}

	_, err := p.ProjectBytes("Mode", []byte(`{Blank: {x: 1}}`))
	require.Error(t, err)
	assert.True(t, IsError(err))
}

func TestProjectBaseTypes(t *testing.T) {
	p := New(testCatalog(t))

	got, err := p.ProjectBytes("Kitchen", []byte(`
id: 6BA7B810-9DAD-11D1-80B4-00C04FD430C8
c: "\u00e9"
big: -170141183460469231731687303715884105728
pair: [k, true]
tags: {a: 1, b: 65535}
any: [1, 2.5, x, null, {k: true}]
nothing: ~
`))
	require.NoError(t, err)

	big, err := value.ParseInt128("-170141183460469231731687303715884105728")
	require.NoError(t, err)

	assert.Equal(t, value.Struct{TypeName: "Kitchen", Data: map[string]value.Value{
		"id":   value.String("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		"c":    value.String("\u00e9"),
		"big":  value.I128(big),
		"pair": value.Tuple{value.String("k"), value.Bool(true)},
		"tags": value.Map{"a": value.U64(1), "b": value.U64(65535)},
		"any": value.Vec{
			value.I64(1),
			value.F64(2.5),
			value.String("x"),
			value.None(),
			value.Map{"k": value.Bool(true)},
		},
		"nothing": value.Unit{},
	}}, got)
}

func TestProjectDocumentErrors(t *testing.T) {
	p := New(testCatalog(t))

	tests := []struct {
		name     string
		typeName string
		doc      string
		path     string
		message  string
	}{
		{"not a mapping", "Test", `[1]`, "$", "expected mapping"},
		{"missing field", "Test", `{a: x}`, "$", `missing field "beta"`},
		{"unknown field", "Test", `{a: x, beta: [], c: 1}`, "$", `unknown field "c"`},
		{"wrong element", "Test", `{a: x, beta: [[1]]}`, "$.beta[0]", "expected string"},
		{"arity", "Point", `[1, 2, 3]`, "$", "expected 2 elements"},
		{"overflow", "Point", `[1, 3000000000]`, "$[1]", "i32 out of range"},
		{"negative unsigned", "Alpha", `{Four: {x: -1}}`, "$.Four.x", "u8 out of range"},
		{"unknown variant", "Alpha", `Six`, "$", `unknown variant "Six"`},
		{"unit payload", "Alpha", `{Two: 1}`, "$.Two", "takes no payload"},
		{"missing payload", "Alpha", `{One: null}`, "$.One", "expected string"},
		{"two keys", "Alpha", `{One: x, Two: null}`, "$", "single-key mapping"},
		{"bad uuid", "Kitchen", `{id: nope, c: x, big: 1, pair: [a, true], tags: {}, any: 1, nothing: ~}`, "$.id", "invalid uuid"},
		{"long char", "Kitchen", `{id: 6ba7b810-9dad-11d1-80b4-00c04fd430c8, c: xy, big: 1, pair: [a, true], tags: {}, any: 1, nothing: ~}`, "$.c", "single character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ProjectBytes(tt.typeName, []byte(tt.doc))
			require.Error(t, err)

			var de *Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.path, de.Path)
			assert.Contains(t, de.Message, tt.message)
			assert.True(t, IsError(err))
		})
	}
}

func TestProjectDerivationErrors(t *testing.T) {
	p := New(testCatalog(t))

	_, err := p.ProjectBytes("Broken", []byte(`{g: 1}`))
	require.Error(t, err)
	assert.True(t, derive.IsMissingDescriptor(err))
	assert.False(t, IsError(err))

	_, err = p.ProjectBytes("Nope", []byte(`{}`))
	require.Error(t, err)
	assert.True(t, derive.IsMissingDescriptor(err))
}

func TestProjectParseError(t *testing.T) {
	_, err := New(testCatalog(t)).ProjectBytes("Test", []byte("a: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse document")
}

func TestProjectAliases(t *testing.T) {
	got, err := New(testCatalog(t)).ProjectBytes("Point", []byte(`
- &n 5
- *n
`))
	require.NoError(t, err)
	assert.Equal(t, value.TupleStruct{TypeName: "Point", Data: []value.Value{value.I64(5), value.I64(5)}}, got)
}
