package descriptor

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/generic/internal/value"
)

// ErrNoDescriptor is returned when a Go type cannot be described.
var ErrNoDescriptor = errors.New("no descriptor")

// TagName is the struct tag key read by Reflect.
//
//	Name string `generic:"name"`          // rename
//	Skip int    `generic:"-"`             // omit
//	_    struct{} `generic:",positional"` // marker: fields are positional
const TagName = "generic"

// Tuple is implemented by fixed-arity tuple types. Their struct fields are
// the tuple elements in order.
type Tuple interface {
	TupleArity() int
}

// SumLookup returns the registered variant types of a sealed interface.
type SumLookup func(iface reflect.Type) ([]reflect.Type, bool)

// Reflected is a descriptor built from a Go type, plus the bindings needed
// to read values of that type.
type Reflected struct {
	Type     *Type
	Go       reflect.Type
	Fields   []GoField   // KindStruct, parallel to Type.Fields.List
	Variants []GoVariant // KindEnum, parallel to Type.Variants
}

// GoField binds a descriptor field to a Go struct field.
type GoField struct {
	Index int // struct field index; -1 for the value itself
	Type  reflect.Type
}

// GoVariant binds a descriptor variant to the Go type implementing it.
type GoVariant struct {
	Type   reflect.Type
	Fields []GoField
}

var (
	uuidType    = reflect.TypeFor[uuid.UUID]()
	int128Type  = reflect.TypeFor[value.Int128]()
	uint128Type = reflect.TypeFor[value.Uint128]()
	tupleType   = reflect.TypeFor[Tuple]()
)

// IsTuple reports whether t is a fixed-arity tuple type.
func IsTuple(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.Implements(tupleType)
}

// Reflect describes a named struct or a registered sealed interface.
//
// Struct fields are named after the Go field unless renamed by tag.
// Unexported fields are skipped. A struct with no remaining fields has the
// unit shape. Variants of a sum are described from their own types: a
// struct variant contributes its fields, any other type becomes a single
// positional field holding the value itself.
func Reflect(t reflect.Type, sums SumLookup) (*Reflected, error) {
	switch t.Kind() {
	case reflect.Interface:
		variants, ok := sums(t)
		if !ok {
			return nil, fmt.Errorf("%w: interface %s is not a registered sum", ErrNoDescriptor, t)
		}
		return reflectSum(t, variants, sums)

	case reflect.Struct:
		if t.Name() == "" {
			return nil, fmt.Errorf("%w: anonymous struct %s has no type name", ErrNoDescriptor, t)
		}
		fields, bindings := reflectFields(t, sums)
		return &Reflected{
			Type:   Struct(t.Name(), fields),
			Go:     t,
			Fields: bindings,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %s is not a struct or registered sum", ErrNoDescriptor, t)
	}
}

func reflectSum(t reflect.Type, variants []reflect.Type, sums SumLookup) (*Reflected, error) {
	r := &Reflected{Type: Enum(t.Name()), Go: t}

	for _, vt := range variants {
		base := vt
		if base.Kind() == reflect.Pointer {
			base = base.Elem()
		}
		if base.Name() == "" {
			return nil, fmt.Errorf("%w: variant %s of %s has no type name", ErrNoDescriptor, vt, t)
		}

		var fields Fields
		var bindings []GoField
		if base.Kind() == reflect.Struct && !IsTuple(base) {
			fields, bindings = reflectFields(base, sums)
		} else {
			fields = Positional(P(RefFor(base, sums)))
			bindings = []GoField{{Index: -1, Type: base}}
		}

		r.Type.Variants = append(r.Type.Variants, V(base.Name(), fields))
		r.Variants = append(r.Variants, GoVariant{Type: vt, Fields: bindings})
	}
	return r, nil
}

func reflectFields(t reflect.Type, sums SumLookup) (Fields, []GoField) {
	positional := false
	var list []Field
	var bindings []GoField

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, opts, _ := strings.Cut(sf.Tag.Get(TagName), ",")

		if sf.Name == "_" {
			if hasOption(opts, "positional") {
				positional = true
			}
			continue
		}
		if !sf.IsExported() || name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}

		list = append(list, Field{Name: name, Type: RefFor(sf.Type, sums)})
		bindings = append(bindings, GoField{Index: i, Type: sf.Type})
	}

	switch {
	case len(list) == 0:
		return NoFields(), nil
	case positional:
		for i := range list {
			list[i].Name = ""
		}
		return Positional(list...), bindings
	default:
		return Named(list...), bindings
	}
}

func hasOption(opts, want string) bool {
	for _, opt := range strings.Split(opts, ",") {
		if opt == want {
			return true
		}
	}
	return false
}

// RefFor renders the type reference of a Go type, or "" when the type has
// no reference form (channels, functions, unregistered interfaces, names
// that are not plain identifiers).
func RefFor(t reflect.Type, sums SumLookup) string {
	switch t {
	case uuidType:
		return BaseUUID
	case int128Type:
		return BaseI128
	case uint128Type:
		return BaseU128
	}

	switch t.Kind() {
	case reflect.Bool:
		return BaseBool
	case reflect.Int8:
		return BaseI8
	case reflect.Int16:
		return BaseI16
	case reflect.Int32:
		return BaseI32
	case reflect.Int64:
		return BaseI64
	case reflect.Int:
		return BaseInt
	case reflect.Uint8:
		return BaseU8
	case reflect.Uint16:
		return BaseU16
	case reflect.Uint32:
		return BaseU32
	case reflect.Uint64:
		return BaseU64
	case reflect.Uint, reflect.Uintptr:
		return BaseUint
	case reflect.Float32:
		return BaseF32
	case reflect.Float64:
		return BaseF64
	case reflect.String:
		return BaseString
	case reflect.Slice, reflect.Array:
		return wrapRef("[]", RefFor(t.Elem(), sums))
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return ""
		}
		return wrapRef("map[string]", RefFor(t.Elem(), sums))
	case reflect.Pointer:
		return wrapRef("?", RefFor(t.Elem(), sums))
	case reflect.Struct:
		if IsTuple(t) {
			parts := make([]string, t.NumField())
			for i := range parts {
				parts[i] = RefFor(t.Field(i).Type, sums)
				if parts[i] == "" {
					return ""
				}
			}
			return "(" + strings.Join(parts, ", ") + ")"
		}
		if t.Name() == "" && t.NumField() == 0 {
			return BaseUnit
		}
		return namedRef(t.Name())
	case reflect.Interface:
		if _, ok := sums(t); ok {
			return namedRef(t.Name())
		}
	}
	return ""
}

func wrapRef(prefix, elem string) string {
	if elem == "" {
		return ""
	}
	return prefix + elem
}

func namedRef(name string) string {
	ref, err := ParseTypeRef(name)
	if err != nil || ref.Kind != RefNamed {
		return ""
	}
	return name
}
