package value

import (
	"errors"
	"fmt"
)

// Value is a sealed interface representing one node of a generic value tree.
// Only Unit, Bool, the Numeric kinds, String, the Collection kinds, Option,
// Tuple, Struct, TupleStruct and the Variant kinds implement it.
type Value interface {
	value() // Sealed - only these types implement it
	fmt.Stringer
}

// Numeric is the canonical widened numeric union: I64, I128, U64, U128 or F64.
type Numeric interface {
	Value
	numeric()
}

// Collection is either a Map or a Vec.
type Collection interface {
	Value
	collection()
}

// Variant is one selected alternative of a sum type: TupleVariant,
// StructVariant or UnitVariant.
type Variant interface {
	Value
	variant()
	// Type returns the name of the sum type.
	Type() string
	// Name returns the name of the selected variant.
	Name() string
}

// Unit is the empty value.
type Unit struct{}

func (Unit) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// String is a text value. Single characters and identifiers project to
// String as well.
type String string

func (String) value() {}

// I64 holds every signed integer of 64 bits or fewer.
type I64 int64

func (I64) value()   {}
func (I64) numeric() {}

// I128 holds a 128-bit signed integer. It is never demoted to I64.
type I128 Int128

func (I128) value()   {}
func (I128) numeric() {}

// U64 holds every unsigned integer of 64 bits or fewer.
type U64 uint64

func (U64) value()   {}
func (U64) numeric() {}

// U128 holds a 128-bit unsigned integer. It is never demoted to U64.
type U128 Uint128

func (U128) value()   {}
func (U128) numeric() {}

// F64 holds every floating point number.
type F64 float64

func (F64) value()   {}
func (F64) numeric() {}

// Map is a string-keyed mapping. Keys are unique and unordered.
type Map map[string]Value

func (Map) value()      {}
func (Map) collection() {}

// Vec is an ordered sequence; order equals the source iteration order.
type Vec []Value

func (Vec) value()      {}
func (Vec) collection() {}

// Option is an optional value. A nil Some means no value.
type Option struct {
	Some Value
}

func (Option) value() {}

// IsNone reports whether the option holds no value.
func (o Option) IsNone() bool {
	return o.Some == nil
}

// None returns the empty Option.
func None() Option {
	return Option{}
}

// Some wraps v in an Option.
func Some(v Value) Option {
	return Option{Some: v}
}

// Tuple is a fixed tuple of 2 to 4 elements in source order.
type Tuple []Value

func (Tuple) value() {}

// Struct is an aggregate whose fields are named.
type Struct struct {
	TypeName string
	Data     map[string]Value
}

func (Struct) value() {}

// TupleStruct is an aggregate whose fields are positional.
// Data is in declaration order.
type TupleStruct struct {
	TypeName string
	Data     []Value
}

func (TupleStruct) value() {}

// TupleVariant is a sum type alternative with a positional payload.
type TupleVariant struct {
	TypeName    string
	VariantName string
	Data        []Value
}

func (TupleVariant) value()         {}
func (TupleVariant) variant()       {}
func (v TupleVariant) Type() string { return v.TypeName }
func (v TupleVariant) Name() string { return v.VariantName }

// StructVariant is a sum type alternative with a named payload.
type StructVariant struct {
	TypeName    string
	VariantName string
	Data        map[string]Value
}

func (StructVariant) value()         {}
func (StructVariant) variant()       {}
func (v StructVariant) Type() string { return v.TypeName }
func (v StructVariant) Name() string { return v.VariantName }

// UnitVariant is a sum type alternative without payload.
type UnitVariant struct {
	TypeName    string
	VariantName string
}

func (UnitVariant) value()         {}
func (UnitVariant) variant()       {}
func (v UnitVariant) Type() string { return v.TypeName }
func (v UnitVariant) Name() string { return v.VariantName }

// Tuple arity bounds.
const (
	MinTupleArity = 2
	MaxTupleArity = 4
)

// ErrNilValue is reported when a tree contains a nil node.
var ErrNilValue = errors.New("nil node in value tree")

// Validate checks the structural invariants a hand-built tree can break:
// no nil nodes (Option.Some excepted) and tuple arity within 2..4.
// Trees produced by projection always validate.
func Validate(v Value) error {
	return validate(v, "$")
}

func validate(v Value, path string) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("%s: %w", path, ErrNilValue)
	case Unit, Bool, String, I64, I128, U64, U128, F64, UnitVariant:
		return nil
	case Option:
		if val.Some == nil {
			return nil
		}
		return validate(val.Some, path+"?")
	case Tuple:
		if len(val) < MinTupleArity || len(val) > MaxTupleArity {
			return fmt.Errorf("%s: tuple arity %d outside %d..%d", path, len(val), MinTupleArity, MaxTupleArity)
		}
		return validateList(val, path)
	case Vec:
		return validateList(val, path)
	case Map:
		return validateMap(val, path)
	case Struct:
		return validateMap(val.Data, path+"<"+val.TypeName+">")
	case TupleStruct:
		return validateList(val.Data, path+"<"+val.TypeName+">")
	case TupleVariant:
		return validateList(val.Data, path+"<"+val.TypeName+"::"+val.VariantName+">")
	case StructVariant:
		return validateMap(val.Data, path+"<"+val.TypeName+"::"+val.VariantName+">")
	default:
		return fmt.Errorf("%s: unknown Value type %T", path, v)
	}
}

func validateList(vals []Value, path string) error {
	for i, elem := range vals {
		if err := validate(elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func validateMap(vals map[string]Value, path string) error {
	for _, k := range SortedKeys(vals) {
		if err := validate(vals[k], fmt.Sprintf("%s[%q]", path, k)); err != nil {
			return err
		}
	}
	return nil
}
