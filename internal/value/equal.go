package value

import (
	"math"
	"slices"
	"unicode/utf16"
)

// Equal reports whether a and b are structurally equal trees.
// F64 compares by IEEE bit pattern, so NaN equals an identical NaN and
// 0.0 differs from -0.0. Map and Struct data compare as sets of keys.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case Unit:
		_, ok := b.(Unit)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case I64:
		y, ok := b.(I64)
		return ok && x == y
	case I128:
		y, ok := b.(I128)
		return ok && x == y
	case U64:
		y, ok := b.(U64)
		return ok && x == y
	case U128:
		y, ok := b.(U128)
		return ok && x == y
	case F64:
		y, ok := b.(F64)
		return ok && math.Float64bits(float64(x)) == math.Float64bits(float64(y))
	case Option:
		y, ok := b.(Option)
		return ok && Equal(x.Some, y.Some)
	case Tuple:
		y, ok := b.(Tuple)
		return ok && equalList(x, y)
	case Vec:
		y, ok := b.(Vec)
		return ok && equalList(x, y)
	case Map:
		y, ok := b.(Map)
		return ok && equalMap(x, y)
	case Struct:
		y, ok := b.(Struct)
		return ok && x.TypeName == y.TypeName && equalMap(x.Data, y.Data)
	case TupleStruct:
		y, ok := b.(TupleStruct)
		return ok && x.TypeName == y.TypeName && equalList(x.Data, y.Data)
	case TupleVariant:
		y, ok := b.(TupleVariant)
		return ok && x.TypeName == y.TypeName && x.VariantName == y.VariantName && equalList(x.Data, y.Data)
	case StructVariant:
		y, ok := b.(StructVariant)
		return ok && x.TypeName == y.TypeName && x.VariantName == y.VariantName && equalMap(x.Data, y.Data)
	case UnitVariant:
		y, ok := b.(UnitVariant)
		return ok && x == y
	default:
		return false
	}
}

func equalList(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalMap(a, b map[string]Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings compares UTF-8 bytes, which orders supplementary-plane
// characters differently.
func SortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code unit ordering.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
