package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Canonical JSON node kinds. Every node encodes as an object whose "kind"
// member selects the case:
//
//	{"kind":"unit"}
//	{"kind":"bool","value":true}
//	{"kind":"i64","value":-5}             (also i128, u64, u128)
//	{"kind":"f64","value":1.5}            (NaN/Inf encode as strings)
//	{"kind":"string","value":"x"}
//	{"kind":"vec","data":[...]}           (also tuple)
//	{"kind":"map","data":{...}}
//	{"kind":"option"} / {"kind":"option","value":{...}}
//	{"kind":"struct","type_name":"T","data":{...}}
//	{"kind":"tuple_struct","type_name":"T","data":[...]}
//	{"kind":"tuple_variant","type_name":"T","variant_name":"V","data":[...]}
//	{"kind":"struct_variant","type_name":"T","variant_name":"V","data":{...}}
//	{"kind":"unit_variant","type_name":"T","variant_name":"V"}
const (
	KindUnit          = "unit"
	KindBool          = "bool"
	KindI64           = "i64"
	KindI128          = "i128"
	KindU64           = "u64"
	KindU128          = "u128"
	KindF64           = "f64"
	KindString        = "string"
	KindVec           = "vec"
	KindMap           = "map"
	KindOption        = "option"
	KindTuple         = "tuple"
	KindStruct        = "struct"
	KindTupleStruct   = "tuple_struct"
	KindTupleVariant  = "tuple_variant"
	KindStructVariant = "struct_variant"
	KindUnitVariant   = "unit_variant"
)

// KindOf returns the canonical kind name of v, or "" for nil and
// unknown nodes.
func KindOf(v Value) string {
	switch v.(type) {
	case Unit:
		return KindUnit
	case Bool:
		return KindBool
	case I64:
		return KindI64
	case I128:
		return KindI128
	case U64:
		return KindU64
	case U128:
		return KindU128
	case F64:
		return KindF64
	case String:
		return KindString
	case Vec:
		return KindVec
	case Tuple:
		return KindTuple
	case Map:
		return KindMap
	case Option:
		return KindOption
	case Struct:
		return KindStruct
	case TupleStruct:
		return KindTupleStruct
	case TupleVariant:
		return KindTupleVariant
	case StructVariant:
		return KindStructVariant
	case UnitVariant:
		return KindUnitVariant
	}
	return ""
}

// MarshalCanonical produces RFC 8785 style canonical JSON for a value tree.
// This is the serialization used for digests and persisted snapshots.
//
// Differences from encoding/json:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings and keys are written verbatim, never normalized
//  4. Invalid trees (nil nodes, bad tuple arity) return an error
func MarshalCanonical(v Value) ([]byte, error) {
	if err := Validate(v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// member is one object member, written in the order given.
// Callers list members already sorted by key.
type member struct {
	key   string
	write func(*bytes.Buffer) error
}

func writeCanonical(buf *bytes.Buffer, v Value) error {
	kind := func(k string) member { return member{"kind", rawString(k)} }
	typeName := func(s string) member { return member{"type_name", rawString(s)} }
	variantName := func(s string) member { return member{"variant_name", rawString(s)} }
	literal := func(s string) func(*bytes.Buffer) error {
		return func(b *bytes.Buffer) error { b.WriteString(s); return nil }
	}

	switch val := v.(type) {
	case Unit:
		return writeObject(buf, kind(KindUnit))
	case Bool:
		return writeObject(buf, kind(KindBool), member{"value", literal(strconv.FormatBool(bool(val)))})
	case I64:
		return writeObject(buf, kind(KindI64), member{"value", literal(strconv.FormatInt(int64(val), 10))})
	case I128:
		return writeObject(buf, kind(KindI128), member{"value", literal(Int128(val).String())})
	case U64:
		return writeObject(buf, kind(KindU64), member{"value", literal(strconv.FormatUint(uint64(val), 10))})
	case U128:
		return writeObject(buf, kind(KindU128), member{"value", literal(Uint128(val).String())})
	case F64:
		return writeObject(buf, kind(KindF64), member{"value", canonicalFloat(float64(val))})
	case String:
		return writeObject(buf, kind(KindString), member{"value", rawString(string(val))})
	case Vec:
		return writeObject(buf, member{"data", canonicalList(val)}, kind(KindVec))
	case Tuple:
		return writeObject(buf, member{"data", canonicalList(val)}, kind(KindTuple))
	case Map:
		return writeObject(buf, member{"data", canonicalMap(val)}, kind(KindMap))
	case Option:
		if val.Some == nil {
			return writeObject(buf, kind(KindOption))
		}
		return writeObject(buf, kind(KindOption), member{"value", func(b *bytes.Buffer) error {
			return writeCanonical(b, val.Some)
		}})
	case Struct:
		return writeObject(buf, member{"data", canonicalMap(val.Data)}, kind(KindStruct), typeName(val.TypeName))
	case TupleStruct:
		return writeObject(buf, member{"data", canonicalList(val.Data)}, kind(KindTupleStruct), typeName(val.TypeName))
	case TupleVariant:
		return writeObject(buf, member{"data", canonicalList(val.Data)}, kind(KindTupleVariant),
			typeName(val.TypeName), variantName(val.VariantName))
	case StructVariant:
		return writeObject(buf, member{"data", canonicalMap(val.Data)}, kind(KindStructVariant),
			typeName(val.TypeName), variantName(val.VariantName))
	case UnitVariant:
		return writeObject(buf, kind(KindUnitVariant), typeName(val.TypeName), variantName(val.VariantName))
	default:
		return fmt.Errorf("unknown Value type: %T", v)
	}
}

func writeObject(buf *bytes.Buffer, members ...member) error {
	buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := rawString(m.key)(buf); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := m.write(buf); err != nil {
			return fmt.Errorf("%s: %w", m.key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func canonicalList(elems []Value) func(*bytes.Buffer) error {
	return func(buf *bytes.Buffer) error {
		buf.WriteByte('[')
		for i, elem := range elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	}
}

func canonicalMap(data map[string]Value) func(*bytes.Buffer) error {
	return func(buf *bytes.Buffer) error {
		buf.WriteByte('{')
		for i, k := range SortedKeys(data) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := rawString(k)(buf); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, data[k]); err != nil {
				return fmt.Errorf("[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	}
}

// canonicalFloat writes finite floats in the shortest round-trip form and
// non-finite floats as the strings "NaN", "+Inf" and "-Inf".
func canonicalFloat(f float64) func(*bytes.Buffer) error {
	return func(buf *bytes.Buffer) error {
		switch {
		case math.IsNaN(f):
			buf.WriteString(`"NaN"`)
		case math.IsInf(f, 1):
			buf.WriteString(`"+Inf"`)
		case math.IsInf(f, -1):
			buf.WriteString(`"-Inf"`)
		default:
			buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		}
		return nil
	}
}

// rawString writes s as a JSON string without HTML escaping.
func rawString(s string) func(*bytes.Buffer) error {
	return func(buf *bytes.Buffer) error {
		data, err := marshalCanonicalString(s)
		if err != nil {
			return err
		}
		buf.Write(data)
		return nil
	}
}

// marshalCanonicalString produces a canonical JSON string. Only control characters, backslash and quote are escaped; U+2028 and
// U+2029 are written literally.
func marshalCanonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	result := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return unescapeLineSeparators(result), nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes emitted by
// encoding/json back into literal characters, leaving \\u2028 (an escaped
// backslash followed by text) alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+1 < len(data) {
			if i+5 < len(data) && data[i+1] == 'u' && string(data[i+2:i+5]) == "202" &&
				(data[i+5] == '8' || data[i+5] == '9') {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
			// Any other escape: copy both bytes so an escaped backslash is
			// never mistaken for the start of \u2028.
			out = append(out, data[i], data[i+1])
			i++
			continue
		}
		out = append(out, data[i])
	}
	return out
}
