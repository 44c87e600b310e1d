package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// wireNode mirrors one canonical JSON node.
type wireNode struct {
	Kind        string          `json:"kind"`
	Value       json.RawMessage `json:"value,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	TypeName    string          `json:"type_name,omitempty"`
	VariantName string          `json:"variant_name,omitempty"`
}

// UnmarshalCanonical decodes JSON produced by MarshalCanonical back into a
// value tree. It restores the generic tree only; no typed value is rebuilt.
func UnmarshalCanonical(data []byte) (Value, error) {
	var n wireNode
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}

	switch n.Kind {
	case KindUnit:
		return Unit{}, nil
	case KindBool:
		var b bool
		if err := json.Unmarshal(n.Value, &b); err != nil {
			return nil, fmt.Errorf("bool: %w", err)
		}
		return Bool(b), nil
	case KindString:
		var s string
		if err := json.Unmarshal(n.Value, &s); err != nil {
			return nil, fmt.Errorf("string: %w", err)
		}
		return String(s), nil
	case KindI64:
		i, err := strconv.ParseInt(string(n.Value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("i64: %w", err)
		}
		return I64(i), nil
	case KindU64:
		u, err := strconv.ParseUint(string(n.Value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("u64: %w", err)
		}
		return U64(u), nil
	case KindI128:
		x, err := ParseInt128(string(n.Value))
		if err != nil {
			return nil, err
		}
		return I128(x), nil
	case KindU128:
		x, err := ParseUint128(string(n.Value))
		if err != nil {
			return nil, err
		}
		return U128(x), nil
	case KindF64:
		return decodeFloat(n.Value)
	case KindVec:
		elems, err := decodeList(n.Data)
		if err != nil {
			return nil, err
		}
		return Vec(elems), nil
	case KindTuple:
		elems, err := decodeList(n.Data)
		if err != nil {
			return nil, err
		}
		if len(elems) < MinTupleArity || len(elems) > MaxTupleArity {
			return nil, fmt.Errorf("tuple arity %d outside %d..%d", len(elems), MinTupleArity, MaxTupleArity)
		}
		return Tuple(elems), nil
	case KindMap:
		m, err := decodeMap(n.Data)
		if err != nil {
			return nil, err
		}
		return Map(m), nil
	case KindOption:
		if len(n.Value) == 0 {
			return None(), nil
		}
		inner, err := UnmarshalCanonical(n.Value)
		if err != nil {
			return nil, fmt.Errorf("option: %w", err)
		}
		return Some(inner), nil
	case KindStruct:
		m, err := decodeMap(n.Data)
		if err != nil {
			return nil, err
		}
		return Struct{TypeName: n.TypeName, Data: m}, nil
	case KindTupleStruct:
		elems, err := decodeList(n.Data)
		if err != nil {
			return nil, err
		}
		return TupleStruct{TypeName: n.TypeName, Data: elems}, nil
	case KindTupleVariant:
		elems, err := decodeList(n.Data)
		if err != nil {
			return nil, err
		}
		return TupleVariant{TypeName: n.TypeName, VariantName: n.VariantName, Data: elems}, nil
	case KindStructVariant:
		m, err := decodeMap(n.Data)
		if err != nil {
			return nil, err
		}
		return StructVariant{TypeName: n.TypeName, VariantName: n.VariantName, Data: m}, nil
	case KindUnitVariant:
		return UnitVariant{TypeName: n.TypeName, VariantName: n.VariantName}, nil
	default:
		return nil, fmt.Errorf("unknown node kind %q", n.Kind)
	}
}

func decodeFloat(raw json.RawMessage) (Value, error) {
	switch string(raw) {
	case `"NaN"`:
		return F64(math.NaN()), nil
	case `"+Inf"`:
		return F64(math.Inf(1)), nil
	case `"-Inf"`:
		return F64(math.Inf(-1)), nil
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return nil, fmt.Errorf("f64: %w", err)
	}
	return F64(f), nil
}

func decodeList(raw json.RawMessage) ([]Value, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	out := make([]Value, len(items))
	for i, item := range items {
		v, err := UnmarshalCanonical(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func decodeMap(raw json.RawMessage) (map[string]Value, error) {
	var items map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	out := make(map[string]Value, len(items))
	for k, item := range items {
		v, err := UnmarshalCanonical(item)
		if err != nil {
			return nil, fmt.Errorf("[%q]: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}
