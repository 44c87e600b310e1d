package value

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

// YAMLNode renders v as a plain YAML document for people to read:
// scalars map to scalars, Vec/Tuple to sequences, Map to mappings, and
// aggregates to a mapping keyed by their type (and variant) name.
// Numeric buckets and Option wrappers are not preserved; use
// MarshalCanonical when the encoding must be lossless.
func YAMLNode(v Value) *yaml.Node {
	switch val := v.(type) {
	case Unit:
		return scalar("!!null", "~")
	case Bool:
		return scalar("!!bool", strconv.FormatBool(bool(val)))
	case String:
		return scalar("!!str", string(val))
	case I64:
		return scalar("!!int", strconv.FormatInt(int64(val), 10))
	case I128:
		return scalar("!!int", Int128(val).String())
	case U64:
		return scalar("!!int", strconv.FormatUint(uint64(val), 10))
	case U128:
		return scalar("!!int", Uint128(val).String())
	case F64:
		return scalar("!!float", strconv.FormatFloat(float64(val), 'g', -1, 64))
	case Option:
		if val.Some == nil {
			return scalar("!!null", "~")
		}
		return YAMLNode(val.Some)
	case Vec:
		return sequence(val)
	case Tuple:
		return sequence(val)
	case Map:
		return mapping(val)
	case Struct:
		return tagged(val.TypeName, mapping(val.Data))
	case TupleStruct:
		return tagged(val.TypeName, sequence(val.Data))
	case TupleVariant:
		return tagged(val.TypeName, tagged(val.VariantName, sequence(val.Data)))
	case StructVariant:
		return tagged(val.TypeName, tagged(val.VariantName, mapping(val.Data)))
	case UnitVariant:
		return tagged(val.TypeName, scalar("!!str", val.VariantName))
	default:
		return scalar("!!null", "~")
	}
}

func scalar(tag, text string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: text}
}

func sequence(elems []Value) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, elem := range elems {
		n.Content = append(n.Content, YAMLNode(elem))
	}
	return n
}

func mapping(data map[string]Value) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range SortedKeys(data) {
		n.Content = append(n.Content, scalar("!!str", k), YAMLNode(data[k]))
	}
	return n
}

func tagged(name string, body *yaml.Node) *yaml.Node {
	return &yaml.Node{
		Kind:    yaml.MappingNode,
		Tag:     "!!map",
		Content: []*yaml.Node{scalar("!!str", name), body},
	}
}
