// Package document projects YAML and JSON documents through derived plans.
//
// A document is decoded against a type name from a derive.Catalog, using
// the field type references of each descriptor to pick widths and shapes:
//
//	struct (named)        mapping of field name to value
//	struct (positional)   the bare value when there is one field, else a sequence
//	sum, unit variant     the variant name as a scalar
//	sum, other variants   single-key mapping {Variant: payload}
//	?T                    null or T
//	[]T, (A, B)           sequence
//	map[string]T          mapping
//
// Fields without a type reference are projected from the YAML node alone.
// Mismatches between the document and the declared shape are reported as
// *Error; they are input-decoding failures, not projection failures.
package document

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/roach88/generic/internal/derive"
	"github.com/roach88/generic/internal/descriptor"
	"github.com/roach88/generic/internal/value"
)

// Error reports where a document does not match its declared type.
type Error struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Projector projects documents through the plans of one catalog.
type Projector struct {
	cat *derive.Catalog
}

// New returns a Projector over cat.
func New(cat *derive.Catalog) *Projector {
	return &Projector{cat: cat}
}

// ProjectBytes parses YAML (or JSON) and projects it as typeName.
func (p *Projector) ProjectBytes(typeName string, data []byte) (value.Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return p.Project(typeName, &node)
}

// Project projects a parsed document as typeName.
func (p *Projector) Project(typeName string, node *yaml.Node) (out value.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			f, ok := rec.(failure)
			if !ok {
				panic(rec)
			}
			out, err = nil, f.err
		}
	}()

	// Derivation failures surface before any decoding.
	if _, err := p.cat.Plan(typeName); err != nil {
		return nil, err
	}
	return p.named(typeName, unwrap(node), "$"), nil
}

// failure carries an error out of a plan's Capability.
type failure struct {
	err error
}

func fail(path, format string, args ...any) {
	panic(failure{err: &Error{Path: path, Message: fmt.Sprintf(format, args...)}})
}

func unwrap(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch node.Kind {
		case yaml.DocumentNode:
			if len(node.Content) == 0 {
				return nil
			}
			node = node.Content[0]
		case yaml.AliasNode:
			node = node.Alias
		default:
			return node
		}
	}
	return nil
}

func isNull(node *yaml.Node) bool {
	return node == nil || (node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null")
}

// slot is one field value handed from a source to the capability.
type slot struct {
	node *yaml.Node
	path string
}

func (p *Projector) capability(f descriptor.Field, x any) value.Value {
	s := x.(slot)
	return p.node(f.Type, s.node, s.path)
}

func (p *Projector) named(name string, node *yaml.Node, path string) value.Value {
	plan, err := p.cat.Plan(name)
	if err != nil {
		panic(failure{err: err})
	}
	typ, _ := p.cat.Type(name)

	switch typ.Kind {
	case descriptor.KindEnum:
		return plan.Project(p.sumSource(typ, node, path), p.capability)
	default:
		return plan.Project(p.fieldsSource(typ.Fields, node, path), p.capability)
	}
}

// fieldsSource checks node against a field list and returns a Source
// over it.
func (p *Projector) fieldsSource(fields descriptor.Fields, node *yaml.Node, path string) fieldsSource {
	src := fieldsSource{path: path, fields: fields.List}

	switch fields.Kind {
	case descriptor.FieldsNamed:
		if node == nil || node.Kind != yaml.MappingNode {
			fail(path, "expected mapping, got %s", describe(node))
		}
		src.named = make(map[string]*yaml.Node, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			src.named[node.Content[i].Value] = unwrap(node.Content[i+1])
		}
		known := make(map[string]bool, len(fields.List))
		for _, f := range fields.List {
			known[f.Name] = true
			if _, ok := src.named[f.Name]; !ok && !optional(f) {
				fail(path, "missing field %q", f.Name)
			}
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			if key := node.Content[i].Value; !known[key] {
				fail(path, "unknown field %q", key)
			}
		}

	case descriptor.FieldsPositional:
		if len(fields.List) == 1 {
			src.positional = []*yaml.Node{node}
			break
		}
		if node == nil || node.Kind != yaml.SequenceNode {
			fail(path, "expected sequence of %d, got %s", len(fields.List), describe(node))
		}
		if len(node.Content) != len(fields.List) {
			fail(path, "expected %d elements, got %d", len(fields.List), len(node.Content))
		}
		for _, n := range node.Content {
			src.positional = append(src.positional, unwrap(n))
		}
	}
	return src
}

func optional(f descriptor.Field) bool {
	return strings.HasPrefix(f.Type, "?")
}

type fieldsSource struct {
	path       string
	fields     []descriptor.Field
	named      map[string]*yaml.Node
	positional []*yaml.Node
}

func (s fieldsSource) Named(name string) any {
	for _, f := range s.fields {
		if f.Name == name {
			return slot{node: s.named[name], path: s.path + "." + name}
		}
	}
	return slot{path: s.path + "." + name}
}

func (s fieldsSource) At(i int) any {
	path := fmt.Sprintf("%s[%d]", s.path, i)
	if len(s.positional) == 1 {
		path = s.path
	}
	return slot{node: s.positional[i], path: path}
}

func (s fieldsSource) Variant() (string, derive.Source) {
	return "", s
}

type sumSource struct {
	name    string
	payload fieldsSource
}

func (s sumSource) Named(string) any { return nil }
func (s sumSource) At(int) any       { return nil }

func (s sumSource) Variant() (string, derive.Source) {
	return s.name, s.payload
}

func (p *Projector) sumSource(typ *descriptor.Type, node *yaml.Node, path string) sumSource {
	var name string
	var payload *yaml.Node

	switch {
	case node != nil && node.Kind == yaml.ScalarNode && !isNull(node):
		name = node.Value
	case node != nil && node.Kind == yaml.MappingNode && len(node.Content) == 2:
		name = node.Content[0].Value
		payload = unwrap(node.Content[1])
	default:
		fail(path, "expected variant name or single-key mapping for %s, got %s", typ.Name, describe(node))
	}

	v, ok := typ.Variant(name)
	if !ok {
		fail(path, "unknown variant %q of %s", name, typ.Name)
	}

	variantPath := path + "." + name
	if v.Fields.Kind == descriptor.FieldsUnit {
		if !isNull(payload) && !(payload.Kind == yaml.MappingNode && len(payload.Content) == 0) {
			fail(variantPath, "unit variant takes no payload")
		}
		return sumSource{name: name}
	}
	if isNull(payload) {
		if v.Fields.Len() == 0 {
			return sumSource{name: name, payload: fieldsSource{path: variantPath}}
		}
		fail(variantPath, "variant %s requires a payload", name)
	}
	return sumSource{name: name, payload: p.fieldsSource(v.Fields, payload, variantPath)}
}

// node projects one document node against a type reference. An empty
// reference projects the node by its own YAML kind.
func (p *Projector) node(refText string, node *yaml.Node, path string) value.Value {
	if refText == "" {
		return infer(node, path)
	}
	ref, err := descriptor.ParseTypeRef(refText)
	if err != nil {
		fail(path, "%v", err)
	}
	return p.ref(ref, node, path)
}

func (p *Projector) ref(ref descriptor.TypeRef, node *yaml.Node, path string) value.Value {
	node = unwrap(node)

	switch ref.Kind {
	case descriptor.RefOption:
		if isNull(node) {
			return value.None()
		}
		return value.Some(p.ref(ref.Elem(), node, path))

	case descriptor.RefSlice:
		if node == nil || node.Kind != yaml.SequenceNode {
			fail(path, "expected sequence, got %s", describe(node))
		}
		out := make(value.Vec, len(node.Content))
		for i, n := range node.Content {
			out[i] = p.ref(ref.Elem(), n, fmt.Sprintf("%s[%d]", path, i))
		}
		return out

	case descriptor.RefMap:
		if node == nil || node.Kind != yaml.MappingNode {
			fail(path, "expected mapping, got %s", describe(node))
		}
		out := make(value.Map, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			out[key] = p.ref(ref.Elem(), node.Content[i+1], path+"."+key)
		}
		return out

	case descriptor.RefTuple:
		if node == nil || node.Kind != yaml.SequenceNode || len(node.Content) != len(ref.Elems) {
			fail(path, "expected sequence of %d, got %s", len(ref.Elems), describe(node))
		}
		out := make(value.Tuple, len(ref.Elems))
		for i, elem := range ref.Elems {
			out[i] = p.ref(elem, node.Content[i], fmt.Sprintf("%s[%d]", path, i))
		}
		return out

	case descriptor.RefNamed:
		return p.named(ref.Name, node, path)
	}

	return base(ref.Name, node, path)
}

// base projects a scalar against a base type name.
func base(name string, node *yaml.Node, path string) value.Value {
	if name == descriptor.BaseUnit {
		if isNull(node) || (node.Kind == yaml.MappingNode && len(node.Content) == 0) {
			return value.Unit{}
		}
		fail(path, "expected null for unit, got %s", describe(node))
	}
	if node == nil || node.Kind != yaml.ScalarNode || isNull(node) {
		fail(path, "expected %s, got %s", name, describe(node))
	}

	switch name {
	case descriptor.BaseString:
		return value.String(node.Value)
	case descriptor.BaseChar:
		if utf8.RuneCountInString(node.Value) != 1 {
			fail(path, "expected a single character, got %q", node.Value)
		}
		return value.String(node.Value)
	case descriptor.BaseUUID:
		id, err := uuid.Parse(node.Value)
		if err != nil {
			fail(path, "invalid uuid %q: %v", node.Value, err)
		}
		return value.String(id.String())
	case descriptor.BaseBool:
		var b bool
		if node.ShortTag() != "!!bool" || node.Decode(&b) != nil {
			fail(path, "expected bool, got %q", node.Value)
		}
		return value.Bool(b)
	case descriptor.BaseF32, descriptor.BaseF64:
		return value.F64(parseFloat(name, node, path))
	case descriptor.BaseI128:
		requireWide(node, path)
		n, err := value.ParseInt128(node.Value)
		if err != nil {
			fail(path, "%v", err)
		}
		return value.I128(n)
	case descriptor.BaseU128:
		requireWide(node, path)
		n, err := value.ParseUint128(node.Value)
		if err != nil {
			fail(path, "%v", err)
		}
		return value.U128(n)
	}

	if bits, ok := signedBits[name]; ok {
		requireInt(node, path)
		n, err := strconv.ParseInt(node.Value, 0, bits)
		if err != nil {
			fail(path, "%s out of range: %s", name, node.Value)
		}
		return value.I64(n)
	}
	if bits, ok := unsignedBits[name]; ok {
		requireInt(node, path)
		n, err := strconv.ParseUint(node.Value, 0, bits)
		if err != nil {
			fail(path, "%s out of range: %s", name, node.Value)
		}
		return value.U64(n)
	}

	fail(path, "unknown base type %q", name)
	return nil
}

var signedBits = map[string]int{
	descriptor.BaseI8: 8, descriptor.BaseI16: 16, descriptor.BaseI32: 32,
	descriptor.BaseI64: 64, descriptor.BaseInt: 64,
}

var unsignedBits = map[string]int{
	descriptor.BaseU8: 8, descriptor.BaseU16: 16, descriptor.BaseU32: 32,
	descriptor.BaseU64: 64, descriptor.BaseUint: 64,
}

func requireInt(node *yaml.Node, path string) {
	if node.ShortTag() != "!!int" {
		fail(path, "expected integer, got %q", node.Value)
	}
}

// requireWide accepts integers past 64 bits, which YAML resolves as floats.
func requireWide(node *yaml.Node, path string) {
	if tag := node.ShortTag(); tag != "!!int" && tag != "!!float" {
		fail(path, "expected integer, got %q", node.Value)
	}
}

func parseFloat(name string, node *yaml.Node, path string) float64 {
	tag := node.ShortTag()
	if tag != "!!float" && tag != "!!int" {
		fail(path, "expected number, got %q", node.Value)
	}
	if name == descriptor.BaseF32 {
		var f float32
		if err := node.Decode(&f); err != nil {
			fail(path, "%s: %v", name, err)
		}
		return float64(f)
	}
	var f float64
	if err := node.Decode(&f); err != nil {
		fail(path, "%s: %v", name, err)
	}
	return f
}

// infer projects a node with no declared type: integers that fit int64
// are I64, larger ones U64; floats F64; null None; sequences Vec; mappings
// Map.
func infer(node *yaml.Node, path string) value.Value {
	node = unwrap(node)
	if isNull(node) {
		return value.None()
	}

	switch node.Kind {
	case yaml.SequenceNode:
		out := make(value.Vec, len(node.Content))
		for i, n := range node.Content {
			out[i] = infer(n, fmt.Sprintf("%s[%d]", path, i))
		}
		return out
	case yaml.MappingNode:
		out := make(value.Map, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			out[key] = infer(node.Content[i+1], path+"."+key)
		}
		return out
	}

	switch node.ShortTag() {
	case "!!bool":
		return base(descriptor.BaseBool, node, path)
	case "!!int":
		if n, err := strconv.ParseInt(node.Value, 0, 64); err == nil {
			return value.I64(n)
		}
		if n, err := strconv.ParseUint(node.Value, 0, 64); err == nil {
			return value.U64(n)
		}
		fail(path, "integer %s overflows 64 bits", node.Value)
	case "!!float":
		return value.F64(parseFloat(descriptor.BaseF64, node, path))
	}
	return value.String(node.Value)
}

func describe(node *yaml.Node) string {
	switch {
	case node == nil:
		return "nothing"
	case isNull(node):
		return "null"
	case node.Kind == yaml.SequenceNode:
		return "sequence"
	case node.Kind == yaml.MappingNode:
		return "mapping"
	default:
		return fmt.Sprintf("%s %q", strings.TrimPrefix(node.ShortTag(), "!!"), node.Value)
	}
}

// IsError reports whether err is, or wraps, a document Error.
func IsError(err error) bool {
	var de *Error
	return errors.As(err, &de)
}
