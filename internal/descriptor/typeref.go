package descriptor

import (
	"fmt"
	"strings"
)

// RefKind classifies a parsed type reference.
type RefKind int

const (
	RefBase RefKind = iota
	RefSlice
	RefMap
	RefOption
	RefTuple
	RefNamed
)

// Base type names accepted in type references. Width matters only for
// declaring intent; projection widens to the 64/128-bit buckets.
const (
	BaseString = "string"
	BaseBool   = "bool"
	BaseChar   = "char"
	BaseUUID   = "uuid"
	BaseUnit   = "unit"
	BaseI8     = "i8"
	BaseI16    = "i16"
	BaseI32    = "i32"
	BaseI64    = "i64"
	BaseI128   = "i128"
	BaseInt    = "int"
	BaseU8     = "u8"
	BaseU16    = "u16"
	BaseU32    = "u32"
	BaseU64    = "u64"
	BaseU128   = "u128"
	BaseUint   = "uint"
	BaseF32    = "f32"
	BaseF64    = "f64"
)

var baseTypes = map[string]bool{
	BaseString: true, BaseBool: true, BaseChar: true, BaseUUID: true, BaseUnit: true,
	BaseI8: true, BaseI16: true, BaseI32: true, BaseI64: true, BaseI128: true, BaseInt: true,
	BaseU8: true, BaseU16: true, BaseU32: true, BaseU64: true, BaseU128: true, BaseUint: true,
	BaseF32: true, BaseF64: true,
}

// IsBase reports whether name is a base type name.
func IsBase(name string) bool {
	return baseTypes[name]
}

// TypeRef is a parsed type reference.
//
// Grammar:
//
//	ref   = "?" ref | "[]" ref | "map[string]" ref | tuple | ident
//	tuple = "(" ref "," ref { "," ref } ")"        (2 to 4 elements)
//	ident = letter { letter | digit | "_" | "." }
type TypeRef struct {
	Kind  RefKind
	Name  string    // RefBase: base name; RefNamed: declared type name
	Elems []TypeRef // RefSlice, RefMap, RefOption: one element; RefTuple: 2 to 4
}

// Elem returns the single element of a slice, map or option reference.
func (r TypeRef) Elem() TypeRef {
	return r.Elems[0]
}

// String renders the reference in its canonical textual form.
func (r TypeRef) String() string {
	switch r.Kind {
	case RefSlice:
		return "[]" + r.Elem().String()
	case RefMap:
		return "map[string]" + r.Elem().String()
	case RefOption:
		return "?" + r.Elem().String()
	case RefTuple:
		parts := make([]string, len(r.Elems))
		for i, e := range r.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return r.Name
	}
}

// Names returns the declared type names mentioned by the reference.
func (r TypeRef) Names() []string {
	var names []string
	var walk func(TypeRef)
	walk = func(t TypeRef) {
		if t.Kind == RefNamed {
			names = append(names, t.Name)
			return
		}
		for _, e := range t.Elems {
			walk(e)
		}
	}
	walk(r)
	return names
}

// ParseTypeRef parses a type reference.
func ParseTypeRef(s string) (TypeRef, error) {
	p := &refParser{src: s}
	ref, err := p.parse()
	if err != nil {
		return TypeRef{}, fmt.Errorf("type reference %q: %w", s, err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return TypeRef{}, fmt.Errorf("type reference %q: unexpected %q at offset %d", s, p.src[p.pos:], p.pos)
	}
	return ref, nil
}

// MustParseTypeRef is ParseTypeRef for references known to be valid.
func MustParseTypeRef(s string) TypeRef {
	ref, err := ParseTypeRef(s)
	if err != nil {
		panic(err)
	}
	return ref
}

type refParser struct {
	src string
	pos int
}

func (p *refParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *refParser) consume(prefix string) bool {
	if strings.HasPrefix(p.src[p.pos:], prefix) {
		p.pos += len(prefix)
		return true
	}
	return false
}

func (p *refParser) parse() (TypeRef, error) {
	p.skipSpace()
	switch {
	case p.consume("?"):
		elem, err := p.parse()
		if err != nil {
			return TypeRef{}, err
		}
		return TypeRef{Kind: RefOption, Elems: []TypeRef{elem}}, nil
	case p.consume("[]"):
		elem, err := p.parse()
		if err != nil {
			return TypeRef{}, err
		}
		return TypeRef{Kind: RefSlice, Elems: []TypeRef{elem}}, nil
	case p.consume("map["):
		if !p.consume("string]") {
			return TypeRef{}, fmt.Errorf("map keys must be string")
		}
		elem, err := p.parse()
		if err != nil {
			return TypeRef{}, err
		}
		return TypeRef{Kind: RefMap, Elems: []TypeRef{elem}}, nil
	case p.consume("("):
		return p.parseTuple()
	}
	return p.parseIdent()
}

func (p *refParser) parseTuple() (TypeRef, error) {
	var elems []TypeRef
	for {
		elem, err := p.parse()
		if err != nil {
			return TypeRef{}, err
		}
		elems = append(elems, elem)
		p.skipSpace()
		if p.consume(")") {
			break
		}
		if !p.consume(",") {
			return TypeRef{}, fmt.Errorf("expected ',' or ')' at offset %d", p.pos)
		}
	}
	if len(elems) < 2 || len(elems) > 4 {
		return TypeRef{}, fmt.Errorf("tuple arity %d outside 2..4", len(elems))
	}
	return TypeRef{Kind: RefTuple, Elems: elems}, nil
}

func (p *refParser) parseIdent() (TypeRef, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !(isLetter || (p.pos > start && (isDigit || c == '.'))) {
			break
		}
		p.pos++
	}
	if p.pos == start {
		if p.pos == len(p.src) {
			return TypeRef{}, fmt.Errorf("missing type name")
		}
		return TypeRef{}, fmt.Errorf("unexpected %q at offset %d", p.src[p.pos], p.pos)
	}

	name := p.src[start:p.pos]
	if IsBase(name) {
		return TypeRef{Kind: RefBase, Name: name}, nil
	}
	return TypeRef{Kind: RefNamed, Name: name}, nil
}
