// Package derive turns structural descriptors into reusable projection
// plans.
//
// Derivation is the build-time half of projection: it runs once per type,
// decides which value-tree node every shape maps to, and rejects the shapes
// that cannot be projected (unit aggregates, unions, empty sums). The
// resulting Plan is the run-time half: it reads one instance through a
// Source and assembles the node, delegating every nested field to a
// Capability. Plans hold no reflection and no mutable state, so one Plan
// serves any number of concurrent projections.
package derive

import (
	"fmt"

	"github.com/roach88/generic/internal/descriptor"
	"github.com/roach88/generic/internal/value"
)

// Source is the read side of one aggregate instance.
type Source interface {
	// Named returns the current value of a named field.
	Named(name string) any
	// At returns the current value of the i-th positional field.
	At(i int) any
	// Variant returns the selected variant of a sum value and a Source over
	// its payload.
	Variant() (name string, payload Source)
}

// Capability projects one nested field value. The field descriptor carries
// the declared type reference when the descriptor has one.
type Capability func(field descriptor.Field, v any) value.Value

// shape is the projection rule for one field list.
type shape int

const (
	shapeNamed shape = iota
	shapePositional
	shapeUnit
)

type arm struct {
	name   string
	shape  shape
	fields []descriptor.Field
}

// Plan is the derived projection procedure for one type.
type Plan struct {
	typeName string
	kind     descriptor.Kind
	body     arm            // KindStruct
	arms     map[string]arm // KindEnum
	order    []string       // variant declaration order
}

// Derive builds the projection plan for a descriptor.
//
// A nil or malformed descriptor is MissingDescriptor: no usable descriptor
// was supplied. A well-formed descriptor whose shape has no projection is
// UnsupportedShape.
func Derive(t *descriptor.Type) (*Plan, error) {
	if t == nil {
		return nil, MissingDescriptor("", "nil descriptor")
	}
	if errs := descriptor.Validate(t); len(errs) > 0 {
		return nil, MissingDescriptor(t.Name, "malformed descriptor").Wrap(errs[0])
	}

	p := &Plan{typeName: t.Name, kind: t.Kind}

	switch t.Kind {
	case descriptor.KindStruct:
		if t.Fields.Len() == 0 {
			return nil, UnsupportedShape(t.Name, "aggregate declares no fields")
		}
		p.body = newArm("", t.Fields)

	case descriptor.KindEnum:
		if len(t.Variants) == 0 {
			return nil, UnsupportedShape(t.Name, "sum type declares no variants")
		}
		p.arms = make(map[string]arm, len(t.Variants))
		for _, v := range t.Variants {
			p.arms[v.Name] = newArm(v.Name, v.Fields)
			p.order = append(p.order, v.Name)
		}

	case descriptor.KindUnion:
		return nil, UnsupportedShape(t.Name, "multi-shape (union) aggregate over %v", t.Members)
	}

	return p, nil
}

// newArm picks the rule for a field list by its declared kind. An empty
// named list is still named: a variant V {} projects as a StructVariant
// with no data.
func newArm(name string, f descriptor.Fields) arm {
	a := arm{name: name, fields: f.List, shape: shapeUnit}
	switch f.Kind {
	case descriptor.FieldsNamed:
		a.shape = shapeNamed
	case descriptor.FieldsPositional:
		a.shape = shapePositional
	}
	return a
}

// TypeName returns the name of the type the plan projects.
func (p *Plan) TypeName() string {
	return p.typeName
}

// Kind returns the descriptor kind the plan was derived from.
func (p *Plan) Kind() descriptor.Kind {
	return p.kind
}

// Variants returns the variant names of a sum plan in declaration order.
func (p *Plan) Variants() []string {
	return append([]string(nil), p.order...)
}

// Project assembles the value-tree node for one instance.
//
// Project panics if src selects a variant the plan was not derived with.
// That happens only when the descriptor was stale at derivation time, which
// is a contract violation by whoever supplied it.
func (p *Plan) Project(src Source, project Capability) value.Value {
	if p.kind == descriptor.KindStruct {
		switch p.body.shape {
		case shapeNamed:
			return value.Struct{TypeName: p.typeName, Data: projectNamed(p.body.fields, src, project)}
		default:
			return value.TupleStruct{TypeName: p.typeName, Data: projectPositional(p.body.fields, src, project)}
		}
	}

	name, payload := src.Variant()
	a, ok := p.arms[name]
	if !ok {
		panic(fmt.Sprintf("derive: %s has no variant %q (plan derived with %v)", p.typeName, name, p.order))
	}

	switch a.shape {
	case shapeNamed:
		return value.StructVariant{
			TypeName:    p.typeName,
			VariantName: a.name,
			Data:        projectNamed(a.fields, payload, project),
		}
	case shapePositional:
		return value.TupleVariant{
			TypeName:    p.typeName,
			VariantName: a.name,
			Data:        projectPositional(a.fields, payload, project),
		}
	default:
		return value.UnitVariant{TypeName: p.typeName, VariantName: a.name}
	}
}

func projectNamed(fields []descriptor.Field, src Source, project Capability) map[string]value.Value {
	data := make(map[string]value.Value, len(fields))
	for _, f := range fields {
		data[f.Name] = project(f, src.Named(f.Name))
	}
	return data
}

func projectPositional(fields []descriptor.Field, src Source, project Capability) []value.Value {
	data := make([]value.Value, len(fields))
	for i, f := range fields {
		data[i] = project(f, src.At(i))
	}
	return data
}
