package project

import (
	"reflect"

	"github.com/roach88/generic/internal/derive"
	"github.com/roach88/generic/internal/descriptor"
	"github.com/roach88/generic/internal/value"
)

// projector projects one Go value of a fixed static type.
type projector func(reflect.Value) value.Value

// slot pairs a field value with the projector compiled for its type.
type slot struct {
	v       reflect.Value
	project projector
}

// applySlot is the Capability handed to plans: the source already knows
// how to project each field, so the capability only invokes it.
func applySlot(_ descriptor.Field, x any) value.Value {
	s := x.(slot)
	return s.project(s.v)
}

// binding is the read side of one struct type or sum variant.
type binding struct {
	name   string
	fields []descriptor.GoField
	proj   []projector
	index  map[string]int
	deref  bool // variant registered as a pointer type
}

func newBinding(name string, fields []descriptor.GoField, list []descriptor.Field, proj []projector) *binding {
	b := &binding{name: name, fields: fields, proj: proj, index: make(map[string]int, len(list))}
	for i, f := range list {
		b.index[f.Name] = i
	}
	return b
}

// structSource reads fields of one struct value.
type structSource struct {
	v reflect.Value
	b *binding
}

func (s structSource) Named(name string) any {
	return s.At(s.b.index[name])
}

func (s structSource) At(i int) any {
	f := s.b.fields[i]
	fv := s.v
	if f.Index >= 0 {
		fv = s.v.Field(f.Index)
	}
	return slot{v: fv, project: s.b.proj[i]}
}

func (s structSource) Variant() (string, derive.Source) {
	return "", s
}

// sumSource selects the variant of one sealed-interface value.
type sumSource struct {
	v        reflect.Value
	typeName string
	variants map[reflect.Type]*binding
}

func (s sumSource) Named(string) any { return nil }
func (s sumSource) At(int) any       { return nil }

func (s sumSource) Variant() (string, derive.Source) {
	if s.v.IsNil() {
		throw(derive.MissingDescriptor(s.typeName, "nil value selects no variant"))
	}
	dyn := s.v.Elem()
	b, ok := s.variants[dyn.Type()]
	if !ok {
		throw(derive.MissingDescriptor(s.typeName, "variant type %s is not registered", dyn.Type()))
	}
	if b.deref {
		if dyn.IsNil() {
			throw(derive.MissingDescriptor(s.typeName, "nil %s variant", dyn.Type()))
		}
		dyn = dyn.Elem()
	}
	return b.name, structSource{v: dyn, b: b}
}

// projectionError carries a contract violation out of a projector.
type projectionError struct {
	err error
}

func throw(err error) {
	panic(projectionError{err: err})
}
