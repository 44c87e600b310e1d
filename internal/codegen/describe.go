package codegen

import (
	"fmt"
	"go/types"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/tools/go/packages"

	"github.com/roach88/generic/internal/descriptor"
	"github.com/roach88/generic/internal/value"
)

var (
	uuidPath  = reflect.TypeFor[uuid.UUID]().PkgPath()
	valuePath = reflect.TypeFor[value.Int128]().PkgPath()
)

// goField binds a descriptor field to a Go selector. An empty selector is
// the value itself.
type goField struct {
	selector string
	typ      types.Type
}

type goVariant struct {
	name    string
	typ     types.Type // the type the sum holds: T or *T
	pointer bool
	fields  []goField
}

// described is one type to generate, with its descriptor.
type described struct {
	typ      *descriptor.Type
	obj      *types.TypeName
	fields   []goField
	variants []goVariant
}

// describer builds descriptors from the go/types view of one package, the
// same way descriptor.Reflect does from reflect.
type describer struct {
	pkg    *packages.Package
	output string // base name of the generated file, whose methods are ignored
	sums   map[*types.TypeName][]goVariant
	order  []*types.TypeName
	byObj  map[*types.TypeName]*described
	queue  []*types.TypeName
}

func newDescriber(pkg *packages.Package, output string) *describer {
	return &describer{
		pkg:    pkg,
		output: output,
		sums:   make(map[*types.TypeName][]goVariant),
		byObj:  make(map[*types.TypeName]*described),
	}
}

func (d *describer) lookup(name string) (*types.TypeName, bool) {
	obj, ok := d.pkg.Types.Scope().Lookup(name).(*types.TypeName)
	if !ok || obj.IsAlias() {
		return nil, false
	}
	return obj, true
}

// declaredTypes returns the package's named types in declaration order.
func (d *describer) declaredTypes() []*types.TypeName {
	scope := d.pkg.Types.Scope()
	var out []*types.TypeName
	for _, name := range scope.Names() {
		if obj, ok := scope.Lookup(name).(*types.TypeName); ok && !obj.IsAlias() {
			out = append(out, obj)
		}
	}
	slices.SortFunc(out, func(a, b *types.TypeName) int {
		return int(a.Pos() - b.Pos())
	})
	return out
}

// registerSum records the variants of a sealed interface: every named,
// non-generic, non-interface type of the package that implements it.
func (d *describer) registerSum(obj *types.TypeName) error {
	iface, ok := obj.Type().Underlying().(*types.Interface)
	if !ok || !iface.IsMethodSet() {
		return fmt.Errorf("%s: %s applies to method-set interfaces only", obj.Name(), DirectiveSum)
	}

	var variants []goVariant
	for _, cand := range d.declaredTypes() {
		named, ok := cand.Type().(*types.Named)
		if !ok || named.TypeParams().Len() > 0 || types.IsInterface(named) {
			continue
		}
		switch {
		case types.Implements(named, iface):
			variants = append(variants, goVariant{name: cand.Name(), typ: named})
		case types.Implements(types.NewPointer(named), iface):
			variants = append(variants, goVariant{name: cand.Name(), typ: types.NewPointer(named), pointer: true})
		}
	}
	d.sums[obj] = variants
	return nil
}

func (d *describer) request(obj *types.TypeName) {
	if _, ok := d.byObj[obj]; ok || slices.Contains(d.queue, obj) {
		return
	}
	d.queue = append(d.queue, obj)
}

// run describes every requested type and the same-package types they
// reference.
func (d *describer) run() error {
	for len(d.queue) > 0 {
		obj := d.queue[0]
		d.queue = d.queue[1:]
		if _, ok := d.byObj[obj]; ok {
			continue
		}
		desc, err := d.describe(obj)
		if err != nil {
			return err
		}
		d.byObj[obj] = desc
		d.order = append(d.order, obj)
	}
	return nil
}

func (d *describer) describe(obj *types.TypeName) (*described, error) {
	named, ok := obj.Type().(*types.Named)
	if !ok || named.TypeParams().Len() > 0 {
		return nil, fmt.Errorf("%s: generic types are not supported", obj.Name())
	}

	if variants, ok := d.sums[obj]; ok {
		return d.describeSum(obj, variants), nil
	}

	switch u := named.Underlying().(type) {
	case *types.Struct:
		fields, bindings := d.describeFields(u)
		return &described{
			typ:    descriptor.Struct(obj.Name(), fields),
			obj:    obj,
			fields: bindings,
		}, nil

	case *types.Interface:
		if !u.IsMethodSet() {
			// A type-set interface is an untagged union.
			return &described{typ: descriptor.Union(obj.Name(), unionMembers(u)...), obj: obj}, nil
		}
		return nil, fmt.Errorf("%s: interface is not marked %s", obj.Name(), DirectiveSum)

	default:
		return nil, fmt.Errorf("%s: %s is not a struct or sum", obj.Name(), u)
	}
}

func (d *describer) describeSum(obj *types.TypeName, variants []goVariant) *described {
	desc := &described{typ: descriptor.Enum(obj.Name()), obj: obj}

	for _, v := range variants {
		base := v.typ
		if v.pointer {
			base = v.typ.(*types.Pointer).Elem()
		}

		var fields descriptor.Fields
		var bindings []goField
		if st, ok := base.Underlying().(*types.Struct); ok && !d.isTuple(base) {
			fields, bindings = d.describeFields(st)
		} else {
			fields = descriptor.Positional(descriptor.P(d.refFor(base)))
			bindings = []goField{{typ: base}}
		}

		v.fields = bindings
		desc.typ.Variants = append(desc.typ.Variants, descriptor.V(v.name, fields))
		desc.variants = append(desc.variants, v)
	}
	return desc
}

func (d *describer) describeFields(st *types.Struct) (descriptor.Fields, []goField) {
	positional := false
	var list []descriptor.Field
	var bindings []goField

	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		name, opts, _ := strings.Cut(reflect.StructTag(st.Tag(i)).Get(descriptor.TagName), ",")

		if f.Name() == "_" {
			if slices.Contains(strings.Split(opts, ","), "positional") {
				positional = true
			}
			continue
		}
		if !f.Exported() || name == "-" {
			continue
		}
		if name == "" {
			name = f.Name()
		}

		list = append(list, descriptor.F(name, d.refFor(f.Type())))
		bindings = append(bindings, goField{selector: f.Name(), typ: f.Type()})
	}

	switch {
	case len(list) == 0:
		return descriptor.NoFields(), nil
	case positional:
		for i := range list {
			list[i].Name = ""
		}
		return descriptor.Positional(list...), bindings
	default:
		return descriptor.Named(list...), bindings
	}
}

func unionMembers(iface *types.Interface) []string {
	var members []string
	for i := 0; i < iface.NumEmbeddeds(); i++ {
		switch e := iface.EmbeddedType(i).(type) {
		case *types.Union:
			for j := 0; j < e.Len(); j++ {
				members = append(members, typeLabel(e.Term(j).Type()))
			}
		default:
			members = append(members, typeLabel(e))
		}
	}
	return members
}

func typeLabel(t types.Type) string {
	if n, ok := types.Unalias(t).(*types.Named); ok {
		return n.Obj().Name()
	}
	return t.String()
}

// refFor renders the type reference of a field type, queueing same-package
// structs and sums for description. Types that project themselves have no
// reference.
func (d *describer) refFor(t types.Type) string {
	t = types.Unalias(t)

	if n, ok := t.(*types.Named); ok {
		obj := n.Obj()
		switch {
		case isNamed(n, uuidPath, "UUID"):
			return descriptor.BaseUUID
		case isNamed(n, valuePath, "Int128"):
			return descriptor.BaseI128
		case isNamed(n, valuePath, "Uint128"):
			return descriptor.BaseU128
		case isNamed(n, valuePath, "Value"):
			return ""
		case d.isTuple(n):
			st := n.Underlying().(*types.Struct)
			parts := make([]string, st.NumFields())
			for i := range parts {
				if parts[i] = d.refFor(st.Field(i).Type()); parts[i] == "" {
					return ""
				}
			}
			return "(" + strings.Join(parts, ", ") + ")"
		}

		local := obj.Pkg() == d.pkg.Types
		_, isSum := d.sums[obj]
		_, isDescribed := d.byObj[obj]
		if local && (isSum || isDescribed) {
			d.request(obj)
			return obj.Name()
		}
		if d.hasProjector(n) {
			return ""
		}
		switch u := n.Underlying().(type) {
		case *types.Struct:
			if local && n.TypeParams().Len() == 0 {
				d.request(obj)
			}
			return obj.Name()
		case *types.Interface:
			if local && !u.IsMethodSet() {
				d.request(obj)
			}
			// Unmarked interfaces stay undeclared references.
			return obj.Name()
		}
	}

	switch u := t.Underlying().(type) {
	case *types.Basic:
		return basicRef(u)
	case *types.Slice:
		return wrapRef("[]", d.refFor(u.Elem()))
	case *types.Array:
		return wrapRef("[]", d.refFor(u.Elem()))
	case *types.Map:
		if k, ok := u.Key().Underlying().(*types.Basic); !ok || k.Kind() != types.String {
			return ""
		}
		return wrapRef("map[string]", d.refFor(u.Elem()))
	case *types.Pointer:
		return wrapRef("?", d.refFor(u.Elem()))
	case *types.Struct:
		if u.NumFields() == 0 {
			return descriptor.BaseUnit
		}
	}
	return ""
}

func basicRef(b *types.Basic) string {
	switch b.Kind() {
	case types.Bool:
		return descriptor.BaseBool
	case types.Int8:
		return descriptor.BaseI8
	case types.Int16:
		return descriptor.BaseI16
	case types.Int32:
		return descriptor.BaseI32
	case types.Int64:
		return descriptor.BaseI64
	case types.Int:
		return descriptor.BaseInt
	case types.Uint8:
		return descriptor.BaseU8
	case types.Uint16:
		return descriptor.BaseU16
	case types.Uint32:
		return descriptor.BaseU32
	case types.Uint64:
		return descriptor.BaseU64
	case types.Uint, types.Uintptr:
		return descriptor.BaseUint
	case types.Float32:
		return descriptor.BaseF32
	case types.Float64:
		return descriptor.BaseF64
	case types.String:
		return descriptor.BaseString
	}
	return ""
}

func wrapRef(prefix, elem string) string {
	if elem == "" {
		return ""
	}
	return prefix + elem
}

func isNamed(n *types.Named, pkgPath, name string) bool {
	obj := n.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == pkgPath && obj.Name() == name
}

// isTuple reports whether t has a TupleArity method, as the project
// package's tuples do.
func (d *describer) isTuple(t types.Type) bool {
	if _, ok := t.Underlying().(*types.Struct); !ok {
		return false
	}
	obj, _, _ := types.LookupFieldOrMethod(t, false, d.pkg.Types, "TupleArity")
	_, ok := obj.(*types.Func)
	return ok
}

// hasProjector reports whether t (or *t) has a GenericValue method that
// was not emitted by a previous generation run.
func (d *describer) hasProjector(t types.Type) bool {
	obj, _, _ := types.LookupFieldOrMethod(t, true, d.pkg.Types, "GenericValue")
	fn, ok := obj.(*types.Func)
	if !ok {
		return false
	}
	sig := fn.Type().(*types.Signature)
	if sig.Params().Len() != 0 || sig.Results().Len() != 1 {
		return false
	}
	if fn.Pkg() == d.pkg.Types {
		pos := d.pkg.Fset.Position(fn.Pos())
		return filepath.Base(pos.Filename) != d.output
	}
	return true
}
