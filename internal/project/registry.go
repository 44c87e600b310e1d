package project

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/generic/internal/derive"
	"github.com/roach88/generic/internal/descriptor"
	"github.com/roach88/generic/internal/value"
)

var (
	projectorType = reflect.TypeFor[Projector]()
	valueType     = reflect.TypeFor[value.Value]()
	uuidType      = reflect.TypeFor[uuid.UUID]()
	int128Type    = reflect.TypeFor[value.Int128]()
	uint128Type   = reflect.TypeFor[value.Uint128]()
)

// Registry derives and caches projections for Go types.
//
// Derivation runs once per type under the write lock and covers the type's
// whole field graph, so every UnsupportedShape or MissingDescriptor error
// surfaces before the first projection. Failures are cached too: a type
// that failed derivation never projects. Cached projectors are immutable
// and run without locking.
type Registry struct {
	mu      sync.RWMutex
	sums    map[reflect.Type][]reflect.Type
	derived map[reflect.Type]projector
	failed  map[reflect.Type]error
	descs   map[reflect.Type]*descriptor.Type
	logger  *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for derivation events.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sums:    make(map[reflect.Type][]reflect.Type),
		derived: make(map[reflect.Type]projector),
		failed:  make(map[reflect.Type]error),
		descs:   make(map[reflect.Type]*descriptor.Type),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterSumTypes declares the variants of a sealed interface. Variant
// order is declaration order. A sum must be registered before anything
// that mentions it is derived.
func (r *Registry) RegisterSumTypes(iface reflect.Type, variants ...reflect.Type) error {
	if iface.Kind() != reflect.Interface {
		return fmt.Errorf("register sum: %s is not an interface type", iface)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sums[iface]; ok {
		return fmt.Errorf("register sum: %s already registered", iface)
	}
	if _, ok := r.derived[iface]; ok || r.failed[iface] != nil {
		return fmt.Errorf("register sum: %s already derived", iface)
	}

	names := make(map[string]bool, len(variants))
	for _, vt := range variants {
		if !vt.Implements(iface) {
			return fmt.Errorf("register sum: %s does not implement %s", vt, iface)
		}
		name := vt.Name()
		if vt.Kind() == reflect.Pointer {
			name = vt.Elem().Name()
		}
		if names[name] {
			return fmt.Errorf("register sum: duplicate variant name %q in %s", name, iface)
		}
		names[name] = true
	}

	r.sums[iface] = append([]reflect.Type(nil), variants...)
	r.logger.Debug("registered sum",
		"type", typeName(iface),
		"variants", len(variants),
	)
	return nil
}

// RegisterSum declares the variants of sum type I from sample values.
//
//	project.RegisterSum[Alpha](reg, One(""), Two{}, Three{})
func RegisterSum[I any](r *Registry, variants ...I) error {
	types := make([]reflect.Type, len(variants))
	for i, v := range variants {
		if any(v) == nil {
			return fmt.Errorf("register sum: variant %d is nil", i)
		}
		types[i] = reflect.TypeOf(v)
	}
	return r.RegisterSumTypes(reflect.TypeFor[I](), types...)
}

// Derive derives the projection for t and everything it contains.
func (r *Registry) Derive(t reflect.Type) error {
	_, err := r.projectorFor(t)
	return err
}

// DeriveFor derives the projection for T.
func DeriveFor[T any](r *Registry) error {
	return r.Derive(reflect.TypeFor[T]())
}

// Descriptor returns the structural descriptor derived for an aggregate or
// sum type, deriving it first if needed.
func (r *Registry) Descriptor(t reflect.Type) (*descriptor.Type, error) {
	if err := r.Derive(t); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descs[t]
	if !ok {
		return nil, derive.MissingDescriptor(typeName(t), "%s is a base case", t)
	}
	return d, nil
}

// Project projects x by its dynamic type. To project a sum value through
// its interface type, use ProjectAs.
//
// Derivation failures are reported before anything is projected. A sum
// value can still fail at projection time with MissingDescriptor when it
// holds no variant: a nil interface, a nil pointer variant, or a type
// implementing the interface that was never registered. A registered
// variant T also matches when stored as *T, and the reverse.
func (r *Registry) Project(x any) (value.Value, error) {
	if x == nil {
		return nil, derive.MissingDescriptor("", "nil value has no type")
	}
	return r.ProjectValue(reflect.ValueOf(x))
}

// ProjectAs projects x by its static type T.
func ProjectAs[T any](r *Registry, x T) (value.Value, error) {
	return r.ProjectValue(reflect.ValueOf(&x).Elem())
}

// ProjectValue projects v by v.Type().
func (r *Registry) ProjectValue(v reflect.Value) (out value.Value, err error) {
	p, err := r.projectorFor(v.Type())
	if err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			pe, ok := rec.(projectionError)
			if !ok {
				panic(rec)
			}
			out, err = nil, pe.err
		}
	}()
	return p(v), nil
}

func (r *Registry) projectorFor(t reflect.Type) (projector, error) {
	r.mu.RLock()
	p, ok := r.derived[t]
	err := r.failed[t]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.compile(t, make(map[reflect.Type]bool))
}

func (r *Registry) lookupSum(iface reflect.Type) ([]reflect.Type, bool) {
	variants, ok := r.sums[iface]
	return variants, ok
}

// compile builds the projector for t. Caller holds the write lock.
func (r *Registry) compile(t reflect.Type, inProgress map[reflect.Type]bool) (projector, error) {
	if p, ok := r.derived[t]; ok {
		return p, nil
	}
	if err := r.failed[t]; err != nil {
		return nil, err
	}
	if inProgress[t] {
		return nil, derive.UnsupportedShape(typeName(t), "recursive shape")
	}

	p, err := r.compileUncached(t, inProgress)
	if err != nil {
		r.failed[t] = err
		r.logger.Debug("derivation failed",
			"type", t.String(),
			"error", err,
		)
		return nil, err
	}
	r.derived[t] = p
	return p, nil
}

func (r *Registry) compileUncached(t reflect.Type, inProgress map[reflect.Type]bool) (projector, error) {
	switch {
	case t == uuidType:
		return func(v reflect.Value) value.Value {
			return UUID(v.Interface().(uuid.UUID))
		}, nil
	case t == int128Type:
		return func(v reflect.Value) value.Value {
			return value.I128(value.Int128{Hi: v.Field(0).Int(), Lo: v.Field(1).Uint()})
		}, nil
	case t == uint128Type:
		return func(v reflect.Value) value.Value {
			return value.U128(value.Uint128{Hi: v.Field(0).Uint(), Lo: v.Field(1).Uint()})
		}, nil
	case t == valueType:
		return func(v reflect.Value) value.Value {
			if v.IsNil() {
				throw(derive.MissingDescriptor("Value", "nil generic value"))
			}
			return v.Interface().(value.Value)
		}, nil
	case descriptor.IsTuple(t):
		return r.compileTuple(t, inProgress)
	}

	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		if t.Implements(projectorType) {
			return func(v reflect.Value) value.Value {
				return v.Interface().(Projector).GenericValue()
			}, nil
		}
		if reflect.PointerTo(t).Implements(projectorType) {
			return func(v reflect.Value) value.Value {
				p := reflect.New(t)
				p.Elem().Set(v)
				return p.Interface().(Projector).GenericValue()
			}, nil
		}
	}

	switch t.Kind() {
	case reflect.Bool:
		return func(v reflect.Value) value.Value { return value.Bool(v.Bool()) }, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(v reflect.Value) value.Value { return value.I64(v.Int()) }, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(v reflect.Value) value.Value { return value.U64(v.Uint()) }, nil
	case reflect.Float32, reflect.Float64:
		return func(v reflect.Value) value.Value { return value.F64(v.Float()) }, nil
	case reflect.String:
		return func(v reflect.Value) value.Value { return value.String(v.String()) }, nil

	case reflect.Slice, reflect.Array:
		elem, err := r.compile(t.Elem(), inProgress)
		if err != nil {
			return nil, within(t, "element", err)
		}
		return func(v reflect.Value) value.Value {
			out := make(value.Vec, v.Len())
			for i := range out {
				out[i] = elem(v.Index(i))
			}
			return out
		}, nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, derive.UnsupportedShape(typeName(t), "map key %s is not string-kinded", t.Key())
		}
		elem, err := r.compile(t.Elem(), inProgress)
		if err != nil {
			return nil, within(t, "value", err)
		}
		return func(v reflect.Value) value.Value {
			out := make(value.Map, v.Len())
			iter := v.MapRange()
			for iter.Next() {
				out[iter.Key().String()] = elem(iter.Value())
			}
			return out
		}, nil

	case reflect.Pointer:
		elem, err := r.compile(t.Elem(), inProgress)
		if err != nil {
			return nil, within(t, "element", err)
		}
		return func(v reflect.Value) value.Value {
			if v.IsNil() {
				return value.None()
			}
			return value.Some(elem(v.Elem()))
		}, nil

	case reflect.Struct:
		if t.Name() == "" && t.NumField() == 0 {
			return func(reflect.Value) value.Value { return value.Unit{} }, nil
		}
		return r.compileAggregate(t, inProgress)

	case reflect.Interface:
		if _, ok := r.sums[t]; ok {
			return r.compileAggregate(t, inProgress)
		}
		if t.Implements(projectorType) {
			name := typeName(t)
			return func(v reflect.Value) value.Value {
				if v.IsNil() {
					throw(derive.MissingDescriptor(name, "nil interface value"))
				}
				return v.Interface().(Projector).GenericValue()
			}, nil
		}
		return nil, derive.MissingDescriptor(typeName(t), "interface is not a registered sum")
	}

	return nil, derive.UnsupportedShape(typeName(t), "%s has no generic representation", t.Kind())
}

func (r *Registry) compileTuple(t reflect.Type, inProgress map[reflect.Type]bool) (projector, error) {
	elems := make([]projector, t.NumField())
	for i := range elems {
		p, err := r.compile(t.Field(i).Type, inProgress)
		if err != nil {
			return nil, within(t, fmt.Sprintf("element %d", i), err)
		}
		elems[i] = p
	}
	return func(v reflect.Value) value.Value {
		out := make(value.Tuple, len(elems))
		for i, p := range elems {
			out[i] = p(v.Field(i))
		}
		return out
	}, nil
}

// compileAggregate derives a plan for a named struct or registered sum and
// compiles every field it reads.
func (r *Registry) compileAggregate(t reflect.Type, inProgress map[reflect.Type]bool) (projector, error) {
	refl, err := descriptor.Reflect(t, r.lookupSum)
	if err != nil {
		return nil, derive.MissingDescriptor(typeName(t), "cannot describe type").Wrap(err)
	}
	plan, err := derive.Derive(refl.Type)
	if err != nil {
		return nil, err
	}

	inProgress[t] = true
	defer delete(inProgress, t)

	compileFields := func(fields []descriptor.GoField, list []descriptor.Field) ([]projector, error) {
		proj := make([]projector, len(fields))
		for i, f := range fields {
			p, err := r.compile(f.Type, inProgress)
			if err != nil {
				label := list[i].Name
				if label == "" {
					label = fmt.Sprintf("%d", i)
				}
				return nil, within(t, "field "+label, err)
			}
			proj[i] = p
		}
		return proj, nil
	}

	var p projector
	switch plan.Kind() {
	case descriptor.KindStruct:
		proj, err := compileFields(refl.Fields, refl.Type.Fields.List)
		if err != nil {
			return nil, err
		}
		b := newBinding("", refl.Fields, refl.Type.Fields.List, proj)
		p = func(v reflect.Value) value.Value {
			return plan.Project(structSource{v: v, b: b}, applySlot)
		}

	default:
		variants := make(map[reflect.Type]*binding, len(refl.Variants))
		for i, gv := range refl.Variants {
			dv := refl.Type.Variants[i]
			proj, err := compileFields(gv.Fields, dv.Fields.List)
			if err != nil {
				return nil, err
			}
			b := newBinding(dv.Name, gv.Fields, dv.Fields.List, proj)
			b.deref = gv.Type.Kind() == reflect.Pointer
			variants[gv.Type] = b
			if twin, ok := pointerTwin(gv.Type, t); ok {
				tb := *b
				tb.deref = twin.Kind() == reflect.Pointer
				variants[twin] = &tb
			}
		}
		name := refl.Type.Name
		p = func(v reflect.Value) value.Value {
			return plan.Project(sumSource{v: v, typeName: name, variants: variants}, applySlot)
		}
	}

	r.descs[t] = refl.Type
	r.logger.Debug("derived projection",
		"type", refl.Type.Name,
		"kind", string(refl.Type.Kind),
	)
	return p, nil
}

// pointerTwin returns the other pointer form of a variant type (*T for T,
// T for *T) when it also implements the sum interface, so a variant stored
// either way selects the same arm.
func pointerTwin(vt, iface reflect.Type) (reflect.Type, bool) {
	twin := reflect.PointerTo(vt)
	if vt.Kind() == reflect.Pointer {
		twin = vt.Elem()
	}
	return twin, twin.Implements(iface)
}

// within attributes a nested derivation failure to the enclosing type,
// keeping the nested error's kind.
func within(t reflect.Type, where string, err error) error {
	code := derive.CodeOf(err)
	if code == "" {
		code = derive.ErrCodeMissingDescriptor
	}
	return (&derive.Error{
		Code:     code,
		TypeName: typeName(t),
		Message:  where,
	}).Wrap(err)
}

func typeName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
