package derive

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/generic/internal/descriptor"
)

// Resolver looks up descriptors by type name.
type Resolver interface {
	Lookup(name string) (*descriptor.Type, bool)
}

// Catalog is a set of descriptors derived together, with the type
// references between them resolved.
//
// A type is usable only if its own derivation succeeded and every type it
// references is usable. Failures are kept per type, so the rest of the
// catalog stays usable.
type Catalog struct {
	types  map[string]*descriptor.Type
	plans  map[string]*Plan
	failed map[string]error
	names  []string
}

// NewCatalog derives every descriptor. The returned error joins all
// per-type failures in name order; the catalog is returned either way.
func NewCatalog(types []*descriptor.Type) (*Catalog, error) {
	c := &Catalog{
		types:  make(map[string]*descriptor.Type, len(types)),
		plans:  make(map[string]*Plan, len(types)),
		failed: make(map[string]error),
	}

	for _, t := range types {
		if t == nil {
			continue
		}
		if _, dup := c.types[t.Name]; dup {
			c.failed[t.Name] = MissingDescriptor(t.Name, "declared more than once")
			continue
		}
		c.types[t.Name] = t
		c.names = append(c.names, t.Name)
	}
	slices.Sort(c.names)

	for _, name := range c.names {
		if c.failed[name] != nil {
			continue
		}
		plan, err := Derive(c.types[name])
		if err != nil {
			c.failed[name] = err
			continue
		}
		c.plans[name] = plan
	}

	c.rejectCycles()
	c.propagateFailures()

	return c, c.Err()
}

// DeriveFrom resolves the named types and everything they reference
// through r, then derives them as one catalog. A reference r cannot
// resolve is MissingDescriptor on the referencing type.
func DeriveFrom(r Resolver, names ...string) (*Catalog, error) {
	var types []*descriptor.Type
	var missing []error
	seen := make(map[string]bool)

	queue := append([]string(nil), names...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true

		t, ok := r.Lookup(name)
		if !ok {
			if slices.Contains(names, name) {
				missing = append(missing, MissingDescriptor(name, "no descriptor found"))
			}
			continue
		}
		types = append(types, t)
		queue = append(queue, t.References()...)
	}

	c, err := NewCatalog(types)
	return c, errors.Join(append(missing, err)...)
}

// rejectCycles marks every type on a reference cycle as UnsupportedShape.
func (c *Catalog) rejectCycles() {
	types := make([]*descriptor.Type, len(c.names))
	for i, name := range c.names {
		types[i] = c.types[name]
	}
	for _, cycle := range descriptor.FindCycles(types) {
		for _, name := range cycle.Members() {
			if c.failed[name] == nil {
				c.fail(name, UnsupportedShape(name, "recursive shape: %s", cycle.Message))
			}
		}
	}
}

// propagateFailures fails every type that references an unknown or failed
// type, until nothing changes.
func (c *Catalog) propagateFailures() {
	for changed := true; changed; {
		changed = false
		for _, name := range c.names {
			if c.failed[name] != nil {
				continue
			}
			for _, ref := range c.types[name].References() {
				if _, declared := c.types[ref]; !declared {
					c.fail(name, MissingDescriptor(name, "references undeclared type %s", ref))
					changed = true
					break
				}
				if cause := c.failed[ref]; cause != nil {
					code := CodeOf(cause)
					if code == "" {
						code = ErrCodeMissingDescriptor
					}
					c.fail(name, (&Error{
						Code:     code,
						TypeName: name,
						Message:  fmt.Sprintf("depends on unusable type %s", ref),
					}).Wrap(cause))
					changed = true
					break
				}
			}
		}
	}
}

func (c *Catalog) fail(name string, err error) {
	c.failed[name] = err
	delete(c.plans, name)
}

// Plan returns the plan for a type, or the reason it is unusable.
func (c *Catalog) Plan(name string) (*Plan, error) {
	if err := c.failed[name]; err != nil {
		return nil, err
	}
	plan, ok := c.plans[name]
	if !ok {
		return nil, MissingDescriptor(name, "not in catalog")
	}
	return plan, nil
}

// Type returns the descriptor for a type.
func (c *Catalog) Type(name string) (*descriptor.Type, bool) {
	t, ok := c.types[name]
	return t, ok
}

// Lookup implements Resolver.
func (c *Catalog) Lookup(name string) (*descriptor.Type, bool) {
	return c.Type(name)
}

// Names returns every declared type name in sorted order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Failures returns the derivation error of every unusable type.
func (c *Catalog) Failures() map[string]error {
	out := make(map[string]error, len(c.failed))
	for name, err := range c.failed {
		out[name] = err
	}
	return out
}

// Err joins all failures in name order, or returns nil.
func (c *Catalog) Err() error {
	names := make([]string, 0, len(c.failed))
	for name := range c.failed {
		names = append(names, name)
	}
	slices.Sort(names)

	errs := make([]error, len(names))
	for i, name := range names {
		errs[i] = c.failed[name]
	}
	return errors.Join(errs...)
}
