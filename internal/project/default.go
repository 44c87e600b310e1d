package project

import (
	"fmt"
	"sync"

	"github.com/roach88/generic/internal/value"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry used by Project and Must.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Project projects x through the default registry.
func Project(x any) (value.Value, error) {
	return Default().Project(x)
}

// Must projects x through the default registry and panics if the type
// cannot be derived. Generated code uses it for field types it has no
// direct helper for.
func Must(x any) value.Value {
	v, err := Default().Project(x)
	if err != nil {
		panic(fmt.Sprintf("project: %v", err))
	}
	return v
}
