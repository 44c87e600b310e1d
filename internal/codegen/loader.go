package codegen

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/tools/go/packages"
)

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedTypes | packages.NeedTypesSizes |
	packages.NeedSyntax | packages.NeedTypesInfo

// PackageLoader loads and caches type-checked Go packages.
type PackageLoader struct {
	dir   string
	cache map[string]*packages.Package
	mu    sync.RWMutex
}

// NewPackageLoader creates a loader resolving patterns relative to dir.
func NewPackageLoader(dir string) *PackageLoader {
	return &PackageLoader{
		dir:   dir,
		cache: make(map[string]*packages.Package),
	}
}

// Load loads the packages matched by patterns. A package with type errors
// is an error: generated code is only as good as the types it reads.
func (l *PackageLoader) Load(ctx context.Context, patterns ...string) ([]*packages.Package, error) {
	var out []*packages.Package
	var missing []string

	l.mu.RLock()
	for _, p := range patterns {
		if pkg, ok := l.cache[p]; ok {
			out = append(out, pkg)
		} else {
			missing = append(missing, p)
		}
	}
	l.mu.RUnlock()

	if len(missing) == 0 {
		return out, nil
	}

	cfg := &packages.Config{
		Context: ctx,
		Dir:     l.dir,
		Mode:    loadMode,
	}
	pkgs, err := packages.Load(cfg, missing...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages %v: %w", missing, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages match %v", missing)
	}

	var errs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Errorf("package %s: %s", pkg.PkgPath, e.Msg))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	// A single pattern may expand to many packages; cache by pattern only
	// when it resolves to exactly one.
	l.mu.Lock()
	if len(missing) == 1 && len(pkgs) == 1 {
		l.cache[missing[0]] = pkgs[0]
	}
	l.mu.Unlock()

	return append(out, pkgs...), nil
}
