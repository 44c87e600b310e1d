package codegen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/tools/go/packages"

	"github.com/roach88/generic/internal/derive"
	"github.com/roach88/generic/internal/descriptor"
)

// Config selects what to generate.
type Config struct {
	// Dir is the directory patterns are resolved in. Empty means the
	// current directory.
	Dir string
	// Patterns are package patterns as accepted by go list. Default ".".
	Patterns []string
	// Types names types to generate in addition to those carrying a
	// directive. Each must exist in one of the loaded packages.
	Types []string
	// Logger receives progress at Debug. Nil means slog.Default().
	Logger *slog.Logger
}

// File is one generated source file.
type File struct {
	Path    string
	Package string
	Types   []string
	Source  []byte
}

// Write writes the file to disk.
func (f File) Write() error {
	return os.WriteFile(f.Path, f.Source, 0o644)
}

// OutputName is the generated file name for a package.
func OutputName(pkgName string) string {
	return pkgName + "_generic.go"
}

// Generate derives every requested type and renders its projection code,
// one file per package. Derivation failures (UnsupportedShape,
// MissingDescriptor) fail generation as *derive.Error.
func Generate(ctx context.Context, cfg Config) ([]File, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	pkgs, err := NewPackageLoader(cfg.Dir).Load(ctx, patterns...)
	if err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(cfg.Types))
	var files []File
	for _, pkg := range pkgs {
		f, ok, err := generatePackage(pkg, cfg.Types, found)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", pkg.PkgPath, err)
		}
		if !ok {
			logger.Debug("nothing to generate", "package", pkg.PkgPath)
			continue
		}
		logger.Debug("generated", "package", pkg.PkgPath, "file", f.Path, "types", f.Types)
		files = append(files, f)
	}

	for _, name := range cfg.Types {
		if !found[name] {
			return nil, derive.MissingDescriptor(name, "type not found in %v", patterns)
		}
	}
	return files, nil
}

// Describe returns the descriptors Generate would derive, per package in
// generation order, without deriving or emitting anything.
func Describe(ctx context.Context, cfg Config) ([]*descriptor.Type, error) {
	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	pkgs, err := NewPackageLoader(cfg.Dir).Load(ctx, patterns...)
	if err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(cfg.Types))
	var out []*descriptor.Type
	for _, pkg := range pkgs {
		d, err := describePackage(pkg, cfg.Types, found)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", pkg.PkgPath, err)
		}
		for _, obj := range d.order {
			out = append(out, d.byObj[obj].typ)
		}
	}
	for _, name := range cfg.Types {
		if !found[name] {
			return nil, derive.MissingDescriptor(name, "type not found in %v", patterns)
		}
	}
	return out, nil
}

// describePackage describes the directive-marked types of pkg, the wanted
// types it declares, and everything they reference locally.
func describePackage(pkg *packages.Package, want []string, found map[string]bool) (*describer, error) {
	d := newDescriber(pkg, OutputName(pkg.Name))

	var dirs directives
	for _, file := range pkg.Syntax {
		scanDirectives(file, &dirs)
	}

	for _, name := range dirs.sums {
		obj, ok := d.lookup(name)
		if !ok {
			continue
		}
		if err := d.registerSum(obj); err != nil {
			return nil, err
		}
	}
	for _, name := range append(dirs.sums, dirs.derive...) {
		if obj, ok := d.lookup(name); ok {
			d.request(obj)
		}
	}
	for _, name := range want {
		if obj, ok := d.lookup(name); ok {
			found[name] = true
			d.request(obj)
		}
	}

	if err := d.run(); err != nil {
		return nil, err
	}
	return d, nil
}

func generatePackage(pkg *packages.Package, want []string, found map[string]bool) (File, bool, error) {
	d, err := describePackage(pkg, want, found)
	if err != nil {
		return File{}, false, err
	}
	if len(d.order) == 0 {
		return File{}, false, nil
	}

	descs := make([]*descriptor.Type, 0, len(d.order))
	names := make([]string, 0, len(d.order))
	for _, obj := range d.order {
		descs = append(descs, d.byObj[obj].typ)
		names = append(names, obj.Name())
	}
	if _, err := derive.NewCatalog(descs); err != nil {
		return File{}, false, err
	}

	if len(pkg.GoFiles) == 0 {
		return File{}, false, fmt.Errorf("no Go files")
	}
	path := filepath.Join(filepath.Dir(pkg.GoFiles[0]), OutputName(pkg.Name))

	src, err := newEmitter(d).file(path)
	if err != nil {
		return File{}, false, err
	}
	return File{Path: path, Package: pkg.Name, Types: names, Source: src}, true, nil
}
