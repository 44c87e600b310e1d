// Package compiler turns CUE type declarations into structural descriptors.
//
// Declarations live under a top-level "type" struct:
//
//	type: Test:   fields: {a: "string", b: string}
//	type: Beta:   positional: ["string"]
//	type: Alpha:  variants: {One: positional: ["string"], Two: {}, Three: {}}
//	type: Empty:  {}
//	type: Either: union: ["Test", "Beta"]
//
// Field types are type references (see descriptor.ParseTypeRef) or bare CUE
// kinds (string, int, bool, float, number). Field and variant order follow
// declaration order.
package compiler

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/generic/internal/descriptor"
)

// Shape keys accepted on a type declaration. At most one may be present;
// none means a unit aggregate.
const (
	keyFields     = "fields"
	keyPositional = "positional"
	keyVariants   = "variants"
	keyUnion      = "union"
)

// CompileSource compiles CUE source text and returns every declared type.
func CompileSource(filename string, src []byte) ([]*descriptor.Type, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileTypes(v)
}

// CompileTypes compiles every declaration under the "type" field of v.
// A missing "type" field yields no types.
func CompileTypes(v cue.Value) ([]*descriptor.Type, error) {
	typesVal := v.LookupPath(cue.ParsePath("type"))
	if !typesVal.Exists() {
		return nil, nil
	}

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var types []*descriptor.Type
	for iter.Next() {
		t, err := CompileType(iter.Value())
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// CompileType parses one CUE declaration into a descriptor. The type name
// is the last path selector:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`type: Beta: positional: ["string"]`)
//	t, err := CompileType(v.LookupPath(cue.ParsePath("type.Beta")))
func CompileType(v cue.Value) (*descriptor.Type, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	name := ""
	if labels := v.Path().Selectors(); len(labels) > 0 {
		name = labels[len(labels)-1].Unquoted()
	}

	shapes, err := shapeKeys(v, name)
	if err != nil {
		return nil, err
	}
	if len(shapes) > 1 {
		return nil, &CompileError{
			Field:   "type." + name,
			Message: fmt.Sprintf("declares more than one shape: %v", shapes),
			Pos:     v.Pos(),
		}
	}
	if len(shapes) == 0 {
		return descriptor.Struct(name, descriptor.NoFields()), nil
	}

	shapeVal := v.LookupPath(cue.ParsePath(shapes[0]))
	path := "type." + name + "." + shapes[0]

	switch shapes[0] {
	case keyVariants:
		variants, err := parseVariants(shapeVal, path)
		if err != nil {
			return nil, err
		}
		return descriptor.Enum(name, variants...), nil

	case keyUnion:
		members, err := parseStringList(shapeVal, path)
		if err != nil {
			return nil, err
		}
		return descriptor.Union(name, members...), nil

	default:
		fields, err := parseFields(v, path)
		if err != nil {
			return nil, err
		}
		return descriptor.Struct(name, fields), nil
	}
}

// shapeKeys returns the shape keys present on a declaration and rejects
// anything else.
func shapeKeys(v cue.Value, name string) ([]string, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var keys []string
	for iter.Next() {
		label := iter.Selector().Unquoted()
		switch label {
		case keyFields, keyPositional, keyVariants, keyUnion:
			keys = append(keys, label)
		default:
			return nil, &CompileError{
				Field:   "type." + name,
				Message: fmt.Sprintf("unknown key %q (want fields, positional, variants or union)", label),
				Pos:     iter.Value().Pos(),
			}
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// parseFields reads the fields or positional key of a type or variant.
// Neither key means no fields; an empty fields or positional key keeps its
// kind.
func parseFields(v cue.Value, path string) (descriptor.Fields, error) {
	if fieldsVal := v.LookupPath(cue.ParsePath(keyFields)); fieldsVal.Exists() {
		if v.LookupPath(cue.ParsePath(keyPositional)).Exists() {
			return descriptor.Fields{}, &CompileError{
				Field:   path,
				Message: "declares both fields and positional",
				Pos:     v.Pos(),
			}
		}

		iter, err := fieldsVal.Fields()
		if err != nil {
			return descriptor.Fields{}, formatCUEError(err)
		}
		var list []descriptor.Field
		for iter.Next() {
			fieldName := iter.Selector().Unquoted()
			ref, err := extractTypeRef(iter.Value(), path+"."+fieldName)
			if err != nil {
				return descriptor.Fields{}, err
			}
			list = append(list, descriptor.F(fieldName, ref))
		}
		return descriptor.Named(list...), nil
	}

	if posVal := v.LookupPath(cue.ParsePath(keyPositional)); posVal.Exists() {
		iter, err := posVal.List()
		if err != nil {
			return descriptor.Fields{}, formatCUEError(err)
		}
		var list []descriptor.Field
		for i := 0; iter.Next(); i++ {
			ref, err := extractTypeRef(iter.Value(), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return descriptor.Fields{}, err
			}
			list = append(list, descriptor.P(ref))
		}
		return descriptor.Positional(list...), nil
	}

	return descriptor.NoFields(), nil
}

// parseVariants reads a variants struct in declaration order.
func parseVariants(v cue.Value, path string) ([]descriptor.Variant, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var variants []descriptor.Variant
	for iter.Next() {
		variantName := iter.Selector().Unquoted()
		variantVal := iter.Value()
		variantPath := path + "." + variantName

		fieldIter, err := variantVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for fieldIter.Next() {
			if label := fieldIter.Selector().Unquoted(); label != keyFields && label != keyPositional {
				return nil, &CompileError{
					Field:   variantPath,
					Message: fmt.Sprintf("unknown key %q (want fields or positional)", label),
					Pos:     fieldIter.Value().Pos(),
				}
			}
		}

		fields, err := parseFields(variantVal, variantPath)
		if err != nil {
			return nil, err
		}
		variants = append(variants, descriptor.V(variantName, fields))
	}
	return variants, nil
}

func parseStringList(v cue.Value, path string) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   path,
				Message: "members must be type names",
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// extractTypeRef converts a field value to a type reference. A concrete
// string is parsed as a reference; a bare CUE kind maps to its widest base
// type.
func extractTypeRef(v cue.Value, field string) (string, error) {
	if s, err := v.String(); err == nil {
		if _, err := descriptor.ParseTypeRef(s); err != nil {
			return "", &CompileError{
				Field:   field,
				Message: err.Error(),
				Pos:     v.Pos(),
			}
		}
		return s, nil
	}

	switch v.IncompleteKind() {
	case cue.StringKind:
		return descriptor.BaseString, nil
	case cue.IntKind:
		return descriptor.BaseI64, nil
	case cue.BoolKind:
		return descriptor.BaseBool, nil
	case cue.FloatKind, cue.NumberKind:
		return descriptor.BaseF64, nil
	default:
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
