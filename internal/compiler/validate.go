package compiler

import (
	"fmt"

	"github.com/roach88/generic/internal/descriptor"
)

// Catalog-level validation error codes (E120-E129)
const (
	ErrDuplicateType  = "E120" // two declarations share a name
	ErrUnknownMember  = "E121" // union member is not declared
	ErrUnknownTypeRef = "E122" // field refers to an undeclared type
)

// ValidationError is a descriptor validation error.
type ValidationError = descriptor.ValidationError

// Validate checks compiled descriptors. Returns all errors found (does not
// fail-fast). Field paths are prefixed with "type.<Name>".
//
// Unknown references are reported here so authors see them next to other
// declaration mistakes; derivation reports the same condition as
// MissingDescriptor.
func Validate(types []*descriptor.Type) []ValidationError {
	var errs []ValidationError

	declared := make(map[string]bool, len(types))
	for _, t := range types {
		if declared[t.Name] {
			errs = append(errs, ValidationError{
				Field:   "type." + t.Name,
				Message: fmt.Sprintf("duplicate type name: %q", t.Name),
				Code:    ErrDuplicateType,
			})
		}
		declared[t.Name] = true
	}

	for _, t := range types {
		prefix := "type." + t.Name

		for _, e := range descriptor.Validate(t) {
			e.Field = prefix + "." + e.Field
			errs = append(errs, e)
		}

		for i, m := range t.Members {
			if !declared[m] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.members[%d]", prefix, i),
					Message: fmt.Sprintf("unknown member type %q", m),
					Code:    ErrUnknownMember,
				})
			}
		}

		for _, f := range t.AllFields() {
			if f.Type == "" {
				continue
			}
			ref, err := descriptor.ParseTypeRef(f.Type)
			if err != nil {
				continue // reported by descriptor.Validate
			}
			for _, name := range ref.Names() {
				if !declared[name] {
					errs = append(errs, ValidationError{
						Field:   fieldPath(prefix, f),
						Message: fmt.Sprintf("unknown type %q", name),
						Code:    ErrUnknownTypeRef,
					})
				}
			}
		}
	}

	return errs
}

func fieldPath(prefix string, f descriptor.Field) string {
	if f.Name == "" {
		return prefix + ".positional"
	}
	return prefix + "." + f.Name
}
