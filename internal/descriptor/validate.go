package descriptor

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Validation error codes (E100-E119)
const (
	ErrTypeNameEmpty       = "E101" // type name is required
	ErrUnknownKind         = "E102" // kind is not struct, enum or union
	ErrUnknownFieldsKind   = "E103" // fields kind is not named, positional or unit
	ErrInvalidFieldType    = "E104" // field type reference does not parse
	ErrDuplicateName       = "E105" // duplicate field, variant or member name
	ErrFieldNameEmpty      = "E106" // named field without a name
	ErrPositionalFieldName = "E107" // positional field carries a name
	ErrUnitFieldsNotEmpty  = "E108" // unit shape lists fields
	ErrVariantNameEmpty    = "E109" // variant name is required
	ErrMisplacedShape      = "E110" // fields on an enum, variants on a struct, ...
	ErrUnionNoMembers      = "E111" // union lists no member types
	ErrNameNotNFC          = "E112" // name is not in Unicode NFC form
)

// ValidationError reports one malformed part of a descriptor.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks that a descriptor is well formed. It returns all problems
// found rather than stopping at the first one.
//
// Well-formedness is separate from derivability: a unit aggregate or a union
// is well formed but cannot be derived.
func Validate(t *Type) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "type name is required and must be non-empty",
			Code:    ErrTypeNameEmpty,
		})
	}
	errs = appendNFC(errs, "name", t.Name)

	switch t.Kind {
	case KindStruct:
		errs = append(errs, validateFields("fields", t.Fields)...)
		if len(t.Variants) > 0 || len(t.Members) > 0 {
			errs = append(errs, ValidationError{
				Field:   "kind",
				Message: "struct declares variants or members",
				Code:    ErrMisplacedShape,
			})
		}

	case KindEnum:
		if t.Fields.Len() > 0 || len(t.Members) > 0 {
			errs = append(errs, ValidationError{
				Field:   "kind",
				Message: "enum declares fields or members outside its variants",
				Code:    ErrMisplacedShape,
			})
		}
		seen := make(map[string]bool)
		for i, v := range t.Variants {
			path := fmt.Sprintf("variants[%d]", i)
			if strings.TrimSpace(v.Name) == "" {
				errs = append(errs, ValidationError{
					Field:   path + ".name",
					Message: "variant name is required",
					Code:    ErrVariantNameEmpty,
				})
			} else if seen[v.Name] {
				errs = append(errs, ValidationError{
					Field:   path + ".name",
					Message: fmt.Sprintf("duplicate variant name: %q", v.Name),
					Code:    ErrDuplicateName,
				})
			}
			seen[v.Name] = true
			errs = appendNFC(errs, path+".name", v.Name)
			errs = append(errs, validateFields(path+".fields", v.Fields)...)
		}

	case KindUnion:
		if len(t.Members) == 0 {
			errs = append(errs, ValidationError{
				Field:   "members",
				Message: "union must list at least one member type",
				Code:    ErrUnionNoMembers,
			})
		}
		seen := make(map[string]bool)
		for i, m := range t.Members {
			if seen[m] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("members[%d]", i),
					Message: fmt.Sprintf("duplicate member: %q", m),
					Code:    ErrDuplicateName,
				})
			}
			seen[m] = true
			errs = appendNFC(errs, fmt.Sprintf("members[%d]", i), m)
		}

	default:
		errs = append(errs, ValidationError{
			Field:   "kind",
			Message: fmt.Sprintf("unknown kind %q (must be struct, enum or union)", t.Kind),
			Code:    ErrUnknownKind,
		})
	}

	return errs
}

func validateFields(path string, f Fields) []ValidationError {
	var errs []ValidationError

	switch f.Kind {
	case FieldsNamed, FieldsPositional:
	case FieldsUnit:
		if len(f.List) > 0 {
			errs = append(errs, ValidationError{
				Field:   path,
				Message: fmt.Sprintf("unit shape lists %d fields", len(f.List)),
				Code:    ErrUnitFieldsNotEmpty,
			})
		}
		return errs
	default:
		return append(errs, ValidationError{
			Field:   path + ".kind",
			Message: fmt.Sprintf("unknown fields kind %q (must be named, positional or unit)", f.Kind),
			Code:    ErrUnknownFieldsKind,
		})
	}

	seen := make(map[string]bool)
	for i, field := range f.List {
		fieldPath := fmt.Sprintf("%s[%d]", path, i)

		if f.Kind == FieldsNamed {
			switch {
			case strings.TrimSpace(field.Name) == "":
				errs = append(errs, ValidationError{
					Field:   fieldPath + ".name",
					Message: "named field without a name",
					Code:    ErrFieldNameEmpty,
				})
			case seen[field.Name]:
				errs = append(errs, ValidationError{
					Field:   fieldPath + ".name",
					Message: fmt.Sprintf("duplicate field name: %q", field.Name),
					Code:    ErrDuplicateName,
				})
			}
			seen[field.Name] = true
			errs = appendNFC(errs, fieldPath+".name", field.Name)
		} else if field.Name != "" {
			errs = append(errs, ValidationError{
				Field:   fieldPath + ".name",
				Message: fmt.Sprintf("positional field carries name %q", field.Name),
				Code:    ErrPositionalFieldName,
			})
		}

		if field.Type != "" {
			if _, err := ParseTypeRef(field.Type); err != nil {
				errs = append(errs, ValidationError{
					Field:   fieldPath + ".type",
					Message: err.Error(),
					Code:    ErrInvalidFieldType,
				})
			}
		}
	}

	return errs
}

// appendNFC reports name when it is not NFC normalized. Names are matched
// byte for byte, so a decomposed spelling would be a different name that
// renders identically.
func appendNFC(errs []ValidationError, path, name string) []ValidationError {
	if norm.NFC.IsNormalString(name) {
		return errs
	}
	return append(errs, ValidationError{
		Field:   path,
		Message: fmt.Sprintf("name %q is not in Unicode NFC form (want %q)", name, norm.NFC.String(name)),
		Code:    ErrNameNotNFC,
	})
}
