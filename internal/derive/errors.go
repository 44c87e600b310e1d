package derive

import (
	"errors"
	"fmt"
)

// Error is a derivation-time failure. Derivation either yields a Plan or
// one of these; projection itself never fails.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// TypeName is the type whose derivation failed.
	TypeName string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes derivation errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedShape: the descriptor is well formed but its shape
	// cannot be projected (unit aggregate, union, recursive reference,
	// unrepresentable base type).
	ErrCodeUnsupportedShape ErrorCode = "UNSUPPORTED_SHAPE"

	// ErrCodeMissingDescriptor: no usable descriptor could be obtained for
	// the type.
	ErrCodeMissingDescriptor ErrorCode = "MISSING_DESCRIPTOR"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.TypeName != "" {
		msg = fmt.Sprintf("%s: %s: %s", e.Code, e.TypeName, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// UnsupportedShape creates an Error with ErrCodeUnsupportedShape.
func UnsupportedShape(typeName, format string, args ...any) *Error {
	return &Error{
		Code:     ErrCodeUnsupportedShape,
		TypeName: typeName,
		Message:  fmt.Sprintf(format, args...),
	}
}

// MissingDescriptor creates an Error with ErrCodeMissingDescriptor.
func MissingDescriptor(typeName, format string, args ...any) *Error {
	return &Error{
		Code:     ErrCodeMissingDescriptor,
		TypeName: typeName,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a cause to e and returns it.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// IsUnsupportedShape reports whether err is, or wraps, an UnsupportedShape
// error.
func IsUnsupportedShape(err error) bool {
	return CodeOf(err) == ErrCodeUnsupportedShape
}

// IsMissingDescriptor reports whether err is, or wraps, a MissingDescriptor
// error.
func IsMissingDescriptor(err error) bool {
	return CodeOf(err) == ErrCodeMissingDescriptor
}

// CodeOf returns the code of the outermost derivation Error in err's chain,
// or "" if there is none.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
