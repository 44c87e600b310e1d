package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/generic/internal/descriptor"
	"github.com/roach88/generic/internal/project"
	"github.com/roach88/generic/internal/value"
)

// marshalDescriptor converts a descriptor to JSON TEXT for storage.
// Uses json.Encoder with HTML escaping disabled so type references such as
// "map[string]i64" are stored verbatim.
func marshalDescriptor(t *descriptor.Type) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(t); err != nil {
		return "", fmt.Errorf("marshal descriptor: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalDescriptor parses JSON TEXT to a descriptor.
func unmarshalDescriptor(data string) (*descriptor.Type, error) {
	var t descriptor.Type
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("unmarshal descriptor: %w", err)
	}
	return &t, nil
}

// descriptorDigest is the value digest of the descriptor itself, projected
// like any other struct. Equal shapes have equal digests regardless of how
// the descriptor was authored.
func descriptorDigest(t *descriptor.Type) (string, error) {
	v, err := project.Project(*t)
	if err != nil {
		return "", fmt.Errorf("project descriptor %s: %w", t.Name, err)
	}
	return value.Digest(v)
}

// marshalValue converts a value tree to canonical JSON TEXT.
func marshalValue(v value.Value) (string, error) {
	data, err := value.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// unmarshalValue parses canonical JSON TEXT to a value tree.
func unmarshalValue(data string) (value.Value, error) {
	v, err := value.UnmarshalCanonical([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return v, nil
}

// rootTypeName returns the type name of an aggregate node.
func rootTypeName(v value.Value) (string, bool) {
	switch n := v.(type) {
	case value.Struct:
		return n.TypeName, true
	case value.TupleStruct:
		return n.TypeName, true
	case value.Variant:
		return n.Type(), true
	}
	return "", false
}
