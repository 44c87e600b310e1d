package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/generic/internal/descriptor"
	"github.com/roach88/generic/internal/value"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDescriptor() *descriptor.Type {
	return descriptor.Struct("Test", descriptor.Named(
		descriptor.F("a", "string"),
		descriptor.F("beta", "[]Beta"),
	))
}

func betaDescriptor() *descriptor.Type {
	return descriptor.Struct("Beta", descriptor.Positional(descriptor.P("string")))
}

func testValue(a string, betas ...string) value.Value {
	vec := value.Vec{}
	for _, b := range betas {
		vec = append(vec, value.TupleStruct{TypeName: "Beta", Data: []value.Value{value.String(b)}})
	}
	return value.Struct{TypeName: "Test", Data: map[string]value.Value{
		"a":    value.String(a),
		"beta": vec,
	}}
}
