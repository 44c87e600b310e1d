package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/generic/internal/descriptor"
)

type mapResolver map[string]*descriptor.Type

func (m mapResolver) Lookup(name string) (*descriptor.Type, bool) {
	t, ok := m[name]
	return t, ok
}

func TestCatalogAllUsable(t *testing.T) {
	cat, err := NewCatalog([]*descriptor.Type{
		descriptor.Struct("Test", descriptor.Named(descriptor.F("beta", "Beta"), descriptor.F("alpha", "[]Alpha"))),
		descriptor.Struct("Beta", descriptor.Positional(descriptor.P("string"))),
		alphaDescriptor(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha", "Beta", "Test"}, cat.Names())
	for _, name := range cat.Names() {
		plan, err := cat.Plan(name)
		require.NoError(t, err)
		assert.Equal(t, name, plan.TypeName())
	}
	assert.Empty(t, cat.Failures())
}

func TestCatalogFailuresStayLocal(t *testing.T) {
	cat, err := NewCatalog([]*descriptor.Type{
		descriptor.Struct("Empty", descriptor.NoFields()),
		descriptor.Struct("Holder", descriptor.Named(descriptor.F("e", "?Empty"))),
		descriptor.Struct("Outer", descriptor.Positional(descriptor.P("Holder"))),
		descriptor.Struct("Fine", descriptor.Named(descriptor.F("a", "string"))),
	})
	require.Error(t, err)

	_, err = cat.Plan("Fine")
	require.NoError(t, err)

	for _, name := range []string{"Empty", "Holder", "Outer"} {
		_, err := cat.Plan(name)
		require.Error(t, err, name)
		assert.True(t, IsUnsupportedShape(err), "%s: %v", name, err)
	}

	_, err = cat.Plan("Outer")
	assert.Contains(t, err.Error(), "depends on unusable type Holder")
	assert.Len(t, cat.Failures(), 3)
}

func TestCatalogUndeclaredReference(t *testing.T) {
	cat, err := NewCatalog([]*descriptor.Type{
		descriptor.Struct("Test", descriptor.Named(descriptor.F("m", "map[string]Ghost"))),
	})
	require.Error(t, err)
	assert.True(t, IsMissingDescriptor(err))

	_, err = cat.Plan("Test")
	assert.Contains(t, err.Error(), "references undeclared type Ghost")

	_, err = cat.Plan("Nope")
	assert.True(t, IsMissingDescriptor(err))
}

func TestCatalogRejectsRecursion(t *testing.T) {
	cat, err := NewCatalog([]*descriptor.Type{
		descriptor.Struct("Tree", descriptor.Named(descriptor.F("children", "[]Tree"))),
		descriptor.Struct("Forest", descriptor.Named(descriptor.F("trees", "[]Tree"))),
	})
	require.Error(t, err)

	_, err = cat.Plan("Tree")
	assert.True(t, IsUnsupportedShape(err))
	assert.Contains(t, err.Error(), "recursive shape")

	_, err = cat.Plan("Forest")
	assert.True(t, IsUnsupportedShape(err))
}

func TestCatalogDuplicateDeclaration(t *testing.T) {
	cat, err := NewCatalog([]*descriptor.Type{
		descriptor.Struct("A", descriptor.Named(descriptor.F("x", "i64"))),
		descriptor.Struct("A", descriptor.Named(descriptor.F("y", "i64"))),
	})
	require.Error(t, err)

	_, err = cat.Plan("A")
	assert.True(t, IsMissingDescriptor(err))
}

func TestDeriveFromResolver(t *testing.T) {
	r := mapResolver{
		"Test":   descriptor.Struct("Test", descriptor.Named(descriptor.F("beta", "Beta"))),
		"Beta":   descriptor.Struct("Beta", descriptor.Positional(descriptor.P("string"))),
		"Unused": descriptor.Struct("Unused", descriptor.NoFields()),
	}

	cat, err := DeriveFrom(r, "Test")
	require.NoError(t, err, "unreferenced broken types are not pulled in")
	assert.Equal(t, []string{"Beta", "Test"}, cat.Names())

	_, err = DeriveFrom(r, "Missing")
	assert.True(t, IsMissingDescriptor(err))
}
