package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindCycles_Empty(t *testing.T) {
	assert.Empty(t, FindCycles(nil))
}

func TestFindCycles_DAG(t *testing.T) {
	types := []*Type{
		Struct("Test", Named(F("beta", "Beta"), F("alpha", "[]Alpha"))),
		Struct("Beta", Positional(P("string"))),
		Enum("Alpha", V("One", Positional(P("Beta"))), V("Two", NoFields())),
	}
	assert.Empty(t, FindCycles(types), "DAG should produce no cycles")
}

func TestFindCycles_SelfReference(t *testing.T) {
	types := []*Type{
		Struct("Tree", Named(F("children", "[]Tree"))),
	}

	cycles := FindCycles(types)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"Tree", "Tree"}, cycles[0].Path)
	assert.Equal(t, []string{"Tree"}, cycles[0].Members())
	assert.Contains(t, cycles[0].Message, "refers to itself")
}

func TestFindCycles_MutualReference(t *testing.T) {
	types := []*Type{
		Struct("A", Named(F("b", "?B"))),
		Enum("B", V("Wrap", Positional(P("A"))), V("Leaf", NoFields())),
		Struct("C", Named(F("a", "A"))),
	}

	cycles := FindCycles(types)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"A", "B", "A"}, cycles[0].Path)
	assert.ElementsMatch(t, []string{"A", "B"}, cycles[0].Members())
	assert.Contains(t, cycles[0].Message, "A -> B -> A")
}

func TestFindCycles_IgnoresUndeclared(t *testing.T) {
	types := []*Type{
		Struct("A", Named(F("x", "Missing"))),
	}
	assert.Empty(t, FindCycles(types))
}
