package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/generic/internal/value"
)

// AssertionError is returned when an assertion fails.
// It includes the rendered tree to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Path     string      // Node path the assertion addressed
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Tree     value.Value // Full projected tree for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s at %s\n", e.Type, e.Path)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Tree != nil {
		fmt.Fprintf(&buf, "\nFull tree:\n%s\n", value.Pretty(e.Tree))
	}
	return buf.String()
}

// step is one path segment: a key, or an index when key is empty.
type step struct {
	key   string
	index int
}

// parsePath splits "$.a.beta[0]" into steps.
func parsePath(path string) ([]step, error) {
	if !strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("path %q must start with $", path)
	}

	var steps []step
	rest := path[1:]
	for rest != "" {
		switch rest[0] {
		case '.':
			end := strings.IndexAny(rest[1:], ".[")
			if end < 0 {
				end = len(rest) - 1
			}
			key := rest[1 : end+1]
			if key == "" {
				return nil, fmt.Errorf("path %q: empty key", path)
			}
			steps = append(steps, step{key: key})
			rest = rest[end+1:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("path %q: unclosed index", path)
			}
			i, err := strconv.Atoi(rest[1:end])
			if err != nil || i < 0 {
				return nil, fmt.Errorf("path %q: bad index %q", path, rest[1:end])
			}
			steps = append(steps, step{index: i})
			rest = rest[end+1:]
		default:
			return nil, fmt.Errorf("path %q: unexpected %q", path, rest[:1])
		}
	}
	return steps, nil
}

// lookup returns the node of v addressed by path.
func lookup(v value.Value, path string) (value.Value, error) {
	steps, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	cur := v
	for _, s := range steps {
		for {
			opt, ok := cur.(value.Option)
			if !ok {
				break
			}
			if opt.IsNone() {
				return nil, fmt.Errorf("%s: reached None", path)
			}
			cur = opt.Some
		}

		if s.key != "" {
			data, ok := fieldsOf(cur)
			if !ok {
				return nil, fmt.Errorf("%s: %s has no key %q", path, value.KindOf(cur), s.key)
			}
			next, ok := data[s.key]
			if !ok {
				return nil, fmt.Errorf("%s: no key %q", path, s.key)
			}
			cur = next
			continue
		}

		elems, ok := elemsOf(cur)
		if !ok {
			return nil, fmt.Errorf("%s: %s has no index %d", path, value.KindOf(cur), s.index)
		}
		if s.index >= len(elems) {
			return nil, fmt.Errorf("%s: index %d out of range (len %d)", path, s.index, len(elems))
		}
		cur = elems[s.index]
	}
	return cur, nil
}

func fieldsOf(v value.Value) (map[string]value.Value, bool) {
	switch n := v.(type) {
	case value.Map:
		return n, true
	case value.Struct:
		return n.Data, true
	case value.StructVariant:
		return n.Data, true
	}
	return nil, false
}

func elemsOf(v value.Value) ([]value.Value, bool) {
	switch n := v.(type) {
	case value.Vec:
		return n, true
	case value.Tuple:
		return n, true
	case value.TupleStruct:
		return n.Data, true
	case value.TupleVariant:
		return n.Data, true
	}
	return nil, false
}

// checkAssertion evaluates one assertion against the projected tree.
func checkAssertion(tree value.Value, a Assertion) error {
	node, err := lookup(tree, a.Path)
	if err != nil {
		return &AssertionError{
			Type:     a.Type,
			Path:     a.Path,
			Expected: "node exists",
			Actual:   err.Error(),
			Tree:     tree,
		}
	}

	var expected, actual string
	switch a.Type {
	case AssertKind:
		expected, actual = a.Kind, value.KindOf(node)
	case AssertEquals:
		expected, actual = a.Value, fmt.Sprint(node)
	case AssertVariant:
		expected = a.Variant
		if v, ok := node.(value.Variant); ok {
			actual = v.Name()
		} else {
			actual = "not a variant: " + value.KindOf(node)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}

	if expected != actual {
		return &AssertionError{
			Type:     a.Type,
			Path:     a.Path,
			Expected: expected,
			Actual:   actual,
			Tree:     tree,
		}
	}
	return nil
}
