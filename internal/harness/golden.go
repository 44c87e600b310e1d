package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/generic/internal/value"
)

// RunWithGolden executes a scenario and compares the projected tree against
// a golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
// and holds the canonical JSON of the tree followed by a newline.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot run or did not pass.
// Test failure (via goldie) occurs if the tree doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if !result.Pass {
		return fmt.Errorf("scenario %s failed: %v", scenario.Name, result.Errors)
	}
	if result.Value == nil {
		return fmt.Errorf("scenario %s produced no tree", scenario.Name)
	}
	return AssertGolden(t, scenario.Name, result.Value)
}

// AssertGolden compares a value tree against a golden file without running
// a scenario.
func AssertGolden(t *testing.T, name string, v value.Value) error {
	t.Helper()

	data, err := GoldenBytes(v)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}

// GoldenBytes is the golden file content for a tree: its canonical JSON
// followed by a newline.
func GoldenBytes(v value.Value) ([]byte, error) {
	data, err := value.MarshalCanonical(v)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
