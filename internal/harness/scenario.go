package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/generic/internal/derive"
	"github.com/roach88/generic/internal/value"
)

// Scenario defines a conformance scenario.
// A scenario declares types in CUE, projects one document as one of them,
// and checks either the resulting value tree or the error it fails with.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schemas lists paths to CUE files declaring the types.
	// Paths are relative to the scenario file location.
	Schemas []string `yaml:"schemas"`

	// Type is the declared type the document is projected as.
	Type string `yaml:"type"`

	// Document is the YAML document to project.
	Document yaml.Node `yaml:"document"`

	// Expect names the error the scenario must fail with.
	// If nil, projection must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions check nodes of the projected tree.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ExpectClause specifies an expected failure.
type ExpectClause struct {
	// Error is a derivation error code (UNSUPPORTED_SHAPE,
	// MISSING_DESCRIPTOR) or INVALID_DOCUMENT.
	Error string `yaml:"error"`

	// Path is the document path of an INVALID_DOCUMENT failure.
	Path string `yaml:"path,omitempty"`

	// Message is a substring the error message must contain.
	Message string `yaml:"message,omitempty"`
}

// ErrInvalidDocument is the expect code for document decoding failures.
const ErrInvalidDocument = "INVALID_DOCUMENT"

var expectCodes = []string{
	string(derive.ErrCodeUnsupportedShape),
	string(derive.ErrCodeMissingDescriptor),
	ErrInvalidDocument,
}

// Assertion checks one node of the projected tree.
type Assertion struct {
	// Type specifies the assertion type:
	// - "kind": node at Path has canonical kind Kind
	// - "equals": node at Path renders as Value
	// - "variant": node at Path is variant Variant
	Type string `yaml:"type"`

	// Path addresses a node: "$" is the root, ".name" selects a struct
	// field or map key, "[i]" selects a sequence element. Options are
	// traversed transparently.
	Path string `yaml:"path"`

	// Kind is the expected canonical kind (used by kind).
	Kind string `yaml:"kind,omitempty"`

	// Value is the expected rendering (used by equals), e.g. 5u64 or "x".
	Value string `yaml:"value,omitempty"`

	// Variant is the expected variant name (used by variant).
	Variant string `yaml:"variant,omitempty"`
}

// Assertion type constants.
const (
	AssertKind    = "kind"
	AssertEquals  = "equals"
	AssertVariant = "variant"
)

var knownKinds = []string{
	value.KindUnit, value.KindBool, value.KindI64, value.KindI128, value.KindU64,
	value.KindU128, value.KindF64, value.KindString, value.KindVec, value.KindMap,
	value.KindOption, value.KindTuple, value.KindStruct, value.KindTupleStruct,
	value.KindTupleVariant, value.KindStructVariant, value.KindUnitVariant,
}

// LoadScenario reads and parses a scenario YAML file.
// Schema paths are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving schema paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve schema paths relative to base path BEFORE validation
	for i, schemaPath := range scenario.Schemas {
		if !filepath.IsAbs(schemaPath) && basePath != "" {
			scenario.Schemas[i] = filepath.Join(basePath, schemaPath)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes a scenario without validating schema paths.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Schemas) == 0 {
		return fmt.Errorf("schemas list is required and must be non-empty")
	}
	if s.Type == "" {
		return fmt.Errorf("type is required")
	}
	if s.Document.Kind == 0 {
		return fmt.Errorf("document is required")
	}

	for _, schemaPath := range s.Schemas {
		if _, err := os.Stat(schemaPath); os.IsNotExist(err) {
			return fmt.Errorf("schema file not found: %s", schemaPath)
		}
	}

	if s.Expect != nil {
		if !slices.Contains(expectCodes, s.Expect.Error) {
			return fmt.Errorf("expect: unknown error %q", s.Expect.Error)
		}
		if s.Expect.Path != "" && s.Expect.Error != ErrInvalidDocument {
			return fmt.Errorf("expect: path only applies to %s", ErrInvalidDocument)
		}
		if len(s.Assertions) > 0 {
			return fmt.Errorf("assertions cannot be combined with expect")
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Path == "" {
		return fmt.Errorf("assertions[%d]: path is required", index)
	}
	if _, err := parsePath(a.Path); err != nil {
		return fmt.Errorf("assertions[%d]: %w", index, err)
	}

	switch a.Type {
	case AssertKind:
		if !slices.Contains(knownKinds, a.Kind) {
			return fmt.Errorf("assertions[%d]: unknown kind %q", index, a.Kind)
		}
	case AssertEquals:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for equals", index)
		}
	case AssertVariant:
		if a.Variant == "" {
			return fmt.Errorf("assertions[%d]: variant is required for variant", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
