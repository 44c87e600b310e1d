package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeScenario(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadScenario_ResolvesSchemaPaths(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "test_basic.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "test_basic", scenario.Name)
	assert.Equal(t, "Test", scenario.Type)
	assert.Equal(t, []string{filepath.Join("testdata", "schemas", "shapes.cue")}, scenario.Schemas)
	assert.Equal(t, yaml.MappingNode, scenario.Document.Kind)
	assert.Len(t, scenario.Assertions, 2)
	assert.Nil(t, scenario.Expect)
}

func TestLoadScenario_WithBasePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "types.cue"), []byte(`type: Beta: positional: ["string"]`), 0644))

	path := writeScenario(t, t.TempDir(), `
name: beta
description: bare positional value
schemas: [types.cue]
type: Beta
document: x
`)
	scenario, err := LoadScenarioWithBasePath(path, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "types.cue")}, scenario.Schemas)
	assert.Equal(t, yaml.ScalarNode, scenario.Document.Kind)
}

func TestLoadScenario_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "types.cue"), []byte(`type: Beta: positional: ["string"]`), 0644))

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown field",
			body: "name: n\ndescription: d\nschemas: [types.cue]\ntype: Beta\ndocument: x\nassertion: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			body: "description: d\nschemas: [types.cue]\ntype: Beta\ndocument: x\n",
			want: "name is required",
		},
		{
			name: "missing schemas",
			body: "name: n\ndescription: d\ntype: Beta\ndocument: x\n",
			want: "schemas list is required",
		},
		{
			name: "schema not found",
			body: "name: n\ndescription: d\nschemas: [nope.cue]\ntype: Beta\ndocument: x\n",
			want: "schema file not found",
		},
		{
			name: "missing type",
			body: "name: n\ndescription: d\nschemas: [types.cue]\ndocument: x\n",
			want: "type is required",
		},
		{
			name: "missing document",
			body: "name: n\ndescription: d\nschemas: [types.cue]\ntype: Beta\n",
			want: "document is required",
		},
		{
			name: "unknown expect code",
			body: "name: n\ndescription: d\nschemas: [types.cue]\ntype: Beta\ndocument: x\nexpect: {error: BROKEN}\n",
			want: `unknown error "BROKEN"`,
		},
		{
			name: "path on derivation error",
			body: "name: n\ndescription: d\nschemas: [types.cue]\ntype: Beta\ndocument: x\nexpect: {error: UNSUPPORTED_SHAPE, path: $.a}\n",
			want: "path only applies to INVALID_DOCUMENT",
		},
		{
			name: "expect with assertions",
			body: "name: n\ndescription: d\nschemas: [types.cue]\ntype: Beta\ndocument: x\nexpect: {error: UNSUPPORTED_SHAPE}\nassertions: [{type: kind, path: $, kind: vec}]\n",
			want: "cannot be combined",
		},
		{
			name: "unknown assertion type",
			body: "name: n\ndescription: d\nschemas: [types.cue]\ntype: Beta\ndocument: x\nassertions: [{type: shape, path: $}]\n",
			want: `unknown assertion type "shape"`,
		},
		{
			name: "bad assertion path",
			body: "name: n\ndescription: d\nschemas: [types.cue]\ntype: Beta\ndocument: x\nassertions: [{type: kind, path: a, kind: vec}]\n",
			want: "must start with $",
		},
		{
			name: "unknown kind",
			body: "name: n\ndescription: d\nschemas: [types.cue]\ntype: Beta\ndocument: x\nassertions: [{type: kind, path: $, kind: list}]\n",
			want: `unknown kind "list"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), tt.body)
			_, err := LoadScenarioWithBasePath(path, dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
