package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCheck(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewCheckCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestCheckValidSchemas(t *testing.T) {
	buf, err := executeCheck(t, "text", goodSchemas)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), markOK+" All 4 type(s) derivable")
}

func TestCheckValidSchemasJSON(t *testing.T) {
	buf, err := executeCheck(t, "json", goodSchemas)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Types, 4)
	// Catalog order is sorted by name.
	assert.Equal(t, "Alpha", resp.Data.Types[0].Name)
	for _, ts := range resp.Data.Types {
		assert.True(t, ts.Derivable, ts.Name)
	}
}

func TestCheckUnderivableTypes(t *testing.T) {
	buf, err := executeCheck(t, "json", badSchemas)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
		Error  *CLIError   `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotNil(t, resp.Error)

	statuses := make(map[string]TypeStatus)
	for _, ts := range resp.Data.Types {
		statuses[ts.Name] = ts
	}
	assert.True(t, statuses["Test"].Derivable)
	assert.True(t, statuses["Beta"].Derivable)

	assert.False(t, statuses["Empty"].Derivable)
	assert.Equal(t, ErrCodeUnsupportedShape, statuses["Empty"].Code)

	assert.False(t, statuses["Node"].Derivable)
	assert.Equal(t, ErrCodeUnsupportedShape, statuses["Node"].Code)
	assert.Contains(t, statuses["Node"].Reason, "recursive shape")

	assert.False(t, statuses["Orphan"].Derivable)
	assert.Equal(t, ErrCodeMissingDescriptor, statuses["Orphan"].Code)
	assert.Contains(t, statuses["Orphan"].Reason, "Ghost")
}

func TestCheckUnderivableTypesText(t *testing.T) {
	buf, err := executeCheck(t, "text", badSchemas)
	require.Error(t, err)
	// Three underivable types plus the undeclared reference in Orphan.
	assert.Contains(t, err.Error(), "check failed with 4 problem(s)")

	output := buf.String()
	assert.Contains(t, output, markFail+" Check failed")
	assert.Contains(t, output, "E122: type.Orphan.ghost: unknown type \"Ghost\"")
	assert.Contains(t, output, markOK+" Test\n")
	assert.Contains(t, output, markFail+" Empty: E201: ")
	assert.Contains(t, output, markFail+" Orphan: E202: ")
}

func TestCheckMalformedDeclaration(t *testing.T) {
	buf, err := executeCheck(t, "text", malformedSchemas)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "E100: load: type.Both")
}

func TestCheckNonExistentDirectory(t *testing.T) {
	buf, err := executeCheck(t, "text", "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, buf.String(), "not found")
}
