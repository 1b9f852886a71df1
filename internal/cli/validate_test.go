package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const badCatalog = `
dialect: "oracle"
system: {
	contentTypeId: {alias: "cs", column: "m_contentTypeId", type: "INTEGER"}
	folderId: {alias: "f", column: "owner_id", type: "INTEGER"}
}
contentType: {
	a: {id: 1, properties: {}}
	b: {id: 1, properties: {}}
}
`

type validateResponse struct {
	Status string           `json:"status"`
	Data   ValidationResult `json:"data"`
}

func runValidateCmd(t *testing.T, format, path string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path})
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidCatalog(t *testing.T) {
	out, err := runValidateCmd(t, "text", testTypes)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Type configuration is valid (sqlite dialect)")
	assert.Contains(t, out, "rx:image (id 312)")
	assert.Contains(t, out, "rx:page (id 311)")
}

func TestValidateValidCatalogJSON(t *testing.T) {
	out, err := runValidateCmd(t, "json", testTypes)
	require.NoError(t, err)

	var resp validateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, "sqlite", resp.Data.Dialect)
	require.Len(t, resp.Data.Types, 2)

	names := []string{resp.Data.Types[0].Name, resp.Data.Types[1].Name}
	assert.ElementsMatch(t, []string{"rx:page", "rx:image"}, names)
	for _, ts := range resp.Data.Types {
		assert.Contains(t, ts.Properties, "rx:sys_title", ts.Name)
	}
}

func TestValidateProblems(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.cue")
	require.NoError(t, os.WriteFile(bad, []byte(badCatalog), 0644))

	t.Run("json", func(t *testing.T) {
		out, err := runValidateCmd(t, "json", bad)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, err.Error(), "2 error(s)")

		var resp validateResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.False(t, resp.Data.Valid)
		require.Len(t, resp.Data.Errors, 2)

		first := resp.Data.Errors[0]
		assert.Equal(t, ErrCodeConfig, first.Code)
		assert.Equal(t, "dialect", first.Field)
		assert.Equal(t, bad, first.File)
		assert.Greater(t, first.Line, 0)
		assert.Equal(t, "contentType.b", resp.Data.Errors[1].Field)
	})

	t.Run("text", func(t *testing.T) {
		out, err := runValidateCmd(t, "text", bad)
		require.Error(t, err)

		assert.Contains(t, out, "✗ Validation failed")
		assert.Contains(t, out, "E101: dialect:")
		assert.Contains(t, out, "already used by a")
	})
}

func TestValidateNotFound(t *testing.T) {
	out, err := runValidateCmd(t, "text", "/nonexistent/types")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "Error [E002]")
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, err := runValidateCmd(t, "text", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "no CUE files found")
}

func TestValidateMissingArg(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "y", plural(1, "y", "ies"))
	assert.Equal(t, "ies", plural(0, "y", "ies"))
	assert.Equal(t, "ies", plural(4, "y", "ies"))
}
