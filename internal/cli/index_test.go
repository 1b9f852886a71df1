package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jcrq/internal/store"
)

func runIndexCmd(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewIndexCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestIndexBuildsDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "folders.db")

	out, err := runIndexCmd(t, &RootOptions{Format: "text"}, testFolders, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Indexed 5 folder(s)")

	ctx := context.Background()
	st, err := store.Open(ctx, db)
	require.NoError(t, err)
	defer st.Close()

	ids, err := st.ExpandPath(ctx, "/sites/x/%")
	require.NoError(t, err)
	assert.Equal(t, []int64{301, 302}, ids)
}

func TestIndexIsIdempotent(t *testing.T) {
	db := filepath.Join(t.TempDir(), "folders.db")

	_, err := runIndexCmd(t, &RootOptions{Format: "json"}, testFolders, "--db", db)
	require.NoError(t, err)

	out, err := runIndexCmd(t, &RootOptions{Format: "json", Verbose: true}, testFolders, "--db", db)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   IndexResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 5, resp.Data.Imported)
	assert.Equal(t, 5, resp.Data.Total)
	assert.Len(t, resp.Data.Folders, 5)
}

func TestIndexErrors(t *testing.T) {
	dir := t.TempDir()
	orphan := filepath.Join(dir, "orphan.yaml")
	require.NoError(t, os.WriteFile(orphan, []byte("folders:\n  - id: 5\n    path: /a/b\n"), 0644))

	tests := []struct {
		name     string
		fixture  string
		wantCode string
	}{
		{"missing fixture", filepath.Join(dir, "none.yaml"), ErrCodeReadFailed},
		{"missing parent", orphan, ErrCodeReadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runIndexCmd(t, &RootOptions{Format: "text"}, tt.fixture, "--db", filepath.Join(dir, tt.name+".db"))
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantCode)
		})
	}
}
