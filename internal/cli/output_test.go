package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, data []byte) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func TestOutputFormatter_JSON(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}

		require.NoError(t, f.Success(map[string]string{"where": "cs.TITLE = :p0"}))

		resp := decodeResponse(t, buf.Bytes())
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, map[string]any{"where": "cs.TITLE = :p0"}, resp.Data)
		assert.Nil(t, resp.Error)
	})

	t.Run("error with details", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}

		details := map[string]any{"line": 1, "column": 15}
		require.NoError(t, f.Error(ErrCodeSyntax, "unexpected token", details))

		resp := decodeResponse(t, buf.Bytes())
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, ErrCodeSyntax, resp.Error.Code)
		assert.Equal(t, "unexpected token", resp.Error.Message)
		assert.NotNil(t, resp.Error.Details)
	})
}

func TestOutputFormatter_Text(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, f.Error(ErrCodeUnresolvedType, "unknown content type rx:nope", []string{"rx:page"}))
			assert.Contains(t, buf.String(), "Error [E203]: unknown content type rx:nope")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}

	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}
	require.NoError(t, f.Success("done"))
	assert.Equal(t, "done\n", buf.String())
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	err := f.Fail(ExitCommandError, ErrCodeExpand, "expand path '/x': boom", nil)
	require.Error(t, err)
	assert.Equal(t, "E205: expand path '/x': boom", err.Error())
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, buf.Bytes())
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeExpand, resp.Error.Code)
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		errW    bool
	}{
		{"disabled", false, false},
		{"enabled", true, false},
		{"enabled with err writer", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			f := &OutputFormatter{Format: "json", Writer: out, Verbose: tt.verbose}
			if tt.errW {
				f.ErrWriter = errOut
			}

			f.VerboseLog("Loaded %d content type(s)", 2)

			switch {
			case !tt.verbose:
				assert.Empty(t, out.String())
				assert.Empty(t, errOut.String())
			case tt.errW:
				assert.Empty(t, out.String())
				assert.Equal(t, "Loaded 2 content type(s)\n", errOut.String())
			default:
				assert.Equal(t, "Loaded 2 content type(s)\n", out.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	wrapped := WrapExitError(ExitCommandError, "opening store", errors.New("locked"))

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"exit error", NewExitError(ExitCommandError, "bad"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", wrapped), ExitCommandError},
		{"plain error", errors.New("plain"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}

	assert.Equal(t, "opening store: locked", wrapped.Error())
	assert.EqualError(t, errors.Unwrap(wrapped), "locked")
}

func TestCLIResponse_CompileID(t *testing.T) {
	data, err := json.Marshal(CLIResponse{Status: "ok", CompileID: "0190-abc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","compile_id":"0190-abc"}`, string(data))

	data, err = json.Marshal(CLIResponse{Status: "ok"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}
