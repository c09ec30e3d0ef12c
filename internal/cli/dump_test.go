package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdaitx/irpersist/internal/ir"
	"github.com/tdaitx/irpersist/internal/testutil"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestDumpAll(t *testing.T) {
	path, _ := writeArchive(t, testutil.TwoScopeProgram(ir.NewManager(nil)))

	stdout, _, err := execute(t, "dump", path)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "dump_all", []byte(stdout))
}

func TestDumpSelectedScope(t *testing.T) {
	path, _ := writeArchive(t, testutil.TwoScopeProgram(ir.NewManager(nil)))

	stdout, _, err := execute(t, "dump", path, "--scope", "1")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "dump_scope_1", []byte(stdout))
}

func TestDumpJSON(t *testing.T) {
	p := testutil.KitchenSinkProgram(ir.NewManager(nil))
	path, _ := writeArchive(t, p)

	stdout, _, err := execute(t, "--format", "json", "dump", path)
	require.NoError(t, err)

	var result DumpResult
	resp := decodeResponse(t, stdout, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Session)
	assert.Equal(t, p.File, result.File)
	assert.Equal(t, len(p.Scopes), result.ScopeCount)
	assert.Len(t, result.Scopes, len(p.Scopes))
	assert.Equal(t, ir.MustFingerprint(p), result.Fingerprint)
	for i, s := range result.Scopes {
		assert.Equal(t, p.Scopes[i].Name, s["name"])
		assert.Contains(t, s, "instrs")
	}
}

func TestDumpJSONSelectedScopes(t *testing.T) {
	path, _ := writeArchive(t, testutil.TwoScopeProgram(ir.NewManager(nil)))

	stdout, _, err := execute(t, "--format", "json", "dump", path, "--scope", "1", "--scope", "0")
	require.NoError(t, err)

	var result DumpResult
	decodeResponse(t, stdout, &result)
	require.Len(t, result.Scopes, 2)
	assert.Equal(t, "main_block_0", result.Scopes[0]["name"])
	assert.Equal(t, "main", result.Scopes[1]["name"])
	assert.Empty(t, result.Fingerprint)
}

// The first scope's region starts right after the 12-byte header: count,
// CALL opcode, then the call kind.
func corruptFirstCall(data []byte) []byte {
	out := append([]byte(nil), data...)
	out[14] = 0x7F
	return out
}

func TestDumpDecodesOnlySelectedScopes(t *testing.T) {
	_, data := writeArchive(t, testutil.TwoScopeProgram(ir.NewManager(nil)))
	path := filepath.Join(t.TempDir(), "corrupt.irb")
	require.NoError(t, os.WriteFile(path, corruptFirstCall(data), 0o644))

	// Scope 1 never touches the corrupt region.
	_, _, err := execute(t, "dump", path, "--scope", "1")
	require.NoError(t, err)

	stdout, _, err := execute(t, "--format", "json", "dump", path, "--scope", "0")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, stdout, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDecodeFailed, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "main")
	details, ok := resp.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "UNKNOWN_TAG", details["decode_code"])
}

func TestDumpBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.irb")
	require.NoError(t, os.WriteFile(path, []byte("NOPE\x00\x00\x00\x01\x00\x00\x00\x0c"), 0o644))

	stdout, _, err := execute(t, "--format", "json", "dump", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, stdout, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDecodeFailed, resp.Error.Code)
	details, ok := resp.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "BAD_HEADER", details["decode_code"])
}

func TestDumpErrors(t *testing.T) {
	path, _ := writeArchive(t, testutil.TwoScopeProgram(ir.NewManager(nil)))

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing_archive", []string{"dump", filepath.Join(t.TempDir(), "none.irb")}, ErrCodeNotFound},
		{"scope_out_of_range", []string{"dump", path, "--scope", "2"}, ErrCodeScopeNotFound},
		{"negative_scope", []string{"dump", path, "--scope=-1"}, ErrCodeScopeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, stdout, "Error ["+tt.code+"]")
		})
	}
}

func TestDumpDebugDecode(t *testing.T) {
	path, _ := writeArchive(t, testutil.TwoScopeProgram(ir.NewManager(nil)))

	_, stderr, err := execute(t, "--debug-decode", "dump", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "archive headers read")
	assert.Contains(t, stderr, "decoding instructions")

	_, stderr, err = execute(t, "dump", path)
	require.NoError(t, err)
	assert.NotContains(t, stderr, "decoding instructions")
}
