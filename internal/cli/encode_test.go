package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdaitx/irpersist/internal/fixture"
	"github.com/tdaitx/irpersist/internal/ir"
	"github.com/tdaitx/irpersist/internal/persist"
)

func TestEncodeFixture(t *testing.T) {
	out := filepath.Join(t.TempDir(), "counter.irb")

	stdout, _, err := execute(t, "encode", fixturePath("counter.yaml"), "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Encoded counter.rb: 2 scope(s), 13 instruction(s)")
	assert.Contains(t, stdout, "Wrote "+out)

	want, err := fixture.Load(fixturePath("counter.yaml"), ir.NewManager(nil))
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	got, err := persist.Decode(ir.NewManager(nil), data, persist.WithLogger(discard))
	require.NoError(t, err)
	assert.Equal(t, ir.MustFingerprint(want), ir.MustFingerprint(got))
}

func TestEncodeFixtureJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "hello.irb")

	stdout, _, err := execute(t, "--format", "json", "encode", fixturePath("hello.cue"), "--output", out)
	require.NoError(t, err)

	var result EncodeResult
	resp := decodeResponse(t, stdout, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, out, result.Archive)
	assert.Equal(t, "hello.rb", result.File)
	assert.Equal(t, 1, result.Scopes)
	assert.Equal(t, 3, result.Instrs)
	assert.Len(t, result.Fingerprint, 64)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, int64(result.Bytes), info.Size())
}

func TestEncodeDefaultOutputPath(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile(fixturePath("counter.yaml"))
	require.NoError(t, err)
	path := filepath.Join(dir, "counter.yaml")
	require.NoError(t, os.WriteFile(path, src, 0o644))

	_, _, err = execute(t, "encode", path)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "counter.irb"))
}

func TestEncodeErrors(t *testing.T) {
	unsupported := filepath.Join(t.TempDir(), "prog.json")
	require.NoError(t, os.WriteFile(unsupported, []byte("{}"), 0o644))

	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing", fixturePath("missing.yaml"), ErrCodeNotFound},
		{"invalid", fixturePath("broken.yaml"), ErrCodeFixtureInvalid},
		{"unsupported", unsupported, ErrCodeFixtureFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "out.irb")
			stdout, _, err := execute(t, "--format", "json", "encode", tt.path, "-o", out)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decodeResponse(t, stdout, nil)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NoFileExists(t, out)
		})
	}
}

func TestEncodeWriteFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "missing-dir", "out.irb")

	stdout, _, err := execute(t, "encode", fixturePath("counter.yaml"), "-o", out)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error ["+ErrCodeWriteFailed+"]")
}

func TestArchivePath(t *testing.T) {
	assert.Equal(t, "prog.irb", archivePath("prog.yaml"))
	assert.Equal(t, filepath.Join("dir", "prog.irb"), archivePath(filepath.Join("dir", "prog.cue")))
	assert.Equal(t, "prog.irb", archivePath("prog"))
}
