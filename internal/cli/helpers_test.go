package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tdaitx/irpersist/internal/ir"
	"github.com/tdaitx/irpersist/internal/persist"
	"github.com/tdaitx/irpersist/internal/testutil"
)

var discard = testutil.DiscardLogger()

// fixturePath returns the path of a shared fixture under testdata/fixtures.
func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}

// writeDefaultConfig writes an empty irc.toml so tests never pick up a
// config file from the working tree.
func writeDefaultConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "irc.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--config", writeDefaultConfig(t)}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// decodeResponse parses a JSON CLIResponse and decodes its data into v.
func decodeResponse(t *testing.T, out string, v interface{}) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	if v != nil && resp.Data != nil {
		data, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, v))
	}
	return resp
}

// writeArchive encodes p to a file in a temporary directory.
func writeArchive(t *testing.T, p *ir.Program) (string, []byte) {
	t.Helper()
	data, err := persist.Encode(p)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "prog.irb")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path, data
}
