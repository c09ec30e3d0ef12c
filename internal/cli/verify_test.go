package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdaitx/irpersist/internal/fixture"
	"github.com/tdaitx/irpersist/internal/ir"
	"github.com/tdaitx/irpersist/internal/testutil"
)

func TestVerifyFixtures(t *testing.T) {
	for _, name := range []string{"counter.yaml", "hello.cue"} {
		t.Run(name, func(t *testing.T) {
			p, err := fixture.Load(fixturePath(name), ir.NewManager(nil))
			require.NoError(t, err)

			stdout, _, err := execute(t, "verify", fixturePath(name))
			require.NoError(t, err)
			assert.Contains(t, stdout, "✓ "+p.File+" round-trips")
			assert.Contains(t, stdout, "fingerprint "+ir.MustFingerprint(p))
		})
	}
}

func TestVerifyJSON(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "verify", fixturePath("counter.yaml"))
	require.NoError(t, err)

	var result VerifyResult
	resp := decodeResponse(t, stdout, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "counter.rb", result.File)
	assert.Equal(t, 2, result.Scopes)
	assert.Positive(t, result.Bytes)
	assert.Len(t, result.Fingerprint, 64)
}

func TestVerifyInvalidFixture(t *testing.T) {
	stdout, _, err := execute(t, "verify", fixturePath("broken.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error ["+ErrCodeFixtureInvalid+"]")
}

func TestRoundTrip(t *testing.T) {
	p := testutil.KitchenSinkProgram(ir.NewManager(nil))

	data, want, got, err := roundTrip(p, discard)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, want, got)
	assert.Equal(t, ir.MustFingerprint(p), want)
}

func TestRoundTripUnencodable(t *testing.T) {
	mgr := ir.NewManager(nil)
	p := testutil.TwoScopeProgram(mgr)
	other := testutil.TwoScopeProgram(mgr)
	p.Scopes[1].Parent = other.Scopes[0]

	_, _, _, err := roundTrip(p, discard)
	require.Error(t, err)
	assert.Equal(t, ErrCodeEncodeFailed, codecErrorCode(err))
}
