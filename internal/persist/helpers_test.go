package persist

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tdaitx/irpersist/internal/ir"
	"github.com/tdaitx/irpersist/internal/testutil"
)

var discard = testutil.DiscardLogger()

func newTestReader(t *testing.T, mgr *ir.Manager, data []byte) *Reader {
	t.Helper()
	if mgr == nil {
		mgr = ir.NewManager(nil)
	}
	return NewReader(mgr, data, WithLogger(discard), WithSessionID(t.Name()))
}

// encode runs fn against a fresh Writer and returns its bytes.
func encode(t *testing.T, fn func(w *Writer)) []byte {
	t.Helper()
	w := NewWriter()
	fn(w)
	data, err := w.Bytes()
	require.NoError(t, err)
	return data
}

// registerScopes adds n placeholder scopes to r's scope table.
func registerScopes(r *Reader, n int) []*ir.Scope {
	scopes := make([]*ir.Scope, n)
	for i := range scopes {
		scopes[i] = ir.NewScope(ir.ScopeClosure, "s", i, ir.StaticScope{}, nil)
		r.AddScope(scopes[i])
	}
	return scopes
}

func requireCode(t *testing.T, err error, want error) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, want)
}
