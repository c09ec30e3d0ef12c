package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdaitx/irpersist/internal/ir"
	"github.com/tdaitx/irpersist/internal/persist"
)

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	want := createTestEntry(t, "two_scopes.rb")

	require.NoError(t, s.Put(ctx, want))

	got, err := s.Get(ctx, want.Key)
	require.NoError(t, err)
	assert.Equal(t, want.Unit, got.Unit)
	assert.Equal(t, want.Fingerprint, got.Fingerprint)
	assert.Equal(t, want.FormatVersion, got.FormatVersion)
	assert.Equal(t, want.Dialect, got.Dialect)
	assert.Equal(t, ir.ToolVersion, got.ToolVersion)
	assert.Equal(t, want.Data, got.Data)
	assert.Equal(t, want.Manifest, got.Manifest)
	assert.Equal(t, int64(1), got.Seq)
	assert.Equal(t, len(want.Data), got.Size)

	// The cached bytes still decode to the same program.
	p, err := persist.Decode(ir.NewManager(nil), got.Data)
	require.NoError(t, err)
	assert.Equal(t, want.Fingerprint, ir.MustFingerprint(p))
}

func TestGetNotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutEmptyKey(t *testing.T) {
	s := createTestStore(t)
	assert.Error(t, s.Put(context.Background(), Entry{}))
}

func TestPutReplaces(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	first := createTestEntry(t, "a.rb")
	require.NoError(t, s.Put(ctx, first))

	second := first
	second.Fingerprint = "other"
	second.Data = []byte("IRPB")
	require.NoError(t, s.Put(ctx, second))

	got, err := s.Get(ctx, first.Key)
	require.NoError(t, err)
	assert.Equal(t, "other", got.Fingerprint)
	assert.Equal(t, []byte("IRPB"), got.Data)
	assert.Equal(t, int64(2), got.Seq)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestListOrderedByKey(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	var keys []string
	for _, unit := range []string{"c.rb", "a.rb", "b.rb"} {
		e := createTestEntry(t, unit)
		keys = append(keys, e.Key)
		require.NoError(t, s.Put(ctx, e))
	}

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Key, entries[i].Key)
	}
	for _, e := range entries {
		assert.Contains(t, keys, e.Key)
		assert.Nil(t, e.Data)
		assert.Positive(t, e.Size)
		assert.Equal(t, "two_scopes.rb", e.Manifest.File)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	e := createTestEntry(t, "a.rb")
	require.NoError(t, s.Put(ctx, e))

	removed, err := s.Delete(ctx, e.Key)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Delete(ctx, e.Key)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = s.Get(ctx, e.Key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	current := createTestEntry(t, "current.rb")
	stale := createTestEntry(t, "stale.rb")
	stale.FormatVersion = int(persist.FormatVersion) - 1
	require.NoError(t, s.Put(ctx, current))
	require.NoError(t, s.Put(ctx, stale))

	n, err := s.Prune(ctx, int(persist.FormatVersion))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Get(ctx, stale.Key)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, current.Key)
	assert.NoError(t, err)

	n, err = s.Prune(ctx, int(persist.FormatVersion))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestManifest(t *testing.T) {
	e := createTestEntry(t, "two_scopes.rb")
	m := e.Manifest

	assert.Equal(t, "two_scopes.rb", m.File)
	assert.Equal(t, ir.DialectVersion, m.Dialect)
	assert.Equal(t, []ScopeSummary{
		{Name: "main", Kind: "SCRIPT_BODY", Line: 1, Parent: -1, Instrs: 2},
		{Name: "main_block_0", Kind: "CLOSURE", Line: 2, Parent: 0, Instrs: 0},
	}, m.Scopes)

	a, err := MarshalManifest(m)
	require.NoError(t, err)
	b, err := MarshalManifest(m)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	back, err := UnmarshalManifest(a)
	require.NoError(t, err)
	assert.Equal(t, m, back)

	_, err = UnmarshalManifest([]byte{0xFF})
	assert.Error(t, err)
}
