package store

import (
	"path/filepath"
	"testing"

	"github.com/tdaitx/irpersist/internal/ir"
	"github.com/tdaitx/irpersist/internal/persist"
	"github.com/tdaitx/irpersist/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEntry encodes the two-scope program as unit.
func createTestEntry(t *testing.T, unit string) Entry {
	t.Helper()
	p := testutil.TwoScopeProgram(ir.NewManager(nil))
	data, err := persist.Encode(p)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	return Entry{
		Key:           ir.ArchiveKey(unit, []byte(unit)),
		Unit:          unit,
		Fingerprint:   ir.MustFingerprint(p),
		FormatVersion: int(persist.FormatVersion),
		Dialect:       ir.DialectVersion,
		ToolVersion:   ir.ToolVersion,
		Data:          data,
		Manifest:      NewManifest(p),
	}
}
