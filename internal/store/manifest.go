package store

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/tdaitx/irpersist/internal/ir"
)

// cborEncMode encodes manifests in canonical mode so equal manifests are
// stored as equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Manifest summarizes a cached archive without decoding it.
type Manifest struct {
	File    string         `cbor:"1,keyasint"`
	Dialect string         `cbor:"2,keyasint"`
	Scopes  []ScopeSummary `cbor:"3,keyasint"`
}

// ScopeSummary describes one scope of a cached archive. Parent is -1 for a
// root scope.
type ScopeSummary struct {
	Name   string `cbor:"1,keyasint"`
	Kind   string `cbor:"2,keyasint"`
	Line   int    `cbor:"3,keyasint"`
	Parent int    `cbor:"4,keyasint"`
	Instrs int    `cbor:"5,keyasint"`
}

// NewManifest summarizes p. Scopes that are not loaded report zero
// instructions.
func NewManifest(p *ir.Program) Manifest {
	m := Manifest{
		File:    p.File,
		Dialect: ir.DialectVersion,
		Scopes:  make([]ScopeSummary, 0, len(p.Scopes)),
	}
	for _, s := range p.Scopes {
		parent := -1
		if s.Parent != nil {
			parent = s.Parent.Index()
		}
		m.Scopes = append(m.Scopes, ScopeSummary{
			Name:   s.Name,
			Kind:   s.Kind.String(),
			Line:   s.Line,
			Parent: parent,
			Instrs: len(s.Instrs),
		})
	}
	return m
}

// MarshalManifest serializes m to canonical CBOR.
func MarshalManifest(m Manifest) ([]byte, error) {
	data, err := cborEncMode.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// UnmarshalManifest parses a CBOR manifest.
func UnmarshalManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := cbor.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return m, nil
}
