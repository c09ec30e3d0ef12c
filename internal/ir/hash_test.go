package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintIgnoresOffsetsAndManagers(t *testing.T) {
	a := sampleProgram(NewManager(nil))
	b := sampleProgram(NewManager(nil))
	b.Scopes[0].InstrOffset = 4096

	assert.Equal(t, MustFingerprint(a), MustFingerprint(b))
	assert.Len(t, MustFingerprint(a), 64)
}

func TestFingerprintSeesChanges(t *testing.T) {
	m := NewManager(nil)
	base := MustFingerprint(sampleProgram(m))

	tests := []struct {
		name   string
		mutate func(p *Program)
	}{
		{"scope_line", func(p *Program) { p.Scopes[1].Line = 3 }},
		{"file", func(p *Program) { p.File = "other.rb" }},
		{"variables", func(p *Program) { p.Scopes[0].StaticScope.Variables = []string{"y"} }},
		{"method", func(p *Program) { p.Scopes[0].Instrs[0].(*CallInstr).Method = "pred" }},
		{"drop_instr", func(p *Program) { p.Scopes[0].SetInstrs(p.Scopes[0].Instrs[:1]) }},
		{"root_scope", func(p *Program) { p.Scopes[1].Parent = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sampleProgram(m)
			tt.mutate(p)
			assert.NotEqual(t, base, MustFingerprint(p))
		})
	}
}

func TestArchiveKey(t *testing.T) {
	k1 := ArchiveKey("unit", []byte("src"))
	assert.Len(t, k1, 64)
	assert.Equal(t, k1, ArchiveKey("unit", []byte("src")))
	assert.NotEqual(t, k1, ArchiveKey("unit2", []byte("src")))
	assert.NotEqual(t, k1, ArchiveKey("unit", []byte("src2")))
}

func TestDomainSeparationPreventsCrossTypeCollision(t *testing.T) {
	data := []byte(`{"file":"a.rb"}`)
	assert.NotEqual(t, hashWithDomain(DomainProgram, data), hashWithDomain(DomainArchive, data))
}

func TestHashWithDomainNullSeparator(t *testing.T) {
	// "foo" + 0x00 + "bar" must differ from "foob" + 0x00 + "ar".
	assert.NotEqual(t, hashWithDomain("foo", []byte("bar")), hashWithDomain("foob", []byte("ar")))
}

func TestDomainConstants(t *testing.T) {
	assert.Equal(t, "irpersist/program/v1", DomainProgram)
	assert.Equal(t, "irpersist/archive/v1", DomainArchive)
}

func TestMustFingerprintPanics(t *testing.T) {
	p := &Program{File: "f"}
	p.AddScope(NewScope(ScopeScriptBody, "main", 1, StaticScope{}, nil))
	assert.Panics(t, func() { MustFingerprint(p) })
}

func TestHashHexEncoding(t *testing.T) {
	for _, c := range MustFingerprint(sampleProgram(NewManager(nil))) {
		valid := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
		assert.True(t, valid, "Hash should only contain hex characters, got: %c", c)
	}
}
