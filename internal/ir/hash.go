package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// description format to change without colliding with old hashes.
const (
	DomainProgram = "irpersist/program/v1"
	DomainArchive = "irpersist/archive/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint hashes the canonical description of a program. Two programs
// with equal fingerprints have the same scopes, scope tree and instruction
// lists, regardless of where their instruction regions live in an archive.
//
// Every scope must have its instructions loaded.
func Fingerprint(p *Program) (string, error) {
	desc, err := Describe(p)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: %w", err)
	}
	canonical, err := MarshalCanonical(desc)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// ArchiveKey derives the cache key for the archive built from source for a
// load unit.
func ArchiveKey(unit string, source []byte) string {
	sum := sha256.Sum256(source)
	obj := map[string]any{
		"unit":   unit,
		"source": hex.EncodeToString(sum[:]),
	}
	// Only strings: cannot fail.
	canonical, _ := MarshalCanonical(obj)
	return hashWithDomain(DomainArchive, canonical)
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when every scope is known to be loaded.
func MustFingerprint(p *Program) string {
	fp, err := Fingerprint(p)
	if err != nil {
		panic(err)
	}
	return fp
}
