package ir

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// ErrUnknownEncoding is returned by a registry that cannot resolve a name.
var ErrUnknownEncoding = errors.New("unknown encoding")

// Encoding is a named character encoding. The zero value is invalid.
type Encoding struct {
	name  string
	codec encoding.Encoding
}

// Name returns the canonical name written to archives.
func (e Encoding) Name() string { return e.name }

// IsZero reports whether e is the zero Encoding.
func (e Encoding) IsZero() bool { return e.codec == nil }

func (e Encoding) String() string {
	if e.IsZero() {
		return "<no encoding>"
	}
	return e.name
}

// EncodingRegistry resolves encoding names.
type EncodingRegistry interface {
	Lookup(name string) (Encoding, error)
}

// BinaryName is the name of the pass-through encoding for raw bytes. IANA
// has no entry for it; Lookup also accepts the alias BINARY.
const BinaryName = "ASCII-8BIT"

// IANARegistry resolves IANA character set names and aliases through
// golang.org/x/text.
type IANARegistry struct{}

// Lookup resolves name (case-insensitive, aliases accepted). The returned
// Encoding carries the preferred MIME name when one exists, else the IANA
// registry name. Names that x/text knows but cannot transcode
// are reported as unknown.
func (IANARegistry) Lookup(name string) (Encoding, error) {
	if strings.EqualFold(name, BinaryName) || strings.EqualFold(name, "BINARY") {
		return Encoding{name: BinaryName, codec: encoding.Nop}, nil
	}
	codec, err := ianaindex.IANA.Encoding(name)
	if err != nil || codec == nil {
		return Encoding{}, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	canonical, err := ianaindex.MIME.Name(codec)
	if err != nil {
		if canonical, err = ianaindex.IANA.Name(codec); err != nil {
			canonical = name
		}
	}
	return Encoding{name: canonical, codec: codec}, nil
}

// MustEncoding resolves name against the IANA registry and panics if it is
// unknown. Use only with literal names.
func MustEncoding(name string) Encoding {
	enc, err := IANARegistry{}.Lookup(name)
	if err != nil {
		panic(err)
	}
	return enc
}

// Common encodings.
var (
	UTF8     = MustEncoding("UTF-8")
	USASCII  = MustEncoding("US-ASCII")
	Latin1   = MustEncoding("ISO-8859-1")
	ShiftJIS = MustEncoding("Shift_JIS")
	Binary   = MustEncoding(BinaryName)
)

// ByteString is raw bytes tagged with the encoding they are written in.
type ByteString struct {
	Bytes    []byte
	Encoding Encoding
}

// NewByteString encodes UTF-8 text into enc. Characters enc cannot
// represent are replaced by the encoding's substitute.
func NewByteString(text string, enc Encoding) ByteString {
	if enc.IsZero() {
		enc = UTF8
	}
	b, err := encoding.ReplaceUnsupported(enc.codec.NewEncoder()).Bytes([]byte(text))
	if err != nil {
		b = []byte(text)
	}
	return ByteString{Bytes: b, Encoding: enc}
}

// Text decodes the bytes to UTF-8.
func (b ByteString) Text() (string, error) {
	if b.Encoding.IsZero() {
		return "", fmt.Errorf("%w: byte string has no encoding", ErrUnknownEncoding)
	}
	return b.Encoding.codec.NewDecoder().String(string(b.Bytes))
}

// String returns the decoded text, or the raw bytes if they do not decode.
func (b ByteString) String() string {
	s, err := b.Text()
	if err != nil {
		return string(b.Bytes)
	}
	return s
}

// Equal reports whether b and o hold the same bytes in the same encoding.
func (b ByteString) Equal(o ByteString) bool {
	return b.Encoding.name == o.Encoding.name && bytes.Equal(b.Bytes, o.Bytes)
}
