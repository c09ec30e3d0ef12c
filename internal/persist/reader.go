package persist

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/google/uuid"

	"github.com/tdaitx/irpersist/internal/ir"
)

// Reader is one decode session over a fully buffered archive.
//
// A Reader owns its buffer, its string pool, its scope table and the
// variable-identity cache of the instruction list being decoded. It is not
// safe for concurrent use; decode in parallel with one Reader per goroutine.
//
// The first decode failure is recorded and returned by every later call.
type Reader struct {
	mgr     *ir.Manager
	cur     cursor
	logger  *slog.Logger
	session string

	strs    map[string]string
	program *ir.Program
	current *ir.Scope
	vars    map[ir.VarKey]ir.Variable

	err error
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used for decode tracing. Tracing is logged at
// Debug level.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSessionID overrides the generated session id attached to log records.
func WithSessionID(id string) Option {
	return func(r *Reader) {
		r.session = id
	}
}

// NewReader starts a decode session over data. The Reader does not copy
// data; the caller must not modify it while the session is in use.
func NewReader(mgr *ir.Manager, data []byte, opts ...Option) *Reader {
	r := &Reader{
		mgr:     mgr,
		cur:     cursor{data: data},
		logger:  slog.Default(),
		strs:    make(map[string]string),
		program: &ir.Program{},
		vars:    make(map[ir.VarKey]ir.Variable),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.session == "" {
		r.session = uuid.Must(uuid.NewV7()).String()
	}
	r.logger = r.logger.With("session", r.session)
	r.logger.Debug("decode session started", "bytes", len(data))
	return r
}

// NewReaderFromStream drains src and starts a decode session over its
// contents.
func NewReaderFromStream(mgr *ir.Manager, src io.Reader, opts ...Option) (*Reader, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, &SetupError{Source: "stream", Err: err}
	}
	return NewReader(mgr, data, opts...), nil
}

// NewReaderFromFile reads the file at path and starts a decode session over
// its contents.
func NewReaderFromFile(mgr *ir.Manager, path string, opts ...Option) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SetupError{Source: path, Err: err}
	}
	return NewReader(mgr, data, opts...), nil
}

// Manager returns the compilation manager the session resolves shared
// values against.
func (r *Reader) Manager() *ir.Manager { return r.mgr }

// SessionID returns the id attached to this session's log records.
func (r *Reader) SessionID() string { return r.session }

// Err returns the failure that ended the session, if any.
func (r *Reader) Err() error { return r.err }

// Position returns the cursor offset.
func (r *Reader) Position() int { return r.cur.pos }

// Len returns the size of the buffer.
func (r *Reader) Len() int { return len(r.cur.data) }

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(offset int) error {
	if r.err != nil {
		return r.err
	}
	if err := r.cur.seek(offset); err != nil {
		return r.fail(err)
	}
	return nil
}

// fail records err as the session failure if it is the first one.
func (r *Reader) fail(err error) error {
	if r.err == nil {
		r.err = err
		r.logger.Debug("decode failed", "error", err)
	}
	return err
}

func (r *Reader) failf(code DecodeErrorCode, offset int, format string, args ...any) error {
	return r.fail(newDecodeError(code, offset, format, args...))
}

// take returns the next n bytes of the buffer without copying.
func (r *Reader) take(n int) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	b, err := r.cur.take(n)
	if err != nil {
		return nil, r.fail(err)
	}
	return b, nil
}

// DecodeByte reads one raw byte.
func (r *Reader) DecodeByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// DecodeIntRaw reads a 4-byte big-endian int.
func (r *Reader) DecodeIntRaw() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// DecodeInt reads a compact int.
func (r *Reader) DecodeInt() (int32, error) {
	b, err := r.DecodeByte()
	if err != nil {
		return 0, err
	}
	if b == Full {
		return r.DecodeIntRaw()
	}
	return int32(int8(b)), nil
}

// DecodeLong reads a compact long.
func (r *Reader) DecodeLong() (int64, error) {
	b, err := r.DecodeByte()
	if err != nil {
		return 0, err
	}
	if b == Full {
		raw, err := r.take(8)
		if err != nil {
			return 0, err
		}
		return int64(binary.BigEndian.Uint64(raw)), nil
	}
	return int64(int8(b)), nil
}

// DecodeChar reads a 2-byte big-endian UTF-16 code unit.
func (r *Reader) DecodeChar() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// DecodeBoolean reads one byte that must be True or False.
func (r *Reader) DecodeBoolean() (bool, error) {
	at := r.cur.pos
	b, err := r.DecodeByte()
	if err != nil {
		return false, err
	}
	switch b {
	case True:
		return true, nil
	case False:
		return false, nil
	}
	return false, r.failf(ErrCodeInvalidBoolean, at, "boolean byte 0x%02x", b)
}

// DecodeFloat reads a 4-byte IEEE-754 float.
func (r *Reader) DecodeFloat() (float32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

// DecodeDouble reads an 8-byte IEEE-754 double.
func (r *Reader) DecodeDouble() (float64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// decodeLength reads a compact-int length or element count. Every element
// occupies at least one byte, so a count larger than what remains is
// rejected before anything is allocated.
func (r *Reader) decodeLength(what string) (int, error) {
	at := r.cur.pos
	n, err := r.DecodeInt()
	if err != nil {
		return 0, err
	}
	if n < 0 || int(n) > r.cur.remaining() {
		return 0, r.failf(ErrCodeTruncatedStream, at,
			"%s %d with %d bytes remaining", what, n, r.cur.remaining())
	}
	return int(n), nil
}

// DecodeByteArray reads a compact-int length and that many bytes. The
// result is a copy.
func (r *Reader) DecodeByteArray() ([]byte, error) {
	n, err := r.decodeLength("byte array length")
	if err != nil {
		return nil, err
	}
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(b), nil
}

// DecodeString reads a length-prefixed string and interns it: every string
// with the same content decoded by this session shares one backing array.
func (r *Reader) DecodeString() (string, error) {
	n, err := r.decodeLength("string length")
	if err != nil {
		return "", err
	}
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	if s, ok := r.strs[string(b)]; ok {
		return s, nil
	}
	s := string(b)
	r.strs[s] = s
	return s, nil
}

// DecodeStringArray reads a compact-int count and that many strings.
func (r *Reader) DecodeStringArray() ([]string, error) {
	n, err := r.decodeLength("string count")
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		if out[i], err = r.DecodeString(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodeEncoding reads an encoding name and resolves it in the manager's
// registry.
func (r *Reader) DecodeEncoding() (ir.Encoding, error) {
	at := r.cur.pos
	name, err := r.DecodeByteArray()
	if err != nil {
		return ir.Encoding{}, err
	}
	enc, err := r.mgr.Encodings().Lookup(string(name))
	if err != nil {
		return ir.Encoding{}, r.failf(ErrCodeUnknownEncoding, at, "%v", err)
	}
	return enc, nil
}

// DecodeByteString reads a byte array payload followed by its encoding.
func (r *Reader) DecodeByteString() (ir.ByteString, error) {
	b, err := r.DecodeByteArray()
	if err != nil {
		return ir.ByteString{}, err
	}
	enc, err := r.DecodeEncoding()
	if err != nil {
		return ir.ByteString{}, err
	}
	return ir.ByteString{Bytes: b, Encoding: enc}, nil
}

// decodeOrdinal reads a compact int and maps it through a catalogue.
func decodeOrdinal[T any](r *Reader, catalogue string, from func(int) (T, bool)) (T, error) {
	at := r.cur.pos
	n, err := r.DecodeInt()
	if err != nil {
		var zero T
		return zero, err
	}
	v, ok := from(int(n))
	if !ok {
		var zero T
		return zero, r.failf(ErrCodeUnknownTag, at, "%s ordinal %d", catalogue, n)
	}
	return v, nil
}

// DecodeOperation reads an operation ordinal.
func (r *Reader) DecodeOperation() (ir.Operation, error) {
	return decodeOrdinal(r, "operation", ir.OperationFromOrdinal)
}

// DecodeOperandKind reads an operand kind, written as a single byte.
func (r *Reader) DecodeOperandKind() (ir.OperandKind, error) {
	at := r.cur.pos
	b, err := r.DecodeByte()
	if err != nil {
		return 0, err
	}
	k, ok := ir.OperandKindFromByte(b)
	if !ok {
		return 0, r.failf(ErrCodeUnknownTag, at, "operand kind %d", b)
	}
	return k, nil
}

// DecodeScopeKind reads a scope kind ordinal.
func (r *Reader) DecodeScopeKind() (ir.ScopeKind, error) {
	return decodeOrdinal(r, "scope kind", ir.ScopeKindFromOrdinal)
}

// DecodeTempVarKind reads a temporary-variable kind ordinal.
func (r *Reader) DecodeTempVarKind() (ir.TempVarKind, error) {
	return decodeOrdinal(r, "temporary variable kind", ir.TempVarKindFromOrdinal)
}

// DecodeStaticScopeKind reads a static-scope kind ordinal.
func (r *Reader) DecodeStaticScopeKind() (ir.StaticScopeKind, error) {
	return decodeOrdinal(r, "static scope kind", ir.StaticScopeKindFromOrdinal)
}

// DecodeCallKind reads a call kind ordinal.
func (r *Reader) DecodeCallKind() (ir.CallKind, error) {
	return decodeOrdinal(r, "call kind", ir.CallKindFromOrdinal)
}
