package persist

import (
	"errors"
	"fmt"
)

// DecodeErrorCode categorizes decode failures.
type DecodeErrorCode string

const (
	// ErrCodeTruncatedStream indicates a read past the end of the buffer, a
	// seek outside it, or a length or count that cannot fit in what remains.
	ErrCodeTruncatedStream DecodeErrorCode = "TRUNCATED_STREAM"

	// ErrCodeUnknownTag indicates an ordinal outside its catalogue.
	ErrCodeUnknownTag DecodeErrorCode = "UNKNOWN_TAG"

	// ErrCodeInvalidBoolean indicates a boolean byte other than True/False.
	ErrCodeInvalidBoolean DecodeErrorCode = "INVALID_BOOLEAN"

	// ErrCodeUnknownEncoding indicates an encoding name the registry rejects.
	ErrCodeUnknownEncoding DecodeErrorCode = "UNKNOWN_ENCODING"

	// ErrCodeDanglingScopeRef indicates a scope index not yet registered.
	ErrCodeDanglingScopeRef DecodeErrorCode = "DANGLING_SCOPE_REF"

	// ErrCodeKindMismatch indicates an operand of the wrong kind where a
	// variable or label was required.
	ErrCodeKindMismatch DecodeErrorCode = "KIND_MISMATCH"

	// ErrCodeBadHeader indicates a missing archive magic or a format version
	// other than FormatVersion.
	ErrCodeBadHeader DecodeErrorCode = "BAD_HEADER"
)

// DecodeError is a malformed-input failure. Offset is the cursor position at
// which the failing read started.
type DecodeError struct {
	Code    DecodeErrorCode
	Offset  int
	Message string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Code, e.Offset, e.Message)
}

// Is matches any DecodeError with the same code, so the sentinels below
// work with errors.Is regardless of offset and message.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrTruncatedStream  = &DecodeError{Code: ErrCodeTruncatedStream, Message: "truncated stream"}
	ErrUnknownTag       = &DecodeError{Code: ErrCodeUnknownTag, Message: "unknown tag"}
	ErrInvalidBoolean   = &DecodeError{Code: ErrCodeInvalidBoolean, Message: "invalid boolean"}
	ErrUnknownEncoding  = &DecodeError{Code: ErrCodeUnknownEncoding, Message: "unknown encoding"}
	ErrDanglingScopeRef = &DecodeError{Code: ErrCodeDanglingScopeRef, Message: "dangling scope reference"}
	ErrKindMismatch     = &DecodeError{Code: ErrCodeKindMismatch, Message: "operand kind mismatch"}
	ErrBadHeader        = &DecodeError{Code: ErrCodeBadHeader, Message: "bad archive header"}
)

// ErrUnencodable is wrapped by every writer failure.
var ErrUnencodable = errors.New("unencodable IR")

// SetupError is an I/O failure while constructing a Reader.
type SetupError struct {
	// Source names the stream or file being read.
	Source string
	Err    error
}

// Error implements the error interface.
func (e *SetupError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *SetupError) Unwrap() error { return e.Err }

// IsDecodeError returns true if err is or wraps a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// DecodeErrorCodeOf returns the code of the DecodeError in err's chain.
func DecodeErrorCodeOf(err error) (DecodeErrorCode, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

func newDecodeError(code DecodeErrorCode, offset int, format string, args ...any) *DecodeError {
	return &DecodeError{Code: code, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

func unencodable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnencodable, fmt.Sprintf(format, args...))
}
