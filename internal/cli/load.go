package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/tdaitx/irpersist/internal/fixture"
	"github.com/tdaitx/irpersist/internal/ir"
	"github.com/tdaitx/irpersist/internal/persist"
)

// Error codes for CLI output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E004" // File read error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error

	// Fixture errors
	ErrCodeFixtureInvalid = "E101" // Fixture does not describe a valid program
	ErrCodeFixtureFormat  = "E102" // Unsupported fixture extension

	// Codec errors
	ErrCodeEncodeFailed   = "E201" // Program cannot be encoded
	ErrCodeDecodeFailed   = "E202" // Archive is malformed
	ErrCodeScopeNotFound  = "E203" // --scope index out of range
	ErrCodeVerifyMismatch = "E204" // Decoded program differs from the encoded one

	// Cache errors
	ErrCodeCacheFailed = "E301" // Cache database error
	ErrCodeCacheMiss   = "E302" // No entry under the key
)

// commandError reports a failure through the formatter and returns the
// matching ExitError.
func commandError(formatter *OutputFormatter, exitCode int, code, message string, err error) error {
	var details interface{}
	if err != nil {
		details = errorDetails(err)
	}
	_ = formatter.Error(code, message, details)
	return WrapExitError(exitCode, fmt.Sprintf("%s: %s", code, message), err)
}

// errorDetails returns structured details for err: the decode error code and
// offset when err is a decode failure, otherwise its message.
func errorDetails(err error) interface{} {
	var de *persist.DecodeError
	if errors.As(err, &de) {
		return map[string]interface{}{
			"decode_code": string(de.Code),
			"offset":      de.Offset,
			"error":       err.Error(),
		}
	}
	return map[string]interface{}{"error": err.Error()}
}

// loadFixture builds the program described by the fixture at path and
// returns the error code to report on failure.
func loadFixture(path string, mgr *ir.Manager) (*ir.Program, string, error) {
	p, err := fixture.Load(path, mgr)
	switch {
	case err == nil:
		return p, "", nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, ErrCodeNotFound, err
	case errors.Is(err, fixture.ErrUnsupportedFormat):
		return nil, ErrCodeFixtureFormat, err
	default:
		return nil, ErrCodeFixtureInvalid, err
	}
}

// openArchive reads the archive at path and registers its scopes. The
// instructions are not decoded.
func openArchive(path string, mgr *ir.Manager, opts []persist.Option) (*persist.Reader, *ir.Program, string, error) {
	r, err := persist.NewReaderFromFile(mgr, path, opts...)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrCodeNotFound, err
		}
		return nil, nil, ErrCodeReadFailed, err
	}
	p, err := persist.ReadArchive(r)
	if err != nil {
		return nil, nil, ErrCodeDecodeFailed, err
	}
	return r, p, "", nil
}

// roundTrip encodes p, decodes the result in a fresh session and returns the
// archive with both fingerprints.
func roundTrip(p *ir.Program, log *slog.Logger) (data []byte, want, got string, err error) {
	want, err = ir.Fingerprint(p)
	if err != nil {
		return nil, "", "", err
	}
	data, err = persist.Encode(p)
	if err != nil {
		return nil, "", "", err
	}
	back, err := persist.Decode(ir.NewManager(nil), data, persist.WithLogger(log))
	if err != nil {
		return nil, "", "", err
	}
	got, err = ir.Fingerprint(back)
	if err != nil {
		return nil, "", "", err
	}
	return data, want, got, nil
}
