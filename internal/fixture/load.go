package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/tdaitx/irpersist/internal/ir"
)

// ErrUnsupportedFormat is returned for fixture files that are neither YAML
// nor CUE.
var ErrUnsupportedFormat = errors.New("unsupported fixture format")

// Load reads the fixture at path and builds the program it describes.
// The format is chosen by extension: .yaml, .yml or .cue.
func Load(path string, mgr *ir.Manager) (*ir.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var desc *Program
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		desc, err = ParseYAML(data)
	case ".cue":
		desc, err = ParseCUE(path, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	p, err := Build(desc, mgr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParseYAML decodes a YAML program description. Unknown fields are
// rejected.
func ParseYAML(data []byte) (*Program, error) {
	var desc Program
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&desc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &desc, nil
}

// ParseCUE evaluates a CUE program description. filename is used in error
// positions only.
func ParseCUE(filename string, data []byte) (*Program, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE: %w", err)
	}
	if err := value.Validate(); err != nil {
		return nil, fmt.Errorf("invalid CUE value: %w", err)
	}

	var desc Program
	if err := value.Decode(&desc); err != nil {
		return nil, fmt.Errorf("failed to decode CUE: %w", err)
	}
	return &desc, nil
}
