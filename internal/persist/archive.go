package persist

import (
	"errors"
	"fmt"

	"github.com/tdaitx/irpersist/internal/ir"
)

// Archive layout:
//
//	0   magic "IRPB"
//	4   raw int FormatVersion
//	8   raw int headers offset
//	12  one instruction region per scope, in scope order:
//	    compact count, then the instructions
//	H   file name, compact scope count, then per scope:
//	    kind, name, line, static-scope kind, variables, required args,
//	    has-parent, [parent ref], raw int instruction-region offset

// Encode writes p as an archive. Every scope must be loaded, and a scope's
// parent must come before it in p.Scopes.
func Encode(p *ir.Program) ([]byte, error) {
	for i, s := range p.Scopes {
		if s.Index() != i {
			return nil, unencodable("scope %q at position %d has index %d", s.Name, i, s.Index())
		}
		if !s.Loaded() {
			return nil, unencodable("scope %q has no instructions loaded", s.Name)
		}
		if s.Parent != nil {
			pi := s.Parent.Index()
			if pi < 0 || pi >= i || p.Scopes[pi] != s.Parent {
				return nil, unencodable("scope %q: parent %q must be registered before it", s.Name, s.Parent.Name)
			}
		}
	}

	w := NewWriter()
	w.program = p

	w.write([]byte(Magic)...)
	w.EncodeIntRaw(FormatVersion)
	w.EncodeIntRaw(0) // headers offset, patched below

	offsets := make([]int, len(p.Scopes))
	for i, s := range p.Scopes {
		offsets[i] = w.Len()
		w.EncodeInstrList(s.Instrs)
	}

	headers := w.Len()
	if headers > maxOffset {
		return nil, unencodable("archive of %d bytes exceeds raw int offsets", headers)
	}
	w.PatchIntRaw(8, int32(headers))

	w.EncodeString(p.File)
	w.encodeCount("scope count", len(p.Scopes))
	for i, s := range p.Scopes {
		w.EncodeScopeKind(s.Kind)
		w.EncodeString(s.Name)
		w.encodeCount("scope line", s.Line)
		w.EncodeStaticScopeKind(s.StaticScope.Kind)
		w.EncodeStringArray(s.StaticScope.Variables)
		w.encodeCount("required args", s.StaticScope.RequiredArgs)
		w.EncodeBoolean(s.Parent != nil)
		if s.Parent != nil {
			w.EncodeScopeRef(s.Parent)
		}
		w.EncodeIntRaw(int32(offsets[i]))
	}
	return w.Bytes()
}

const maxOffset = 1<<31 - 1

// ReadArchive validates the archive header, then reads and registers every
// scope header. Instructions are not decoded; use Reader.Instructions or
// LoadAll.
func ReadArchive(r *Reader) (*ir.Program, error) {
	if len(r.Scopes()) != 0 {
		return nil, errors.New("persist: archive headers already read by this session")
	}
	if err := r.Seek(0); err != nil {
		return nil, err
	}

	magic, err := r.take(len(Magic))
	if err != nil {
		return nil, err
	}
	if string(magic) != Magic {
		return nil, r.failf(ErrCodeBadHeader, 0, "magic %q, want %q", magic, Magic)
	}
	version, err := r.DecodeIntRaw()
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, r.failf(ErrCodeBadHeader, 4, "format version %d, want %d", version, FormatVersion)
	}
	headers, err := r.DecodeIntRaw()
	if err != nil {
		return nil, err
	}
	if headers < headerSize {
		return nil, r.failf(ErrCodeBadHeader, 8, "headers offset %d inside the header", headers)
	}
	if err := r.Seek(int(headers)); err != nil {
		return nil, err
	}

	file, err := r.DecodeString()
	if err != nil {
		return nil, err
	}
	r.program.File = file

	count, err := r.decodeLength("scope count")
	if err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		s, err := decodeScopeHeader(r)
		if err != nil {
			return nil, fmt.Errorf("scope header %d: %w", i, err)
		}
		r.AddScope(s)
	}

	r.logger.Debug("archive headers read", "file", file, "scopes", count, "format_version", version)
	return r.program, nil
}

func decodeScopeHeader(r *Reader) (*ir.Scope, error) {
	kind, err := r.DecodeScopeKind()
	if err != nil {
		return nil, err
	}
	name, err := r.DecodeString()
	if err != nil {
		return nil, err
	}
	line, err := r.DecodeInt()
	if err != nil {
		return nil, err
	}
	skind, err := r.DecodeStaticScopeKind()
	if err != nil {
		return nil, err
	}
	vars, err := r.DecodeStringArray()
	if err != nil {
		return nil, err
	}
	required, err := r.DecodeInt()
	if err != nil {
		return nil, err
	}
	hasParent, err := r.DecodeBoolean()
	if err != nil {
		return nil, err
	}
	var parent *ir.Scope
	if hasParent {
		if parent, err = r.DecodeScope(); err != nil {
			return nil, err
		}
	}
	offset, err := r.DecodeIntRaw()
	if err != nil {
		return nil, err
	}

	s := ir.NewScope(kind, name, int(line), ir.StaticScope{
		Kind:         skind,
		Variables:    vars,
		RequiredArgs: int(required),
	}, parent)
	s.InstrOffset = int(offset)
	return s, nil
}

// LoadAll decodes the instructions of every registered scope that is not
// loaded yet.
func LoadAll(r *Reader) error {
	for _, s := range r.Scopes() {
		if _, err := r.Instructions(s); err != nil {
			return fmt.Errorf("scope %d (%s): %w", s.Index(), s.Name, err)
		}
	}
	return nil
}

// Decode reads a whole archive: headers and every scope's instructions.
func Decode(mgr *ir.Manager, data []byte, opts ...Option) (*ir.Program, error) {
	r := NewReader(mgr, data, opts...)
	p, err := ReadArchive(r)
	if err != nil {
		return nil, err
	}
	if err := LoadAll(r); err != nil {
		return nil, err
	}
	return p, nil
}
