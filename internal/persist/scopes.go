package persist

import (
	"github.com/tdaitx/irpersist/internal/ir"
)

// AddScope registers scope in the session's scope table. Its index is the
// number of scopes registered before it, which must equal the order in
// which the writer emitted scope headers.
func (r *Reader) AddScope(scope *ir.Scope) int {
	idx := r.program.AddScope(scope)
	r.logger.Debug("scope registered",
		"index", idx,
		"kind", scope.Kind.String(),
		"name", scope.Name,
		"instr_offset", scope.InstrOffset,
	)
	return idx
}

// Scopes returns the registered scopes in index order.
func (r *Reader) Scopes() []*ir.Scope {
	return r.program.Scopes
}

// Program returns the program being assembled by this session.
func (r *Reader) Program() *ir.Program {
	return r.program
}

// CurrentScope returns the scope whose instructions were last requested
// through DecodeInstructionsAt.
func (r *Reader) CurrentScope() *ir.Scope {
	return r.current
}

// Vars returns the variable-identity cache of the current instruction-list
// decode. The map is live until the next DecodeInstructionsAt.
func (r *Reader) Vars() map[ir.VarKey]ir.Variable {
	return r.vars
}

// DecodeScope reads a compact-int scope index and resolves it against the
// scopes registered so far.
func (r *Reader) DecodeScope() (*ir.Scope, error) {
	at := r.cur.pos
	n, err := r.DecodeInt()
	if err != nil {
		return nil, err
	}
	scope, ok := r.program.Scope(int(n))
	if !ok {
		return nil, r.failf(ErrCodeDanglingScopeRef, at,
			"scope %d referenced with %d scopes registered", n, len(r.program.Scopes))
	}
	return scope, nil
}

// DecodeInstructionsAt decodes the instruction list stored at offset on
// behalf of scope. It makes scope current, starts a fresh variable-identity
// cache and leaves the cursor after the last instruction.
func (r *Reader) DecodeInstructionsAt(scope *ir.Scope, offset int) ([]ir.Instr, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.current = scope
	r.vars = make(map[ir.VarKey]ir.Variable)

	if err := r.Seek(offset); err != nil {
		return nil, err
	}
	n, err := r.decodeLength("instruction count")
	if err != nil {
		return nil, err
	}

	log := r.logger.With("scope", scope.Name, "scope_index", scope.Index())
	log.Debug("decoding instructions", "offset", offset, "count", n)

	instrs := make([]ir.Instr, 0, n)
	for i := 0; i < n; i++ {
		at := r.cur.pos
		in, err := r.DecodeInstr()
		if err != nil {
			return nil, err
		}
		log.Debug("decoded instruction", "index", i, "offset", at, "op", in.Op().String())
		instrs = append(instrs, in)
	}
	return instrs, nil
}

// Instructions returns scope's instruction list, decoding it from the
// scope's recorded offset on first use.
func (r *Reader) Instructions(scope *ir.Scope) ([]ir.Instr, error) {
	if scope.Loaded() {
		return scope.Instrs, nil
	}
	instrs, err := r.DecodeInstructionsAt(scope, scope.InstrOffset)
	if err != nil {
		return nil, err
	}
	scope.SetInstrs(instrs)
	return scope.Instrs, nil
}
