package persist

import (
	"math/big"

	"github.com/tdaitx/irpersist/internal/ir"
)

type operandDecoder func(r *Reader) (ir.Operand, error)

// operandDecoders is indexed by operand kind. Filled in init because the
// container decoders recurse through DecodeOperand.
var operandDecoders [ir.OperandKindCount]operandDecoder

func init() {
	operandDecoders = [ir.OperandKindCount]operandDecoder{
		ir.KindArray:             decodeArray,
		ir.KindBignum:            decodeBignum,
		ir.KindBoolean:           decodeBooleanOperand,
		ir.KindCurrentScope:      func(r *Reader) (ir.Operand, error) { return r.mgr.CurrentScope(), nil },
		ir.KindFixnum:            decodeFixnum,
		ir.KindFloat:             decodeFloatOperand,
		ir.KindHash:              decodeHash,
		ir.KindLabel:             decodeLabelOperand,
		ir.KindLocalVariable:     decodeLocalVariable,
		ir.KindNil:               func(r *Reader) (ir.Operand, error) { return r.mgr.Nil(), nil },
		ir.KindRegexp:            decodeRegexp,
		ir.KindScopeModule:       decodeScopeModule,
		ir.KindSelf:              func(r *Reader) (ir.Operand, error) { return r.mgr.Self(), nil },
		ir.KindStringLiteral:     decodeStringLiteral,
		ir.KindSymbol:            decodeSymbol,
		ir.KindTemporaryVariable: decodeTemporaryVariable,
		ir.KindUndefinedValue:    func(r *Reader) (ir.Operand, error) { return r.mgr.Undefined(), nil },
		ir.KindWrappedClosure:    decodeWrappedClosure,
	}
}

// DecodeOperand reads an operand-kind byte and the fields of that kind.
func (r *Reader) DecodeOperand() (ir.Operand, error) {
	kind, err := r.DecodeOperandKind()
	if err != nil {
		return nil, err
	}
	return operandDecoders[kind](r)
}

// DecodeOperandList reads a compact-int count and that many operands.
func (r *Reader) DecodeOperandList() ([]ir.Operand, error) {
	n, err := r.decodeLength("operand count")
	if err != nil {
		return nil, err
	}
	ops := make([]ir.Operand, n)
	for i := range ops {
		if ops[i], err = r.DecodeOperand(); err != nil {
			return nil, err
		}
	}
	return ops, nil
}

// DecodeVariable reads an operand that must be a variable.
func (r *Reader) DecodeVariable() (ir.Variable, error) {
	at := r.cur.pos
	op, err := r.DecodeOperand()
	if err != nil {
		return nil, err
	}
	v, ok := op.(ir.Variable)
	if !ok {
		return nil, r.failf(ErrCodeKindMismatch, at, "expected variable, got %s", op.Kind())
	}
	return v, nil
}

// DecodeLabel reads an operand that must be a label.
func (r *Reader) DecodeLabel() (*ir.Label, error) {
	at := r.cur.pos
	op, err := r.DecodeOperand()
	if err != nil {
		return nil, err
	}
	l, ok := op.(*ir.Label)
	if !ok {
		return nil, r.failf(ErrCodeKindMismatch, at, "expected label, got %s", op.Kind())
	}
	return l, nil
}

func decodeArray(r *Reader) (ir.Operand, error) {
	elems, err := r.DecodeOperandList()
	if err != nil {
		return nil, err
	}
	return &ir.Array{Elements: elems}, nil
}

func decodeBignum(r *Reader) (ir.Operand, error) {
	negative, err := r.DecodeBoolean()
	if err != nil {
		return nil, err
	}
	magnitude, err := r.DecodeByteArray()
	if err != nil {
		return nil, err
	}
	v := new(big.Int).SetBytes(magnitude)
	if negative {
		v.Neg(v)
	}
	return &ir.Bignum{Value: v}, nil
}

func decodeBooleanOperand(r *Reader) (ir.Operand, error) {
	v, err := r.DecodeBoolean()
	if err != nil {
		return nil, err
	}
	return r.mgr.Bool(v), nil
}

func decodeFixnum(r *Reader) (ir.Operand, error) {
	v, err := r.DecodeLong()
	if err != nil {
		return nil, err
	}
	return &ir.Fixnum{Value: v}, nil
}

func decodeFloatOperand(r *Reader) (ir.Operand, error) {
	v, err := r.DecodeDouble()
	if err != nil {
		return nil, err
	}
	return &ir.Float{Value: v}, nil
}

func decodeHash(r *Reader) (ir.Operand, error) {
	n, err := r.decodeLength("hash size")
	if err != nil {
		return nil, err
	}
	pairs := make([]ir.KeyValue, n)
	for i := range pairs {
		if pairs[i].Key, err = r.DecodeOperand(); err != nil {
			return nil, err
		}
		if pairs[i].Value, err = r.DecodeOperand(); err != nil {
			return nil, err
		}
	}
	return &ir.Hash{Pairs: pairs}, nil
}

func decodeLabelOperand(r *Reader) (ir.Operand, error) {
	prefix, err := r.DecodeString()
	if err != nil {
		return nil, err
	}
	id, err := r.DecodeInt()
	if err != nil {
		return nil, err
	}
	return &ir.Label{Prefix: prefix, ID: int(id)}, nil
}

func decodeLocalVariable(r *Reader) (ir.Operand, error) {
	name, err := r.DecodeString()
	if err != nil {
		return nil, err
	}
	depth, err := r.DecodeInt()
	if err != nil {
		return nil, err
	}
	offset, err := r.DecodeInt()
	if err != nil {
		return nil, err
	}
	return r.internVariable(&ir.LocalVariable{Ident: name, Depth: int(depth), Offset: int(offset)}), nil
}

func decodeRegexp(r *Reader) (ir.Operand, error) {
	src, err := r.DecodeByteString()
	if err != nil {
		return nil, err
	}
	opts, err := r.DecodeInt()
	if err != nil {
		return nil, err
	}
	return &ir.Regexp{Source: src, Options: int(opts)}, nil
}

func decodeScopeModule(r *Reader) (ir.Operand, error) {
	scope, err := r.DecodeScope()
	if err != nil {
		return nil, err
	}
	return &ir.ScopeModule{Scope: scope}, nil
}

func decodeStringLiteral(r *Reader) (ir.Operand, error) {
	s, err := r.DecodeByteString()
	if err != nil {
		return nil, err
	}
	frozen, err := r.DecodeBoolean()
	if err != nil {
		return nil, err
	}
	return &ir.StringLiteral{Value: s, Frozen: frozen}, nil
}

func decodeSymbol(r *Reader) (ir.Operand, error) {
	name, err := r.DecodeByteString()
	if err != nil {
		return nil, err
	}
	return r.mgr.Symbol(name), nil
}

func decodeTemporaryVariable(r *Reader) (ir.Operand, error) {
	kind, err := r.DecodeTempVarKind()
	if err != nil {
		return nil, err
	}
	offset, err := r.DecodeInt()
	if err != nil {
		return nil, err
	}
	return r.internVariable(&ir.TemporaryVariable{TempKind: kind, Offset: int(offset)}), nil
}

func decodeWrappedClosure(r *Reader) (ir.Operand, error) {
	self, err := r.DecodeOperand()
	if err != nil {
		return nil, err
	}
	closure, err := r.DecodeScope()
	if err != nil {
		return nil, err
	}
	return &ir.WrappedClosure{Self: self, Closure: closure}, nil
}

// internVariable returns the instance already decoded for v's key in the
// current instruction list, registering v if there is none.
func (r *Reader) internVariable(v ir.Variable) ir.Variable {
	key := ir.KeyOf(v)
	if prev, ok := r.vars[key]; ok {
		return prev
	}
	r.vars[key] = v
	return v
}
