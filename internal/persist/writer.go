package persist

import (
	"bytes"
	"encoding/binary"
	"math"
	"reflect"

	"github.com/tdaitx/irpersist/internal/ir"
)

// Writer emits the wire grammar Reader consumes.
//
// Encode methods do not return errors. The first failure is kept and
// reported by Err and Bytes; once it is set, further calls write nothing.
type Writer struct {
	buf bytes.Buffer
	err error

	// program, when set, restricts scope references to its scopes.
	program *ir.Program
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.buf.Len() }

// Err returns the first failure, if any.
func (w *Writer) Err() error { return w.err }

// Bytes returns the encoded bytes, or the first failure.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) write(b ...byte) {
	if w.err != nil {
		return
	}
	w.buf.Write(b)
}

// EncodeByte writes one raw byte.
func (w *Writer) EncodeByte(b byte) { w.write(b) }

// EncodeIntRaw writes a 4-byte big-endian int.
func (w *Writer) EncodeIntRaw(v int32) {
	w.write(binary.BigEndian.AppendUint32(nil, uint32(v))...)
}

// PatchIntRaw overwrites the 4-byte int at offset.
func (w *Writer) PatchIntRaw(offset int, v int32) {
	if w.err != nil {
		return
	}
	if offset < 0 || offset+4 > w.buf.Len() {
		w.fail(unencodable("patch at %d outside %d written bytes", offset, w.buf.Len()))
		return
	}
	binary.BigEndian.PutUint32(w.buf.Bytes()[offset:], uint32(v))
}

// EncodeInt writes a compact int.
func (w *Writer) EncodeInt(v int32) {
	if v >= compactMin && v <= compactMax {
		w.write(byte(int8(v)))
		return
	}
	w.write(Full)
	w.EncodeIntRaw(v)
}

// EncodeLong writes a compact long.
func (w *Writer) EncodeLong(v int64) {
	if v >= compactMin && v <= compactMax {
		w.write(byte(int8(v)))
		return
	}
	w.write(Full)
	w.write(binary.BigEndian.AppendUint64(nil, uint64(v))...)
}

// encodeCount writes a Go int as a compact int, failing outside int32.
func (w *Writer) encodeCount(what string, n int) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		w.fail(unencodable("%s %d out of int32 range", what, n))
		return
	}
	w.EncodeInt(int32(n))
}

// EncodeChar writes a 2-byte big-endian UTF-16 code unit.
func (w *Writer) EncodeChar(c uint16) {
	w.write(binary.BigEndian.AppendUint16(nil, c)...)
}

// EncodeBoolean writes True or False.
func (w *Writer) EncodeBoolean(v bool) {
	if v {
		w.write(True)
	} else {
		w.write(False)
	}
}

// EncodeFloat writes a 4-byte IEEE-754 float.
func (w *Writer) EncodeFloat(v float32) {
	w.write(binary.BigEndian.AppendUint32(nil, math.Float32bits(v))...)
}

// EncodeDouble writes an 8-byte IEEE-754 double.
func (w *Writer) EncodeDouble(v float64) {
	w.write(binary.BigEndian.AppendUint64(nil, math.Float64bits(v))...)
}

// EncodeByteArray writes a compact-int length and the bytes.
func (w *Writer) EncodeByteArray(b []byte) {
	w.encodeCount("byte array length", len(b))
	w.write(b...)
}

// EncodeString writes a length-prefixed string.
func (w *Writer) EncodeString(s string) {
	w.encodeCount("string length", len(s))
	if w.err == nil {
		w.buf.WriteString(s)
	}
}

// EncodeStringArray writes a compact-int count and the strings.
func (w *Writer) EncodeStringArray(ss []string) {
	w.encodeCount("string count", len(ss))
	for _, s := range ss {
		w.EncodeString(s)
	}
}

// EncodeEncoding writes an encoding's name.
func (w *Writer) EncodeEncoding(enc ir.Encoding) {
	if enc.IsZero() {
		w.fail(unencodable("missing encoding"))
		return
	}
	w.EncodeByteArray([]byte(enc.Name()))
}

// EncodeByteString writes the payload followed by its encoding.
func (w *Writer) EncodeByteString(b ir.ByteString) {
	w.EncodeByteArray(b.Bytes)
	w.EncodeEncoding(b.Encoding)
}

// EncodeOperation writes an operation ordinal.
func (w *Writer) EncodeOperation(op ir.Operation) {
	if int(op) >= ir.OperationCount {
		w.fail(unencodable("operation %d not in catalogue", op))
		return
	}
	w.EncodeInt(int32(op))
}

// EncodeOperandKind writes an operand kind as one byte.
func (w *Writer) EncodeOperandKind(k ir.OperandKind) {
	if int(k) >= ir.OperandKindCount {
		w.fail(unencodable("operand kind %d not in catalogue", k))
		return
	}
	w.write(byte(k))
}

// EncodeScopeKind writes a scope kind ordinal.
func (w *Writer) EncodeScopeKind(k ir.ScopeKind) {
	if int(k) >= ir.ScopeKindCount {
		w.fail(unencodable("scope kind %d not in catalogue", k))
		return
	}
	w.EncodeInt(int32(k))
}

// EncodeTempVarKind writes a temporary-variable kind ordinal.
func (w *Writer) EncodeTempVarKind(k ir.TempVarKind) {
	if int(k) >= ir.TempVarKindCount {
		w.fail(unencodable("temporary variable kind %d not in catalogue", k))
		return
	}
	w.EncodeInt(int32(k))
}

// EncodeStaticScopeKind writes a static-scope kind ordinal.
func (w *Writer) EncodeStaticScopeKind(k ir.StaticScopeKind) {
	if int(k) >= ir.StaticScopeKindCount {
		w.fail(unencodable("static scope kind %d not in catalogue", k))
		return
	}
	w.EncodeInt(int32(k))
}

// EncodeCallKind writes a call kind ordinal.
func (w *Writer) EncodeCallKind(k ir.CallKind) {
	if int(k) >= ir.CallKindCount {
		w.fail(unencodable("call kind %d not in catalogue", k))
		return
	}
	w.EncodeInt(int32(k))
}

// EncodeScopeRef writes a scope's index. The scope must already be added
// to a program, and to the writer's program if it has one.
func (w *Writer) EncodeScopeRef(s *ir.Scope) {
	if s == nil {
		w.fail(unencodable("nil scope reference"))
		return
	}
	idx := s.Index()
	if idx < 0 {
		w.fail(unencodable("scope %q has no index", s.Name))
		return
	}
	if w.program != nil {
		if got, ok := w.program.Scope(idx); !ok || got != s {
			w.fail(unencodable("scope %q is not part of program %q", s.Name, w.program.File))
			return
		}
	}
	w.encodeCount("scope index", idx)
}

// EncodeOperand writes an operand-kind byte and the fields of that kind.
func (w *Writer) EncodeOperand(op ir.Operand) {
	if w.err != nil {
		return
	}
	if isNil(op) {
		w.fail(unencodable("nil operand %T", op))
		return
	}
	w.EncodeOperandKind(op.Kind())

	switch o := op.(type) {
	case *ir.Array:
		w.EncodeOperandList(o.Elements)
	case *ir.Bignum:
		if o.Value == nil {
			w.fail(unencodable("bignum without value"))
			return
		}
		w.EncodeBoolean(o.Value.Sign() < 0)
		w.EncodeByteArray(o.Value.Bytes())
	case *ir.Boolean:
		w.EncodeBoolean(o.Value)
	case *ir.CurrentScope, *ir.Nil, *ir.Self, *ir.UndefinedValue:
	case *ir.Fixnum:
		w.EncodeLong(o.Value)
	case *ir.Float:
		w.EncodeDouble(o.Value)
	case *ir.Hash:
		w.encodeCount("hash size", len(o.Pairs))
		for _, kv := range o.Pairs {
			w.EncodeOperand(kv.Key)
			w.EncodeOperand(kv.Value)
		}
	case *ir.Label:
		w.EncodeString(o.Prefix)
		w.encodeCount("label id", o.ID)
	case *ir.LocalVariable:
		w.EncodeString(o.Ident)
		w.encodeCount("local depth", o.Depth)
		w.encodeCount("local offset", o.Offset)
	case *ir.Regexp:
		w.EncodeByteString(o.Source)
		w.encodeCount("regexp options", o.Options)
	case *ir.ScopeModule:
		w.EncodeScopeRef(o.Scope)
	case *ir.StringLiteral:
		w.EncodeByteString(o.Value)
		w.EncodeBoolean(o.Frozen)
	case *ir.Symbol:
		w.EncodeByteString(o.Name)
	case *ir.TemporaryVariable:
		w.EncodeTempVarKind(o.TempKind)
		w.encodeCount("temporary offset", o.Offset)
	case *ir.WrappedClosure:
		w.EncodeOperand(o.Self)
		w.EncodeScopeRef(o.Closure)
	default:
		w.fail(unencodable("operand %T", op))
	}
}

// EncodeOperandList writes a compact-int count and the operands.
func (w *Writer) EncodeOperandList(ops []ir.Operand) {
	w.encodeCount("operand count", len(ops))
	for _, op := range ops {
		w.EncodeOperand(op)
	}
}

// encodeVariable writes a required result variable.
func (w *Writer) encodeVariable(v ir.Variable) {
	if isNil(v) {
		w.fail(unencodable("missing result variable"))
		return
	}
	w.EncodeOperand(v)
}

func (w *Writer) encodeLabel(l *ir.Label) {
	if l == nil {
		w.fail(unencodable("missing label"))
		return
	}
	w.EncodeOperand(l)
}

// EncodeInstr writes an operation ordinal and the fields of that operation.
func (w *Writer) EncodeInstr(in ir.Instr) {
	if w.err != nil {
		return
	}
	if isNil(in) {
		w.fail(unencodable("nil instruction %T", in))
		return
	}
	if b, ok := in.(*ir.BranchInstr); ok && !b.Cond.IsBranch() {
		w.fail(unencodable("branch with condition %s", b.Cond))
		return
	}
	w.EncodeOperation(in.Op())

	switch i := in.(type) {
	case *ir.NopInstr:
	case *ir.LineNumInstr:
		w.EncodeIntRaw(i.Line)
	case *ir.LabelInstr:
		w.encodeLabel(i.Label)
	case *ir.ReceiveSelfInstr:
		w.encodeVariable(i.Result)
	case *ir.ReceiveArgInstr:
		w.encodeVariable(i.Result)
		w.encodeCount("argument index", i.Index)
		w.EncodeBoolean(i.Optional)
	case *ir.CopyInstr:
		w.encodeVariable(i.Result)
		w.EncodeOperand(i.Source)
	case *ir.CallInstr:
		w.EncodeCallKind(i.CallKind)
		w.EncodeBoolean(i.Result != nil)
		if i.Result != nil {
			w.EncodeOperand(i.Result)
		}
		w.EncodeOperand(i.Receiver)
		w.EncodeString(i.Method)
		w.EncodeOperandList(i.Args)
		w.EncodeBoolean(i.Closure != nil)
		if i.Closure != nil {
			w.EncodeOperand(i.Closure)
		}
	case *ir.ReturnInstr:
		w.EncodeOperand(i.Value)
	case *ir.JumpInstr:
		w.encodeLabel(i.Target)
	case *ir.BranchInstr:
		w.EncodeOperand(i.Value)
		w.encodeLabel(i.Target)
	case *ir.GetFieldInstr:
		w.encodeVariable(i.Result)
		w.EncodeOperand(i.Object)
		w.EncodeString(i.Field)
	case *ir.PutFieldInstr:
		w.EncodeOperand(i.Object)
		w.EncodeString(i.Field)
		w.EncodeOperand(i.Value)
	case *ir.DefineMethodInstr:
		w.EncodeScopeRef(i.Method)
	case *ir.ThreadPollInstr:
		w.EncodeBoolean(i.OnBackEdge)
	case *ir.BuildStringInstr:
		w.encodeVariable(i.Result)
		w.EncodeEncoding(i.Encoding)
		w.EncodeOperandList(i.Pieces)
	default:
		w.fail(unencodable("instruction %T", in))
	}
}

// EncodeInstrList writes a compact-int count and the instructions.
func (w *Writer) EncodeInstrList(instrs []ir.Instr) {
	w.encodeCount("instruction count", len(instrs))
	for _, in := range instrs {
		w.EncodeInstr(in)
	}
}

// isNil reports whether v is nil or a nil pointer held in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
