package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdaitx/irpersist/internal/ir"
)

func TestInstrRoundTrip(t *testing.T) {
	mgr := ir.NewManager(nil)
	method := ir.NewScope(ir.ScopeInstanceMethod, "m", 4, ir.StaticScope{}, nil)
	prog := &ir.Program{}
	prog.AddScope(method)

	x := &ir.LocalVariable{Ident: "x"}
	tmp := &ir.TemporaryVariable{TempKind: ir.TempLocal, Offset: 2}
	lbl := &ir.Label{Prefix: "L", ID: 1}

	tests := []ir.Instr{
		&ir.NopInstr{},
		&ir.LineNumInstr{Line: 70000},
		&ir.LabelInstr{Label: lbl},
		&ir.ReceiveSelfInstr{Result: tmp},
		&ir.ReceiveArgInstr{Result: x, Index: 3, Optional: true},
		&ir.CopyInstr{Result: x, Source: &ir.Fixnum{Value: 5}},
		&ir.CallInstr{CallKind: ir.CallSuper, Receiver: mgr.Self(), Method: "initialize", Args: []ir.Operand{}},
		&ir.CallInstr{
			CallKind: ir.CallNormal, Result: tmp, Receiver: x, Method: "each",
			Args:    []ir.Operand{&ir.Fixnum{Value: 1}},
			Closure: &ir.WrappedClosure{Self: mgr.Self(), Closure: method},
		},
		&ir.ReturnInstr{Value: x},
		&ir.JumpInstr{Target: lbl},
		&ir.BranchInstr{Cond: ir.OpBranchTrue, Value: x, Target: lbl},
		&ir.BranchInstr{Cond: ir.OpBranchFalse, Value: x, Target: lbl},
		&ir.BranchInstr{Cond: ir.OpBranchNil, Value: x, Target: lbl},
		&ir.GetFieldInstr{Result: tmp, Object: mgr.Self(), Field: "@a"},
		&ir.PutFieldInstr{Object: mgr.Self(), Field: "@a", Value: x},
		&ir.DefineMethodInstr{Method: method},
		&ir.ThreadPollInstr{OnBackEdge: true},
		&ir.BuildStringInstr{Result: tmp, Encoding: ir.UTF8, Pieces: []ir.Operand{x}},
	}

	for _, want := range tests {
		t.Run(want.Op().String(), func(t *testing.T) {
			data := encode(t, func(w *Writer) { w.EncodeInstr(want) })

			r := newTestReader(t, mgr, data)
			r.AddScope(method)
			got, err := r.DecodeInstr()
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, want.Op(), got.Op())
			assert.Equal(t, len(data), r.Position())
		})
	}
}

func TestCallSharesResultAndReceiver(t *testing.T) {
	x := &ir.LocalVariable{Ident: "x"}
	data := encode(t, func(w *Writer) {
		w.EncodeInstr(&ir.CallInstr{CallKind: ir.CallNormal, Result: x, Receiver: x, Method: "succ"})
	})

	r := newTestReader(t, nil, data)
	in, err := r.DecodeInstr()
	require.NoError(t, err)
	call := in.(*ir.CallInstr)
	assert.Same(t, call.Result, call.Receiver)
	assert.Equal(t, "succ", call.Method)
	assert.Empty(t, call.Args)
	assert.Nil(t, call.Closure)
}

func TestLineNumIsRawInt(t *testing.T) {
	data := encode(t, func(w *Writer) { w.EncodeInstr(&ir.LineNumInstr{Line: 5}) })
	// Operation ordinal, then four bytes even for a small line.
	assert.Equal(t, []byte{byte(ir.OpLineNum), 0, 0, 0, 5}, data)
}

func TestInstrResultMustBeVariable(t *testing.T) {
	data := encode(t, func(w *Writer) {
		w.EncodeOperation(ir.OpCopy)
		w.EncodeOperand(&ir.Fixnum{Value: 1})
		w.EncodeOperand(&ir.Fixnum{Value: 2})
	})
	_, err := newTestReader(t, nil, data).DecodeInstr()
	requireCode(t, err, ErrKindMismatch)
}

func TestJumpTargetMustBeLabel(t *testing.T) {
	data := encode(t, func(w *Writer) {
		w.EncodeOperation(ir.OpJump)
		w.EncodeOperand(&ir.Fixnum{Value: 1})
	})
	_, err := newTestReader(t, nil, data).DecodeInstr()
	requireCode(t, err, ErrKindMismatch)
}

func TestUnknownOperation(t *testing.T) {
	data := encode(t, func(w *Writer) { w.EncodeInt(int32(ir.OperationCount)) })
	_, err := newTestReader(t, nil, data).DecodeInstr()
	requireCode(t, err, ErrUnknownTag)
}

func TestInstrTruncatedMidway(t *testing.T) {
	data := encode(t, func(w *Writer) {
		w.EncodeInstr(&ir.GetFieldInstr{Result: &ir.LocalVariable{Ident: "v"}, Object: &ir.Self{}, Field: "@long_field_name"})
	})
	for cut := 1; cut < len(data); cut++ {
		_, err := newTestReader(t, nil, data[:cut]).DecodeInstr()
		requireCode(t, err, ErrTruncatedStream)
	}
}

func TestEncodeInstrFailures(t *testing.T) {
	tests := []struct {
		name string
		in   ir.Instr
	}{
		{"nil instruction", nil},
		{"typed nil instruction", (*ir.BranchInstr)(nil)},
		{"copy with typed nil result", &ir.CopyInstr{Result: (*ir.LocalVariable)(nil), Source: &ir.Nil{}}},
		{"copy without result", &ir.CopyInstr{Source: &ir.Nil{}}},
		{"jump without label", &ir.JumpInstr{}},
		{"branch with non-branch condition", &ir.BranchInstr{Cond: ir.OpCopy, Value: &ir.Nil{}, Target: &ir.Label{}}},
		{"build string without encoding", &ir.BuildStringInstr{Result: &ir.LocalVariable{Ident: "s"}}},
		{"define unregistered method", &ir.DefineMethodInstr{Method: ir.NewScope(ir.ScopeInstanceMethod, "m", 1, ir.StaticScope{}, nil)}},
		{"bad call kind", &ir.CallInstr{CallKind: ir.CallKind(9), Receiver: &ir.Self{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			w.EncodeInstr(tt.in)
			assert.ErrorIs(t, w.Err(), ErrUnencodable)
		})
	}
}
