package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdaitx/irpersist/internal/ir"
)

func collectOperandKinds(op ir.Operand, seen map[ir.OperandKind]bool) {
	if op == nil {
		return
	}
	seen[op.Kind()] = true
	switch o := op.(type) {
	case *ir.Array:
		for _, e := range o.Elements {
			collectOperandKinds(e, seen)
		}
	case *ir.Hash:
		for _, kv := range o.Pairs {
			collectOperandKinds(kv.Key, seen)
			collectOperandKinds(kv.Value, seen)
		}
	case *ir.WrappedClosure:
		collectOperandKinds(o.Self, seen)
	}
}

func instrOperands(in ir.Instr) []ir.Operand {
	switch i := in.(type) {
	case *ir.LabelInstr:
		return []ir.Operand{i.Label}
	case *ir.ReceiveSelfInstr:
		return []ir.Operand{i.Result}
	case *ir.ReceiveArgInstr:
		return []ir.Operand{i.Result}
	case *ir.CopyInstr:
		return []ir.Operand{i.Result, i.Source}
	case *ir.CallInstr:
		ops := append([]ir.Operand{i.Receiver, i.Closure}, i.Args...)
		if i.Result != nil {
			ops = append(ops, i.Result)
		}
		return ops
	case *ir.ReturnInstr:
		return []ir.Operand{i.Value}
	case *ir.JumpInstr:
		return []ir.Operand{i.Target}
	case *ir.BranchInstr:
		return []ir.Operand{i.Value, i.Target}
	case *ir.GetFieldInstr:
		return []ir.Operand{i.Result, i.Object}
	case *ir.PutFieldInstr:
		return []ir.Operand{i.Object, i.Value}
	case *ir.BuildStringInstr:
		return append([]ir.Operand{i.Result}, i.Pieces...)
	}
	return nil
}

func TestKitchenSinkCoversEveryKind(t *testing.T) {
	p := KitchenSinkProgram(ir.NewManager(nil))

	ops := make(map[ir.Operation]bool)
	kinds := make(map[ir.OperandKind]bool)
	for _, s := range p.Scopes {
		require.True(t, s.Loaded(), s.Name)
		for _, in := range s.Instrs {
			ops[in.Op()] = true
			for _, op := range instrOperands(in) {
				collectOperandKinds(op, kinds)
			}
		}
	}

	for i := 0; i < ir.OperationCount; i++ {
		assert.True(t, ops[ir.Operation(i)], "operation %s unused", ir.Operation(i))
	}
	for i := 0; i < ir.OperandKindCount; i++ {
		assert.True(t, kinds[ir.OperandKind(i)], "operand kind %s unused", ir.OperandKind(i))
	}
}

func TestTwoScopeProgramShape(t *testing.T) {
	p := TwoScopeProgram(ir.NewManager(nil))
	require.Len(t, p.Scopes, 2)

	outer, inner := p.Scopes[0], p.Scopes[1]
	assert.Same(t, outer, inner.Parent)
	assert.Empty(t, inner.Instrs)

	call, ok := outer.Instrs[0].(*ir.CallInstr)
	require.True(t, ok)
	assert.Same(t, call.Result, call.Receiver)
}
