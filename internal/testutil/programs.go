package testutil

import (
	"math/big"

	"github.com/tdaitx/irpersist/internal/ir"
)

// TwoScopeProgram builds a script body holding "x = x.succ()" followed by a
// return, and a closure nested in it with no instructions.
//
// The CALL's result and receiver are the same *ir.LocalVariable, as a
// decoder produces them.
func TwoScopeProgram(m *ir.Manager) *ir.Program {
	p := &ir.Program{File: "two_scopes.rb"}
	main := ir.NewScope(ir.ScopeScriptBody, "main", 1,
		ir.StaticScope{Kind: ir.StaticLocal, Variables: []string{"x"}}, nil)
	block := ir.NewScope(ir.ScopeClosure, "main_block_0", 2,
		ir.StaticScope{Kind: ir.StaticBlock}, main)
	p.AddScope(main)
	p.AddScope(block)

	x := &ir.LocalVariable{Ident: "x"}
	main.SetInstrs([]ir.Instr{
		&ir.CallInstr{CallKind: ir.CallNormal, Result: x, Receiver: x, Method: "succ"},
		&ir.ReturnInstr{Value: m.Nil()},
	})
	block.SetInstrs(nil)
	return p
}

// KitchenSinkProgram builds a four-scope program that uses every operand
// kind and every operation at least once:
//
//	#0 main  SCRIPT_BODY
//	#1 Foo   CLASS_BODY       parent main
//	#2 bar   INSTANCE_METHOD  parent Foo
//	#3 blk   CLOSURE          parent bar
func KitchenSinkProgram(m *ir.Manager) *ir.Program {
	p := &ir.Program{File: "kitchen_sink.rb"}
	main := ir.NewScope(ir.ScopeScriptBody, "main", 1,
		ir.StaticScope{Kind: ir.StaticLocal, Variables: []string{"x", "y"}}, nil)
	foo := ir.NewScope(ir.ScopeClassBody, "Foo", 20,
		ir.StaticScope{Kind: ir.StaticLocal}, main)
	bar := ir.NewScope(ir.ScopeInstanceMethod, "bar", 21,
		ir.StaticScope{Kind: ir.StaticLocal, Variables: []string{"a", "b"}, RequiredArgs: 1}, foo)
	blk := ir.NewScope(ir.ScopeClosure, "bar_block_0", 22,
		ir.StaticScope{Kind: ir.StaticBlock}, bar)
	for _, s := range []*ir.Scope{main, foo, bar, blk} {
		p.AddScope(s)
	}

	x := &ir.LocalVariable{Ident: "x"}
	y := &ir.LocalVariable{Ident: "y", Offset: 1}
	self := &ir.TemporaryVariable{TempKind: ir.TempLocal, Offset: 0}
	bn := &ir.TemporaryVariable{TempKind: ir.TempLocal, Offset: 1}
	flag := &ir.TemporaryVariable{TempKind: ir.TempBoolean, Offset: 0}
	arr := &ir.TemporaryVariable{TempKind: ir.TempLocal, Offset: 2}
	hash := &ir.TemporaryVariable{TempKind: ir.TempLocal, Offset: 3}
	re := &ir.TemporaryVariable{TempKind: ir.TempLocal, Offset: 4}
	field := &ir.TemporaryVariable{TempKind: ir.TempLocal, Offset: 5}
	str := &ir.TemporaryVariable{TempKind: ir.TempLocal, Offset: 6}
	lit := &ir.TemporaryVariable{TempKind: ir.TempLocal, Offset: 7}
	fl := &ir.TemporaryVariable{TempKind: ir.TempFloat, Offset: 0}
	fix := &ir.TemporaryVariable{TempKind: ir.TempFixnum, Offset: 0}
	mod := &ir.TemporaryVariable{TempKind: ir.TempCurrentModule}
	cur := &ir.TemporaryVariable{TempKind: ir.TempCurrentScope}
	cl := &ir.TemporaryVariable{TempKind: ir.TempClosure, Offset: 0}

	top := &ir.Label{Prefix: "LBL", ID: 0}
	done := &ir.Label{Prefix: "LBL", ID: 1}

	huge := new(big.Int).Lsh(big.NewInt(1), 80)
	huge.Neg(huge)

	main.SetInstrs([]ir.Instr{
		&ir.LineNumInstr{Line: 1},
		&ir.ReceiveSelfInstr{Result: self},
		&ir.CopyInstr{Result: x, Source: &ir.Fixnum{Value: 42}},
		&ir.CopyInstr{Result: y, Source: &ir.Fixnum{Value: -1 << 40}},
		&ir.CopyInstr{Result: fl, Source: &ir.Float{Value: 1.5}},
		&ir.CopyInstr{Result: fix, Source: &ir.Fixnum{Value: 127}},
		&ir.CopyInstr{Result: bn, Source: &ir.Bignum{Value: huge}},
		&ir.CopyInstr{Result: flag, Source: m.True()},
		&ir.CopyInstr{Result: arr, Source: &ir.Array{Elements: []ir.Operand{
			&ir.Fixnum{Value: 1}, m.Nil(), m.False(),
		}}},
		&ir.CopyInstr{Result: hash, Source: &ir.Hash{Pairs: []ir.KeyValue{
			{Key: m.Symbol(ir.NewByteString("a", ir.UTF8)), Value: &ir.Fixnum{Value: 1}},
			{Key: m.Symbol(ir.NewByteString("b", ir.UTF8)), Value: m.Undefined()},
		}}},
		&ir.CopyInstr{Result: re, Source: &ir.Regexp{Source: ir.NewByteString("a+b", ir.USASCII), Options: 4}},
		&ir.CopyInstr{Result: mod, Source: &ir.ScopeModule{Scope: foo}},
		&ir.CopyInstr{Result: cur, Source: m.CurrentScope()},
		&ir.LabelInstr{Label: top},
		&ir.BranchInstr{Cond: ir.OpBranchTrue, Value: flag, Target: done},
		&ir.BranchInstr{Cond: ir.OpBranchFalse, Value: x, Target: top},
		&ir.BranchInstr{Cond: ir.OpBranchNil, Value: y, Target: done},
		&ir.ThreadPollInstr{OnBackEdge: true},
		&ir.JumpInstr{Target: top},
		&ir.LabelInstr{Label: done},
		&ir.GetFieldInstr{Result: field, Object: self, Field: "@count"},
		&ir.PutFieldInstr{Object: self, Field: "@count", Value: x},
		&ir.CopyInstr{Result: lit, Source: &ir.StringLiteral{Value: ir.NewByteString("café", ir.Latin1), Frozen: true}},
		&ir.BuildStringInstr{Result: str, Encoding: ir.UTF8, Pieces: []ir.Operand{
			&ir.StringLiteral{Value: ir.NewByteString("x=", ir.UTF8)}, x,
		}},
		&ir.CopyInstr{Result: cl, Source: &ir.WrappedClosure{Self: m.Self(), Closure: blk}},
		&ir.CallInstr{CallKind: ir.CallFunctional, Receiver: m.Self(), Method: "puts",
			Args: []ir.Operand{str, lit}, Closure: cl},
		&ir.CallInstr{CallKind: ir.CallNormal, Result: x, Receiver: x, Method: "succ"},
		&ir.NopInstr{},
		&ir.ReturnInstr{Value: m.Nil()},
	})

	foo.SetInstrs([]ir.Instr{
		&ir.DefineMethodInstr{Method: bar},
		&ir.ReturnInstr{Value: m.Nil()},
	})

	a := &ir.LocalVariable{Ident: "a"}
	b := &ir.LocalVariable{Ident: "b", Offset: 1}
	bar.SetInstrs([]ir.Instr{
		&ir.ReceiveArgInstr{Result: a, Index: 0},
		&ir.ReceiveArgInstr{Result: b, Index: 1, Optional: true},
		&ir.CallInstr{CallKind: ir.CallSuper, Receiver: m.Self(), Method: "bar", Args: []ir.Operand{a, b}},
		&ir.ReturnInstr{Value: a},
	})

	blk.SetInstrs([]ir.Instr{
		&ir.CallInstr{CallKind: ir.CallVariable, Result: &ir.TemporaryVariable{TempKind: ir.TempLocal},
			Receiver: &ir.LocalVariable{Ident: "a", Depth: 1}, Method: "to_s"},
		&ir.ReturnInstr{Value: &ir.TemporaryVariable{TempKind: ir.TempLocal}},
	})
	return p
}
