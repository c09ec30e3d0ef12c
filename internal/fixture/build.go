package fixture

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/tdaitx/irpersist/internal/ir"
)

// ErrInvalid marks a fixture that does not describe a valid program.
var ErrInvalid = errors.New("invalid fixture")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// builder holds the state of one Build call.
type builder struct {
	mgr     *ir.Manager
	program *ir.Program
	byName  map[string]*ir.Scope

	// vars gives every variable of the scope being built one instance per
	// identity key, matching what a decoder produces.
	vars map[ir.VarKey]ir.Variable
}

// Build turns a parsed description into an ir.Program with every scope
// loaded. Scope names must be unique, and a parent must be listed before
// its children.
func Build(desc *Program, mgr *ir.Manager) (*ir.Program, error) {
	if desc.File == "" {
		return nil, invalid("file is required")
	}
	if len(desc.Scopes) == 0 {
		return nil, invalid("scopes list is required and must be non-empty")
	}

	b := &builder{
		mgr:     mgr,
		program: &ir.Program{File: desc.File},
		byName:  make(map[string]*ir.Scope, len(desc.Scopes)),
	}

	for i := range desc.Scopes {
		s, err := b.scope(&desc.Scopes[i])
		if err != nil {
			return nil, fmt.Errorf("scopes[%d] (%s): %w", i, desc.Scopes[i].Name, err)
		}
		b.program.AddScope(s)
		b.byName[s.Name] = s
	}

	// Instructions may reference any scope, so they are built once every
	// scope exists.
	for i := range desc.Scopes {
		s := b.program.Scopes[i]
		b.vars = make(map[ir.VarKey]ir.Variable)
		instrs := make([]ir.Instr, 0, len(desc.Scopes[i].Instrs))
		for j := range desc.Scopes[i].Instrs {
			in, err := b.instr(&desc.Scopes[i].Instrs[j])
			if err != nil {
				return nil, fmt.Errorf("scopes[%d] (%s): instrs[%d] (%s): %w",
					i, s.Name, j, desc.Scopes[i].Instrs[j].Op, err)
			}
			instrs = append(instrs, in)
		}
		s.SetInstrs(instrs)
	}
	return b.program, nil
}

func (b *builder) scope(desc *Scope) (*ir.Scope, error) {
	if desc.Name == "" {
		return nil, invalid("name is required")
	}
	if _, dup := b.byName[desc.Name]; dup {
		return nil, invalid("duplicate scope name %q", desc.Name)
	}
	kind, ok := ir.ParseScopeKind(desc.Kind)
	if !ok {
		return nil, invalid("unknown scope kind %q", desc.Kind)
	}
	static := ir.StaticScope{
		Kind:         ir.StaticLocal,
		Variables:    desc.Static.Variables,
		RequiredArgs: desc.Static.RequiredArgs,
	}
	if desc.Static.Kind != "" {
		if static.Kind, ok = ir.ParseStaticScopeKind(desc.Static.Kind); !ok {
			return nil, invalid("unknown static scope kind %q", desc.Static.Kind)
		}
	}

	var parent *ir.Scope
	if desc.Parent != "" {
		if parent, ok = b.byName[desc.Parent]; !ok {
			return nil, invalid("parent %q is not listed before this scope", desc.Parent)
		}
	}
	return ir.NewScope(kind, desc.Name, desc.Line, static, parent), nil
}

func (b *builder) lookupScope(name string) (*ir.Scope, error) {
	s, ok := b.byName[name]
	if !ok {
		return nil, invalid("no scope named %q", name)
	}
	return s, nil
}

func (b *builder) instr(desc *Instr) (ir.Instr, error) {
	op, ok := ir.ParseOperation(desc.Op)
	if !ok {
		return nil, invalid("unknown operation %q", desc.Op)
	}

	switch op {
	case ir.OpNop:
		return &ir.NopInstr{}, nil
	case ir.OpLineNum:
		return &ir.LineNumInstr{Line: desc.Line}, nil
	case ir.OpLabel:
		l, err := parseLabel("label", desc.Label)
		if err != nil {
			return nil, err
		}
		return &ir.LabelInstr{Label: l}, nil
	case ir.OpReceiveSelf:
		v, err := b.variable("result", desc.Result)
		if err != nil {
			return nil, err
		}
		return &ir.ReceiveSelfInstr{Result: v}, nil
	case ir.OpReceiveArg:
		v, err := b.variable("result", desc.Result)
		if err != nil {
			return nil, err
		}
		return &ir.ReceiveArgInstr{Result: v, Index: desc.Index, Optional: desc.Optional}, nil
	case ir.OpCopy:
		v, err := b.variable("result", desc.Result)
		if err != nil {
			return nil, err
		}
		src, err := b.required("source", desc.Source)
		if err != nil {
			return nil, err
		}
		return &ir.CopyInstr{Result: v, Source: src}, nil
	case ir.OpCall:
		return b.call(desc)
	case ir.OpReturn:
		v, err := b.required("value", desc.Value)
		if err != nil {
			return nil, err
		}
		return &ir.ReturnInstr{Value: v}, nil
	case ir.OpJump:
		l, err := parseLabel("target", desc.Target)
		if err != nil {
			return nil, err
		}
		return &ir.JumpInstr{Target: l}, nil
	case ir.OpBranchTrue, ir.OpBranchFalse, ir.OpBranchNil:
		v, err := b.required("value", desc.Value)
		if err != nil {
			return nil, err
		}
		l, err := parseLabel("target", desc.Target)
		if err != nil {
			return nil, err
		}
		return &ir.BranchInstr{Cond: op, Value: v, Target: l}, nil
	case ir.OpGetField:
		v, err := b.variable("result", desc.Result)
		if err != nil {
			return nil, err
		}
		obj, err := b.required("object", desc.Object)
		if err != nil {
			return nil, err
		}
		return &ir.GetFieldInstr{Result: v, Object: obj, Field: desc.Field}, nil
	case ir.OpPutField:
		obj, err := b.required("object", desc.Object)
		if err != nil {
			return nil, err
		}
		v, err := b.required("value", desc.Value)
		if err != nil {
			return nil, err
		}
		return &ir.PutFieldInstr{Object: obj, Field: desc.Field, Value: v}, nil
	case ir.OpDefineMethod:
		s, err := b.lookupScope(desc.Scope)
		if err != nil {
			return nil, fmt.Errorf("scope: %w", err)
		}
		return &ir.DefineMethodInstr{Method: s}, nil
	case ir.OpThreadPoll:
		return &ir.ThreadPollInstr{OnBackEdge: desc.OnBackEdge}, nil
	case ir.OpBuildString:
		v, err := b.variable("result", desc.Result)
		if err != nil {
			return nil, err
		}
		enc, err := b.encoding(desc.Encoding)
		if err != nil {
			return nil, fmt.Errorf("encoding: %w", err)
		}
		pieces, err := b.operands("pieces", desc.Pieces)
		if err != nil {
			return nil, err
		}
		return &ir.BuildStringInstr{Result: v, Encoding: enc, Pieces: pieces}, nil
	}
	return nil, invalid("operation %s has no fixture form", op)
}

func (b *builder) call(desc *Instr) (ir.Instr, error) {
	kind := ir.CallNormal
	if desc.CallKind != "" {
		var ok bool
		if kind, ok = ir.ParseCallKind(desc.CallKind); !ok {
			return nil, invalid("unknown call kind %q", desc.CallKind)
		}
	}
	call := &ir.CallInstr{CallKind: kind, Method: desc.Method}

	var err error
	if desc.Result != nil {
		if call.Result, err = b.variable("result", desc.Result); err != nil {
			return nil, err
		}
	}
	if call.Receiver, err = b.required("receiver", desc.Receiver); err != nil {
		return nil, err
	}
	if call.Args, err = b.operands("args", desc.Args); err != nil {
		return nil, err
	}
	if desc.Closure != nil {
		if call.Closure, err = b.operand(desc.Closure); err != nil {
			return nil, fmt.Errorf("closure: %w", err)
		}
	}
	return call, nil
}

func (b *builder) required(field string, desc *Operand) (ir.Operand, error) {
	if desc == nil {
		return nil, invalid("%s is required", field)
	}
	op, err := b.operand(desc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return op, nil
}

func (b *builder) variable(field string, desc *Operand) (ir.Variable, error) {
	op, err := b.required(field, desc)
	if err != nil {
		return nil, err
	}
	v, ok := op.(ir.Variable)
	if !ok {
		return nil, invalid("%s must be a variable, got %s", field, op.Kind())
	}
	return v, nil
}

func (b *builder) operands(field string, specs []Operand) ([]ir.Operand, error) {
	ops := make([]ir.Operand, 0, len(specs))
	for i := range specs {
		op, err := b.operand(&specs[i])
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (b *builder) encoding(name string) (ir.Encoding, error) {
	if name == "" {
		return ir.UTF8, nil
	}
	return b.mgr.Encodings().Lookup(name)
}

func (b *builder) byteString(text string, encName string) (ir.ByteString, error) {
	enc, err := b.encoding(encName)
	if err != nil {
		return ir.ByteString{}, err
	}
	return ir.NewByteString(text, enc), nil
}

// kindCount returns how many operand kinds desc sets.
func kindCount(desc *Operand) int {
	set := []bool{
		desc.Local != "",
		desc.Temp != "",
		desc.Fixnum != nil,
		desc.Bignum != "",
		desc.Float != nil,
		desc.Bool != nil,
		desc.Nil,
		desc.Self,
		desc.Undefined,
		desc.CurrentScope,
		desc.String != nil,
		desc.Symbol != "",
		desc.Regexp != nil,
		desc.Label != "",
		desc.Array != nil,
		desc.Hash != nil,
		desc.Module != "",
		desc.Closure != "",
	}
	n := 0
	for _, s := range set {
		if s {
			n++
		}
	}
	return n
}

func (b *builder) operand(desc *Operand) (ir.Operand, error) {
	if n := kindCount(desc); n != 1 {
		return nil, invalid("operand must set exactly one kind, got %d", n)
	}

	switch {
	case desc.Local != "":
		return b.intern(&ir.LocalVariable{Ident: desc.Local, Depth: desc.Depth, Offset: desc.Offset}), nil
	case desc.Temp != "":
		kind, ok := ir.ParseTempVarKind(desc.Temp)
		if !ok {
			return nil, invalid("unknown temporary kind %q", desc.Temp)
		}
		return b.intern(&ir.TemporaryVariable{TempKind: kind, Offset: desc.Offset}), nil
	case desc.Fixnum != nil:
		return &ir.Fixnum{Value: *desc.Fixnum}, nil
	case desc.Bignum != "":
		v, ok := new(big.Int).SetString(desc.Bignum, 10)
		if !ok {
			return nil, invalid("bignum %q is not a decimal integer", desc.Bignum)
		}
		return &ir.Bignum{Value: v}, nil
	case desc.Float != nil:
		return &ir.Float{Value: *desc.Float}, nil
	case desc.Bool != nil:
		return b.mgr.Bool(*desc.Bool), nil
	case desc.Nil:
		return b.mgr.Nil(), nil
	case desc.Self:
		return b.mgr.Self(), nil
	case desc.Undefined:
		return b.mgr.Undefined(), nil
	case desc.CurrentScope:
		return b.mgr.CurrentScope(), nil
	case desc.String != nil:
		bs, err := b.byteString(*desc.String, desc.Encoding)
		if err != nil {
			return nil, err
		}
		return &ir.StringLiteral{Value: bs, Frozen: desc.Frozen}, nil
	case desc.Symbol != "":
		bs, err := b.byteString(desc.Symbol, desc.Encoding)
		if err != nil {
			return nil, err
		}
		return b.mgr.Symbol(bs), nil
	case desc.Regexp != nil:
		bs, err := b.byteString(*desc.Regexp, desc.Encoding)
		if err != nil {
			return nil, err
		}
		return &ir.Regexp{Source: bs, Options: desc.Options}, nil
	case desc.Label != "":
		l, err := parseLabel("label", desc.Label)
		if err != nil {
			return nil, err
		}
		return l, nil
	case desc.Array != nil:
		elems, err := b.operands("array", *desc.Array)
		if err != nil {
			return nil, err
		}
		return &ir.Array{Elements: elems}, nil
	case desc.Hash != nil:
		pairs := make([]ir.KeyValue, 0, len(*desc.Hash))
		for i, p := range *desc.Hash {
			k, err := b.operand(&p.Key)
			if err != nil {
				return nil, fmt.Errorf("hash[%d].key: %w", i, err)
			}
			v, err := b.operand(&p.Value)
			if err != nil {
				return nil, fmt.Errorf("hash[%d].value: %w", i, err)
			}
			pairs = append(pairs, ir.KeyValue{Key: k, Value: v})
		}
		return &ir.Hash{Pairs: pairs}, nil
	case desc.Module != "":
		s, err := b.lookupScope(desc.Module)
		if err != nil {
			return nil, err
		}
		return &ir.ScopeModule{Scope: s}, nil
	default: // closure
		s, err := b.lookupScope(desc.Closure)
		if err != nil {
			return nil, err
		}
		var self ir.Operand = b.mgr.Self()
		if desc.ClosureSelf != nil {
			if self, err = b.operand(desc.ClosureSelf); err != nil {
				return nil, fmt.Errorf("closure_self: %w", err)
			}
		}
		return &ir.WrappedClosure{Self: self, Closure: s}, nil
	}
}

// intern returns the scope's existing variable with v's name, or records v.
func (b *builder) intern(v ir.Variable) ir.Variable {
	key := ir.KeyOf(v)
	if prev, ok := b.vars[key]; ok {
		return prev
	}
	b.vars[key] = v
	return v
}

// parseLabel reads "PREFIX_ID".
func parseLabel(field, s string) (*ir.Label, error) {
	i := strings.LastIndexByte(s, '_')
	if i <= 0 || i == len(s)-1 {
		return nil, invalid("%s %q is not of the form PREFIX_ID", field, s)
	}
	id, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return nil, invalid("%s %q has a non-numeric id", field, s)
	}
	return &ir.Label{Prefix: s[:i], ID: id}, nil
}
