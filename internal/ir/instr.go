package ir

import (
	"strconv"
	"strings"
)

// Instr is a sealed interface over the instruction variants, one concrete
// struct per Operation (the three conditional branches share BranchInstr).
type Instr interface {
	Op() Operation
	String() string
	describe() map[string]any // Sealed
}

// ResultInstr is an instruction that assigns to a variable.
type ResultInstr interface {
	Instr
	ResultVar() Variable
}

type NopInstr struct{}

type LineNumInstr struct {
	Line int32
}

type LabelInstr struct {
	Label *Label
}

type ReceiveSelfInstr struct {
	Result Variable
}

type ReceiveArgInstr struct {
	Result   Variable
	Index    int
	Optional bool
}

type CopyInstr struct {
	Result Variable
	Source Operand
}

// CallInstr invokes Method on Receiver. Result and Closure are optional.
type CallInstr struct {
	CallKind CallKind
	Result   Variable
	Receiver Operand
	Method   string
	Args     []Operand
	Closure  Operand
}

type ReturnInstr struct {
	Value Operand
}

type JumpInstr struct {
	Target *Label
}

// BranchInstr jumps to Target when Value tests true, false or nil,
// according to Cond (OpBranchTrue, OpBranchFalse or OpBranchNil).
type BranchInstr struct {
	Cond   Operation
	Value  Operand
	Target *Label
}

type GetFieldInstr struct {
	Result Variable
	Object Operand
	Field  string
}

type PutFieldInstr struct {
	Object Operand
	Field  string
	Value  Operand
}

// DefineMethodInstr defines the method whose body is Method.
type DefineMethodInstr struct {
	Method *Scope
}

type ThreadPollInstr struct {
	OnBackEdge bool
}

// BuildStringInstr concatenates Pieces into a new string in Encoding.
type BuildStringInstr struct {
	Result   Variable
	Encoding Encoding
	Pieces   []Operand
}

func (*NopInstr) Op() Operation          { return OpNop }
func (*LineNumInstr) Op() Operation      { return OpLineNum }
func (*LabelInstr) Op() Operation        { return OpLabel }
func (*ReceiveSelfInstr) Op() Operation  { return OpReceiveSelf }
func (*ReceiveArgInstr) Op() Operation   { return OpReceiveArg }
func (*CopyInstr) Op() Operation         { return OpCopy }
func (*CallInstr) Op() Operation         { return OpCall }
func (*ReturnInstr) Op() Operation       { return OpReturn }
func (*JumpInstr) Op() Operation         { return OpJump }
func (i *BranchInstr) Op() Operation     { return i.Cond }
func (*GetFieldInstr) Op() Operation     { return OpGetField }
func (*PutFieldInstr) Op() Operation     { return OpPutField }
func (*DefineMethodInstr) Op() Operation { return OpDefineMethod }
func (*ThreadPollInstr) Op() Operation   { return OpThreadPoll }
func (*BuildStringInstr) Op() Operation  { return OpBuildString }

func (i *ReceiveSelfInstr) ResultVar() Variable { return i.Result }
func (i *ReceiveArgInstr) ResultVar() Variable  { return i.Result }
func (i *CopyInstr) ResultVar() Variable        { return i.Result }
func (i *CallInstr) ResultVar() Variable        { return i.Result }
func (i *GetFieldInstr) ResultVar() Variable    { return i.Result }
func (i *BuildStringInstr) ResultVar() Variable { return i.Result }

// formatInstr renders "result = op(args)" or "op(args)".
func formatInstr(result Variable, op Operation, args ...string) string {
	var b strings.Builder
	if result != nil {
		b.WriteString(result.String())
		b.WriteString(" = ")
	}
	b.WriteString(strings.ToLower(op.String()))
	b.WriteByte('(')
	b.WriteString(strings.Join(args, ", "))
	b.WriteByte(')')
	return b.String()
}

func labelString(l *Label) string {
	if l == nil {
		return "<nil label>"
	}
	return l.String()
}

func (i *NopInstr) String() string { return formatInstr(nil, OpNop) }

func (i *LineNumInstr) String() string {
	return formatInstr(nil, OpLineNum, strconv.Itoa(int(i.Line)))
}

func (i *LabelInstr) String() string { return labelString(i.Label) + ":" }

func (i *ReceiveSelfInstr) String() string { return formatInstr(i.Result, OpReceiveSelf) }

func (i *ReceiveArgInstr) String() string {
	args := []string{strconv.Itoa(i.Index)}
	if i.Optional {
		args = append(args, "optional")
	}
	return formatInstr(i.Result, OpReceiveArg, args...)
}

func (i *CopyInstr) String() string {
	return formatInstr(i.Result, OpCopy, operandString(i.Source))
}

func (i *CallInstr) String() string {
	args := []string{
		i.CallKind.String(),
		operandString(i.Receiver),
		strconv.Quote(i.Method),
		"[" + joinOperands(i.Args) + "]",
	}
	if i.Closure != nil {
		args = append(args, "&"+i.Closure.String())
	}
	return formatInstr(i.Result, OpCall, args...)
}

func (i *ReturnInstr) String() string {
	return formatInstr(nil, OpReturn, operandString(i.Value))
}

func (i *JumpInstr) String() string {
	return formatInstr(nil, OpJump, labelString(i.Target))
}

func (i *BranchInstr) String() string {
	return formatInstr(nil, i.Cond, operandString(i.Value), labelString(i.Target))
}

func (i *GetFieldInstr) String() string {
	return formatInstr(i.Result, OpGetField, operandString(i.Object), strconv.Quote(i.Field))
}

func (i *PutFieldInstr) String() string {
	return formatInstr(nil, OpPutField, operandString(i.Object), strconv.Quote(i.Field), operandString(i.Value))
}

func (i *DefineMethodInstr) String() string {
	return formatInstr(nil, OpDefineMethod, scopeName(i.Method))
}

func (i *ThreadPollInstr) String() string {
	if i.OnBackEdge {
		return formatInstr(nil, OpThreadPoll, "back_edge")
	}
	return formatInstr(nil, OpThreadPoll)
}

func (i *BuildStringInstr) String() string {
	return formatInstr(i.Result, OpBuildString, i.Encoding.String(), "["+joinOperands(i.Pieces)+"]")
}

func (i *NopInstr) describe() map[string]any { return map[string]any{} }

func (i *LineNumInstr) describe() map[string]any {
	return map[string]any{"line": int(i.Line)}
}

func (i *LabelInstr) describe() map[string]any {
	return map[string]any{"label": describeOperand(labelOperand(i.Label))}
}

func (i *ReceiveSelfInstr) describe() map[string]any {
	return map[string]any{"result": describeOperand(i.Result)}
}

func (i *ReceiveArgInstr) describe() map[string]any {
	return map[string]any{
		"result":   describeOperand(i.Result),
		"index":    i.Index,
		"optional": i.Optional,
	}
}

func (i *CopyInstr) describe() map[string]any {
	return map[string]any{
		"result": describeOperand(i.Result),
		"source": describeOperand(i.Source),
	}
}

func (i *CallInstr) describe() map[string]any {
	d := map[string]any{
		"call_kind": i.CallKind.String(),
		"receiver":  describeOperand(i.Receiver),
		"method":    i.Method,
		"args":      describeOperands(i.Args),
	}
	if i.Result != nil {
		d["result"] = describeOperand(i.Result)
	}
	if i.Closure != nil {
		d["closure"] = describeOperand(i.Closure)
	}
	return d
}

func (i *ReturnInstr) describe() map[string]any {
	return map[string]any{"value": describeOperand(i.Value)}
}

func (i *JumpInstr) describe() map[string]any {
	return map[string]any{"target": describeOperand(labelOperand(i.Target))}
}

func (i *BranchInstr) describe() map[string]any {
	return map[string]any{
		"value":  describeOperand(i.Value),
		"target": describeOperand(labelOperand(i.Target)),
	}
}

func (i *GetFieldInstr) describe() map[string]any {
	return map[string]any{
		"result": describeOperand(i.Result),
		"object": describeOperand(i.Object),
		"field":  i.Field,
	}
}

func (i *PutFieldInstr) describe() map[string]any {
	return map[string]any{
		"object": describeOperand(i.Object),
		"field":  i.Field,
		"value":  describeOperand(i.Value),
	}
}

func (i *DefineMethodInstr) describe() map[string]any {
	return map[string]any{"method": scopeIndex(i.Method)}
}

func (i *ThreadPollInstr) describe() map[string]any {
	return map[string]any{"on_back_edge": i.OnBackEdge}
}

func (i *BuildStringInstr) describe() map[string]any {
	return map[string]any{
		"result":   describeOperand(i.Result),
		"encoding": i.Encoding.Name(),
		"pieces":   describeOperands(i.Pieces),
	}
}

// labelOperand keeps a nil *Label from becoming a non-nil Operand.
func labelOperand(l *Label) Operand {
	if l == nil {
		return nil
	}
	return l
}
