package ir

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Operand is a sealed interface over the operand variants. Every concrete
// operand is used through a pointer; the singletons (nil, true, false, self,
// undefined) and symbols are owned by a Manager.
type Operand interface {
	Kind() OperandKind
	String() string
	describe() any // Sealed - only operands in this package implement it
}

// Variable is an operand that can be assigned to.
type Variable interface {
	Operand
	Name() string
}

// Array is a literal array of operands.
type Array struct {
	Elements []Operand
}

// Bignum is an integer literal outside the fixnum range.
type Bignum struct {
	Value *big.Int
}

// Boolean is a boolean literal. Obtain instances from Manager.Bool.
type Boolean struct {
	Value bool
}

// CurrentScope refers to the scope whose instructions are executing.
type CurrentScope struct{}

// Fixnum is a 64-bit integer literal.
type Fixnum struct {
	Value int64
}

// Float is a double-precision literal.
type Float struct {
	Value float64
}

// KeyValue is one entry of a Hash literal.
type KeyValue struct {
	Key   Operand
	Value Operand
}

// Hash is a literal hash with ordered entries.
type Hash struct {
	Pairs []KeyValue
}

// Label is a jump target.
type Label struct {
	Prefix string
	ID     int
}

// LocalVariable is a named local, Depth scopes up from the current one.
type LocalVariable struct {
	Ident  string
	Depth  int
	Offset int
}

// Nil is the nil literal. Obtain it from Manager.Nil.
type Nil struct{}

// Regexp is a regular expression literal.
type Regexp struct {
	Source  ByteString
	Options int
}

// ScopeModule is the module defined by a scope body.
type ScopeModule struct {
	Scope *Scope
}

// Self is the receiver. Obtain it from Manager.Self.
type Self struct{}

// StringLiteral is a string literal in a specific encoding.
type StringLiteral struct {
	Value  ByteString
	Frozen bool
}

// Symbol is an interned name. Obtain instances from Manager.Symbol.
type Symbol struct {
	Name ByteString
}

// TemporaryVariable is a compiler temporary. Its name is derived from its
// kind and offset.
type TemporaryVariable struct {
	TempKind TempVarKind
	Offset   int
}

// UndefinedValue marks an absent value. Obtain it from Manager.Undefined.
type UndefinedValue struct{}

// WrappedClosure is a closure scope paired with the self it captures.
type WrappedClosure struct {
	Self    Operand
	Closure *Scope
}

func (*Array) Kind() OperandKind             { return KindArray }
func (*Bignum) Kind() OperandKind            { return KindBignum }
func (*Boolean) Kind() OperandKind           { return KindBoolean }
func (*CurrentScope) Kind() OperandKind      { return KindCurrentScope }
func (*Fixnum) Kind() OperandKind            { return KindFixnum }
func (*Float) Kind() OperandKind             { return KindFloat }
func (*Hash) Kind() OperandKind              { return KindHash }
func (*Label) Kind() OperandKind             { return KindLabel }
func (*LocalVariable) Kind() OperandKind     { return KindLocalVariable }
func (*Nil) Kind() OperandKind               { return KindNil }
func (*Regexp) Kind() OperandKind            { return KindRegexp }
func (*ScopeModule) Kind() OperandKind       { return KindScopeModule }
func (*Self) Kind() OperandKind              { return KindSelf }
func (*StringLiteral) Kind() OperandKind     { return KindStringLiteral }
func (*Symbol) Kind() OperandKind            { return KindSymbol }
func (*TemporaryVariable) Kind() OperandKind { return KindTemporaryVariable }
func (*UndefinedValue) Kind() OperandKind    { return KindUndefinedValue }
func (*WrappedClosure) Kind() OperandKind    { return KindWrappedClosure }

// VarKey identifies a variable within one instruction list. Locals and
// temporaries never share a key, and a local shadowed at another depth or
// offset has a key of its own.
type VarKey struct {
	Kind   OperandKind
	Name   string
	Depth  int
	Offset int
}

// KeyOf returns the identity key of v.
func KeyOf(v Variable) VarKey {
	switch v := v.(type) {
	case *LocalVariable:
		return VarKey{Kind: KindLocalVariable, Name: v.Ident, Depth: v.Depth, Offset: v.Offset}
	case *TemporaryVariable:
		return VarKey{Kind: KindTemporaryVariable, Name: v.Name(), Offset: v.Offset}
	default:
		return VarKey{Kind: v.Kind(), Name: v.Name()}
	}
}

// Name returns the source name of the local.
func (v *LocalVariable) Name() string { return v.Ident }

// Name returns the synthesized temporary name, e.g. "%v_3" or "%current_scope".
func (v *TemporaryVariable) Name() string {
	switch v.TempKind {
	case TempLocal:
		return "%v_" + strconv.Itoa(v.Offset)
	case TempBoolean:
		return "%b_" + strconv.Itoa(v.Offset)
	case TempFloat:
		return "%f_" + strconv.Itoa(v.Offset)
	case TempFixnum:
		return "%i_" + strconv.Itoa(v.Offset)
	case TempCurrentModule:
		return "%current_module"
	case TempCurrentScope:
		return "%current_scope"
	case TempClosure:
		return "%cl_" + strconv.Itoa(v.Offset)
	default:
		return "%?_" + strconv.Itoa(v.Offset)
	}
}

func (o *Array) String() string {
	return "[" + joinOperands(o.Elements) + "]"
}

func (o *Bignum) String() string {
	if o.Value == nil {
		return "0"
	}
	return o.Value.String()
}

func (o *Boolean) String() string { return strconv.FormatBool(o.Value) }

func (*CurrentScope) String() string { return "%scope" }

func (o *Fixnum) String() string { return strconv.FormatInt(o.Value, 10) }

func (o *Float) String() string { return strconv.FormatFloat(o.Value, 'g', -1, 64) }

func (o *Hash) String() string {
	parts := make([]string, len(o.Pairs))
	for i, kv := range o.Pairs {
		parts[i] = operandString(kv.Key) + "=>" + operandString(kv.Value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (o *Label) String() string { return o.Prefix + "_" + strconv.Itoa(o.ID) }

func (o *LocalVariable) String() string {
	return fmt.Sprintf("%s(%d:%d)", o.Ident, o.Depth, o.Offset)
}

func (*Nil) String() string { return "nil" }

func (o *Regexp) String() string {
	return "/" + o.Source.String() + "/" + strconv.Itoa(o.Options)
}

func (o *ScopeModule) String() string { return "module<" + scopeName(o.Scope) + ">" }

func (*Self) String() string { return "%self" }

func (o *StringLiteral) String() string {
	s := strconv.Quote(o.Value.String())
	if o.Frozen {
		s = "frozen:" + s
	}
	return s
}

func (o *Symbol) String() string { return ":" + o.Name.String() }

func (o *TemporaryVariable) String() string { return o.Name() }

func (*UndefinedValue) String() string { return "%undefined" }

func (o *WrappedClosure) String() string {
	return "closure<" + scopeName(o.Closure) + ">(" + operandString(o.Self) + ")"
}

func (o *Array) describe() any {
	return map[string]any{"array": describeOperands(o.Elements)}
}

func (o *Bignum) describe() any {
	return map[string]any{"bignum": o.String()}
}

func (o *Boolean) describe() any {
	return map[string]any{"boolean": o.Value}
}

func (*CurrentScope) describe() any {
	return map[string]any{"current_scope": true}
}

func (o *Fixnum) describe() any {
	return map[string]any{"fixnum": o.Value}
}

// Floats are carried as their IEEE-754 bit pattern so NaN payloads and
// negative zero survive.
func (o *Float) describe() any {
	return map[string]any{"float": strconv.FormatUint(math.Float64bits(o.Value), 16)}
}

func (o *Hash) describe() any {
	pairs := make([]any, len(o.Pairs))
	for i, kv := range o.Pairs {
		pairs[i] = []any{describeOperand(kv.Key), describeOperand(kv.Value)}
	}
	return map[string]any{"hash": pairs}
}

func (o *Label) describe() any {
	return map[string]any{"label": o.Prefix, "id": o.ID}
}

func (o *LocalVariable) describe() any {
	return map[string]any{"local": o.Ident, "depth": o.Depth, "offset": o.Offset}
}

func (*Nil) describe() any {
	return map[string]any{"nil": true}
}

func (o *Regexp) describe() any {
	return map[string]any{"regexp": describeByteString(o.Source), "options": o.Options}
}

func (o *ScopeModule) describe() any {
	return map[string]any{"scope_module": scopeIndex(o.Scope)}
}

func (*Self) describe() any {
	return map[string]any{"self": true}
}

func (o *StringLiteral) describe() any {
	return map[string]any{"string": describeByteString(o.Value), "frozen": o.Frozen}
}

func (o *Symbol) describe() any {
	return map[string]any{"symbol": describeByteString(o.Name)}
}

func (o *TemporaryVariable) describe() any {
	return map[string]any{"temp": o.TempKind.String(), "offset": o.Offset}
}

func (*UndefinedValue) describe() any {
	return map[string]any{"undefined": true}
}

func (o *WrappedClosure) describe() any {
	return map[string]any{"closure": scopeIndex(o.Closure), "self": describeOperand(o.Self)}
}

func operandString(o Operand) string {
	if o == nil {
		return "<nil operand>"
	}
	return o.String()
}

func joinOperands(ops []Operand) string {
	parts := make([]string, len(ops))
	for i, o := range ops {
		parts[i] = operandString(o)
	}
	return strings.Join(parts, ", ")
}

func describeOperand(o Operand) any {
	if o == nil {
		return map[string]any{"missing": true}
	}
	return o.describe()
}

func describeOperands(ops []Operand) []any {
	out := make([]any, len(ops))
	for i, o := range ops {
		out[i] = describeOperand(o)
	}
	return out
}

func describeByteString(b ByteString) any {
	return map[string]any{
		"bytes":    fmt.Sprintf("%x", b.Bytes),
		"encoding": b.Encoding.Name(),
	}
}

func scopeName(s *Scope) string {
	if s == nil {
		return "?"
	}
	return s.Name
}

func scopeIndex(s *Scope) int {
	if s == nil {
		return -1
	}
	return s.index
}
