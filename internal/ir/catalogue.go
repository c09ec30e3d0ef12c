package ir

import "strconv"

// Tag catalogues for the persisted IR dialect.
//
// Every enumeration below is written to archives as its ordinal. The
// declaration order of each const block IS the wire format: reordering,
// inserting in the middle, or removing an entry breaks every archive written
// before the change. Append new kinds at the end of a block, add a name to
// the matching table, and bump persist.FormatVersion.

// Operation identifies an instruction kind.
type Operation uint8

const (
	OpNop Operation = iota
	OpLineNum
	OpLabel
	OpReceiveSelf
	OpReceiveArg
	OpCopy
	OpCall
	OpReturn
	OpJump
	OpBranchTrue
	OpBranchFalse
	OpBranchNil
	OpGetField
	OpPutField
	OpDefineMethod
	OpThreadPoll
	OpBuildString
)

// OperationCount is the number of declared operations.
const OperationCount = int(OpBuildString) + 1

var operationNames = [OperationCount]string{
	OpNop:          "NOP",
	OpLineNum:      "LINE_NUM",
	OpLabel:        "LABEL",
	OpReceiveSelf:  "RECV_SELF",
	OpReceiveArg:   "RECV_ARG",
	OpCopy:         "COPY",
	OpCall:         "CALL",
	OpReturn:       "RETURN",
	OpJump:         "JUMP",
	OpBranchTrue:   "B_TRUE",
	OpBranchFalse:  "B_FALSE",
	OpBranchNil:    "B_NIL",
	OpGetField:     "GET_FIELD",
	OpPutField:     "PUT_FIELD",
	OpDefineMethod: "DEF_METHOD",
	OpThreadPoll:   "THREAD_POLL",
	OpBuildString:  "BUILD_STRING",
}

func (op Operation) String() string {
	if int(op) < OperationCount {
		return operationNames[op]
	}
	return "Operation(" + strconv.Itoa(int(op)) + ")"
}

// OperationFromOrdinal maps a wire ordinal back to its Operation.
func OperationFromOrdinal(n int) (Operation, bool) {
	if n < 0 || n >= OperationCount {
		return 0, false
	}
	return Operation(n), true
}

// ParseOperation looks an operation up by its catalogue name.
func ParseOperation(name string) (Operation, bool) {
	for i, n := range operationNames {
		if n == name {
			return Operation(i), true
		}
	}
	return 0, false
}

// IsBranch reports whether op is one of the conditional branches.
func (op Operation) IsBranch() bool {
	return op == OpBranchTrue || op == OpBranchFalse || op == OpBranchNil
}

// OperandKind identifies an operand variant. Unlike the other catalogues it is
// written as a single unsigned byte.
type OperandKind uint8

const (
	KindArray OperandKind = iota
	KindBignum
	KindBoolean
	KindCurrentScope
	KindFixnum
	KindFloat
	KindHash
	KindLabel
	KindLocalVariable
	KindNil
	KindRegexp
	KindScopeModule
	KindSelf
	KindStringLiteral
	KindSymbol
	KindTemporaryVariable
	KindUndefinedValue
	KindWrappedClosure
)

// OperandKindCount is the number of declared operand kinds.
const OperandKindCount = int(KindWrappedClosure) + 1

var operandKindNames = [OperandKindCount]string{
	KindArray:             "ARRAY",
	KindBignum:            "BIGNUM",
	KindBoolean:           "BOOLEAN",
	KindCurrentScope:      "CURRENT_SCOPE",
	KindFixnum:            "FIXNUM",
	KindFloat:             "FLOAT",
	KindHash:              "HASH",
	KindLabel:             "LABEL",
	KindLocalVariable:     "LOCAL_VARIABLE",
	KindNil:               "NIL",
	KindRegexp:            "REGEXP",
	KindScopeModule:       "SCOPE_MODULE",
	KindSelf:              "SELF",
	KindStringLiteral:     "STRING_LITERAL",
	KindSymbol:            "SYMBOL",
	KindTemporaryVariable: "TEMPORARY_VARIABLE",
	KindUndefinedValue:    "UNDEFINED_VALUE",
	KindWrappedClosure:    "WRAPPED_CLOSURE",
}

func (k OperandKind) String() string {
	if int(k) < OperandKindCount {
		return operandKindNames[k]
	}
	return "OperandKind(" + strconv.Itoa(int(k)) + ")"
}

// OperandKindFromByte maps a wire byte back to its OperandKind.
func OperandKindFromByte(b byte) (OperandKind, bool) {
	if int(b) >= OperandKindCount {
		return 0, false
	}
	return OperandKind(b), true
}

// ScopeKind identifies what a scope represents.
type ScopeKind uint8

const (
	ScopeClosure ScopeKind = iota
	ScopeEvalScript
	ScopeInstanceMethod
	ScopeClassMethod
	ScopeModuleBody
	ScopeClassBody
	ScopeMetaclassBody
	ScopeScriptBody
	ScopeFor
)

// ScopeKindCount is the number of declared scope kinds.
const ScopeKindCount = int(ScopeFor) + 1

var scopeKindNames = [ScopeKindCount]string{
	ScopeClosure:        "CLOSURE",
	ScopeEvalScript:     "EVAL_SCRIPT",
	ScopeInstanceMethod: "INSTANCE_METHOD",
	ScopeClassMethod:    "CLASS_METHOD",
	ScopeModuleBody:     "MODULE_BODY",
	ScopeClassBody:      "CLASS_BODY",
	ScopeMetaclassBody:  "METACLASS_BODY",
	ScopeScriptBody:     "SCRIPT_BODY",
	ScopeFor:            "FOR",
}

func (k ScopeKind) String() string {
	if int(k) < ScopeKindCount {
		return scopeKindNames[k]
	}
	return "ScopeKind(" + strconv.Itoa(int(k)) + ")"
}

// ScopeKindFromOrdinal maps a wire ordinal back to its ScopeKind.
func ScopeKindFromOrdinal(n int) (ScopeKind, bool) {
	if n < 0 || n >= ScopeKindCount {
		return 0, false
	}
	return ScopeKind(n), true
}

// ParseScopeKind looks a scope kind up by its catalogue name.
func ParseScopeKind(name string) (ScopeKind, bool) {
	for i, n := range scopeKindNames {
		if n == name {
			return ScopeKind(i), true
		}
	}
	return 0, false
}

// TempVarKind identifies the flavour of a compiler temporary.
type TempVarKind uint8

const (
	TempLocal TempVarKind = iota
	TempBoolean
	TempFloat
	TempFixnum
	TempCurrentModule
	TempCurrentScope
	TempClosure
)

// TempVarKindCount is the number of declared temporary-variable kinds.
const TempVarKindCount = int(TempClosure) + 1

var tempVarKindNames = [TempVarKindCount]string{
	TempLocal:         "LOCAL",
	TempBoolean:       "BOOLEAN",
	TempFloat:         "FLOAT",
	TempFixnum:        "FIXNUM",
	TempCurrentModule: "CURRENT_MODULE",
	TempCurrentScope:  "CURRENT_SCOPE",
	TempClosure:       "CLOSURE",
}

func (k TempVarKind) String() string {
	if int(k) < TempVarKindCount {
		return tempVarKindNames[k]
	}
	return "TempVarKind(" + strconv.Itoa(int(k)) + ")"
}

// TempVarKindFromOrdinal maps a wire ordinal back to its TempVarKind.
func TempVarKindFromOrdinal(n int) (TempVarKind, bool) {
	if n < 0 || n >= TempVarKindCount {
		return 0, false
	}
	return TempVarKind(n), true
}

// ParseTempVarKind looks a temporary-variable kind up by its catalogue name.
func ParseTempVarKind(name string) (TempVarKind, bool) {
	for i, n := range tempVarKindNames {
		if n == name {
			return TempVarKind(i), true
		}
	}
	return 0, false
}

// StaticScopeKind describes how a scope's locals are laid out.
type StaticScopeKind uint8

const (
	StaticLocal StaticScopeKind = iota
	StaticBlock
	StaticEval
)

// StaticScopeKindCount is the number of declared static-scope kinds.
const StaticScopeKindCount = int(StaticEval) + 1

var staticScopeKindNames = [StaticScopeKindCount]string{
	StaticLocal: "LOCAL",
	StaticBlock: "BLOCK",
	StaticEval:  "EVAL",
}

func (k StaticScopeKind) String() string {
	if int(k) < StaticScopeKindCount {
		return staticScopeKindNames[k]
	}
	return "StaticScopeKind(" + strconv.Itoa(int(k)) + ")"
}

// StaticScopeKindFromOrdinal maps a wire ordinal back to its StaticScopeKind.
func StaticScopeKindFromOrdinal(n int) (StaticScopeKind, bool) {
	if n < 0 || n >= StaticScopeKindCount {
		return 0, false
	}
	return StaticScopeKind(n), true
}

// ParseStaticScopeKind looks a static-scope kind up by its catalogue name.
func ParseStaticScopeKind(name string) (StaticScopeKind, bool) {
	for i, n := range staticScopeKindNames {
		if n == name {
			return StaticScopeKind(i), true
		}
	}
	return 0, false
}

// CallKind distinguishes the dispatch style of a CALL instruction.
type CallKind uint8

const (
	CallNormal CallKind = iota
	CallFunctional
	CallVariable
	CallSuper
)

// CallKindCount is the number of declared call kinds.
const CallKindCount = int(CallSuper) + 1

var callKindNames = [CallKindCount]string{
	CallNormal:     "NORMAL",
	CallFunctional: "FUNCTIONAL",
	CallVariable:   "VARIABLE",
	CallSuper:      "SUPER",
}

func (k CallKind) String() string {
	if int(k) < CallKindCount {
		return callKindNames[k]
	}
	return "CallKind(" + strconv.Itoa(int(k)) + ")"
}

// CallKindFromOrdinal maps a wire ordinal back to its CallKind.
func CallKindFromOrdinal(n int) (CallKind, bool) {
	if n < 0 || n >= CallKindCount {
		return 0, false
	}
	return CallKind(n), true
}

// ParseCallKind looks a call kind up by its catalogue name.
func ParseCallKind(name string) (CallKind, bool) {
	for i, n := range callKindNames {
		if n == name {
			return CallKind(i), true
		}
	}
	return 0, false
}
