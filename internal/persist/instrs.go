package persist

import (
	"github.com/tdaitx/irpersist/internal/ir"
)

type instrDecoder func(r *Reader) (ir.Instr, error)

// instrDecoders is indexed by operation.
var instrDecoders [ir.OperationCount]instrDecoder

func init() {
	instrDecoders = [ir.OperationCount]instrDecoder{
		ir.OpNop:          func(*Reader) (ir.Instr, error) { return &ir.NopInstr{}, nil },
		ir.OpLineNum:      decodeLineNum,
		ir.OpLabel:        decodeLabelInstr,
		ir.OpReceiveSelf:  decodeReceiveSelf,
		ir.OpReceiveArg:   decodeReceiveArg,
		ir.OpCopy:         decodeCopy,
		ir.OpCall:         decodeCall,
		ir.OpReturn:       decodeReturn,
		ir.OpJump:         decodeJump,
		ir.OpBranchTrue:   branchDecoder(ir.OpBranchTrue),
		ir.OpBranchFalse:  branchDecoder(ir.OpBranchFalse),
		ir.OpBranchNil:    branchDecoder(ir.OpBranchNil),
		ir.OpGetField:     decodeGetField,
		ir.OpPutField:     decodePutField,
		ir.OpDefineMethod: decodeDefineMethod,
		ir.OpThreadPoll:   decodeThreadPoll,
		ir.OpBuildString:  decodeBuildString,
	}
}

// DecodeInstr reads an operation ordinal and the fields of that operation.
func (r *Reader) DecodeInstr() (ir.Instr, error) {
	op, err := r.DecodeOperation()
	if err != nil {
		return nil, err
	}
	return instrDecoders[op](r)
}

func decodeLineNum(r *Reader) (ir.Instr, error) {
	line, err := r.DecodeIntRaw()
	if err != nil {
		return nil, err
	}
	return &ir.LineNumInstr{Line: line}, nil
}

func decodeLabelInstr(r *Reader) (ir.Instr, error) {
	l, err := r.DecodeLabel()
	if err != nil {
		return nil, err
	}
	return &ir.LabelInstr{Label: l}, nil
}

func decodeReceiveSelf(r *Reader) (ir.Instr, error) {
	v, err := r.DecodeVariable()
	if err != nil {
		return nil, err
	}
	return &ir.ReceiveSelfInstr{Result: v}, nil
}

func decodeReceiveArg(r *Reader) (ir.Instr, error) {
	v, err := r.DecodeVariable()
	if err != nil {
		return nil, err
	}
	idx, err := r.DecodeInt()
	if err != nil {
		return nil, err
	}
	optional, err := r.DecodeBoolean()
	if err != nil {
		return nil, err
	}
	return &ir.ReceiveArgInstr{Result: v, Index: int(idx), Optional: optional}, nil
}

func decodeCopy(r *Reader) (ir.Instr, error) {
	v, err := r.DecodeVariable()
	if err != nil {
		return nil, err
	}
	src, err := r.DecodeOperand()
	if err != nil {
		return nil, err
	}
	return &ir.CopyInstr{Result: v, Source: src}, nil
}

func decodeCall(r *Reader) (ir.Instr, error) {
	kind, err := r.DecodeCallKind()
	if err != nil {
		return nil, err
	}
	call := &ir.CallInstr{CallKind: kind}

	hasResult, err := r.DecodeBoolean()
	if err != nil {
		return nil, err
	}
	if hasResult {
		if call.Result, err = r.DecodeVariable(); err != nil {
			return nil, err
		}
	}
	if call.Receiver, err = r.DecodeOperand(); err != nil {
		return nil, err
	}
	if call.Method, err = r.DecodeString(); err != nil {
		return nil, err
	}
	if call.Args, err = r.DecodeOperandList(); err != nil {
		return nil, err
	}
	hasClosure, err := r.DecodeBoolean()
	if err != nil {
		return nil, err
	}
	if hasClosure {
		if call.Closure, err = r.DecodeOperand(); err != nil {
			return nil, err
		}
	}
	return call, nil
}

func decodeReturn(r *Reader) (ir.Instr, error) {
	v, err := r.DecodeOperand()
	if err != nil {
		return nil, err
	}
	return &ir.ReturnInstr{Value: v}, nil
}

func decodeJump(r *Reader) (ir.Instr, error) {
	l, err := r.DecodeLabel()
	if err != nil {
		return nil, err
	}
	return &ir.JumpInstr{Target: l}, nil
}

func branchDecoder(cond ir.Operation) instrDecoder {
	return func(r *Reader) (ir.Instr, error) {
		v, err := r.DecodeOperand()
		if err != nil {
			return nil, err
		}
		l, err := r.DecodeLabel()
		if err != nil {
			return nil, err
		}
		return &ir.BranchInstr{Cond: cond, Value: v, Target: l}, nil
	}
}

func decodeGetField(r *Reader) (ir.Instr, error) {
	v, err := r.DecodeVariable()
	if err != nil {
		return nil, err
	}
	obj, err := r.DecodeOperand()
	if err != nil {
		return nil, err
	}
	field, err := r.DecodeString()
	if err != nil {
		return nil, err
	}
	return &ir.GetFieldInstr{Result: v, Object: obj, Field: field}, nil
}

func decodePutField(r *Reader) (ir.Instr, error) {
	obj, err := r.DecodeOperand()
	if err != nil {
		return nil, err
	}
	field, err := r.DecodeString()
	if err != nil {
		return nil, err
	}
	val, err := r.DecodeOperand()
	if err != nil {
		return nil, err
	}
	return &ir.PutFieldInstr{Object: obj, Field: field, Value: val}, nil
}

func decodeDefineMethod(r *Reader) (ir.Instr, error) {
	scope, err := r.DecodeScope()
	if err != nil {
		return nil, err
	}
	return &ir.DefineMethodInstr{Method: scope}, nil
}

func decodeThreadPoll(r *Reader) (ir.Instr, error) {
	onBackEdge, err := r.DecodeBoolean()
	if err != nil {
		return nil, err
	}
	return &ir.ThreadPollInstr{OnBackEdge: onBackEdge}, nil
}

func decodeBuildString(r *Reader) (ir.Instr, error) {
	v, err := r.DecodeVariable()
	if err != nil {
		return nil, err
	}
	enc, err := r.DecodeEncoding()
	if err != nil {
		return nil, err
	}
	pieces, err := r.DecodeOperandList()
	if err != nil {
		return nil, err
	}
	return &ir.BuildStringInstr{Result: v, Encoding: enc, Pieces: pieces}, nil
}
