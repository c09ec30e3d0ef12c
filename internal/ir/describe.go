package ir

import (
	"fmt"
	"io"
	"strings"
)

// Describe returns the canonical description of a program: a tree of maps,
// slices, strings, ints and bools suitable for MarshalCanonical. Scope
// references are written as indices. Archive offsets are omitted.
//
// Every scope must be loaded.
func Describe(p *Program) (map[string]any, error) {
	scopes := make([]any, len(p.Scopes))
	for i, s := range p.Scopes {
		if !s.Loaded() {
			return nil, fmt.Errorf("scope %d (%s) has no instructions loaded", i, s.Name)
		}
		scopes[i] = DescribeScope(s)
	}
	return map[string]any{
		"dialect": DialectVersion,
		"file":    p.File,
		"scopes":  scopes,
	}, nil
}

// DescribeScope describes one scope. Instructions are included only if the
// scope is loaded.
func DescribeScope(s *Scope) map[string]any {
	vars := make([]any, len(s.StaticScope.Variables))
	for i, v := range s.StaticScope.Variables {
		vars[i] = v
	}
	d := map[string]any{
		"index": s.index,
		"kind":  s.Kind.String(),
		"name":  s.Name,
		"line":  s.Line,
		"static_scope": map[string]any{
			"kind":          s.StaticScope.Kind.String(),
			"variables":     vars,
			"required_args": s.StaticScope.RequiredArgs,
		},
	}
	if s.Parent != nil {
		d["parent"] = s.Parent.index
	}
	if s.Loaded() {
		instrs := make([]any, len(s.Instrs))
		for i, in := range s.Instrs {
			instrs[i] = DescribeInstr(in)
		}
		d["instrs"] = instrs
	}
	return d
}

// DescribeInstr describes one instruction.
func DescribeInstr(in Instr) map[string]any {
	d := in.describe()
	d["op"] = in.Op().String()
	return d
}

// DescribeOperand describes one operand.
func DescribeOperand(o Operand) any {
	return describeOperand(o)
}

// Disassemble writes a human-readable listing of p. Scopes without loaded
// instructions are listed with their header only.
func Disassemble(w io.Writer, p *Program) error {
	var b strings.Builder
	fmt.Fprintf(&b, "file %q (%d scopes)\n", p.File, len(p.Scopes))
	for _, s := range p.Scopes {
		b.WriteByte('\n')
		DisassembleScope(&b, s)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// DisassembleScope writes one scope's header and instructions to b.
func DisassembleScope(b *strings.Builder, s *Scope) {
	fmt.Fprintf(b, "scope #%d %s %q line %d", s.index, s.Kind, s.Name, s.Line)
	if s.Parent != nil {
		fmt.Fprintf(b, " parent #%d", s.Parent.index)
	}
	b.WriteByte('\n')
	fmt.Fprintf(b, "  static %s vars=[%s] required=%d\n",
		s.StaticScope.Kind, strings.Join(s.StaticScope.Variables, ", "), s.StaticScope.RequiredArgs)
	if !s.Loaded() {
		b.WriteString("  (not loaded)\n")
		return
	}
	for i, in := range s.Instrs {
		fmt.Fprintf(b, "  %4d  %s\n", i, in)
	}
}
