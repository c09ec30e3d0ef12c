package ir

import "fmt"

// StaticScope describes the local-variable layout of a scope.
type StaticScope struct {
	Kind         StaticScopeKind
	Variables    []string
	RequiredArgs int
}

// Scope is a lexical scope: a method, closure, class body or script body.
//
// A scope's index is assigned when it is added to a Program and never
// changes. Instrs is nil until the scope's instructions are loaded; see
// Loaded.
type Scope struct {
	Kind        ScopeKind
	Name        string
	Line        int
	StaticScope StaticScope
	Parent      *Scope

	// InstrOffset is the absolute archive offset of the instruction region.
	// Zero for scopes that were never read from an archive.
	InstrOffset int

	Instrs []Instr

	index  int
	loaded bool
}

// Index returns the scope's position in its program, or -1 if it has not
// been added to one.
func (s *Scope) Index() int {
	return s.index
}

// Loaded reports whether the instruction list has been populated.
func (s *Scope) Loaded() bool {
	return s.loaded
}

// SetInstrs stores the scope's instruction list and marks it loaded.
func (s *Scope) SetInstrs(instrs []Instr) {
	if instrs == nil {
		instrs = []Instr{}
	}
	s.Instrs = instrs
	s.loaded = true
}

// NewScope returns an unregistered scope.
func NewScope(kind ScopeKind, name string, line int, static StaticScope, parent *Scope) *Scope {
	return &Scope{
		Kind:        kind,
		Name:        name,
		Line:        line,
		StaticScope: static,
		Parent:      parent,
		index:       -1,
	}
}

func (s *Scope) String() string {
	return fmt.Sprintf("%s %s@%d", s.Kind, s.Name, s.Line)
}

// Program is a compiled file: its scopes in registration order.
type Program struct {
	File   string
	Scopes []*Scope
}

// AddScope appends s and assigns its index.
func (p *Program) AddScope(s *Scope) int {
	s.index = len(p.Scopes)
	p.Scopes = append(p.Scopes, s)
	return s.index
}

// Scope returns the scope at index i.
func (p *Program) Scope(i int) (*Scope, bool) {
	if i < 0 || i >= len(p.Scopes) {
		return nil, false
	}
	return p.Scopes[i], true
}

// ScopeByName returns the first scope named name.
func (p *Program) ScopeByName(name string) (*Scope, bool) {
	for _, s := range p.Scopes {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}
