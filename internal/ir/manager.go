package ir

import "sync"

// Manager owns the values shared by every decode session of one compilation:
// the nil/boolean/self/undefined singletons, the symbol table and the
// encoding registry.
//
// Manager is safe for concurrent use. Readers running on separate goroutines
// may share one Manager.
type Manager struct {
	encodings EncodingRegistry

	nilValue  *Nil
	trueValue *Boolean
	falseVal  *Boolean
	self      *Self
	undefined *UndefinedValue
	current   *CurrentScope

	mu      sync.Mutex
	symbols map[string]*Symbol
}

// NewManager creates a Manager resolving encodings through registry, or the
// IANA registry when registry is nil.
func NewManager(registry EncodingRegistry) *Manager {
	if registry == nil {
		registry = IANARegistry{}
	}
	return &Manager{
		encodings: registry,
		nilValue:  &Nil{},
		trueValue: &Boolean{Value: true},
		falseVal:  &Boolean{Value: false},
		self:      &Self{},
		undefined: &UndefinedValue{},
		current:   &CurrentScope{},
		symbols:   make(map[string]*Symbol),
	}
}

// Encodings returns the encoding registry.
func (m *Manager) Encodings() EncodingRegistry { return m.encodings }

// Nil returns the nil singleton.
func (m *Manager) Nil() *Nil { return m.nilValue }

// True returns the true singleton.
func (m *Manager) True() *Boolean { return m.trueValue }

// False returns the false singleton.
func (m *Manager) False() *Boolean { return m.falseVal }

// Bool returns the singleton for v.
func (m *Manager) Bool(v bool) *Boolean {
	if v {
		return m.trueValue
	}
	return m.falseVal
}

// Self returns the self singleton.
func (m *Manager) Self() *Self { return m.self }

// Undefined returns the undefined-value singleton.
func (m *Manager) Undefined() *UndefinedValue { return m.undefined }

// CurrentScope returns the current-scope singleton.
func (m *Manager) CurrentScope() *CurrentScope { return m.current }

// Symbol returns the interned symbol for name. Symbols are equal by bytes
// and encoding.
func (m *Manager) Symbol(name ByteString) *Symbol {
	key := name.Encoding.Name() + "\x00" + string(name.Bytes)

	m.mu.Lock()
	defer m.mu.Unlock()

	if sym, ok := m.symbols[key]; ok {
		return sym
	}
	sym := &Symbol{Name: ByteString{
		Bytes:    append([]byte(nil), name.Bytes...),
		Encoding: name.Encoding,
	}}
	m.symbols[key] = sym
	return sym
}

// SymbolCount returns the number of interned symbols.
func (m *Manager) SymbolCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.symbols)
}
