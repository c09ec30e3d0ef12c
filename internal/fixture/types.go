package fixture

// Program is the on-disk description of an IR program.
//
// Fields carry both yaml and json tags: YAML fixtures are decoded by
// yaml.v3, CUE fixtures through cue.Value.Decode, which reads json tags.
type Program struct {
	File   string  `yaml:"file" json:"file"`
	Scopes []Scope `yaml:"scopes" json:"scopes"`
}

// Scope describes one lexical scope. Parent names a scope listed earlier.
type Scope struct {
	Name   string  `yaml:"name" json:"name"`
	Kind   string  `yaml:"kind" json:"kind"`
	Line   int     `yaml:"line" json:"line"`
	Parent string  `yaml:"parent,omitempty" json:"parent,omitempty"`
	Static Static  `yaml:"static" json:"static"`
	Instrs []Instr `yaml:"instrs" json:"instrs"`
}

// Static describes a scope's static scope. Kind defaults to LOCAL.
type Static struct {
	Kind         string   `yaml:"kind,omitempty" json:"kind,omitempty"`
	Variables    []string `yaml:"variables,omitempty" json:"variables,omitempty"`
	RequiredArgs int      `yaml:"required_args,omitempty" json:"required_args,omitempty"`
}

// Instr describes one instruction. Only the fields of Op are read.
//
// Labels are written as "PREFIX_ID", for example "LBL_3".
type Instr struct {
	Op string `yaml:"op" json:"op"`

	Line       int32     `yaml:"line,omitempty" json:"line,omitempty"`
	Label      string    `yaml:"label,omitempty" json:"label,omitempty"`
	Target     string    `yaml:"target,omitempty" json:"target,omitempty"`
	Result     *Operand  `yaml:"result,omitempty" json:"result,omitempty"`
	Index      int       `yaml:"index,omitempty" json:"index,omitempty"`
	Optional   bool      `yaml:"optional,omitempty" json:"optional,omitempty"`
	Source     *Operand  `yaml:"source,omitempty" json:"source,omitempty"`
	CallKind   string    `yaml:"call_kind,omitempty" json:"call_kind,omitempty"`
	Receiver   *Operand  `yaml:"receiver,omitempty" json:"receiver,omitempty"`
	Method     string    `yaml:"method,omitempty" json:"method,omitempty"`
	Args       []Operand `yaml:"args,omitempty" json:"args,omitempty"`
	Closure    *Operand  `yaml:"closure,omitempty" json:"closure,omitempty"`
	Value      *Operand  `yaml:"value,omitempty" json:"value,omitempty"`
	Object     *Operand  `yaml:"object,omitempty" json:"object,omitempty"`
	Field      string    `yaml:"field,omitempty" json:"field,omitempty"`
	Scope      string    `yaml:"scope,omitempty" json:"scope,omitempty"`
	OnBackEdge bool      `yaml:"on_back_edge,omitempty" json:"on_back_edge,omitempty"`
	Encoding   string    `yaml:"encoding,omitempty" json:"encoding,omitempty"`
	Pieces     []Operand `yaml:"pieces,omitempty" json:"pieces,omitempty"`
}

// Operand describes one operand. Exactly one of the kind fields (local,
// temp, fixnum, bignum, float, bool, nil, self, undefined, current_scope,
// string, symbol, regexp, label, array, hash, module, closure) must be set;
// the remaining fields qualify it.
type Operand struct {
	Local        string     `yaml:"local,omitempty" json:"local,omitempty"`
	Temp         string     `yaml:"temp,omitempty" json:"temp,omitempty"`
	Fixnum       *int64     `yaml:"fixnum,omitempty" json:"fixnum,omitempty"`
	Bignum       string     `yaml:"bignum,omitempty" json:"bignum,omitempty"`
	Float        *float64   `yaml:"float,omitempty" json:"float,omitempty"`
	Bool         *bool      `yaml:"bool,omitempty" json:"bool,omitempty"`
	Nil          bool       `yaml:"nil,omitempty" json:"nil,omitempty"`
	Self         bool       `yaml:"self,omitempty" json:"self,omitempty"`
	Undefined    bool       `yaml:"undefined,omitempty" json:"undefined,omitempty"`
	CurrentScope bool       `yaml:"current_scope,omitempty" json:"current_scope,omitempty"`
	String       *string    `yaml:"string,omitempty" json:"string,omitempty"`
	Symbol       string     `yaml:"symbol,omitempty" json:"symbol,omitempty"`
	Regexp       *string    `yaml:"regexp,omitempty" json:"regexp,omitempty"`
	Label        string     `yaml:"label,omitempty" json:"label,omitempty"`
	Array        *[]Operand `yaml:"array,omitempty" json:"array,omitempty"`
	Hash         *[]Pair    `yaml:"hash,omitempty" json:"hash,omitempty"`
	Module       string     `yaml:"module,omitempty" json:"module,omitempty"`
	Closure      string     `yaml:"closure,omitempty" json:"closure,omitempty"`

	// Qualifiers.
	Depth       int      `yaml:"depth,omitempty" json:"depth,omitempty"`
	Offset      int      `yaml:"offset,omitempty" json:"offset,omitempty"`
	Encoding    string   `yaml:"encoding,omitempty" json:"encoding,omitempty"`
	Frozen      bool     `yaml:"frozen,omitempty" json:"frozen,omitempty"`
	Options     int      `yaml:"options,omitempty" json:"options,omitempty"`
	ClosureSelf *Operand `yaml:"closure_self,omitempty" json:"closure_self,omitempty"`
}

// Pair is one hash entry.
type Pair struct {
	Key   Operand `yaml:"key" json:"key"`
	Value Operand `yaml:"value" json:"value"`
}
