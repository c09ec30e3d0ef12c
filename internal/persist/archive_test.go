package persist

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdaitx/irpersist/internal/ir"
	"github.com/tdaitx/irpersist/internal/testutil"
)

func encodeProgram(t *testing.T, p *ir.Program) []byte {
	t.Helper()
	data, err := Encode(p)
	require.NoError(t, err)
	return data
}

func TestArchiveHeader(t *testing.T) {
	data := encodeProgram(t, testutil.TwoScopeProgram(ir.NewManager(nil)))

	require.Greater(t, len(data), headerSize)
	assert.Equal(t, Magic, string(data[:4]))
	assert.Equal(t, uint32(FormatVersion), binary.BigEndian.Uint32(data[4:8]))

	headers := int(binary.BigEndian.Uint32(data[8:12]))
	assert.Greater(t, headers, headerSize)
	assert.Less(t, headers, len(data))
}

func TestTwoScopeLazyDecode(t *testing.T) {
	mgr := ir.NewManager(nil)
	data := encodeProgram(t, testutil.TwoScopeProgram(mgr))

	r := newTestReader(t, mgr, data)
	p, err := ReadArchive(r)
	require.NoError(t, err)
	assert.Equal(t, "two_scopes.rb", p.File)
	require.Len(t, p.Scopes, 2)

	main, block := p.Scopes[0], p.Scopes[1]
	assert.False(t, main.Loaded())
	assert.False(t, block.Loaded())
	assert.Same(t, main, block.Parent)
	assert.Equal(t, ir.ScopeClosure, block.Kind)
	assert.Equal(t, ir.StaticBlock, block.StaticScope.Kind)
	assert.Equal(t, []string{"x"}, main.StaticScope.Variables)

	// Decode in reverse index order.
	inner, err := r.Instructions(block)
	require.NoError(t, err)
	assert.Empty(t, inner)
	assert.False(t, main.Loaded())

	outer, err := r.Instructions(main)
	require.NoError(t, err)
	require.Len(t, outer, 2)

	call, ok := outer[0].(*ir.CallInstr)
	require.True(t, ok)
	assert.Equal(t, ir.CallNormal, call.CallKind)
	assert.Equal(t, "succ", call.Method)
	assert.Same(t, call.Result, call.Receiver)
	assert.Equal(t, &ir.LocalVariable{Ident: "x"}, call.Result)

	ret, ok := outer[1].(*ir.ReturnInstr)
	require.True(t, ok)
	assert.Same(t, mgr.Nil(), ret.Value)
}

func TestKitchenSinkRoundTrip(t *testing.T) {
	mgr := ir.NewManager(nil)
	want := testutil.KitchenSinkProgram(mgr)
	data := encodeProgram(t, want)

	got, err := Decode(mgr, data, WithLogger(discard))
	require.NoError(t, err)

	assert.Equal(t, ir.MustFingerprint(want), ir.MustFingerprint(got))

	// Re-encoding the decoded program reproduces the archive.
	again := encodeProgram(t, got)
	assert.Equal(t, data, again)
}

func TestVariableIdentityRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		first  ir.Variable
		second ir.Variable
	}{
		{
			name:   "shadowed local",
			first:  &ir.LocalVariable{Ident: "x"},
			second: &ir.LocalVariable{Ident: "x", Depth: 1, Offset: 2},
		},
		{
			name:   "local named like a temporary",
			first:  &ir.TemporaryVariable{TempKind: ir.TempLocal},
			second: &ir.LocalVariable{Ident: "%v_0"},
		},
		{
			name:   "temporary named like a local",
			first:  &ir.LocalVariable{Ident: "%v_0"},
			second: &ir.TemporaryVariable{TempKind: ir.TempLocal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := ir.NewManager(nil)
			p := &ir.Program{File: "shadow.rb"}
			main := ir.NewScope(ir.ScopeScriptBody, "main", 1, ir.StaticScope{}, nil)
			p.AddScope(main)
			main.SetInstrs([]ir.Instr{
				&ir.CopyInstr{Result: tt.first, Source: &ir.Fixnum{Value: 1}},
				&ir.CopyInstr{Result: tt.second, Source: &ir.Fixnum{Value: 2}},
				&ir.ReturnInstr{Value: tt.second},
			})

			got, err := Decode(mgr, encodeProgram(t, p), WithLogger(discard))
			require.NoError(t, err)
			instrs := got.Scopes[0].Instrs
			require.Len(t, instrs, 3)

			first := instrs[0].(*ir.CopyInstr).Result
			second := instrs[1].(*ir.CopyInstr).Result
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.second, second)
			assert.NotSame(t, first, second)
			assert.Same(t, second, instrs[2].(*ir.ReturnInstr).Value)
			assert.Equal(t, ir.MustFingerprint(p), ir.MustFingerprint(got))
		})
	}
}

func TestKitchenSinkScopeReferences(t *testing.T) {
	mgr := ir.NewManager(nil)
	got, err := Decode(mgr, encodeProgram(t, testutil.KitchenSinkProgram(mgr)), WithLogger(discard))
	require.NoError(t, err)

	foo, ok := got.ScopeByName("Foo")
	require.True(t, ok)
	bar, ok := got.ScopeByName("bar")
	require.True(t, ok)

	def, ok := foo.Instrs[0].(*ir.DefineMethodInstr)
	require.True(t, ok)
	assert.Same(t, bar, def.Method)
	assert.Same(t, foo, bar.Parent)
	assert.Equal(t, 1, bar.StaticScope.RequiredArgs)
}

func TestDisassembleGolden(t *testing.T) {
	mgr := ir.NewManager(nil)
	p, err := Decode(mgr, encodeProgram(t, testutil.TwoScopeProgram(mgr)), WithLogger(discard))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ir.Disassemble(&buf, p))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "two_scopes", buf.Bytes())
}

func TestReadArchiveBadHeader(t *testing.T) {
	good := encodeProgram(t, testutil.TwoScopeProgram(ir.NewManager(nil)))

	corrupt := func(fn func(b []byte)) []byte {
		b := bytes.Clone(good)
		fn(b)
		return b
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"wrong magic", corrupt(func(b []byte) { b[0] = 'X' })},
		{"wrong version", corrupt(func(b []byte) { binary.BigEndian.PutUint32(b[4:8], 2) })},
		{"headers inside header", corrupt(func(b []byte) { binary.BigEndian.PutUint32(b[8:12], 4) })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadArchive(newTestReader(t, nil, tt.data))
			requireCode(t, err, ErrBadHeader)
		})
	}
}

func TestReadArchiveTruncated(t *testing.T) {
	good := encodeProgram(t, testutil.TwoScopeProgram(ir.NewManager(nil)))

	for _, n := range []int{0, 3, 8, 11, len(good) - 1} {
		_, err := ReadArchive(newTestReader(t, nil, good[:n]))
		requireCode(t, err, ErrTruncatedStream)
	}

	past := bytes.Clone(good)
	binary.BigEndian.PutUint32(past[8:12], uint32(len(good)+10))
	_, err := ReadArchive(newTestReader(t, nil, past))
	requireCode(t, err, ErrTruncatedStream)
}

func TestReadArchiveTwice(t *testing.T) {
	r := newTestReader(t, nil, encodeProgram(t, testutil.TwoScopeProgram(ir.NewManager(nil))))
	_, err := ReadArchive(r)
	require.NoError(t, err)
	_, err = ReadArchive(r)
	assert.Error(t, err)
}

func TestEncodeRejects(t *testing.T) {
	mgr := ir.NewManager(nil)

	t.Run("forward parent", func(t *testing.T) {
		p := &ir.Program{File: "f.rb"}
		child := ir.NewScope(ir.ScopeClosure, "child", 2, ir.StaticScope{}, nil)
		parent := ir.NewScope(ir.ScopeScriptBody, "parent", 1, ir.StaticScope{}, nil)
		child.Parent = parent
		p.AddScope(child)
		p.AddScope(parent)
		child.SetInstrs(nil)
		parent.SetInstrs(nil)

		_, err := Encode(p)
		assert.ErrorIs(t, err, ErrUnencodable)
	})

	t.Run("unloaded scope", func(t *testing.T) {
		p := &ir.Program{File: "f.rb"}
		p.AddScope(ir.NewScope(ir.ScopeScriptBody, "main", 1, ir.StaticScope{}, nil))

		_, err := Encode(p)
		assert.ErrorIs(t, err, ErrUnencodable)
	})

	t.Run("scope from another program", func(t *testing.T) {
		other := testutil.TwoScopeProgram(mgr)
		p := testutil.TwoScopeProgram(mgr)
		p.Scopes[0].SetInstrs([]ir.Instr{&ir.DefineMethodInstr{Method: other.Scopes[1]}})

		_, err := Encode(p)
		assert.ErrorIs(t, err, ErrUnencodable)
	})

	t.Run("parent outside the program", func(t *testing.T) {
		other := testutil.TwoScopeProgram(mgr)
		p := testutil.TwoScopeProgram(mgr)
		p.Scopes[1].Parent = other.Scopes[0]

		_, err := Encode(p)
		assert.ErrorIs(t, err, ErrUnencodable)
	})
}

func TestDecodeReportsScopeOnFailure(t *testing.T) {
	mgr := ir.NewManager(nil)
	p := testutil.TwoScopeProgram(mgr)
	data := encodeProgram(t, p)

	// The first region starts right after the header: count, then CALL.
	// Replace the call kind with an out-of-range ordinal.
	require.Equal(t, byte(2), data[headerSize])
	require.Equal(t, byte(ir.OpCall), data[headerSize+1])
	data[headerSize+2] = 0x7F

	_, err := Decode(mgr, data, WithLogger(discard))
	requireCode(t, err, ErrUnknownTag)
	assert.ErrorContains(t, err, "main")
}
