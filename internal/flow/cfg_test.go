package flow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zboralski/lattice"

	"ilpatch/internal/disasm"
	"ilpatch/internal/opcodes"
	"ilpatch/internal/patch"
	"ilpatch/internal/patch/patchtest"
	"ilpatch/internal/resolve"
)

func newTestDisassembler() (*patch.Container, *disasm.Disassembler) {
	c := patchtest.Sample()
	return c, disasm.New(opcodes.Default(), resolve.New(c, resolve.Options{}), disasm.Options{})
}

func listings(c *patch.Container, d *disasm.Disassembler) []disasm.Listing {
	out := make([]disasm.Listing, len(c.Methods))
	for i, m := range c.Methods {
		out[i] = d.Method(i, m)
	}
	return out
}

func TestBuild_StraightLine(t *testing.T) {
	c, d := newTestDisassembler()
	l := d.Method(0, c.Methods[0])

	g := Build("m0", l.Lines, l.Handlers)
	require.Len(t, g.Blocks, 1)
	b := g.Blocks[0]
	assert.Equal(t, 0, b.Start)
	assert.Equal(t, 6, b.End)
	assert.True(t, b.Term)
	assert.Empty(t, b.Succs)
	assert.Empty(t, g.Calls(b))
}

func TestBuild_BranchThrowAndHandler(t *testing.T) {
	c, d := newTestDisassembler()
	l := d.Method(1, c.Methods[1])

	g := Build("m1", l.Lines, l.Handlers)
	require.Len(t, g.Blocks, 3)

	assert.Equal(t, 0, g.Blocks[0].Start)
	assert.Equal(t, 3, g.Blocks[0].End)
	assert.Equal(t, []Succ{{BlockID: 2}, {BlockID: 1, Cond: CondHandler}}, g.Blocks[0].Succs)
	assert.False(t, g.Blocks[0].Term)

	assert.Equal(t, 3, g.Blocks[1].Start)
	assert.True(t, g.Blocks[1].Term, "throw")
	assert.True(t, g.Blocks[2].Term, "ret")

	calls := g.Calls(g.Blocks[0])
	require.Len(t, calls, 1)
	assert.Equal(t, "Game.Player::Log", calls[0].Text)
}

func TestBuild_Conditional(t *testing.T) {
	_, d := newTestDisassembler()
	lines := d.Decode([]patch.Slot{
		{Code: 164, Operand: 0}, // ldarg V_0
		{Code: 134, Operand: 3}, // brfalse IL_0004
		{Code: 141, Operand: 1}, // ldc.i4 1
		{Code: 93, Operand: 2},  // br IL_0005
		{Code: 141, Operand: 0}, // ldc.i4 0
		{Code: 103, Operand: 0}, // ret
	})

	g := Build("cond", lines, nil)
	require.Len(t, g.Blocks, 4)
	assert.Equal(t, []Succ{{BlockID: 2, Cond: CondTaken}, {BlockID: 1, Cond: CondFallthrough}}, g.Blocks[0].Succs)
	assert.Equal(t, []Succ{{BlockID: 3}}, g.Blocks[1].Succs)
	assert.Equal(t, []Succ{{BlockID: 3}}, g.Blocks[2].Succs, "fallthrough into the join")
	assert.True(t, g.Blocks[3].Term)
}

func TestBuild_Switch(t *testing.T) {
	_, d := newTestDisassembler()
	lines := d.Decode([]patch.Slot{
		{Code: 149, Operand: 2}, // switch, two targets
		{Code: 2, Operand: 3},
		{Code: 103},
		{Code: 103},
	})

	g := Build("sw", lines, nil)
	require.Len(t, g.Blocks, 3)
	assert.Equal(t, 2, g.Blocks[0].End, "the jump table belongs to the switch")
	assert.Equal(t, []Succ{
		{BlockID: 1, Cond: "0"},
		{BlockID: 2, Cond: "1"},
		{BlockID: 1, Cond: CondFallthrough},
	}, g.Blocks[0].Succs)
}

func TestBuild_BranchOutsideMethod(t *testing.T) {
	_, d := newTestDisassembler()
	lines := d.Decode([]patch.Slot{{Code: 93, Operand: 40}, {Code: 103}})

	g := Build("out", lines, nil)
	require.Len(t, g.Blocks, 2)
	assert.True(t, g.Blocks[0].Term)
	assert.Empty(t, g.Blocks[0].Succs)
}

func TestBuild_Empty(t *testing.T) {
	g := Build("empty", nil, nil)
	assert.Empty(t, g.Blocks)
	assert.Empty(t, g.Lattice().Blocks)
}

func TestLattice(t *testing.T) {
	c, d := newTestDisassembler()
	l := d.Method(1, c.Methods[1])

	lcfg := Build("m1", l.Lines, l.Handlers).Lattice()
	assert.Equal(t, "m1", lcfg.Name)
	require.Len(t, lcfg.Blocks, 3)
	assert.Equal(t, []lattice.CallSite{{Offset: 1, Callee: "Game.Player::Log"}}, lcfg.Blocks[0].Calls)
	assert.Equal(t, []lattice.Successor{{BlockID: 2}, {BlockID: 1, Cond: CondHandler}}, lcfg.Blocks[0].Succs)
	assert.True(t, lcfg.Blocks[2].Term)
	assert.NotEmpty(t, DOT(Build("m1", l.Lines, l.Handlers)))
}

func TestCallGraph(t *testing.T) {
	c, d := newTestDisassembler()
	g := CallGraph(listings(c, d))

	assert.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "method_01 Game.Player::Greet", g.Edges[0].Caller)
	assert.Equal(t, "Game.Player::Log", g.Edges[0].Callee)
}

func TestExport(t *testing.T) {
	c, d := newTestDisassembler()
	dir := t.TempDir()

	res, err := Export(dir, listings(c, d))
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "cfg", "method_01.dot")}, res.CFGs, "single-block methods are skipped")
	assert.Equal(t, filepath.Join(dir, "callgraph.dot"), res.Graph)
	assert.Equal(t, 2, res.Nodes)
	assert.Equal(t, 1, res.Edges)

	for _, path := range append(res.CFGs, res.Graph) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
	assert.NoFileExists(t, filepath.Join(dir, "cfg", "method_00.dot"))
}
