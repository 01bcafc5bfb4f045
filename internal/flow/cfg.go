// Package flow builds control-flow and call graphs from disassembled patch
// methods and renders them as Graphviz DOT through lattice.
package flow

import (
	"fmt"
	"sort"

	"github.com/zboralski/lattice"

	"ilpatch/internal/disasm"
	"ilpatch/internal/opcodes"
	"ilpatch/internal/patch"
)

// Successor edge conditions.
const (
	CondTaken       = "T"
	CondFallthrough = "F"
	CondHandler     = "EH"
)

// Block is a run of instructions with one entry. Start and End are slot
// indices; End is exclusive.
type Block struct {
	ID    int
	Start int
	End   int
	Succs []Succ
	Term  bool // ends in a return, throw or branch out of the method

	first, last int // line indices
}

// Succ is a control-flow edge to another block.
type Succ struct {
	BlockID int
	Cond    string // "" unconditional, T taken, F fallthrough, EH handler, or a switch case number
}

// CFG is the control-flow graph of one method.
type CFG struct {
	Name   string
	Blocks []Block
	Lines  []disasm.Line
}

// Build partitions lines into basic blocks:
//  1. Leaders are the first instruction, every branch or switch target,
//     every instruction after a transfer of control and the start of each
//     protected region and handler.
//  2. Lines are split at leaders.
//  3. Successors come from each block's last instruction. A protected
//     region's first block also gets an edge to its handler.
func Build(name string, lines []disasm.Line, handlers []patch.ExceptionHandler) *CFG {
	g := &CFG{Name: name, Lines: lines}
	if len(lines) == 0 {
		return g
	}

	lineAt := make(map[int]int, len(lines))
	for i, l := range lines {
		lineAt[l.Index] = i
	}

	// Pass 1: leaders, as line indices.
	leaders := map[int]bool{0: true}
	mark := func(slot int) {
		if i, ok := lineAt[slot]; ok {
			leaders[i] = true
		}
	}
	for i, l := range lines {
		if l.Unknown {
			continue
		}
		switch l.Op.Flow {
		case opcodes.FlowBranch, opcodes.FlowCondBranch, opcodes.FlowReturn, opcodes.FlowThrow:
			if i+1 < len(lines) {
				leaders[i+1] = true
			}
			for _, t := range l.Targets {
				mark(t)
			}
		}
	}
	for _, h := range handlers {
		mark(int(h.TryStart))
		mark(int(h.HandlerStart))
	}

	sorted := make([]int, 0, len(leaders))
	for i := range leaders {
		sorted = append(sorted, i)
	}
	sort.Ints(sorted)

	// Pass 2: partition.
	g.Blocks = make([]Block, len(sorted))
	blockAtSlot := make(map[int]int, len(sorted))
	for b, first := range sorted {
		last := len(lines) - 1
		if b+1 < len(sorted) {
			last = sorted[b+1] - 1
		}
		g.Blocks[b] = Block{
			ID:    b,
			Start: lines[first].Index,
			End:   lines[last].Next(),
			first: first,
			last:  last,
		}
		blockAtSlot[lines[first].Index] = b
	}

	// Pass 3: successors.
	for b := range g.Blocks {
		blk := &g.Blocks[b]
		l := lines[blk.last]
		next, hasNext := blockAtSlot[l.Next()]

		flow := opcodes.FlowNext
		if !l.Unknown {
			flow = l.Op.Flow
		}

		switch flow {
		case opcodes.FlowReturn, opcodes.FlowThrow:
			blk.Term = true
		case opcodes.FlowBranch:
			if t, ok := blockAtSlot[firstTarget(l)]; ok {
				blk.Succs = append(blk.Succs, Succ{BlockID: t})
			} else {
				blk.Term = true
			}
		case opcodes.FlowCondBranch:
			for k, target := range l.Targets {
				t, ok := blockAtSlot[target]
				if !ok {
					continue
				}
				cond := CondTaken
				if l.Op.Operand == opcodes.InlineSwitch {
					cond = fmt.Sprint(k)
				}
				blk.Succs = append(blk.Succs, Succ{BlockID: t, Cond: cond})
			}
			if hasNext {
				blk.Succs = append(blk.Succs, Succ{BlockID: next, Cond: CondFallthrough})
			}
		default:
			if hasNext {
				blk.Succs = append(blk.Succs, Succ{BlockID: next})
			}
		}
	}

	for _, h := range handlers {
		try, ok1 := blockAtSlot[int(h.TryStart)]
		handler, ok2 := blockAtSlot[int(h.HandlerStart)]
		if ok1 && ok2 {
			g.Blocks[try].Succs = append(g.Blocks[try].Succs, Succ{BlockID: handler, Cond: CondHandler})
		}
	}
	return g
}

func firstTarget(l disasm.Line) int {
	if len(l.Targets) == 0 {
		return -1
	}
	return l.Targets[0]
}

// Calls returns the call instructions of a block.
func (g *CFG) Calls(b Block) []disasm.Line {
	var calls []disasm.Line
	for _, l := range g.Lines[b.first : b.last+1] {
		if !l.Unknown && l.Op.Flow == opcodes.FlowCall {
			calls = append(calls, l)
		}
	}
	return calls
}

// Lattice converts g for lattice rendering. Call sites carry the slot
// index and the resolved operand text.
func (g *CFG) Lattice() *lattice.FuncCFG {
	lcfg := &lattice.FuncCFG{Name: g.Name}
	for _, b := range g.Blocks {
		lb := &lattice.BasicBlock{
			ID:    b.ID,
			Start: b.Start,
			End:   b.End,
			Term:  b.Term,
		}
		for _, s := range b.Succs {
			lb.Succs = append(lb.Succs, lattice.Successor{BlockID: s.BlockID, Cond: s.Cond})
		}
		for _, c := range g.Calls(b) {
			lb.Calls = append(lb.Calls, lattice.CallSite{Offset: c.Index, Callee: c.Text})
		}
		lcfg.Blocks = append(lcfg.Blocks, lb)
	}
	return lcfg
}
