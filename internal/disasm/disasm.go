// Package disasm produces linear listings of patch method bodies.
//
// A body is a sequence of 8-byte slots. Most instructions occupy one slot;
// 8-byte constants borrow the following slot and switch tables borrow
// ceil(N/2) slots, two targets per slot.
package disasm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"ilpatch/internal/opcodes"
	"ilpatch/internal/patch"
	"ilpatch/internal/resolve"
)

const mnemonicWidth = 12

// Options controls listing output.
type Options struct {
	// Raw prefixes each instruction with its code and operand in hex.
	Raw bool
}

// Line is one decoded instruction.
type Line struct {
	Index   int   // slot index of the instruction
	Extra   int   // slots consumed after Index
	Code    int32 // raw opcode
	Operand int32 // raw operand of the first slot
	Op      opcodes.OpCode
	Unknown bool // Code is not in the table
	Comment bool // metadata rendered as a comment, not an instruction
	Text    string
	Targets []int // branch or switch destinations, slot indices
}

// Next returns the slot index of the following instruction.
func (l Line) Next() int { return l.Index + 1 + l.Extra }

// MethodID splits an InlineMethod operand into extern method id and
// argument count.
func (l Line) MethodID() (id, args int32, ok bool) {
	if l.Unknown || l.Op.Operand != opcodes.InlineMethod {
		return 0, 0, false
	}
	return l.Operand & 0xFFFF, l.Operand >> 16, true
}

// Listing is the decoded form of one method.
type Listing struct {
	ID       int
	Target   string // replaced method, empty when no fix record points here
	Lines    []Line
	Handlers []patch.ExceptionHandler
}

// Disassembler decodes method bodies against one container. It holds no
// mutable state.
type Disassembler struct {
	table *opcodes.Table
	names *resolve.Resolver
	opts  Options
}

// New returns a disassembler resolving operands through names.
func New(table *opcodes.Table, names *resolve.Resolver, opts Options) *Disassembler {
	return &Disassembler{table: table, names: names, opts: opts}
}

// Method decodes patch method id.
func (d *Disassembler) Method(id int, m patch.Method) Listing {
	target, _ := d.names.PatchTarget(id)
	return Listing{
		ID:       id,
		Target:   target,
		Lines:    d.Decode(m.Instructions),
		Handlers: m.Handlers,
	}
}

// Decode walks slots from index 0 and returns one Line per instruction.
func (d *Disassembler) Decode(slots []patch.Slot) []Line {
	var lines []Line
	for i := 0; i < len(slots); {
		l := d.decode(slots, i)
		lines = append(lines, l)
		i = l.Next()
	}
	return lines
}

func (d *Disassembler) decode(slots []patch.Slot, i int) Line {
	s := slots[i]
	l := Line{Index: i, Code: s.Code, Operand: s.Operand}

	op, ok := d.table.Lookup(s.Code)
	if !ok {
		l.Unknown = true
		return l
	}
	l.Op = op

	switch op.Operand {
	case opcodes.InlineInt:
		l.Text = d.intConstant(op, s.Operand)
	case opcodes.InlineString:
		l.Text = d.names.StringLiteral(s.Operand)
	case opcodes.InlineType, opcodes.InlineTok:
		l.Text = d.names.TypeName(s.Operand)
	case opcodes.InlineField:
		l.Text = d.names.FieldRef(s.Operand)
	case opcodes.InlineMethod:
		id, args, _ := l.MethodID()
		l.Text = d.names.MethodRef(id, args)
	case opcodes.InlineBrTarget:
		target := i + int(s.Operand)
		l.Targets = []int{target}
		l.Text = d.label(target)
	case opcodes.InlineVar:
		l.Text = fmt.Sprintf("V_%d", s.Operand)
	case opcodes.InlineStackSpace:
		l.Comment = true
		l.Text = fmt.Sprintf("MaxStack: %d, Locals: %d", s.Operand&0xFFFF, s.Operand>>16)
	case opcodes.Inline8Byte:
		if i+1 >= len(slots) {
			l.Text = "<EOF>"
			break
		}
		l.Extra = 1
		l.Text = wideConstant(op, slots[i+1])
	case opcodes.InlineSwitch:
		l.Extra, l.Targets = switchTargets(slots, i)
		labels := make([]string, len(l.Targets))
		for k, t := range l.Targets {
			labels[k] = d.label(t)
		}
		l.Text = "(" + strings.Join(labels, ", ") + ")"
	}
	return l
}

// switchTargets reads the jump table following the switch at i. Each slot
// holds two relative targets, code first. A short stream yields fewer
// targets but the declared slot count is still consumed.
func switchTargets(slots []patch.Slot, i int) (int, []int) {
	count := int(slots[i].Operand)
	if count <= 0 {
		return 0, nil
	}
	need := (count + 1) / 2

	targets := make([]int, 0, min(count, 2*(len(slots)-i-1)))
	for k := 0; k < need && i+1+k < len(slots); k++ {
		s := slots[i+1+k]
		targets = append(targets, i+int(s.Code))
		if len(targets) < count {
			targets = append(targets, i+int(s.Operand))
		}
	}
	return need, targets
}

func (d *Disassembler) intConstant(op opcodes.OpCode, v int32) string {
	text := strconv.Itoa(int(v))
	if !strings.HasPrefix(op.Name, "Ldc_I4") {
		return text
	}
	if abs := math.Abs(float64(v)); abs <= 1000 {
		return text
	}
	f := float64(math.Float32frombits(uint32(v)))
	if af := math.Abs(f); (af > 0.0001 && af < 1e6) || f == 0 {
		return formatFloat(f) + " (" + text + ")"
	}
	return text
}

func wideConstant(op opcodes.OpCode, next patch.Slot) string {
	bits := uint64(uint32(next.Code)) | uint64(uint32(next.Operand))<<32
	if op.Name == "Ldc_R8" {
		return fmt.Sprintf("%s (0x%X)", formatFloat(math.Float64frombits(bits)), bits)
	}
	return strconv.FormatInt(int64(bits), 10)
}

// formatFloat prints the shortest representation of v, switching to
// exponent form outside [1e-4, 1e16). Integral values keep a ".0".
// Infinities and NaN print as inf, -inf and nan.
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	var s string
	if av := math.Abs(v); v == 0 || (av >= 1e-4 && av < 1e16) {
		s = strconv.FormatFloat(v, 'f', -1, 64)
	} else {
		s = strconv.FormatFloat(v, 'e', -1, 64)
	}
	if strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}

func (d *Disassembler) label(target int) string {
	return fmt.Sprintf("IL_%04X", target)
}

// FormatLine renders one listing line.
func (d *Disassembler) FormatLine(l Line) string {
	p := d.names.Palette()
	var prefix string
	if d.opts.Raw {
		prefix = fmt.Sprintf("[%02X %08X] ", uint32(l.Code), uint32(l.Operand))
	}
	label := p.Label(fmt.Sprintf("IL_%04X:", l.Index))

	if l.Unknown {
		return fmt.Sprintf("  %s %sunknown_0x%X %d", label, prefix, uint32(l.Code), l.Operand)
	}

	mnemonic := l.Op.Mnemonic()
	if l.Text != "" {
		mnemonic = fmt.Sprintf("%-*s ", mnemonicWidth, mnemonic)
	}
	mnemonic = p.Mnemonic(mnemonic)

	if l.Comment {
		return p.Comment("  // ") + mnemonic + l.Text
	}
	return "  " + label + " " + prefix + mnemonic + l.Text
}

// FormatHandler renders one exception handler.
func (d *Disassembler) FormatHandler(h patch.ExceptionHandler) string {
	return fmt.Sprintf("  .try IL_%04X to IL_%04X catch %s handler IL_%04X to IL_%04X",
		h.TryStart, h.TryEnd, d.names.TypeName(h.CatchType), h.HandlerStart, h.HandlerEnd)
}

// Header renders the opening line of a listing.
func (d *Disassembler) Header(l Listing) string {
	h := fmt.Sprintf(".method %02d", l.ID)
	if l.Target != "" {
		h += " (Patches " + l.Target + ")"
	}
	return d.names.Palette().Strong(h)
}

// Text renders a full listing block, ending with a blank line.
func (d *Disassembler) Text(l Listing) string {
	var sb strings.Builder
	sb.WriteString(d.Header(l))
	sb.WriteString("\n{\n")
	for _, line := range l.Lines {
		sb.WriteString(d.FormatLine(line))
		sb.WriteByte('\n')
	}
	if len(l.Handlers) > 0 {
		sb.WriteString("\n  // Exception Handlers\n")
		for _, h := range l.Handlers {
			sb.WriteString(d.FormatHandler(h))
			sb.WriteByte('\n')
		}
	}
	sb.WriteString("}\n\n")
	return sb.String()
}
