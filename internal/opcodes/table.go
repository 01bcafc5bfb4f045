// Package opcodes maps numeric instruction codes of the patch bytecode to
// their symbolic names, operand layout and control-flow behaviour.
package opcodes

import (
	"maps"
	"slices"
	"strings"
)

// StackSpaceCode is the pseudo-instruction carrying a method's stack and
// locals sizes.
const StackSpaceCode int32 = 146

// OperandKind decides how many slots an instruction consumes and how its
// operand is read.
type OperandKind uint8

const (
	InlineNone OperandKind = iota
	InlineInt
	InlineString
	InlineType
	InlineField
	InlineMethod
	InlineBrTarget
	InlineTok
	InlineVar
	InlineStackSpace
	InlineSwitch
	Inline8Byte
)

var operandNames = [...]string{
	InlineNone:       "None",
	InlineInt:        "InlineInt",
	InlineString:     "InlineString",
	InlineType:       "InlineType",
	InlineField:      "InlineField",
	InlineMethod:     "InlineMethod",
	InlineBrTarget:   "InlineBrTarget",
	InlineTok:        "InlineTok",
	InlineVar:        "InlineVar",
	InlineStackSpace: "InlineStackSpace",
	InlineSwitch:     "InlineSwitch",
	Inline8Byte:      "Inline8Byte",
}

func (k OperandKind) String() string {
	if int(k) < len(operandNames) {
		return operandNames[k]
	}
	return "OperandKind(?)"
}

// FlowKind is the control-flow effect of an instruction.
type FlowKind uint8

const (
	FlowNext FlowKind = iota
	FlowBranch
	FlowCondBranch
	FlowReturn
	FlowCall
	FlowThrow
	FlowMeta
)

var flowNames = [...]string{
	FlowNext:       "Next",
	FlowBranch:     "Branch",
	FlowCondBranch: "CondBranch",
	FlowReturn:     "Return",
	FlowCall:       "Call",
	FlowThrow:      "Throw",
	FlowMeta:       "Meta",
}

func (k FlowKind) String() string {
	if int(k) < len(flowNames) {
		return flowNames[k]
	}
	return "FlowKind(?)"
}

// Terminates reports whether control never falls through to the next slot.
func (k FlowKind) Terminates() bool {
	return k == FlowBranch || k == FlowReturn || k == FlowThrow
}

// OpCode is one entry of the table.
type OpCode struct {
	Code    int32
	Name    string
	Operand OperandKind
	Flow    FlowKind
}

// Mnemonic returns the listing form of the name: lower case with
// underscores as dots (Bne_Un -> bne.un).
func (o OpCode) Mnemonic() string {
	return strings.ReplaceAll(strings.ToLower(o.Name), "_", ".")
}

// Table is an immutable code -> OpCode mapping.
type Table struct {
	ops map[int32]OpCode
}

// New classifies every name and builds a table. The map is copied.
func New(names map[int32]string) *Table {
	t := &Table{ops: make(map[int32]OpCode, len(names))}
	for code, name := range names {
		operand, flow := Classify(name)
		t.ops[code] = OpCode{Code: code, Name: name, Operand: operand, Flow: flow}
	}
	return t
}

// Default returns the table for the shipped instruction set.
func Default() *Table {
	return New(defaultNames)
}

// Lookup returns the entry for code.
func (t *Table) Lookup(code int32) (OpCode, bool) {
	op, ok := t.ops[code]
	return op, ok
}

// Len returns the number of known codes.
func (t *Table) Len() int { return len(t.ops) }

// Codes returns the known codes in ascending order.
func (t *Table) Codes() []int32 {
	return slices.Sorted(maps.Keys(t.ops))
}

var (
	intOps    = set("Ldc_I4", "Ldc_R4", "Ldc_I4_S")
	wideOps   = set("Ldc_I8", "Ldc_R8")
	varOps    = set("Ldarg", "Ldarga", "Ldloc", "Ldloca", "Stloc", "Starg")
	branchOps = set("Br", "Brtrue", "Brfalse", "Beq", "Bne_Un", "Bge", "Bgt",
		"Ble", "Blt", "Bge_Un", "Bgt_Un", "Ble_Un", "Blt_Un", "Leave")
	callOps  = set("Call", "Callvirt", "Newobj", "Ldftn", "Ldvirtftn", "Callvirtvirt", "Calli")
	fieldOps = set("Ldfld", "Ldflda", "Stfld", "Ldsfld", "Stsfld")
	typeOps  = set("Box", "Unbox", "Isinst", "Castclass", "Newarr", "Ldobj", "Stobj",
		"Initobj", "Newanon", "Ldtype", "Unbox_Any")
)

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Classify derives the operand and flow kinds from a symbolic name.
// Names outside every family take no operand and fall through.
func Classify(name string) (OperandKind, FlowKind) {
	switch {
	case name == "StackSpace":
		return InlineStackSpace, FlowMeta
	case intOps[name]:
		return InlineInt, FlowNext
	case name == "Ldstr":
		return InlineString, FlowNext
	case wideOps[name]:
		return Inline8Byte, FlowNext
	case varOps[name]:
		return InlineVar, FlowNext
	case name == "Br" || name == "Leave":
		return InlineBrTarget, FlowBranch
	case branchOps[name]:
		return InlineBrTarget, FlowCondBranch
	case name == "Switch":
		return InlineSwitch, FlowCondBranch
	case name == "Newobj":
		return InlineType, FlowCall
	case callOps[name]:
		return InlineMethod, FlowCall
	case fieldOps[name]:
		return InlineField, FlowNext
	case typeOps[name]:
		return InlineType, FlowNext
	case name == "Ldtoken":
		return InlineTok, FlowNext
	case name == "Ret":
		return InlineNone, FlowReturn
	case name == "Throw" || name == "Rethrow":
		return InlineNone, FlowThrow
	}
	return InlineNone, FlowNext
}
