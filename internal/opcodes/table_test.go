package opcodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_KnownCodes(t *testing.T) {
	tbl := Default()
	assert.Equal(t, len(defaultNames), tbl.Len())

	tests := []struct {
		code    int32
		name    string
		operand OperandKind
		flow    FlowKind
	}{
		{0, "Conv_I1", InlineNone, FlowNext},
		{28, "Ldc_I8", Inline8Byte, FlowNext},
		{39, "Ldstr", InlineString, FlowNext},
		{45, "Call", InlineMethod, FlowCall},
		{12, "Callvirtvirt", InlineMethod, FlowCall},
		{72, "Ldloc", InlineVar, FlowNext},
		{93, "Br", InlineBrTarget, FlowBranch},
		{153, "Leave", InlineBrTarget, FlowBranch},
		{134, "Brfalse", InlineBrTarget, FlowCondBranch},
		{110, "Bne_Un", InlineBrTarget, FlowCondBranch},
		{149, "Switch", InlineSwitch, FlowCondBranch},
		{151, "Newobj", InlineType, FlowCall},
		{167, "Ldfld", InlineField, FlowNext},
		{85, "Stsfld", InlineField, FlowNext},
		{94, "Ldtoken", InlineTok, FlowNext},
		{133, "Unbox_Any", InlineType, FlowNext},
		{100, "Ldc_R8", Inline8Byte, FlowNext},
		{141, "Ldc_I4", InlineInt, FlowNext},
		{103, "Ret", InlineNone, FlowReturn},
		{87, "Throw", InlineNone, FlowThrow},
		{177, "Rethrow", InlineNone, FlowThrow},
		{StackSpaceCode, "StackSpace", InlineStackSpace, FlowMeta},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, ok := tbl.Lookup(tt.code)
			require.True(t, ok)
			assert.Equal(t, tt.code, op.Code)
			assert.Equal(t, tt.name, op.Name)
			assert.Equal(t, tt.operand, op.Operand, "operand kind")
			assert.Equal(t, tt.flow, op.Flow, "flow kind")
		})
	}
}

func TestDefault_Gaps(t *testing.T) {
	tbl := Default()
	for _, code := range []int32{4, 10, 14, 18, 180, -1} {
		_, ok := tbl.Lookup(code)
		assert.False(t, ok, "code %d", code)
	}
}

func TestDefault_AliasedNamesShareKinds(t *testing.T) {
	tbl := Default()
	byName := map[string]OpCode{}
	for _, code := range tbl.Codes() {
		op, _ := tbl.Lookup(code)
		if prev, ok := byName[op.Name]; ok {
			assert.Equal(t, prev.Operand, op.Operand, "%s at %d and %d", op.Name, prev.Code, code)
			assert.Equal(t, prev.Flow, op.Flow)
			continue
		}
		byName[op.Name] = op
	}
	assert.Less(t, len(byName), tbl.Len(), "the shipped map reuses names")
}

func TestMnemonic(t *testing.T) {
	assert.Equal(t, "bne.un", OpCode{Name: "Bne_Un"}.Mnemonic())
	assert.Equal(t, "conv.ovf.i4.un", OpCode{Name: "Conv_Ovf_I4_Un"}.Mnemonic())
	assert.Equal(t, "ret", OpCode{Name: "Ret"}.Mnemonic())
}

func TestNew_CustomTable(t *testing.T) {
	names := map[int32]string{1: "Ldc_I4_S", 2: "Nop"}
	tbl := New(names)
	names[3] = "Ret"

	assert.Equal(t, 2, tbl.Len(), "input map is copied")
	op, ok := tbl.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, InlineInt, op.Operand)

	op, _ = tbl.Lookup(2)
	assert.Equal(t, InlineNone, op.Operand)
	assert.Equal(t, FlowNext, op.Flow)
	assert.Equal(t, []int32{1, 2}, tbl.Codes())
}

func TestFlowKind_Terminates(t *testing.T) {
	assert.True(t, FlowBranch.Terminates())
	assert.True(t, FlowReturn.Terminates())
	assert.True(t, FlowThrow.Terminates())
	assert.False(t, FlowCondBranch.Terminates())
	assert.False(t, FlowCall.Terminates())
	assert.False(t, FlowMeta.Terminates())
	assert.Equal(t, "CondBranch", FlowCondBranch.String())
	assert.Equal(t, "InlineSwitch", InlineSwitch.String())
}
