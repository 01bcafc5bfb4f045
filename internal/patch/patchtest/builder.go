// Package patchtest builds patch container bytes for tests.
package patchtest

import (
	"bytes"
	"encoding/binary"

	"ilpatch/internal/patch"
)

// Builder appends primitives in the container wire encoding.
type Builder struct {
	buf bytes.Buffer
}

// Bytes returns the encoded data.
func (b *Builder) Bytes() []byte { return b.buf.Bytes() }

// Len returns the number of bytes written so far.
func (b *Builder) Len() int { return b.buf.Len() }

func (b *Builder) Byte(v byte) *Builder {
	b.buf.WriteByte(v)
	return b
}

func (b *Builder) Bool(v bool) *Builder {
	if v {
		return b.Byte(1)
	}
	return b.Byte(0)
}

func (b *Builder) Int32(v int32) *Builder {
	b.buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(v)))
	return b
}

func (b *Builder) Uint64(v uint64) *Builder {
	b.buf.Write(binary.LittleEndian.AppendUint64(nil, v))
	return b
}

// Varint writes v as an unsigned base-128 varint.
func (b *Builder) Varint(v uint64) *Builder {
	b.buf.Write(binary.AppendUvarint(nil, v))
	return b
}

func (b *Builder) String(s string) *Builder {
	b.Varint(uint64(len(s)))
	b.buf.WriteString(s)
	return b
}

func (b *Builder) Raw(p []byte) *Builder {
	b.buf.Write(p)
	return b
}

func (b *Builder) Int32s(vs []int32) *Builder {
	b.Int32(int32(len(vs)))
	for _, v := range vs {
		b.Int32(v)
	}
	return b
}

func (b *Builder) Strings(ss []string) *Builder {
	b.Int32(int32(len(ss)))
	for _, s := range ss {
		b.String(s)
	}
	return b
}

func (b *Builder) Slots(slots []patch.Slot) *Builder {
	b.Int32(int32(len(slots)))
	for _, s := range slots {
		b.Int32(s.Code).Int32(s.Operand)
	}
	return b
}

func (b *Builder) Method(m patch.Method) *Builder {
	b.Slots(m.Instructions)
	b.Int32(int32(len(m.Handlers)))
	for _, h := range m.Handlers {
		b.Int32(h.ClauseFlag).Int32(h.CatchType).
			Int32(h.TryStart).Int32(h.TryEnd).
			Int32(h.HandlerStart).Int32(h.HandlerEnd)
	}
	return b
}

func (b *Builder) Descriptor(d patch.MethodDescriptor) *Builder {
	sig, generic := d.Sig.(patch.GenericSig)
	b.Bool(generic).Int32(d.DeclaringType).String(d.Name)
	if !generic {
		return b.Int32s(d.Params())
	}
	b.Int32s(sig.GenericArgs)
	b.Int32(int32(len(sig.Params)))
	for _, p := range sig.Params {
		b.Bool(p.IsPlaceholder)
		if p.IsPlaceholder {
			b.String(p.Placeholder)
		} else {
			b.Int32(p.TypeID)
		}
	}
	return b
}

func (b *Builder) Field(f patch.Field) *Builder {
	b.Bool(f.IsNew).Int32(f.DeclaringType).String(f.Name)
	if f.IsNew {
		b.Int32(f.Reserved[0]).Int32(f.Reserved[1])
	}
	return b
}

func (b *Builder) Storey(s patch.AnonymousStorey) *Builder {
	return b.Int32s(s.FieldTypes).
		Int32(s.CtorID).
		Int32(s.CtorParamCount).
		Int32s(s.Interfaces).
		Int32s(s.VTable)
}

// Encode writes c in section order.
func Encode(c *patch.Container) []byte {
	b := &Builder{}
	b.Uint64(c.Magic).String(c.BridgeName)
	b.Strings(c.ExternTypes)

	b.Int32(int32(len(c.Methods)))
	for _, m := range c.Methods {
		b.Method(m)
	}
	b.Int32(int32(len(c.ExternMethods)))
	for _, m := range c.ExternMethods {
		b.Descriptor(m)
	}
	b.Strings(c.InternStrings)
	b.Int32(int32(len(c.Fields)))
	for _, f := range c.Fields {
		b.Field(f)
	}
	b.Int32(int32(len(c.StaticFields)))
	for _, s := range c.StaticFields {
		b.Int32(s.TypeID).Int32(s.CctorID)
	}
	b.Int32(int32(len(c.AnonymousStoreys)))
	for _, s := range c.AnonymousStoreys {
		b.Storey(s)
	}

	b.String(c.WrappersManagerName).String(c.AssemblyString)

	b.Int32(int32(len(c.FixInfos)))
	for _, f := range c.FixInfos {
		b.Descriptor(f.MethodDescriptor).Int32(f.PatchID)
	}
	b.Strings(c.NewClasses)
	return b.Bytes()
}

// Sample returns a small container touching every table and both
// descriptor shapes.
func Sample() *patch.Container {
	return &patch.Container{
		Magic:      0x4946495850415443,
		BridgeName: "IFix.ILFixInterfaceBridge",
		ExternTypes: []string{
			"System.Void, mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089",
			"System.Int32, mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089",
			"System.String, mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089",
			"Game.Player, Assembly-CSharp, Version=0.0.0.0, Culture=neutral, PublicKeyToken=null",
			"System.Collections.Generic.List`1[[System.Int32, mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089]], mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089",
			"System.Exception, mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089",
		},
		Methods: []patch.Method{
			{
				Instructions: []patch.Slot{
					{Code: 146, Operand: 2<<16 | 3}, // StackSpace
					{Code: 164, Operand: 0},         // Ldarg V_0
					{Code: 167, Operand: 0},         // Ldfld Player::hp
					{Code: 141, Operand: 10},        // Ldc_I4 10
					{Code: 80, Operand: 0},          // Add
					{Code: 103, Operand: 0},         // Ret
				},
			},
			{
				Instructions: []patch.Slot{
					{Code: 39, Operand: 0},         // Ldstr
					{Code: 97, Operand: 1<<16 | 1}, // Call Player::Log, 1 arg
					{Code: 93, Operand: 2},         // Br -> IL_0004
					{Code: 87, Operand: 0},         // Throw
					{Code: 103, Operand: 0},        // Ret
				},
				Handlers: []patch.ExceptionHandler{
					{ClauseFlag: 0, CatchType: 5, TryStart: 0, TryEnd: 2, HandlerStart: 3, HandlerEnd: 4},
				},
			},
		},
		ExternMethods: []patch.MethodDescriptor{
			{DeclaringType: 3, Name: "get_Hp", Sig: patch.NonGenericSig{}},
			{DeclaringType: 3, Name: "Log", Sig: patch.NonGenericSig{Params: []int32{2}}},
			{
				DeclaringType: 4,
				Name:          "Add",
				Sig: patch.GenericSig{
					GenericArgs: []int32{1},
					Params: []patch.GenericParam{
						{IsPlaceholder: true, Placeholder: "T"},
						{TypeID: 1},
					},
				},
			},
		},
		InternStrings: []string{"hello patch"},
		Fields: []patch.Field{
			{DeclaringType: 3, Name: "hp"},
			{DeclaringType: 3, Name: "shield", IsNew: true, Reserved: [2]int32{7, -1}},
		},
		StaticFields: []patch.StaticFieldBinding{{TypeID: 3, CctorID: 0}},
		AnonymousStoreys: []patch.AnonymousStorey{
			{FieldTypes: []int32{1, 2}, CtorID: 1, CtorParamCount: 0, Interfaces: []int32{4}, VTable: []int32{0, 1}},
		},
		WrappersManagerName: "IFix.WrappersManagerImpl",
		AssemblyString:      "Assembly-CSharp, Version=0.0.0.0, Culture=neutral, PublicKeyToken=null",
		FixInfos: []patch.FixInfo{
			{MethodDescriptor: patch.MethodDescriptor{DeclaringType: 3, Name: "Heal", Sig: patch.NonGenericSig{Params: []int32{1}}}, PatchID: 0},
			{MethodDescriptor: patch.MethodDescriptor{DeclaringType: 3, Name: "Greet", Sig: patch.GenericSig{GenericArgs: []int32{2}}}, PatchID: 1},
		},
		NewClasses: []string{"Game.PlayerExt"},
	}
}
