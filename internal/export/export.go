// Package export converts a decoded container into a JSON document with
// names resolved and method bodies disassembled.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/invopop/jsonschema"

	"ilpatch/internal/disasm"
	"ilpatch/internal/opcodes"
	"ilpatch/internal/patch"
	"ilpatch/internal/resolve"
)

// Document is the exported form of a container.
type Document struct {
	Magic           string      `json:"magic" jsonschema:"title=Magic,description=Container magic as 0x-prefixed hex"`
	BridgeName      string      `json:"bridge_name"`
	WrappersManager string      `json:"wrappers_manager"`
	Assembly        string      `json:"assembly"`
	Sizes           patch.Sizes `json:"sizes"`
	TrailingBytes   int         `json:"trailing_bytes,omitempty" jsonschema:"description=Bytes left after the last section"`

	ExternTypes      []Type        `json:"extern_types"`
	ExternMethods    []Descriptor  `json:"extern_methods"`
	InternStrings    []string      `json:"intern_strings"`
	Fields           []Field       `json:"fields"`
	StaticFields     []StaticField `json:"static_fields"`
	AnonymousStoreys []Storey      `json:"anonymous_storeys"`
	FixInfos         []Fix         `json:"fix_infos"`
	NewClasses       []string      `json:"new_classes"`
	Methods          []Method      `json:"methods"`
}

type Type struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Qualified string `json:"qualified"`
}

// Param is a type id or, in generic descriptors, an open placeholder.
type Param struct {
	TypeID      *int32 `json:"type_id,omitempty"`
	Type        string `json:"type,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

type Descriptor struct {
	ID          int      `json:"id"`
	TypeID      int32    `json:"type_id"`
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Generic     bool     `json:"generic"`
	GenericArgs []string `json:"generic_args,omitempty"`
	Params      []Param  `json:"params"`
}

type Field struct {
	ID       int       `json:"id"`
	TypeID   int32     `json:"type_id"`
	Type     string    `json:"type"`
	Name     string    `json:"name"`
	IsNew    bool      `json:"is_new"`
	Reserved *[2]int32 `json:"reserved,omitempty"`
}

type StaticField struct {
	TypeID  int32  `json:"type_id"`
	Type    string `json:"type"`
	CctorID int32  `json:"cctor_id"`
}

type Storey struct {
	ID             int      `json:"id"`
	FieldTypes     []string `json:"field_types"`
	CtorID         int32    `json:"ctor_id"`
	CtorParamCount int32    `json:"ctor_param_count"`
	Interfaces     []string `json:"interfaces"`
	VTable         []int32  `json:"vtable"`
}

type Fix struct {
	Descriptor
	PatchID int32 `json:"patch_id"`
}

type Instruction struct {
	Offset   int    `json:"offset"`
	Extra    int    `json:"extra,omitempty"`
	Code     int32  `json:"code"`
	Operand  int32  `json:"operand"`
	Mnemonic string `json:"mnemonic,omitempty"`
	Text     string `json:"text,omitempty"`
	Targets  []int  `json:"targets,omitempty"`
	Unknown  bool   `json:"unknown,omitempty"`
}

type Handler struct {
	ClauseFlag   int32  `json:"clause_flag"`
	CatchTypeID  int32  `json:"catch_type_id"`
	CatchType    string `json:"catch_type"`
	TryStart     int32  `json:"try_start"`
	TryEnd       int32  `json:"try_end"`
	HandlerStart int32  `json:"handler_start"`
	HandlerEnd   int32  `json:"handler_end"`
}

type Method struct {
	ID           int           `json:"id"`
	Patches      string        `json:"patches,omitempty"`
	Instructions []Instruction `json:"instructions"`
	Handlers     []Handler     `json:"handlers,omitempty"`
}

// Build converts c. Names are resolved without styling; raw keeps
// assembly names on types.
func Build(c *patch.Container, table *opcodes.Table, raw bool) *Document {
	names := resolve.New(c, resolve.Options{Raw: raw})
	dis := disasm.New(table, names, disasm.Options{Raw: raw})

	doc := &Document{
		Magic:            fmt.Sprintf("0x%X", c.Magic),
		BridgeName:       c.BridgeName,
		WrappersManager:  c.WrappersManagerName,
		Assembly:         c.AssemblyString,
		Sizes:            c.Sizes(),
		TrailingBytes:    c.Trailing,
		ExternTypes:      make([]Type, len(c.ExternTypes)),
		ExternMethods:    make([]Descriptor, len(c.ExternMethods)),
		InternStrings:    append([]string{}, c.InternStrings...),
		Fields:           make([]Field, len(c.Fields)),
		StaticFields:     make([]StaticField, len(c.StaticFields)),
		AnonymousStoreys: make([]Storey, len(c.AnonymousStoreys)),
		FixInfos:         make([]Fix, len(c.FixInfos)),
		NewClasses:       append([]string{}, c.NewClasses...),
		Methods:          make([]Method, len(c.Methods)),
	}

	for i, name := range c.ExternTypes {
		doc.ExternTypes[i] = Type{ID: i, Name: names.TypeName(int32(i)), Qualified: name}
	}
	for i, m := range c.ExternMethods {
		doc.ExternMethods[i] = descriptor(names, i, m)
	}
	for i, f := range c.Fields {
		out := Field{ID: i, TypeID: f.DeclaringType, Type: names.TypeName(f.DeclaringType), Name: f.Name, IsNew: f.IsNew}
		if f.IsNew {
			reserved := f.Reserved
			out.Reserved = &reserved
		}
		doc.Fields[i] = out
	}
	for i, sf := range c.StaticFields {
		doc.StaticFields[i] = StaticField{TypeID: sf.TypeID, Type: names.TypeName(sf.TypeID), CctorID: sf.CctorID}
	}
	for i, s := range c.AnonymousStoreys {
		doc.AnonymousStoreys[i] = Storey{
			ID:             i,
			FieldTypes:     typeNames(names, s.FieldTypes),
			CtorID:         s.CtorID,
			CtorParamCount: s.CtorParamCount,
			Interfaces:     typeNames(names, s.Interfaces),
			VTable:         append([]int32{}, s.VTable...),
		}
	}
	for i, f := range c.FixInfos {
		doc.FixInfos[i] = Fix{Descriptor: descriptor(names, i, f.MethodDescriptor), PatchID: f.PatchID}
	}
	for i, m := range c.Methods {
		doc.Methods[i] = method(names, dis.Method(i, m))
	}
	return doc
}

func typeNames(names *resolve.Resolver, ids []int32) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = names.TypeName(id)
	}
	return out
}

func descriptor(names *resolve.Resolver, id int, d patch.MethodDescriptor) Descriptor {
	out := Descriptor{
		ID:      id,
		TypeID:  d.DeclaringType,
		Type:    names.TypeName(d.DeclaringType),
		Name:    d.Name,
		Generic: d.IsGeneric(),
		Params:  []Param{},
	}
	switch sig := d.Sig.(type) {
	case patch.GenericSig:
		out.GenericArgs = typeNames(names, sig.GenericArgs)
		for _, p := range sig.Params {
			if p.IsPlaceholder {
				out.Params = append(out.Params, Param{Placeholder: p.Placeholder})
				continue
			}
			typeID := p.TypeID
			out.Params = append(out.Params, Param{TypeID: &typeID, Type: names.TypeName(typeID)})
		}
	case patch.NonGenericSig:
		for _, id := range sig.Params {
			typeID := id
			out.Params = append(out.Params, Param{TypeID: &typeID, Type: names.TypeName(typeID)})
		}
	}
	return out
}

func method(names *resolve.Resolver, l disasm.Listing) Method {
	out := Method{ID: l.ID, Patches: l.Target, Instructions: make([]Instruction, len(l.Lines))}
	for i, line := range l.Lines {
		inst := Instruction{
			Offset:  line.Index,
			Extra:   line.Extra,
			Code:    line.Code,
			Operand: line.Operand,
			Text:    line.Text,
			Targets: line.Targets,
			Unknown: line.Unknown,
		}
		if !line.Unknown {
			inst.Mnemonic = line.Op.Mnemonic()
		}
		out.Instructions[i] = inst
	}
	for _, h := range l.Handlers {
		out.Handlers = append(out.Handlers, Handler{
			ClauseFlag:   h.ClauseFlag,
			CatchTypeID:  h.CatchType,
			CatchType:    names.TypeName(h.CatchType),
			TryStart:     h.TryStart,
			TryEnd:       h.TryEnd,
			HandlerStart: h.HandlerStart,
			HandlerEnd:   h.HandlerEnd,
		})
	}
	return out
}

// Write encodes doc as indented JSON.
func Write(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// Schema returns the JSON Schema of Document.
func Schema() ([]byte, error) {
	reflector := new(jsonschema.Reflector)
	bts, err := json.MarshalIndent(reflector.Reflect(&Document{}), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return bts, nil
}
