// Package patch decodes hot-patch containers: a fixed sequence of
// count-prefixed tables describing extern symbols, patched method bodies
// and the fix records that link them to the methods they replace.
package patch

// Slot is one 8-byte instruction unit: an opcode (or raw payload for
// multi-slot operands) followed by its operand.
type Slot struct {
	Code    int32
	Operand int32
}

// ExceptionHandler is a protected region of a method body. The four range
// fields are instruction-slot indices, not byte offsets.
type ExceptionHandler struct {
	ClauseFlag   int32 // read but never interpreted
	CatchType    int32
	TryStart     int32
	TryEnd       int32
	HandlerStart int32
	HandlerEnd   int32
}

// Method is one patch method body.
type Method struct {
	Instructions []Slot
	Handlers     []ExceptionHandler
}

// Signature is the parameter shape of a method descriptor. It is either
// NonGenericSig or GenericSig, chosen by the generic flag stored in front
// of each descriptor.
type Signature interface {
	// ParamTypeIDs returns the parameter type ids. Open generic
	// placeholders contribute no id.
	ParamTypeIDs() []int32
	// GenericArgIDs returns the generic argument type ids.
	GenericArgIDs() []int32

	isSignature()
}

// NonGenericSig is a plain list of parameter type ids.
type NonGenericSig struct {
	Params []int32
}

func (s NonGenericSig) ParamTypeIDs() []int32  { return s.Params }
func (s NonGenericSig) GenericArgIDs() []int32 { return nil }
func (NonGenericSig) isSignature()             {}

// GenericParam is a parameter of a generic method: either a type id or an
// inline placeholder naming an open generic parameter.
type GenericParam struct {
	IsPlaceholder bool
	Placeholder   string
	TypeID        int32
}

// GenericSig carries generic argument ids and tagged parameters.
type GenericSig struct {
	GenericArgs []int32
	Params      []GenericParam
}

func (s GenericSig) ParamTypeIDs() []int32 {
	ids := make([]int32, 0, len(s.Params))
	for _, p := range s.Params {
		if !p.IsPlaceholder {
			ids = append(ids, p.TypeID)
		}
	}
	return ids
}

func (s GenericSig) GenericArgIDs() []int32 { return s.GenericArgs }
func (GenericSig) isSignature()             {}

// MethodDescriptor names a method on an extern type.
type MethodDescriptor struct {
	DeclaringType int32
	Name          string
	Sig           Signature
}

// IsGeneric reports whether the descriptor was stored in its generic shape.
func (d MethodDescriptor) IsGeneric() bool {
	_, ok := d.Sig.(GenericSig)
	return ok
}

// Params returns the parameter type ids of the descriptor.
func (d MethodDescriptor) Params() []int32 {
	if d.Sig == nil {
		return nil
	}
	return d.Sig.ParamTypeIDs()
}

// GenericArgs returns the generic argument ids of the descriptor.
func (d MethodDescriptor) GenericArgs() []int32 {
	if d.Sig == nil {
		return nil
	}
	return d.Sig.GenericArgIDs()
}

// Field is a field reference. New fields carry two reserved slots that
// are kept verbatim.
type Field struct {
	DeclaringType int32
	Name          string
	IsNew         bool
	Reserved      [2]int32
}

// StaticFieldBinding ties a type to its static constructor.
type StaticFieldBinding struct {
	TypeID  int32
	CctorID int32
}

// AnonymousStorey describes a compiler-generated closure class.
type AnonymousStorey struct {
	FieldTypes     []int32
	CtorID         int32
	CtorParamCount int32
	Interfaces     []int32
	VTable         []int32
}

// FixInfo links a patch method body to the extern method it replaces.
type FixInfo struct {
	MethodDescriptor
	PatchID int32
}

// Container is a fully decoded patch file.
type Container struct {
	Magic               uint64
	BridgeName          string
	ExternTypes         []string
	Methods             []Method
	ExternMethods       []MethodDescriptor
	InternStrings       []string
	Fields              []Field
	StaticFields        []StaticFieldBinding
	AnonymousStoreys    []AnonymousStorey
	WrappersManagerName string
	AssemblyString      string
	FixInfos            []FixInfo
	NewClasses          []string

	// Trailing is the number of bytes left after the last section.
	Trailing int
}

// Sizes holds the element count of every table.
type Sizes struct {
	ExternTypes      int `json:"extern_types"`
	Methods          int `json:"methods"`
	ExternMethods    int `json:"extern_methods"`
	InternStrings    int `json:"intern_strings"`
	Fields           int `json:"fields"`
	StaticFields     int `json:"static_fields"`
	AnonymousStoreys int `json:"anonymous_storeys"`
	FixInfos         int `json:"fix_infos"`
	NewClasses       int `json:"new_classes"`
}

// Sizes returns the table sizes of c.
func (c *Container) Sizes() Sizes {
	return Sizes{
		ExternTypes:      len(c.ExternTypes),
		Methods:          len(c.Methods),
		ExternMethods:    len(c.ExternMethods),
		InternStrings:    len(c.InternStrings),
		Fields:           len(c.Fields),
		StaticFields:     len(c.StaticFields),
		AnonymousStoreys: len(c.AnonymousStoreys),
		FixInfos:         len(c.FixInfos),
		NewClasses:       len(c.NewClasses),
	}
}

// FixesFor returns the fix records whose patch id is method.
func (c *Container) FixesFor(method int) []FixInfo {
	var out []FixInfo
	for _, f := range c.FixInfos {
		if int(f.PatchID) == method {
			out = append(out, f)
		}
	}
	return out
}
