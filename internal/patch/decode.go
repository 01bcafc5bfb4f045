package patch

import (
	"fmt"
	"log/slog"
)

// DecodeError reports where in the container a structural read failed.
type DecodeError struct {
	Section string
	Index   int // record index within Section, -1 for a header field
	Offset  int
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("patch: %s at offset %d: %v", e.Section, e.Offset, e.Err)
	}
	return fmt.Sprintf("patch: %s[%d] at offset %d: %v", e.Section, e.Index, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Parse decodes a complete container. Counts are trusted as stored and
// table indices are not checked against their targets; the only failure
// is running out of input, in which case no container is returned.
func Parse(data []byte) (*Container, error) {
	d := &decoder{r: NewReader(data), index: -1}
	c, err := d.container()
	if err != nil {
		return nil, &DecodeError{Section: d.section, Index: d.index, Offset: d.r.Offset(), Err: err}
	}
	c.Trailing = d.r.Remaining()
	if c.Trailing > 0 {
		slog.Debug("Trailing bytes after last section", "count", c.Trailing)
	}
	return c, nil
}

type decoder struct {
	r       *Reader
	section string
	index   int
}

func (d *decoder) enter(section string) {
	d.section = section
	d.index = -1
}

func (d *decoder) done(count int) {
	slog.Debug("Decoded section", "section", d.section, "count", count, "offset", d.r.Offset())
}

// count reads a table length. Negative lengths describe empty tables.
func (d *decoder) count() (int, error) {
	n, err := d.r.ReadInt32()
	if err != nil || n < 0 {
		return 0, err
	}
	return int(n), nil
}

// capacity bounds a preallocation by what the remaining input could hold.
func (d *decoder) capacity(n, minSize int) int {
	if limit := d.r.Remaining() / minSize; n > limit {
		return limit
	}
	return n
}

func (d *decoder) int32s() ([]int32, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	ids := make([]int32, 0, d.capacity(n, 4))
	for i := 0; i < n; i++ {
		v, err := d.r.ReadInt32()
		if err != nil {
			return nil, err
		}
		ids = append(ids, v)
	}
	return ids, nil
}

func (d *decoder) strings() ([]string, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, d.capacity(n, 1))
	for d.index = 0; d.index < n; d.index++ {
		s, err := d.r.ReadString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	d.done(len(out))
	return out, nil
}

func (d *decoder) container() (*Container, error) {
	c := &Container{}
	var err error

	d.enter("magic")
	if c.Magic, err = d.r.ReadUint64(); err != nil {
		return nil, err
	}
	d.enter("bridge name")
	if c.BridgeName, err = d.r.ReadString(); err != nil {
		return nil, err
	}

	d.enter("extern types")
	if c.ExternTypes, err = d.strings(); err != nil {
		return nil, err
	}
	d.enter("methods")
	if c.Methods, err = d.methods(); err != nil {
		return nil, err
	}
	d.enter("extern methods")
	if c.ExternMethods, err = d.externMethods(); err != nil {
		return nil, err
	}
	d.enter("intern strings")
	if c.InternStrings, err = d.strings(); err != nil {
		return nil, err
	}
	d.enter("fields")
	if c.Fields, err = d.fields(); err != nil {
		return nil, err
	}
	d.enter("static fields")
	if c.StaticFields, err = d.staticFields(); err != nil {
		return nil, err
	}
	d.enter("anonymous storeys")
	if c.AnonymousStoreys, err = d.anonymousStoreys(); err != nil {
		return nil, err
	}

	d.enter("wrappers manager name")
	if c.WrappersManagerName, err = d.r.ReadString(); err != nil {
		return nil, err
	}
	d.enter("assembly string")
	if c.AssemblyString, err = d.r.ReadString(); err != nil {
		return nil, err
	}

	d.enter("fix infos")
	if c.FixInfos, err = d.fixInfos(); err != nil {
		return nil, err
	}
	d.enter("new classes")
	if c.NewClasses, err = d.strings(); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *decoder) methods() ([]Method, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	out := make([]Method, 0, d.capacity(n, 8))
	for d.index = 0; d.index < n; d.index++ {
		slotCount, err := d.r.ReadInt32()
		if err != nil {
			return nil, err
		}
		insts, err := d.r.ReadInstructionSlots(int(slotCount))
		if err != nil {
			return nil, err
		}
		handlerCount, err := d.count()
		if err != nil {
			return nil, err
		}
		handlers := make([]ExceptionHandler, 0, d.capacity(handlerCount, 24))
		for j := 0; j < handlerCount; j++ {
			var v [6]int32
			for k := range v {
				if v[k], err = d.r.ReadInt32(); err != nil {
					return nil, err
				}
			}
			handlers = append(handlers, ExceptionHandler{
				ClauseFlag:   v[0],
				CatchType:    v[1],
				TryStart:     v[2],
				TryEnd:       v[3],
				HandlerStart: v[4],
				HandlerEnd:   v[5],
			})
		}
		out = append(out, Method{Instructions: insts, Handlers: handlers})
	}
	d.done(len(out))
	return out, nil
}

// descriptor reads the dual-shape method descriptor shared by extern
// methods and fix infos. The generic flag selects the signature variant
// before anything past the name is read.
func (d *decoder) descriptor() (MethodDescriptor, error) {
	var md MethodDescriptor
	generic, err := d.r.ReadBool()
	if err != nil {
		return md, err
	}
	if md.DeclaringType, err = d.r.ReadInt32(); err != nil {
		return md, err
	}
	if md.Name, err = d.r.ReadString(); err != nil {
		return md, err
	}

	if !generic {
		params, err := d.int32s()
		if err != nil {
			return md, err
		}
		md.Sig = NonGenericSig{Params: params}
		return md, nil
	}

	var sig GenericSig
	if sig.GenericArgs, err = d.int32s(); err != nil {
		return md, err
	}
	n, err := d.count()
	if err != nil {
		return md, err
	}
	sig.Params = make([]GenericParam, 0, d.capacity(n, 2))
	for i := 0; i < n; i++ {
		placeholder, err := d.r.ReadBool()
		if err != nil {
			return md, err
		}
		p := GenericParam{IsPlaceholder: placeholder}
		if placeholder {
			p.Placeholder, err = d.r.ReadString()
		} else {
			p.TypeID, err = d.r.ReadInt32()
		}
		if err != nil {
			return md, err
		}
		sig.Params = append(sig.Params, p)
	}
	md.Sig = sig
	return md, nil
}

func (d *decoder) externMethods() ([]MethodDescriptor, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	out := make([]MethodDescriptor, 0, d.capacity(n, 10))
	for d.index = 0; d.index < n; d.index++ {
		md, err := d.descriptor()
		if err != nil {
			return nil, err
		}
		out = append(out, md)
	}
	d.done(len(out))
	return out, nil
}

func (d *decoder) fields() ([]Field, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	out := make([]Field, 0, d.capacity(n, 6))
	for d.index = 0; d.index < n; d.index++ {
		var f Field
		if f.IsNew, err = d.r.ReadBool(); err != nil {
			return nil, err
		}
		if f.DeclaringType, err = d.r.ReadInt32(); err != nil {
			return nil, err
		}
		if f.Name, err = d.r.ReadString(); err != nil {
			return nil, err
		}
		if f.IsNew {
			for k := range f.Reserved {
				if f.Reserved[k], err = d.r.ReadInt32(); err != nil {
					return nil, err
				}
			}
		}
		out = append(out, f)
	}
	d.done(len(out))
	return out, nil
}

func (d *decoder) staticFields() ([]StaticFieldBinding, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	out := make([]StaticFieldBinding, 0, d.capacity(n, 8))
	for d.index = 0; d.index < n; d.index++ {
		var b StaticFieldBinding
		if b.TypeID, err = d.r.ReadInt32(); err != nil {
			return nil, err
		}
		if b.CctorID, err = d.r.ReadInt32(); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	d.done(len(out))
	return out, nil
}

func (d *decoder) anonymousStoreys() ([]AnonymousStorey, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	out := make([]AnonymousStorey, 0, d.capacity(n, 20))
	for d.index = 0; d.index < n; d.index++ {
		var s AnonymousStorey
		if s.FieldTypes, err = d.int32s(); err != nil {
			return nil, err
		}
		if s.CtorID, err = d.r.ReadInt32(); err != nil {
			return nil, err
		}
		if s.CtorParamCount, err = d.r.ReadInt32(); err != nil {
			return nil, err
		}
		if s.Interfaces, err = d.int32s(); err != nil {
			return nil, err
		}
		if s.VTable, err = d.int32s(); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	d.done(len(out))
	return out, nil
}

func (d *decoder) fixInfos() ([]FixInfo, error) {
	n, err := d.count()
	if err != nil {
		return nil, err
	}
	out := make([]FixInfo, 0, d.capacity(n, 14))
	for d.index = 0; d.index < n; d.index++ {
		md, err := d.descriptor()
		if err != nil {
			return nil, err
		}
		fix := FixInfo{MethodDescriptor: md}
		if fix.PatchID, err = d.r.ReadInt32(); err != nil {
			return nil, err
		}
		out = append(out, fix)
	}
	d.done(len(out))
	return out, nil
}
