// Package resolve turns table indices found in a patch container into
// display names. Out-of-range indices never fail; they render as
// placeholders.
package resolve

import (
	"fmt"
	"regexp"
	"strings"

	"ilpatch/internal/patch"
	"ilpatch/internal/ui/colorize"
)

var qualifiers = []*regexp.Regexp{
	regexp.MustCompile(`, Version=[\d.]+`),
	regexp.MustCompile(`, Culture=[\w-]+`),
	regexp.MustCompile(`, PublicKeyToken=\w+`),
}

// Normalize shortens an assembly-qualified type name. Version, culture and
// public key token qualifiers are always removed. Unless raw is set the
// assembly name is dropped too: for plain names everything after the first
// comma, for generic names anything after the closing bracket of the
// argument list.
func Normalize(name string, raw bool) string {
	for {
		stripped := name
		for _, re := range qualifiers {
			stripped = re.ReplaceAllString(stripped, "")
		}
		if stripped == name {
			break
		}
		name = stripped
	}
	if raw {
		return name
	}

	if !strings.Contains(name, "[") {
		head, _, _ := strings.Cut(name, ",")
		return strings.TrimSpace(head)
	}
	if last := strings.LastIndex(name, "]"); last >= 0 && strings.Contains(name[last+1:], ",") {
		return name[:last+1]
	}
	return name
}

// Options controls how names are rendered.
type Options struct {
	// Raw keeps assembly names on types.
	Raw     bool
	Palette colorize.Palette
}

// Resolver renders references into one container.
type Resolver struct {
	c    *patch.Container
	opts Options
}

// New returns a resolver over c.
func New(c *patch.Container, opts Options) *Resolver {
	return &Resolver{c: c, opts: opts}
}

// Container returns the container names are resolved against.
func (r *Resolver) Container() *patch.Container { return r.c }

// Raw reports whether qualified names are kept.
func (r *Resolver) Raw() bool { return r.opts.Raw }

// Palette returns the styles used for resolved names.
func (r *Resolver) Palette() colorize.Palette { return r.opts.Palette }

// TypeName returns the display name of extern type id.
func (r *Resolver) TypeName(id int32) string {
	if id < 0 || int(id) >= len(r.c.ExternTypes) {
		return fmt.Sprintf("UnknownType(%d)", id)
	}
	return r.opts.Palette.Type(Normalize(r.c.ExternTypes[id], r.opts.Raw))
}

// TypeList joins the display names of ids with ", ".
func (r *Resolver) TypeList(ids []int32) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = r.TypeName(id)
	}
	return strings.Join(names, ", ")
}

// Descriptor renders a method descriptor as Type::name<args>.
func (r *Resolver) Descriptor(d patch.MethodDescriptor) string {
	s := r.TypeName(d.DeclaringType) + "::" + r.opts.Palette.Member(d.Name)
	if args := d.GenericArgs(); len(args) > 0 {
		names := make([]string, len(args))
		for i, id := range args {
			names[i] = r.TypeName(id)
		}
		s += "<" + strings.Join(names, ",") + ">"
	}
	return s
}

// MethodRef renders extern method id. argCount is only shown by the
// placeholder of an unknown method.
func (r *Resolver) MethodRef(id, argCount int32) string {
	if id < 0 || int(id) >= len(r.c.ExternMethods) {
		return fmt.Sprintf("method_%d (args=%d)", id, argCount)
	}
	return r.Descriptor(r.c.ExternMethods[id])
}

// FieldRef renders field id as Type::name.
func (r *Resolver) FieldRef(id int32) string {
	if id < 0 || int(id) >= len(r.c.Fields) {
		return fmt.Sprintf("field_%d", id)
	}
	f := r.c.Fields[id]
	return r.TypeName(f.DeclaringType) + "::" + r.opts.Palette.Member(f.Name)
}

// StringLiteral renders intern string id in double quotes. The text is
// not escaped.
func (r *Resolver) StringLiteral(id int32) string {
	s := fmt.Sprintf("str_%d", id)
	if id >= 0 && int(id) < len(r.c.InternStrings) {
		s = r.c.InternStrings[id]
	}
	return `"` + r.opts.Palette.Literal(s) + `"`
}

// PatchTarget names the method replaced by patch method index, from the
// first fix record pointing at it.
func (r *Resolver) PatchTarget(method int) (string, bool) {
	fixes := r.c.FixesFor(method)
	if len(fixes) == 0 {
		return "", false
	}
	f := fixes[0]
	return r.TypeName(f.DeclaringType) + "::" + r.opts.Palette.Member(f.Name), true
}
