// Package render prints the human-readable views of a patch container:
// a summary, the metadata tables and the disassembly listing.
package render

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"

	"ilpatch/internal/disasm"
	"ilpatch/internal/ilpatch/styles"
	"ilpatch/internal/opcodes"
	"ilpatch/internal/patch"
	"ilpatch/internal/resolve"
	"ilpatch/internal/ui/colorize"
)

// Config is passed to every view.
type Config struct {
	Raw     bool
	Palette colorize.Palette
	// Width bounds tables and markdown wrapping. Zero leaves tables
	// unbounded and wraps markdown at 80 columns.
	Width int
}

// Renderer writes views of one container.
type Renderer struct {
	c     *patch.Container
	names *resolve.Resolver
	dis   *disasm.Disassembler
	cfg   Config
}

// New returns a renderer over c decoding bodies with table.
func New(c *patch.Container, table *opcodes.Table, cfg Config) *Renderer {
	names := resolve.New(c, resolve.Options{Raw: cfg.Raw, Palette: cfg.Palette})
	return &Renderer{
		c:     c,
		names: names,
		dis:   disasm.New(table, names, disasm.Options{Raw: cfg.Raw}),
		cfg:   cfg,
	}
}

func (r *Renderer) Resolver() *resolve.Resolver        { return r.names }
func (r *Renderer) Disassembler() *disasm.Disassembler { return r.dis }

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

func (p *printer) section(pal colorize.Palette, title string) {
	p.printf("%s\n", pal.Header(" "+title+" "))
}

// Summary writes the header fields and table sizes.
func (r *Renderer) Summary(w io.Writer) error {
	c, pal := r.c, r.cfg.Palette
	p := &printer{w: w}

	p.section(pal, "IFix Patch Summary")
	p.printf("Magic:      0x%X\n", c.Magic)
	p.printf("Bridge:     %s\n", c.BridgeName)
	p.printf("Wrappers:   %s\n", c.WrappersManagerName)
	p.printf("Counts:     %d Types, %d Methods, %d Fixes\n", len(c.ExternTypes), len(c.ExternMethods), len(c.FixInfos))
	p.printf("Bodies:     %d Methods, %d Strings, %d Fields, %d Static Fields, %d Storeys, %d New Classes\n",
		len(c.Methods), len(c.InternStrings), len(c.Fields), len(c.StaticFields), len(c.AnonymousStoreys), len(c.NewClasses))
	if c.Trailing > 0 {
		p.printf("Trailing:   %d bytes\n", c.Trailing)
	}
	p.printf("\n")
	return p.err
}

// SummaryMarkdown returns the summary as a markdown document.
func (r *Renderer) SummaryMarkdown() string {
	c := r.c
	s := c.Sizes()
	var sb strings.Builder

	sb.WriteString("# IFix Patch\n\n")
	sb.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Magic | `0x%X` |\n", c.Magic)
	fmt.Fprintf(&sb, "| Bridge | `%s` |\n", c.BridgeName)
	fmt.Fprintf(&sb, "| Wrappers | `%s` |\n", c.WrappersManagerName)
	fmt.Fprintf(&sb, "| Assembly | `%s` |\n", resolve.Normalize(c.AssemblyString, r.cfg.Raw))
	if c.Trailing > 0 {
		fmt.Fprintf(&sb, "| Trailing bytes | %d |\n", c.Trailing)
	}

	sb.WriteString("\n## Tables\n\n| Table | Count |\n|---|---:|\n")
	for _, row := range []struct {
		name  string
		count int
	}{
		{"Extern types", s.ExternTypes},
		{"Methods", s.Methods},
		{"Extern methods", s.ExternMethods},
		{"Intern strings", s.InternStrings},
		{"Fields", s.Fields},
		{"Static fields", s.StaticFields},
		{"Anonymous storeys", s.AnonymousStoreys},
		{"Fix infos", s.FixInfos},
		{"New classes", s.NewClasses},
	} {
		fmt.Fprintf(&sb, "| %s | %d |\n", row.name, row.count)
	}
	return sb.String()
}

// SummaryTerminal renders the markdown summary with glamour.
func (r *Renderer) SummaryTerminal(w io.Writer) error {
	width := r.cfg.Width
	if width <= 0 {
		width = 80
	}
	tr, err := styles.MarkdownRenderer(width - 2)
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := tr.Render(r.SummaryMarkdown())
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func (r *Renderer) table(headers []string, rows [][]string) string {
	bold := r.cfg.Palette.Enabled()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow && bold {
				s = s.Bold(true)
			}
			return s
		})
	if r.cfg.Width > 0 {
		t = t.Width(r.cfg.Width - 2)
	}
	// The table pads cells with U+00A0.
	return indent(strings.ReplaceAll(t.String(), "\u00a0", " "), "  ") + "\n"
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// Tables writes every table of the container as a numbered section.
func (r *Renderer) Tables(w io.Writer) error {
	c, n, pal := r.c, r.names, r.cfg.Palette
	p := &printer{w: w}

	p.section(pal, "[1] Header Info")
	p.printf("Magic:      0x%X\n", c.Magic)
	p.printf("Bridge:     %s\n", c.BridgeName)
	p.printf("Wrappers:   %s\n", c.WrappersManagerName)
	p.printf("Assembly:   %s\n\n", c.AssemblyString)

	p.section(pal, fmt.Sprintf("[2] Extern Types (%d)", len(c.ExternTypes)))
	for i := range c.ExternTypes {
		p.printf("  %d: %s\n", i, n.TypeName(int32(i)))
	}
	p.printf("\n")

	p.section(pal, fmt.Sprintf("[3] Extern Methods (%d)", len(c.ExternMethods)))
	rows := make([][]string, 0, len(c.ExternMethods))
	for i, m := range c.ExternMethods {
		rows = append(rows, []string{
			strconv.Itoa(i), n.TypeName(m.DeclaringType), m.Name, n.TypeList(m.Params()), n.TypeList(m.GenericArgs()),
		})
	}
	p.printf("%s\n", r.table([]string{"ID", "Type", "Method", "Params", "Generic"}, rows))

	p.section(pal, fmt.Sprintf("[4] Intern Strings (%d)", len(c.InternStrings)))
	for i := range c.InternStrings {
		p.printf("  %d: %s\n", i, n.StringLiteral(int32(i)))
	}
	p.printf("\n")

	p.section(pal, fmt.Sprintf("[5] Fields (%d)", len(c.Fields)))
	headers := []string{"ID", "Type", "Name", "New?"}
	if r.cfg.Raw {
		headers = append(headers, "Reserved")
	}
	rows = make([][]string, 0, len(c.Fields))
	for i, f := range c.Fields {
		row := []string{strconv.Itoa(i), n.TypeName(f.DeclaringType), f.Name, strconv.FormatBool(f.IsNew)}
		if r.cfg.Raw {
			reserved := ""
			if f.IsNew {
				reserved = fmt.Sprintf("%08X %08X", uint32(f.Reserved[0]), uint32(f.Reserved[1]))
			}
			row = append(row, reserved)
		}
		rows = append(rows, row)
	}
	p.printf("%s\n", r.table(headers, rows))

	p.section(pal, fmt.Sprintf("[6] Static Fields (%d)", len(c.StaticFields)))
	for i, sf := range c.StaticFields {
		p.printf("  %d: TypeID=%d (%s), CctorID=%d\n", i, sf.TypeID, n.TypeName(sf.TypeID), sf.CctorID)
	}
	p.printf("\n")

	p.section(pal, fmt.Sprintf("[7] Anonymous Storeys (%d)", len(c.AnonymousStoreys)))
	for i, s := range c.AnonymousStoreys {
		p.printf("  %d: Fields=%d, Ctor=%d, CtorParams=%d, Interfaces=%d, VTableSize=%d\n",
			i, len(s.FieldTypes), s.CtorID, s.CtorParamCount, len(s.Interfaces), len(s.VTable))
	}
	p.printf("\n")

	p.section(pal, fmt.Sprintf("[8] Fix Table (%d)", len(c.FixInfos)))
	rows = make([][]string, 0, len(c.FixInfos))
	for _, f := range c.FixInfos {
		rows = append(rows, []string{
			strconv.Itoa(int(f.PatchID)), n.TypeName(f.DeclaringType), f.Name, n.TypeList(f.Params()), n.TypeList(f.GenericArgs()),
		})
	}
	p.printf("%s\n", r.table([]string{"PatchID", "Class", "Method", "Params", "Generic"}, rows))

	p.section(pal, fmt.Sprintf("[9] New Classes (%d)", len(c.NewClasses)))
	for i, name := range c.NewClasses {
		p.printf("  %d: %s\n", i, name)
	}
	p.printf("\n")

	if r.cfg.Raw {
		p.section(pal, fmt.Sprintf("[10] Method Bodies (%d)", len(c.Methods)))
		rows = make([][]string, 0, len(c.Methods))
		for i, m := range c.Methods {
			flags := make([]string, len(m.Handlers))
			for k, h := range m.Handlers {
				flags[k] = fmt.Sprintf("0x%X", uint32(h.ClauseFlag))
			}
			rows = append(rows, []string{
				strconv.Itoa(i), strconv.Itoa(len(m.Instructions)), strconv.Itoa(len(m.Handlers)), strings.Join(flags, " "),
			})
		}
		p.printf("%s\n", r.table([]string{"ID", "Slots", "Handlers", "Clause Flags"}, rows))
	}
	return p.err
}

// Code writes the disassembly of the given patch methods, or of every
// method when none are given. Indices outside the method table are
// skipped.
func (r *Renderer) Code(w io.Writer, methods ...int) error {
	p := &printer{w: w}
	p.section(r.cfg.Palette, "Disassembly")

	if len(methods) == 0 {
		methods = make([]int, len(r.c.Methods))
		for i := range methods {
			methods[i] = i
		}
	}
	for _, id := range methods {
		if id < 0 || id >= len(r.c.Methods) {
			slog.Warn("Method index out of range", "method", id, "methods", len(r.c.Methods))
			continue
		}
		p.printf("%s", r.dis.Text(r.dis.Method(id, r.c.Methods[id])))
	}
	return p.err
}
