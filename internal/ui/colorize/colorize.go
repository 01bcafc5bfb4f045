package colorize

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss/v2"
)

// NoColorEnv disables all styling when set to any non-empty value.
const NoColorEnv = "ILPATCH_NO_COLOR"

// Enabled reports whether colored output is allowed by the environment.
func Enabled() bool {
	return os.Getenv(NoColorEnv) == ""
}

// Palette styles the tokens of a listing. The zero value is plain.
type Palette struct {
	enabled bool

	typ      lipgloss.Style
	member   lipgloss.Style
	literal  lipgloss.Style
	mnemonic lipgloss.Style
	label    lipgloss.Style
	comment  lipgloss.Style
	header   lipgloss.Style
	strong   lipgloss.Style
}

// NewPalette returns the listing palette, or a plain one when enabled is
// false.
func NewPalette(enabled bool) Palette {
	if !enabled {
		return Plain()
	}
	return Palette{
		enabled:  true,
		typ:      lipgloss.NewStyle().Foreground(lipgloss.Color("81")),  // cyan
		member:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // orange
		literal:  lipgloss.NewStyle().Foreground(lipgloss.Color("#EACD53")),
		mnemonic: lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		comment:  lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		strong:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
	}
}

// Plain returns a palette that leaves text untouched.
func Plain() Palette { return Palette{} }

// Enabled reports whether p emits escape sequences.
func (p Palette) Enabled() bool { return p.enabled }

func (p Palette) paint(s lipgloss.Style, text string) string {
	if !p.enabled || text == "" {
		return text
	}
	return s.Render(text)
}

func (p Palette) Type(s string) string     { return p.paint(p.typ, s) }
func (p Palette) Member(s string) string   { return p.paint(p.member, s) }
func (p Palette) Literal(s string) string  { return p.paint(p.literal, s) }
func (p Palette) Mnemonic(s string) string { return p.paint(p.mnemonic, s) }
func (p Palette) Label(s string) string    { return p.paint(p.label, s) }
func (p Palette) Comment(s string) string  { return p.paint(p.comment, s) }
func (p Palette) Header(s string) string   { return p.paint(p.header, s) }
func (p Palette) Strong(s string) string   { return p.paint(p.strong, s) }

// getJSONStyle returns the export style with fallbacks
func getJSONStyle() *chroma.Style {
	for _, name := range []string{"ilpatch-dark", "dracula", "monokai"} {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// JSON highlights a JSON document for a terminal. On any failure, or when
// colors are disabled, the input is returned unchanged.
func JSON(code string) (string, error) {
	if !Enabled() {
		return code, nil
	}

	lexer := lexers.Get("json")
	if lexer == nil {
		return code, nil
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getJSONStyle(), iterator); err != nil {
		return code, err
	}
	return buf.String(), nil
}

// StripANSI removes SGR escape sequences.
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
		} else if inEscape {
			if r == 'm' {
				inEscape = false
			}
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}
