package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	pathpkg "path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/spf13/cobra"

	"ilpatch/internal/opcodes"
	"ilpatch/internal/patch"
	"ilpatch/internal/render"
	"ilpatch/internal/resolve"
	"ilpatch/internal/ui/colorize"
	"ilpatch/internal/unpack"
)

type viewMode int

const (
	viewSummary viewMode = iota
	viewMethods
	viewCode
)

var browseCmd = &cobra.Command{
	Use:          "browse <file>",
	Short:        "Explore a patch interactively",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		signature, _ := cmd.Flags().GetString("signature")

		path, err := pathpkg.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve path: %w", err)
		}

		program := tea.NewProgram(
			newModel(path, unpack.Options{Key: key, Signature: signature}),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	},
}

type methodItem struct {
	id       int
	target   string
	slots    int
	handlers int
}

func (i methodItem) FilterValue() string {
	return fmt.Sprintf("%02d %s", i.id, i.target)
}

type methodDelegate struct{}

func (d methodDelegate) Height() int                               { return 1 }
func (d methodDelegate) Spacing() int                              { return 0 }
func (d methodDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d methodDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(methodItem)
	if !ok {
		return
	}

	indicator := " "
	idStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	if index == m.Index() {
		indicator = ">"
		idStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	}

	target := i.target
	if target == "" {
		target = "(no fix record)"
	}
	fmt.Fprintf(w, " %s  %s  %s  %s",
		indicator,
		idStyle.Render(fmt.Sprintf("%02d", i.id)),
		target,
		lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Render(i.stats()))
}

func (i methodItem) stats() string {
	if i.handlers == 0 {
		return fmt.Sprintf("%d slots", i.slots)
	}
	return fmt.Sprintf("%d slots, %d handlers", i.slots, i.handlers)
}

type model struct {
	summary  viewport.Model
	methods  list.Model
	code     viewport.Model
	spinner  spinner.Model
	mode     viewMode
	path     string
	opts     unpack.Options
	c        *patch.Container
	renderer *render.Renderer
	open     int // method shown in the code view, -1 when none
	err      error
	loading  bool
	width    int
	height   int
}

type containerMsg struct {
	c   *patch.Container
	err error
}

func loadContainerCmd(path string, opts unpack.Options) tea.Cmd {
	return func() tea.Msg {
		c, err := loadContainer(path, opts)
		return containerMsg{c: c, err: err}
	}
}

func newModel(path string, opts unpack.Options) model {
	summary := viewport.New()
	summary.SetWidth(80)
	summary.SetHeight(24)

	code := viewport.New()
	code.SetWidth(80)
	code.SetHeight(24)

	methods := list.New([]list.Item{}, methodDelegate{}, 80, 24)
	methods.SetShowStatusBar(false)
	methods.SetFilteringEnabled(true)
	methods.Title = "Methods"
	methods.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		MarginLeft(2)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	m := model{
		summary: summary,
		methods: methods,
		code:    code,
		spinner: s,
		mode:    viewSummary,
		path:    path,
		opts:    opts,
		open:    -1,
		loading: true,
		width:   80,
		height:  24,
	}
	m.updateSummary()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(loadContainerCmd(m.path, m.opts), m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case containerMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.setContainer(msg.c)
		}
		m.updateSummary()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		m.updateSummary()
		return m, cmd

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if m.mode == viewMethods && m.methods.FilterState() == list.Filtering {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			m.mode = viewSummary
			return m, nil
		case "m":
			if m.c != nil {
				m.mode = viewMethods
			}
			return m, nil
		case "enter":
			if m.mode == viewMethods {
				m.openSelected()
			}
			return m, nil
		case "esc":
			if m.mode == viewCode {
				m.mode = viewMethods
				return m, nil
			}
		case "tab":
			m.cycle(1)
			return m, nil
		case "shift+tab":
			m.cycle(-1)
			return m, nil
		}
	}

	switch m.mode {
	case viewMethods:
		m.methods, cmd = m.methods.Update(msg)
	case viewCode:
		m.code, cmd = m.code.Update(msg)
	default:
		m.summary, cmd = m.summary.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	var content, menu string
	switch m.mode {
	case viewMethods:
		content = m.methods.View()
		menu = " Enter: disassemble • S: summary • Tab: cycle • Q: quit "
	case viewCode:
		content = m.code.View()
		menu = " Esc: methods • S: summary • Tab: cycle • Q: quit "
	default:
		content = m.summary.View()
		if m.c != nil {
			menu = " M: methods • Tab: cycle • Q: quit "
		} else {
			menu = " Q: quit "
		}
	}

	menuStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1).
		Width(m.width)

	return content + "\n" + menuStyle.Render(menu)
}

func (m *model) resize(width, height int) {
	if width == m.width && height == m.height {
		return
	}
	m.width, m.height = width, height
	for _, vp := range []*viewport.Model{&m.summary, &m.code} {
		vp.SetWidth(width)
		vp.SetHeight(height - 2)
	}
	m.methods.SetWidth(width)
	m.methods.SetHeight(height - 2)
	if m.c != nil {
		m.renderer = m.newRenderer()
	}
	m.updateSummary()
}

func (m *model) newRenderer() *render.Renderer {
	return render.New(m.c, opcodes.Default(), render.Config{
		Palette: colorize.NewPalette(colorize.Enabled()),
		Width:   m.width,
	})
}

func (m *model) setContainer(c *patch.Container) {
	m.c = c
	m.renderer = m.newRenderer()

	names := resolve.New(c, resolve.Options{})
	items := make([]list.Item, len(c.Methods))
	for i, body := range c.Methods {
		target, _ := names.PatchTarget(i)
		items[i] = methodItem{id: i, target: target, slots: len(body.Instructions), handlers: len(body.Handlers)}
	}
	m.methods.SetItems(items)
	m.methods.Title = fmt.Sprintf("Methods (%d total)", len(items))
}

// cycle moves through summary, methods and the open listing.
func (m *model) cycle(step int) {
	if m.c == nil {
		return
	}
	modes := []viewMode{viewSummary, viewMethods}
	if m.open >= 0 {
		modes = append(modes, viewCode)
	}
	pos := 0
	for i, mode := range modes {
		if mode == m.mode {
			pos = i
		}
	}
	m.mode = modes[(pos+step+len(modes))%len(modes)]
}

// openSelected disassembles the highlighted method into the code view.
func (m *model) openSelected() {
	item, ok := m.methods.SelectedItem().(methodItem)
	if !ok || m.renderer == nil {
		return
	}
	var buf bytes.Buffer
	if err := m.renderer.Code(&buf, item.id); err != nil {
		slog.Debug("Disassembly failed", "method", item.id, "error", err)
		return
	}
	m.code.SetContent(strings.TrimSuffix(buf.String(), "\n"))
	m.code.GotoTop()
	m.open = item.id
	m.mode = viewCode
}

func (m *model) updateSummary() {
	var body string
	switch {
	case m.loading:
		body = fmt.Sprintf("%s Decoding %s...", m.spinner.View(), pathpkg.Base(m.path))
	case m.err != nil:
		body = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render("Error: " + m.err.Error())
	default:
		var buf bytes.Buffer
		if err := m.renderer.SummaryTerminal(&buf); err != nil {
			slog.Debug("Markdown summary failed", "error", err)
			buf.Reset()
			_ = m.renderer.Summary(&buf)
		}
		body = strings.TrimSuffix(buf.String(), "\n")
	}
	m.summary.SetContent(body)
}
