// Package ui implements the interactive parameter selector: a search input
// above three linked lists (devices, properties, fields).
package ui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/oakwood-commons/paramsel/internal/directory"
	"github.com/oakwood-commons/paramsel/internal/results"
	"github.com/oakwood-commons/paramsel/internal/scheduler"
	"github.com/oakwood-commons/paramsel/internal/search"
	"github.com/oakwood-commons/paramsel/internal/ui/table"
	"github.com/oakwood-commons/paramsel/pkg/logger"
	"github.com/oakwood-commons/paramsel/pkg/paramname"
)

// Options configure the selector.
type Options struct {
	Source   directory.Source
	Selector search.SelectorOptions

	// Query is searched as soon as the program starts.
	Query string
	// Protocol preselects a protocol when protocols are enabled.
	Protocol string

	NoColor    bool
	ListHeight int
	Theme      *Theme
}

// drainMsg asks the model to run callbacks posted by background work.
type drainMsg struct{}

// searchMsg starts a search as if the user had typed query and pressed
// enter.
type searchMsg struct {
	query string
}

const focusInput = 0

// Model is the bubbletea model of the selector.
type Model struct {
	ctx      context.Context
	queue    *scheduler.Manual
	coord    *search.Coordinator
	selector *search.Selector

	input    textinput.Model
	panes    []*table.Pane
	bindings []*results.Binding
	// focus is focusInput or 1 + the index of the focused pane.
	focus  int
	status statusLine

	theme        Theme
	noColor      bool
	listHeight   int
	width        int
	height       int
	initialQuery string
	accepted     bool
	notice       string
}

// NewModel builds a selector over opts.Source. wake is called whenever
// background work posts a callback; the program answers it by delivering a
// drainMsg. A nil wake leaves draining to the caller.
func NewModel(ctx context.Context, opts Options, wake func()) (*Model, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("no directory source configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	queue := scheduler.NewManual()
	sched := scheduler.Func(func(fn func()) {
		queue.Post(fn)
		if wake != nil {
			wake()
		}
	})

	coord := search.NewCoordinator(ctx, sched, opts.Source)
	sel := search.NewSelector(coord, opts.Selector)
	if opts.Protocol != "" {
		if !opts.Selector.EnableProtocols {
			return nil, fmt.Errorf("protocol %q given but protocols are disabled", opts.Protocol)
		}
		if err := sel.SetProtocol(opts.Protocol); err != nil {
			return nil, err
		}
	}

	th := DefaultTheme()
	if opts.Theme != nil {
		th = *opts.Theme
	}
	listHeight := opts.ListHeight
	if listHeight <= 0 {
		listHeight = 12
	}

	ti := textinput.New()
	ti.Placeholder = "device or device/property#field"
	ti.CharLimit = 500
	ti.SetWidth(80)
	ti.Prompt = ""
	ti.SetValue(opts.Query)
	ti.Focus()

	m := &Model{
		ctx:          ctx,
		queue:        queue,
		coord:        coord,
		selector:     sel,
		input:        ti,
		status:       newStatusLine(coord.Status()),
		theme:        th,
		noColor:      opts.NoColor,
		listHeight:   listHeight,
		initialQuery: strings.TrimSpace(opts.Query),
	}

	proxies := []*results.Proxy{coord.Devices(), coord.Properties()}
	titles := []string{"DEVICE", "PROPERTY"}
	if opts.Selector.EnableFields {
		proxies = append(proxies, coord.Fields())
		titles = append(titles, "FIELD")
	}
	for i, proxy := range proxies {
		pane := table.NewPane(titles[i])
		pane.SetColors(th.SelectedFG, th.SelectedBG)
		pane.SetNoColor(opts.NoColor)
		b := proxy.Install(pane)
		pane.OnSelect(b.UserSelected)
		m.panes = append(m.panes, pane)
		m.bindings = append(m.bindings, b)
	}

	coord.StatusChanged.Connect(func(u search.StatusUpdate) {
		m.status.update = u
		m.refreshCounts()
	})
	root := coord.Root()
	root.Reset.Connect(func(struct{}) {
		m.refreshCounts()
		m.fillDevices()
	})
	root.Appended.Connect(func(int) {
		m.refreshCounts()
		m.fillDevices()
	})
	root.LoadingChanged.Connect(func(v bool) {
		m.status.loading = v
		m.refreshCounts()
	})

	m.layout()
	return m, nil
}

// Value returns the selected parameter name.
func (m *Model) Value() string { return m.selector.Value() }

// Accepted reports whether the user confirmed the selection with ctrl+s.
func (m *Model) Accepted() bool { return m.accepted }

// Selector returns the selector driven by the model.
func (m *Model) Selector() *search.Selector { return m.selector }

// Focus returns focusInput or 1 + the index of the focused pane.
func (m *Model) Focus() int { return m.focus }

func (m *Model) refreshCounts() {
	root := m.coord.Root()
	m.status.rows = root.RowCount()
	m.status.more = root.CanFetchMore()
}

// Init starts the cursor blink and the initial search, if any.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.initialQuery != "" {
		q := m.initialQuery
		cmds = append(cmds, func() tea.Msg { return searchMsg{query: q} })
	}
	return tea.Batch(cmds...)
}

// Update handles messages and runs any callbacks posted by background work.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case drainMsg:
		// handled below
	case searchMsg:
		m.search(msg.query)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
	case spinner.TickMsg:
		cmds = append(cmds, m.status.Update(msg))
	case tea.KeyPressMsg:
		cmd, quit := m.handleKey(msg)
		if quit {
			m.queue.Drain()
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.queue.Drain()
	cmds = append(cmds, m.status.ticks()...)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Cmd, bool) {
	keyStr := msg.String()
	m.notice = ""

	switch keyStr {
	case "ctrl+c":
		m.coord.Cancel()
		return nil, true
	case "esc":
		if m.coord.Cancel() {
			return nil, false
		}
		return nil, true
	case "ctrl+s":
		m.accepted = true
		return nil, true
	case "enter":
		m.search(m.input.Value())
		return nil, false
	case "tab":
		return m.cycleFocus(1), false
	case "shift+tab":
		return m.cycleFocus(-1), false
	case "ctrl+p":
		if m.selector.Options().EnableProtocols {
			m.selector.CycleProtocol()
		}
		return nil, false
	}

	if m.focus == focusInput {
		switch keyStr {
		case "up", "down", "pgup", "pgdown":
			return m.movePane(0, msg), false
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd, false
	}
	return m.movePane(m.focus-1, msg), false
}

func (m *Model) movePane(i int, msg tea.KeyPressMsg) tea.Cmd {
	_, cmd := m.panes[i].Update(msg)
	if i == 0 && m.panes[0].AtBottom() {
		m.fetchMore()
	}
	return cmd
}

// fillDevices loads further pages while the device pane has empty rows.
func (m *Model) fillDevices() {
	if m.coord.Devices().RowCount() < m.panes[0].VisibleRows() {
		m.fetchMore()
	}
}

func (m *Model) fetchMore() {
	root := m.coord.Root()
	if !root.CanFetchMore() || m.coord.Active() != nil {
		return
	}
	logger.FromContext(m.ctx).V(1).Info("fetching next page", "rows", root.RowCount())
	m.coord.FetchMore()
}

// search starts a search for query. Full parameter names go through the
// selector so the protocol and field are kept.
func (m *Model) search(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		m.notice = "Type a device name first"
		return
	}
	m.input.SetValue(query)
	if _, ok := paramname.Parse(query); ok {
		if _, err := m.selector.SetValue(query); err != nil {
			m.notice = err.Error()
		}
		return
	}
	m.coord.RequestSearch(query)
}

func (m *Model) cycleFocus(delta int) tea.Cmd {
	n := len(m.panes) + 1
	m.focus = ((m.focus+delta)%n + n) % n

	for i, p := range m.panes {
		if m.focus == i+1 {
			p.Focus()
		} else {
			p.Blur()
		}
	}
	if m.focus == focusInput {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

func (m *Model) layout() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.input.SetWidth(width - 10)

	listHeight := m.listHeight
	if m.height > 0 {
		// title, input, status, blank and two footer lines, plus pane borders
		if avail := m.height - 10; avail < listHeight {
			listHeight = avail
		}
	}
	if listHeight < 3 {
		listHeight = 3
	}

	paneWidth := (width - 2*len(m.panes)) / len(m.panes)
	for _, p := range m.panes {
		p.SetSize(paneWidth, listHeight)
	}
	m.fillDevices()
}

// View renders the selector.
func (m *Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	// Enable keyboard enhancements for proper modifier key detection (e.g., Shift+Tab)
	v.KeyboardEnhancements.ReportEventTypes = true
	return v
}

func (m *Model) render() string {
	th := m.theme
	width := m.width
	if width <= 0 {
		width = 80
	}

	title := fg(th.HeaderFG, m.noColor).Bold(!m.noColor).Render("paramsel")
	if p := m.selector.Protocol(); m.selector.Options().EnableProtocols {
		if p == "" {
			p = "none"
		}
		title += "  protocol: " + p
	}

	prompt := "search: "
	if m.focus == focusInput {
		prompt = fg(th.HeaderFG, m.noColor).Render("search: ")
	}
	inputLine := prompt + m.input.View()

	statusLine := m.status.View(th, m.noColor)
	if m.notice != "" {
		statusLine = fg(th.StatusError, m.noColor).Render(m.notice)
	}

	boxes := make([]string, len(m.panes))
	for i, p := range m.panes {
		border := lipgloss.NewStyle().Border(lipgloss.NormalBorder())
		if !m.noColor {
			c := th.BlurBorder
			if p.Focused() {
				c = th.FocusBorder
			}
			border = border.BorderForeground(c)
		}
		boxes[i] = border.Render(p.View())
	}
	panes := lipgloss.JoinHorizontal(lipgloss.Top, boxes...)

	footer := renderFooter(m.Value(), footerHints(m.selector.Options().EnableProtocols), width, th, m.noColor)

	out := strings.Join([]string{
		clip(title, width),
		clip(inputLine, width),
		clip(statusLine, width),
		panes,
		footer,
	}, "\n")
	if m.noColor {
		// The input cursor and spinners style themselves.
		out = ansi.Strip(out)
	}
	return out
}
