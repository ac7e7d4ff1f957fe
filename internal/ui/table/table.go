// Package table provides the single-column list pane used by the
// interactive selector.
package table

import (
	"fmt"
	"image/color"

	bubtable "charm.land/bubbles/v2/table"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

// Pane is a titled, single-selection list. It satisfies results.View so a
// proxy can drive it, and reports cursor moves through the OnSelect
// callback.
type Pane struct {
	table  bubtable.Model
	styles bubtable.Styles
	title  string
	names  []string

	// highlight is the proxy's selection; -1 renders no selected row.
	highlight int
	onSelect  func(row int)

	width   int
	height  int
	focused bool
	noColor bool

	selectedFG color.Color
	selectedBG color.Color
}

// NewPane creates an empty pane with the given column title.
func NewPane(title string) *Pane {
	t := bubtable.New(
		bubtable.WithColumns([]bubtable.Column{{Title: title, Width: 20}}),
		bubtable.WithFocused(false),
		bubtable.WithHeight(5),
	)

	s := bubtable.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Bold(true).
		Align(lipgloss.Left).
		PaddingLeft(0).
		PaddingRight(0)
	s.Selected = s.Selected.
		PaddingLeft(0).
		PaddingRight(0)
	s.Cell = lipgloss.NewStyle().
		Align(lipgloss.Left).
		PaddingLeft(0).
		PaddingRight(0)
	t.SetStyles(s)

	p := &Pane{
		table:     t,
		styles:    s,
		title:     title,
		highlight: -1,
	}
	p.SetSize(20, 5)
	p.applyColorScheme()
	return p
}

// Title returns the column title.
func (p *Pane) Title() string { return p.title }

// OnSelect registers the callback invoked when the user moves the cursor.
func (p *Pane) OnSelect(fn func(row int)) { p.onSelect = fn }

// SetRows replaces the listed names.
func (p *Pane) SetRows(names []string) {
	p.names = append([]string(nil), names...)
	if p.highlight >= len(p.names) {
		p.highlight = -1
	}
	p.syncRows()
	p.syncCursor()
}

// syncRows copies the names into the table. Without color the selected
// row is marked with "> ".
func (p *Pane) syncRows() {
	rows := make([]bubtable.Row, len(p.names))
	for i, n := range p.names {
		switch {
		case !p.noColor:
		case i == p.highlight:
			n = "> " + n
		default:
			n = "  " + n
		}
		rows[i] = bubtable.Row{n}
	}
	p.table.SetRows(rows)
}

// Names returns the listed names.
func (p *Pane) Names() []string { return p.names }

// Highlight marks row as selected. -1 clears the selection.
func (p *Pane) Highlight(row int) {
	if row < -1 || row >= len(p.names) {
		row = -1
	}
	p.highlight = row
	if p.noColor {
		p.syncRows()
	}
	p.syncCursor()
	p.applyColorScheme()
}

// Highlighted returns the highlighted row, or -1.
func (p *Pane) Highlighted() int { return p.highlight }

// VisibleRows returns how many rows fit below the header.
func (p *Pane) VisibleRows() int {
	return p.height - lipgloss.Height(p.styles.Header.Render(p.title))
}

// AtBottom reports whether the last row is highlighted.
func (p *Pane) AtBottom() bool {
	return len(p.names) > 0 && p.highlight == len(p.names)-1
}

func (p *Pane) syncCursor() {
	if p.highlight >= 0 {
		p.table.SetCursor(p.highlight)
		return
	}
	if len(p.names) > 0 {
		p.table.SetCursor(0)
	}
}

// SetSize sets the pane dimensions. The height includes the header.
func (p *Pane) SetSize(width, height int) {
	if width < 4 {
		width = 4
	}
	if height < 3 {
		height = 3
	}
	p.width = width
	p.height = height
	p.table.SetColumns([]bubtable.Column{{Title: p.title, Width: width}})
	p.table.SetWidth(width)
	p.table.SetHeight(height)
}

// Focus gives the pane keyboard focus.
func (p *Pane) Focus() {
	p.focused = true
	p.table.Focus()
}

// Blur removes keyboard focus.
func (p *Pane) Blur() {
	p.focused = false
	p.table.Blur()
}

// Focused reports whether the pane has keyboard focus.
func (p *Pane) Focused() bool { return p.focused }

// SetNoColor enables/disables color output.
func (p *Pane) SetNoColor(noColor bool) {
	p.noColor = noColor
	p.syncRows()
	p.syncCursor()
	p.applyColorScheme()
}

// SetColors sets the selected row colors.
func (p *Pane) SetColors(selectedFG, selectedBG color.Color) {
	p.selectedFG = selectedFG
	p.selectedBG = selectedBG
	p.applyColorScheme()
}

func (p *Pane) applyColorScheme() {
	s := p.styles

	if p.noColor {
		s.Header = s.Header.UnsetForeground().UnsetBackground().UnsetBold()
		s.Selected = s.Selected.UnsetForeground().UnsetBackground().UnsetBold()
		s.Cell = s.Cell.UnsetForeground().UnsetBackground()
	} else {
		if p.selectedFG != nil {
			s.Selected = s.Selected.Foreground(p.selectedFG)
		}
		if p.selectedBG != nil {
			s.Selected = s.Selected.Background(p.selectedBG)
		}
	}
	if p.highlight < 0 {
		s.Selected = s.Cell
	}

	p.table.SetStyles(s)
}

// Update moves the selection on up/down/home/end and forwards paging keys
// to the underlying table. Moves are reported through OnSelect.
func (p *Pane) Update(msg tea.Msg) (*Pane, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok || len(p.names) == 0 {
		return p, nil
	}

	next := p.highlight
	switch key.String() {
	case "up", "k":
		if next < 0 {
			next = len(p.names) - 1
		} else if next > 0 {
			next--
		}
	case "down", "j":
		if next < len(p.names)-1 {
			next++
		}
	case "home", "g":
		next = 0
	case "end", "G":
		next = len(p.names) - 1
	default:
		prev := p.table.Cursor()
		var cmd tea.Cmd
		p.table, cmd = p.table.Update(msg)
		if cur := p.table.Cursor(); cur != prev {
			p.choose(cur)
		}
		return p, cmd
	}
	p.choose(next)
	return p, nil
}

func (p *Pane) choose(row int) {
	if row == p.highlight || row < 0 || row >= len(p.names) {
		return
	}
	p.Highlight(row)
	if p.onSelect != nil {
		p.onSelect(row)
	}
}

// View renders the pane to a string. Without color the output carries no
// escape sequences.
func (p *Pane) View() string {
	if p.noColor {
		return ansi.Strip(p.table.View())
	}
	return p.table.View()
}

// Height returns the rendered height of the pane (including header).
func (p *Pane) Height() int {
	return lipgloss.Height(p.View())
}

// Width returns the rendered width of the pane.
func (p *Pane) Width() int {
	return lipgloss.Width(p.View())
}

// String returns a string representation for debugging.
func (p *Pane) String() string {
	return fmt.Sprintf("Pane[%s rows=%d highlight=%d]", p.title, len(p.names), p.highlight)
}
