package ui

import (
	"fmt"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/paramsel/internal/search"
)

// statusLine renders the coordinator status: a spinner while a search is in
// progress, the failure message, or a summary once complete. A second
// spinner shows while another page is loading.
type statusLine struct {
	update  search.StatusUpdate
	rows    int
	more    bool
	loading bool

	spinner    spinner.Model
	aux        spinner.Model
	ticking    bool
	auxTicking bool
}

func newStatusLine(initial search.StatusUpdate) statusLine {
	s := spinner.New()
	s.Spinner = spinner.Dot
	a := spinner.New()
	a.Spinner = spinner.MiniDot
	return statusLine{update: initial, spinner: s, aux: a}
}

// ticks returns the spinner commands that must start because their phase
// began. Each spinner keeps at most one tick chain alive.
func (sl *statusLine) ticks() []tea.Cmd {
	var cmds []tea.Cmd
	if sl.update.Status == search.InProgress && !sl.ticking {
		sl.ticking = true
		cmds = append(cmds, sl.spinner.Tick)
	}
	if sl.loading && !sl.auxTicking {
		sl.auxTicking = true
		cmds = append(cmds, sl.aux.Tick)
	}
	return cmds
}

// Update advances whichever spinner the tick belongs to. A chain whose
// phase ended stops here.
func (sl *statusLine) Update(msg spinner.TickMsg) tea.Cmd {
	var cmd tea.Cmd
	switch msg.ID {
	case sl.spinner.ID():
		if sl.update.Status != search.InProgress {
			sl.ticking = false
			return nil
		}
		sl.spinner, cmd = sl.spinner.Update(msg)
	case sl.aux.ID():
		if !sl.loading {
			sl.auxTicking = false
			return nil
		}
		sl.aux, cmd = sl.aux.Update(msg)
	}
	return cmd
}

// View renders the status line.
func (sl *statusLine) View(th Theme, noColor bool) string {
	var line string
	switch sl.update.Status {
	case search.InProgress:
		line = sl.spinner.View() + " " + fg(th.StatusColor, noColor).Render(sl.update.Message)
	case search.Failed:
		style := fg(th.StatusError, noColor)
		if sl.update.Message == search.DefaultHint {
			style = fg(th.StatusColor, noColor)
		}
		line = style.Render(sl.update.Message)
	default:
		line = fg(th.StatusSuccess, noColor).Bold(!noColor).Render(sl.summary())
	}
	if sl.loading {
		line = lipgloss.JoinHorizontal(lipgloss.Top, line, "  ", sl.aux.View(), " loading more...")
	}
	return line
}

func (sl *statusLine) summary() string {
	if sl.update.Message != "" {
		return sl.update.Message
	}
	noun := "devices"
	if sl.rows == 1 {
		noun = "device"
	}
	more := ""
	if sl.more {
		more = " (scroll for more)"
	}
	return fmt.Sprintf("%d %s matching %q%s", sl.rows, noun, sl.update.Query, more)
}
