package ui

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
)

type keyHint struct {
	key   string
	label string
}

// footerHints lists the key bindings shown in the footer.
func footerHints(protocols bool) []keyHint {
	hints := []keyHint{
		{"enter", "search"},
		{"tab", "next pane"},
		{"↑/↓", "move"},
	}
	if protocols {
		hints = append(hints, keyHint{"C-p", "protocol"})
	}
	return append(hints,
		keyHint{"C-s", "accept"},
		keyHint{"esc", "cancel/quit"},
	)
}

// renderFooter renders the selected value on the first line and the key
// hints on the second, both clipped to width.
func renderFooter(value string, hints []keyHint, width int, th Theme, noColor bool) string {
	if width <= 0 {
		width = 80
	}
	if value == "" {
		value = "(nothing selected)"
	}
	valueLine := fg(th.HeaderFG, noColor).Bold(!noColor).Render("value: ") + value

	parts := make([]string, 0, len(hints))
	keyStyle := fg(th.HelpKey, noColor).Bold(!noColor)
	for _, h := range hints {
		parts = append(parts, keyStyle.Render(h.key)+" "+h.label)
	}
	hintLine := strings.Join(parts, "  ")

	style := lipgloss.NewStyle().Width(width)
	if !noColor {
		style = style.Foreground(th.FooterFG).Background(th.FooterBG)
	}
	lines := []string{
		clip(valueLine, width),
		style.Render(clip(hintLine, width)),
	}
	return strings.Join(lines, "\n")
}

// clip truncates s to width display cells.
func clip(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if !strings.Contains(s, "\x1b") {
		return runewidth.Truncate(s, width, "…")
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
