package formatter

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/paramsel/internal/directory"
)

var tableColumns = []string{"DEVICE", "PROPERTY", "FIELDS"}

// FormatAsTable renders one row per property. Columns share the available
// width proportionally to their natural width; the FIELDS column absorbs
// truncation first.
func FormatAsTable(batch directory.Batch, opts Options) string {
	rows := tableRows(batch, opts.NoFields)
	if len(rows) == 0 {
		return ""
	}
	columns := tableColumns
	if opts.NoFields {
		columns = columns[:2]
	}

	width := opts.Width
	if width <= 0 {
		width = getTerminalWidth()
	}
	widths := columnWidths(columns, rows, width)

	var b strings.Builder
	sep := "  "
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = style(headerStyle, runewidth.FillRight(c, widths[i]), opts.NoColor)
	}
	b.WriteString(strings.Join(header, sep) + "\n")
	b.WriteString(style(separatorStyle, strings.Repeat("─", sum(widths)+len(sep)*(len(widths)-1)), opts.NoColor) + "\n")

	for _, row := range rows {
		parts := make([]string, len(columns))
		for i := range columns {
			cell := runewidth.FillRight(runewidth.Truncate(row[i], widths[i], "..."), widths[i])
			if i == 0 {
				parts[i] = style(keyStyle, cell, opts.NoColor)
			} else {
				parts[i] = style(valueStyle, cell, opts.NoColor)
			}
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, sep), " ") + "\n")
	}
	return b.String()
}

func tableRows(batch directory.Batch, noFields bool) [][]string {
	var rows [][]string
	for _, dev := range batch {
		if len(dev.Children) == 0 {
			rows = append(rows, []string{dev.Name, "", ""})
			continue
		}
		for i, prop := range dev.Children {
			name := dev.Name
			if i > 0 {
				name = ""
			}
			fields := ""
			if !noFields {
				fields = strings.Join(directory.Batch(prop.Children).Names(), ", ")
			}
			rows = append(rows, []string{name, prop.Name, fields})
		}
	}
	return rows
}

// columnWidths returns the natural width of every column, shrinking the
// last column (and then the others) until the row fits in total.
func columnWidths(columns []string, rows [][]string, total int) []int {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = runewidth.StringWidth(c)
	}
	for _, row := range rows {
		for i := range columns {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	usable := total - 2*(len(columns)-1)
	const minWidth = 6
	for i := len(widths) - 1; i >= 0 && sum(widths) > usable; i-- {
		excess := sum(widths) - usable
		widths[i] = max(widths[i]-excess, minWidth)
	}
	return widths
}

func sum(ns []int) int {
	t := 0
	for _, n := range ns {
		t += n
	}
	return t
}

func style(s lipgloss.Style, text string, noColor bool) string {
	if noColor {
		return text
	}
	return s.Render(text)
}
