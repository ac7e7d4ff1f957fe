// Package formatter renders search results for the non-interactive CLI.
package formatter

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"golang.org/x/term"

	"github.com/oakwood-commons/paramsel/internal/directory"
)

// Format selects an output renderer. It implements pflag.Value.
type Format string

const (
	FormatTree  Format = "tree"
	FormatList  Format = "list"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
)

// ValidFormats lists the accepted --output values.
var ValidFormats = []Format{FormatTree, FormatList, FormatTable, FormatYAML, FormatJSON}

// String implements pflag.Value.
func (f *Format) String() string {
	return string(*f)
}

// Set implements pflag.Value.
func (f *Format) Set(v string) error {
	for _, valid := range ValidFormats {
		if strings.EqualFold(v, string(valid)) {
			*f = valid
			return nil
		}
	}
	names := make([]string, len(ValidFormats))
	for i, valid := range ValidFormats {
		names[i] = string(valid)
	}
	return fmt.Errorf("invalid output format %q: valid values are %s", v, strings.Join(names, ", "))
}

// Type implements pflag.Value.
func (f *Format) Type() string {
	return "format"
}

// Options control rendering.
type Options struct {
	// NoColor disables ANSI styling.
	NoColor bool
	// NoFields stops at properties; list output prints device/property.
	NoFields bool
	// Width is the table width. Zero uses the terminal width.
	Width int
	// Protocol prefixes list output, e.g. rda3:///dev/prop.
	Protocol string
}

// Render renders batch in the requested format.
func Render(batch directory.Batch, format Format, opts Options) (string, error) {
	switch format {
	case FormatTree, "":
		return FormatAsTree(batch, opts), nil
	case FormatList:
		return FormatAsList(batch, opts), nil
	case FormatTable:
		return FormatAsTable(batch, opts), nil
	case FormatYAML:
		return FormatYAMLValue(Records(batch, opts.NoFields), YAMLFormatOptions{})
	case FormatJSON:
		b, err := json.MarshalIndent(Records(batch, opts.NoFields), "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode json: %w", err)
		}
		return string(b) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}

// Records converts result nodes back into directory records for structured
// output.
func Records(batch directory.Batch, noFields bool) []directory.Device {
	out := make([]directory.Device, 0, len(batch))
	for _, dev := range batch {
		d := directory.Device{Name: dev.Name}
		for _, prop := range dev.Children {
			p := directory.Property{Name: prop.Name}
			if !noFields {
				for _, f := range prop.Children {
					p.Fields = append(p.Fields, f.Name)
				}
			}
			d.Properties = append(d.Properties, p)
		}
		out = append(out, d)
	}
	return out
}

var (
	defaultHeaderFG   = lipgloss.Color("12")
	defaultHeaderBG   = lipgloss.Color("236")
	defaultKeyColor   = lipgloss.Color("14")
	defaultValueColor = lipgloss.Color("248")
	defaultSeparator  = lipgloss.Color("240")

	headerStyle    lipgloss.Style
	keyStyle       lipgloss.Style
	valueStyle     lipgloss.Style
	separatorStyle lipgloss.Style
)

// TableColors controls the rendered colors for the formatter table.
// Empty fields fall back to the defaults (ANSI 256 codes).
type TableColors struct {
	HeaderFG       color.Color
	HeaderBG       color.Color
	KeyColor       color.Color
	ValueColor     color.Color
	SeparatorColor color.Color
}

func orDefault(c, def color.Color) color.Color {
	if c == nil {
		return def
	}
	return c
}

// SetTableTheme overrides the table styles. Zero-valued fields fall back to
// the defaults.
func SetTableTheme(tc TableColors) {
	headerStyle = lipgloss.NewStyle().Bold(true).
		Foreground(orDefault(tc.HeaderFG, defaultHeaderFG)).
		Background(orDefault(tc.HeaderBG, defaultHeaderBG))
	keyStyle = lipgloss.NewStyle().Foreground(orDefault(tc.KeyColor, defaultKeyColor))
	valueStyle = lipgloss.NewStyle().Foreground(orDefault(tc.ValueColor, defaultValueColor))
	separatorStyle = lipgloss.NewStyle().Foreground(orDefault(tc.SeparatorColor, defaultSeparator))
}

//nolint:gochecknoinits // initialize default table theme for package consumers
func init() {
	SetTableTheme(TableColors{})
}

// getTerminalWidth returns the terminal width, or a default if detection fails
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 120
	}
	return width
}
