package ui

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Theme defines the colors used by the selector.
type Theme struct {
	HeaderFG      color.Color // Pane titles and the app title
	SelectedFG    color.Color // Selected row foreground
	SelectedBG    color.Color // Selected row background
	FocusBorder   color.Color // Border around the focused pane
	BlurBorder    color.Color // Border around the other panes
	InputFG       color.Color // Search input text
	StatusColor   color.Color // In-progress status text
	StatusError   color.Color // Failed status text
	StatusSuccess color.Color // Completed status text
	FooterFG      color.Color // Footer text
	FooterBG      color.Color // Footer background
	HelpKey       color.Color // Key labels in the footer
}

// DefaultTheme returns the dark palette.
func DefaultTheme() Theme {
	return Theme{
		HeaderFG:      lipgloss.Color("81"),  // cyan title
		SelectedFG:    lipgloss.Color("250"), // muted light text on selection
		SelectedBG:    lipgloss.Color("24"),  // deep teal selection
		FocusBorder:   lipgloss.Color("81"),
		BlurBorder:    lipgloss.Color("238"),
		InputFG:       lipgloss.Color("246"),
		StatusColor:   lipgloss.Color("81"),
		StatusError:   lipgloss.Color("203"), // softer red for errors
		StatusSuccess: lipgloss.Color("114"), // mint success
		FooterFG:      lipgloss.Color("244"),
		FooterBG:      lipgloss.Color("236"), // charcoal footer background
		HelpKey:       lipgloss.Color("81"),
	}
}

// fg returns a style with the foreground set unless color is disabled.
func fg(c color.Color, noColor bool) lipgloss.Style {
	s := lipgloss.NewStyle()
	if noColor || c == nil {
		return s
	}
	return s.Foreground(c)
}
