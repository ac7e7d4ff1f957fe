// Package tui embeds the interactive parameter selector in host programs.
package tui

import (
	"context"
	"io"
	"os"
	"strconv"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/oakwood-commons/paramsel/internal/search"
	"github.com/oakwood-commons/paramsel/internal/ui"
	"github.com/oakwood-commons/paramsel/pkg/core"
)

// defaultFallbackTermWidth is used when terminal size cannot be detected.
const defaultFallbackTermWidth = 120

// DetectTerminalSize returns the best-effort terminal width and height by probing
// stdout, stderr, and stdin, then falling back to the COLUMNS environment variable.
// If detection fails completely, returns generous defaults (120, 24) to avoid
// overly narrow output in CI or non-TTY environments.
func DetectTerminalSize() (width int, height int) {
	fds := []uintptr{os.Stdout.Fd(), os.Stderr.Fd(), os.Stdin.Fd()}
	for _, fd := range fds {
		if w, h, err := term.GetSize(int(fd)); err == nil && (w > 0 || h > 0) {
			return w, h
		}
	}
	if col := os.Getenv("COLUMNS"); col != "" {
		if w, err := strconv.Atoi(col); err == nil && w > 0 {
			return w, 0
		}
	}
	return defaultFallbackTermWidth, 24
}

// Config controls the selector.
type Config struct {
	// Query is searched as soon as the selector opens.
	Query string
	// Protocol preselects a protocol; it requires EnableProtocols.
	Protocol string

	EnableFields    bool
	EnableProtocols bool

	NoColor    bool
	ListHeight int

	// Width and Height fix the screen size. Zero means the terminal size.
	Width  int
	Height int
}

// Result is what the user chose.
type Result = ui.Result

func (c Config) options(source core.Source) ui.Options {
	return ui.Options{
		Source: source,
		Selector: search.SelectorOptions{
			EnableFields:    c.EnableFields,
			EnableProtocols: c.EnableProtocols,
		},
		Query:      c.Query,
		Protocol:   c.Protocol,
		NoColor:    c.NoColor,
		ListHeight: c.ListHeight,
	}
}

// Select opens the selector over source and blocks until the user accepts
// with ctrl+s or quits. Host applications can pass optional
// tea.ProgramOption values to control IO.
func Select(ctx context.Context, source core.Source, cfg Config, opts ...tea.ProgramOption) (Result, error) {
	return ui.Run(ctx, cfg.options(source), cfg.Width, cfg.Height, opts...)
}

// RenderSnapshot searches cfg.Query and returns the selector screen as a
// string, without reading keys. It is meant for non-interactive display
// and tests.
func RenderSnapshot(ctx context.Context, source core.Source, cfg Config) (string, error) {
	width, height := cfg.Width, cfg.Height
	if width <= 0 || height <= 0 {
		w, h := DetectTerminalSize()
		if width <= 0 {
			width = w
		}
		if height <= 0 {
			height = h
		}
	}
	return ui.RenderSnapshot(ctx, cfg.options(source), width, height)
}

// WithIO returns tea.ProgramOptions to set custom input/output.
func WithIO(in io.Reader, out io.Writer) []tea.ProgramOption {
	opts := []tea.ProgramOption{}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	return opts
}
