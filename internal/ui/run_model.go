package ui

import (
	"context"
	"os"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"
)

// Result is what the user chose in the selector.
type Result struct {
	// Value is the selected parameter name, "" when nothing complete was
	// selected.
	Value string
	// Accepted is true when the user confirmed with ctrl+s rather than
	// quitting.
	Accepted bool
}

// Run starts the selector and blocks until the user accepts or quits.
// Width/height of 0 will auto-detect the terminal size (falling back to
// the size reported by the terminal at runtime). Extra ProgramOptions
// (e.g., custom IO) are passed to tea.NewProgram.
func Run(ctx context.Context, opts Options, width, height int, progOpts ...tea.ProgramOption) (Result, error) {
	var prog *tea.Program
	wake := func() {
		// Send blocks until the event loop reads, and posts may come from
		// inside Update.
		go prog.Send(drainMsg{})
	}

	m, err := NewModel(ctx, opts, wake)
	if err != nil {
		return Result{}, err
	}

	if width > 0 || height > 0 {
		runW, runH := width, height
		if runW <= 0 || runH <= 0 {
			if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
				if runW <= 0 {
					runW = w
				}
				if runH <= 0 {
					runH = h
				}
			}
		}
		if runW <= 0 {
			runW = 80
		}
		if runH <= 0 {
			runH = 24
		}
		m.width = runW
		m.height = runH
		m.layout()
		progOpts = append(progOpts, tea.WithWindowSize(runW, runH))
	}

	prog = tea.NewProgram(m, append([]tea.ProgramOption{tea.WithContext(ctx)}, progOpts...)...)
	finalModel, err := prog.Run()
	res := Result{}
	if fm, ok := finalModel.(*Model); ok && fm != nil {
		fm.coord.Cancel()
		res = Result{Value: fm.Value(), Accepted: fm.Accepted()}
	}
	return res, err
}

// RenderSnapshot runs the initial query without a terminal and returns the
// selector screen once the search settled. Width/height of 0 fall back to
// 80x24.
func RenderSnapshot(ctx context.Context, opts Options, width, height int) (string, error) {
	m, err := NewModel(ctx, opts, nil)
	if err != nil {
		return "", err
	}
	defer m.coord.Cancel()

	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	m.width, m.height = width, height
	m.layout()

	if m.initialQuery != "" {
		m.search(m.initialQuery)
		for m.coord.Active() != nil || m.coord.Root().Loading() {
			if _, err := m.queue.WaitAndDrain(ctx); err != nil {
				return "", err
			}
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	m.queue.Drain()
	return m.render(), nil
}
